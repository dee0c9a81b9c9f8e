// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vision transcribes page images directly with multimodal models,
// with no OCR pass in front. Its output is the only-llm hypothesis tree.
package vision

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/renyi/annuaire-pipeline/internal/correct"
	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// retryBaseDelay is the base for the exponential backoff between
// transcription attempts. Package-level var for test substitution.
var retryBaseDelay = time.Second

// Backend transcribes one page image into a TSV table.
type Backend interface {
	Transcribe(ctx context.Context, imagePath string) (string, error)
}

// NewBackend builds the vision backend matching the configured model.
func NewBackend(ctx context.Context, cfg types.AIConfig, instructions string) (Backend, error) {
	vendor, err := correct.ModelVendor(cfg.Model)
	if err != nil {
		return nil, err
	}
	switch vendor {
	case correct.VendorOpenAI:
		return &OpenAIVision{
			APIKey:       cfg.APIKey,
			Model:        cfg.Model,
			Instructions: instructions,
			MaxRetries:   cfg.MaxRetries,
		}, nil
	case correct.VendorGemini:
		return NewGeminiVision(ctx, cfg, instructions)
	}
	return nil, fmt.Errorf("unsupported vendor %q", vendor)
}

// BatchResult summarizes one vision run.
type BatchResult struct {
	Transcribed int
	Skipped     int
	Failed      int
}

// HasFailures reports whether any page failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// TranscribePage runs the model over one page image and writes
// <output>/<stem>-<model>.tsv.
func TranscribePage(ctx context.Context, b Backend, cfg types.VisionConfig, ref types.PageRef, w io.Writer) (BatchResult, error) {
	imgPath := filepath.Join(cfg.ImagesDir, ref.Year, ref.Stem()+".png")
	if _, err := os.Stat(imgPath); err != nil {
		return BatchResult{}, fmt.Errorf("page image missing: %w", err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return BatchResult{}, fmt.Errorf("creating output directory: %w", err)
	}
	var result BatchResult
	transcribeFile(ctx, b, cfg, imgPath, outPath(cfg, ref), &result, w)
	return result, nil
}

// TranscribeYear runs the model over every page image of a year.
func TranscribeYear(ctx context.Context, b Backend, cfg types.VisionConfig, year string, w io.Writer) (BatchResult, error) {
	pattern := filepath.Join(cfg.ImagesDir, year, "*.png")
	images, err := filepath.Glob(pattern)
	if err != nil {
		return BatchResult{}, fmt.Errorf("listing images: %w", err)
	}
	if len(images) == 0 {
		return BatchResult{}, fmt.Errorf("no PNG files found in %s", filepath.Join(cfg.ImagesDir, year))
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return BatchResult{}, fmt.Errorf("creating output directory: %w", err)
	}

	var result BatchResult
	for _, imgPath := range images {
		stem := stemOf(imgPath)
		out := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s-%s.tsv", stem, cfg.Model))
		transcribeFile(ctx, b, cfg, imgPath, out, &result, w)
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
	}
	fmt.Fprintf(w, "%s/%s: %d transcribed, %d skipped, %d failed\n",
		cfg.Model, year, result.Transcribed, result.Skipped, result.Failed)
	return result, nil
}

// transcribeFile sends one page image through the backend. A backend error
// or an invalid table is retried with exponential backoff up to
// cfg.MaxRetries attempts (default 3).
func transcribeFile(ctx context.Context, b Backend, cfg types.VisionConfig, imgPath, out string, result *BatchResult, w io.Writer) {
	stem := stemOf(imgPath)
	if _, err := os.Stat(out); err == nil {
		fmt.Fprintf(w, "skipped: %s (output exists)\n", stem)
		result.Skipped++
		return
	}

	start := time.Now()
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var tsv string
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * retryBaseDelay
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
			case <-time.After(backoff):
			}
			if ctx.Err() != nil {
				break
			}
		}

		reply, err := b.Transcribe(ctx, imgPath)
		if err != nil {
			lastErr = err
			continue
		}
		t := correct.CleanResponse(reply)
		if err := correct.ValidateTSV(t); err != nil {
			lastErr = fmt.Errorf("invalid table: %w", err)
			continue
		}
		tsv, lastErr = t, nil
		break
	}
	if lastErr != nil {
		fmt.Fprintf(w, "failed: %s (%v)\n", stem, lastErr)
		result.Failed++
		return
	}

	if err := os.WriteFile(out, []byte(tsv+"\n"), 0o644); err != nil {
		fmt.Fprintf(w, "failed: %s (%v)\n", stem, err)
		result.Failed++
		return
	}
	fmt.Fprintf(w, "transcribed: %s (%.1fs)\n", stem, time.Since(start).Seconds())
	result.Transcribed++
}

func outPath(cfg types.VisionConfig, ref types.PageRef) string {
	return filepath.Join(cfg.OutputDir, fmt.Sprintf("%s-%s.tsv", ref.Stem(), cfg.Model))
}

func stemOf(imgPath string) string {
	base := filepath.Base(imgPath)
	return base[:len(base)-len(filepath.Ext(base))]
}
