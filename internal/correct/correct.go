// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package correct

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// retryBaseDelay is the base for the exponential backoff between correction
// attempts. Package-level var for test substitution.
var retryBaseDelay = time.Second

// BatchResult summarizes one correction run.
type BatchResult struct {
	Corrected int
	Skipped   int
	Failed    int
}

// Total returns the number of pages examined.
func (r BatchResult) Total() int {
	return r.Corrected + r.Skipped + r.Failed
}

// HasFailures reports whether any page failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Summary is the per-run record written next to the corrected TSVs.
type Summary struct {
	Year       string             `yaml:"year"`
	Source     types.OCRSource    `yaml:"source"`
	Model      string             `yaml:"model"`
	StartedAt  time.Time          `yaml:"started_at"`
	FinishedAt time.Time          `yaml:"finished_at"`
	Corrected  int                `yaml:"corrected"`
	Skipped    int                `yaml:"skipped"`
	Failed     int                `yaml:"failed"`
	Pages      []types.PageResult `yaml:"pages"`
}

// CorrectYear runs the model over every OCR text file of one year and
// writes a TSV per page under <output>/<source>/<model>/<year>/. Pages with
// existing output are skipped. A non-empty pages list restricts the run to
// those page numbers. Per-page failures are reported on w and counted; the
// run continues.
func CorrectYear(ctx context.Context, b Backend, cfg types.CorrectionConfig, source types.OCRSource, year string, pages []int, w io.Writer) (BatchResult, error) {
	inputDir, ok := cfg.OCRDirs[source]
	if !ok {
		return BatchResult{}, fmt.Errorf("no OCR directory configured for source %q", source)
	}
	yearDir := filepath.Join(inputDir, year)

	entries, err := os.ReadDir(yearDir)
	if err != nil {
		return BatchResult{}, fmt.Errorf("reading OCR directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return BatchResult{}, fmt.Errorf("no OCR text files found in %s", yearDir)
	}

	wanted := make(map[int]bool, len(pages))
	for _, p := range pages {
		wanted[p] = true
	}

	outDir := filepath.Join(cfg.OutputDir, string(source), cfg.Model, year)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchResult{}, fmt.Errorf("creating output directory: %w", err)
	}

	summary := Summary{
		Year:      year,
		Source:    source,
		Model:     cfg.Model,
		StartedAt: time.Now().UTC(),
	}

	var result BatchResult
	for _, name := range files {
		stem := strings.TrimSuffix(name, ".txt")
		page, err := pageFromStem(stem)
		if err != nil {
			fmt.Fprintf(w, "skipped: %s (%v)\n", name, err)
			result.Skipped++
			continue
		}
		if len(wanted) > 0 && !wanted[page] {
			continue
		}

		outPath := filepath.Join(outDir, stem+".tsv")
		if _, err := os.Stat(outPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (output exists)\n", stem)
			result.Skipped++
			continue
		}

		pr := correctPage(ctx, b, filepath.Join(yearDir, name), outPath, stem, cfg.Model, cfg.MaxRetries)
		summary.Pages = append(summary.Pages, pr)
		if pr.Success {
			fmt.Fprintf(w, "corrected: %s (%.1fs)\n", stem, pr.Duration)
			result.Corrected++
		} else {
			fmt.Fprintf(w, "failed: %s (%s)\n", stem, pr.Error)
			result.Failed++
		}

		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if cfg.PageDelay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(cfg.PageDelay):
			}
		}
	}

	summary.FinishedAt = time.Now().UTC()
	summary.Corrected = result.Corrected
	summary.Skipped = result.Skipped
	summary.Failed = result.Failed
	if err := writeSummary(outDir, summary); err != nil {
		return result, err
	}

	fmt.Fprintf(w, "%s/%s/%s: %d corrected, %d skipped, %d failed\n",
		source, cfg.Model, year, result.Corrected, result.Skipped, result.Failed)
	return result, nil
}

// correctPage sends one page through the backend. A backend error or an
// invalid table is retried with exponential backoff up to maxRetries
// attempts (default 3).
func correctPage(ctx context.Context, b Backend, inPath, outPath, stem, model string, maxRetries int) types.PageResult {
	start := time.Now()
	pr := types.PageResult{Page: stem, Model: model}

	data, err := os.ReadFile(inPath)
	if err != nil {
		pr.Error = err.Error()
		return pr
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			pr.Retries = attempt
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * retryBaseDelay
			select {
			case <-ctx.Done():
				pr.Duration = time.Since(start).Seconds()
				pr.Error = ctx.Err().Error()
				return pr
			case <-time.After(backoff):
			}
		}

		reply, err := b.Correct(ctx, string(data))
		if err != nil {
			lastErr = err
			continue
		}
		tsv := CleanResponse(reply)
		if err := ValidateTSV(tsv); err != nil {
			lastErr = fmt.Errorf("invalid table: %w", err)
			continue
		}
		if err := os.WriteFile(outPath, []byte(tsv+"\n"), 0o644); err != nil {
			pr.Duration = time.Since(start).Seconds()
			pr.Error = err.Error()
			return pr
		}
		pr.Duration = time.Since(start).Seconds()
		pr.Success = true
		return pr
	}

	pr.Duration = time.Since(start).Seconds()
	pr.Error = lastErr.Error()
	return pr
}

func writeSummary(outDir string, s Summary) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	path := filepath.Join(outDir, "processing_summary.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

// pageFromStem extracts the page number from a stem like "1887-page-0032".
func pageFromStem(stem string) (int, error) {
	i := strings.LastIndex(stem, "-page-")
	if i < 0 {
		return 0, fmt.Errorf("no page number in %q", stem)
	}
	page, err := strconv.Atoi(stem[i+len("-page-"):])
	if err != nil {
		return 0, fmt.Errorf("no page number in %q", stem)
	}
	return page, nil
}
