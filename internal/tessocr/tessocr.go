// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tessocr runs Tesseract over rendered page images.
package tessocr

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// Engine recognizes text in a single page image. The production engine is
// Tesseract via gosseract; tests substitute a fake.
type Engine interface {
	Recognize(imagePath string, cfg types.OCRConfig) (string, error)
}

// BatchResult holds the outcome of a batch recognition run.
type BatchResult struct {
	Recognized int
	Skipped    int
	Failed     int
}

// Total returns the number of images processed.
func (r BatchResult) Total() int {
	return r.Recognized + r.Skipped + r.Failed
}

// HasFailures reports whether any images failed recognition.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// RecognizePage runs OCR on one page image and writes the text next to its
// siblings under cfg.OutputDir/<year>/. An existing output file is left
// alone.
func RecognizePage(e Engine, cfg types.OCRConfig, ref types.PageRef, w io.Writer) (BatchResult, error) {
	imgPath := filepath.Join(cfg.ImagesDir, ref.Year, ref.Stem()+".png")
	if _, err := os.Stat(imgPath); err != nil {
		return BatchResult{}, fmt.Errorf("page image %s: %w", imgPath, err)
	}
	return recognizeFile(e, cfg, ref.Year, imgPath, w), nil
}

// RecognizeYear runs OCR over every PNG in cfg.ImagesDir/<year>/ in sorted
// order, printing per-file status to w and returning a summary.
func RecognizeYear(e Engine, cfg types.OCRConfig, year string, w io.Writer) (BatchResult, error) {
	imageDir := filepath.Join(cfg.ImagesDir, year)
	entries, err := os.ReadDir(imageDir)
	if err != nil {
		return BatchResult{}, fmt.Errorf("reading image directory %s: %w", imageDir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return BatchResult{}, fmt.Errorf("no PNG files found in %s", imageDir)
	}
	sort.Strings(names)

	var result BatchResult
	for _, name := range names {
		res := recognizeFile(e, cfg, year, filepath.Join(imageDir, name), w)
		result.Recognized += res.Recognized
		result.Skipped += res.Skipped
		result.Failed += res.Failed
	}

	fmt.Fprintf(w, "\n%s: %d recognized, %d skipped, %d failed (total: %d)\n",
		year, result.Recognized, result.Skipped, result.Failed, result.Total())
	return result, nil
}

func recognizeFile(e Engine, cfg types.OCRConfig, year, imgPath string, w io.Writer) BatchResult {
	stem := strings.TrimSuffix(filepath.Base(imgPath), filepath.Ext(imgPath))
	outDir := filepath.Join(cfg.OutputDir, year)
	outPath := filepath.Join(outDir, stem+".txt")

	if _, err := os.Stat(outPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", stem)
		return BatchResult{Skipped: 1}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", stem, err)
		return BatchResult{Failed: 1}
	}

	text, err := e.Recognize(imgPath, cfg)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", stem, err)
		return BatchResult{Failed: 1}
	}

	if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", stem, err)
		return BatchResult{Failed: 1}
	}

	fmt.Fprintf(w, "recognized: %s\n", stem)
	return BatchResult{Recognized: 1}
}
