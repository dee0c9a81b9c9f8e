// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render rasterizes directory PDFs into per-page PNG images with
// pluggable backends.
package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// Renderer rasterizes single PDF pages. Backends (MuPDF in-process,
// pdftoppm via exec) implement this interface.
type Renderer interface {
	// PageCount returns the number of pages in the PDF.
	PageCount(pdfPath string) (int, error)

	// RenderPage writes page (1-based) of the PDF to outPath as a PNG at
	// the given DPI.
	RenderPage(pdfPath string, page, dpi int, outPath string) error
}

// BatchResult holds the outcome of a batch render run.
type BatchResult struct {
	Rendered int
	Skipped  int
	Failed   int
}

// Total returns the total number of pages processed.
func (r BatchResult) Total() int {
	return r.Rendered + r.Skipped + r.Failed
}

// HasFailures reports whether any pages failed to render.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Add merges another result into this one.
func (r *BatchResult) Add(o BatchResult) {
	r.Rendered += o.Rendered
	r.Skipped += o.Skipped
	r.Failed += o.Failed
}

// PDFPath returns the source PDF path for a year.
func PDFPath(cfg types.RenderConfig, year string) string {
	return filepath.Join(cfg.PDFsDir, year+".pdf")
}

// pagePNG returns the output path for one page image, creating the year
// directory on the way.
func pagePNG(cfg types.RenderConfig, ref types.PageRef) (string, error) {
	yearDir := filepath.Join(cfg.ImagesDir, ref.Year)
	if err := os.MkdirAll(yearDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", yearDir, err)
	}
	return filepath.Join(yearDir, ref.Stem()+".png"), nil
}

// RenderPage rasterizes a single page of one year's PDF. It validates the
// page number against the PDF's page count and skips the page when the
// output PNG already exists.
func RenderPage(r Renderer, cfg types.RenderConfig, ref types.PageRef, w io.Writer) (BatchResult, error) {
	pdfPath := PDFPath(cfg, ref.Year)
	if _, err := os.Stat(pdfPath); err != nil {
		return BatchResult{}, fmt.Errorf("source PDF %s: %w", pdfPath, err)
	}

	count, err := r.PageCount(pdfPath)
	if err != nil {
		return BatchResult{}, fmt.Errorf("page count of %s: %w", pdfPath, err)
	}
	if ref.Page < 1 || ref.Page > count {
		return BatchResult{}, fmt.Errorf("page %d does not exist in %s (PDF has %d pages)", ref.Page, pdfPath, count)
	}

	outPath, err := pagePNG(cfg, ref)
	if err != nil {
		return BatchResult{}, err
	}

	if _, err := os.Stat(outPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", ref.Stem())
		return BatchResult{Skipped: 1}, nil
	}

	if err := r.RenderPage(pdfPath, ref.Page, dpiOrDefault(cfg), outPath); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", ref.Stem(), err)
		return BatchResult{Failed: 1}, nil
	}

	fmt.Fprintf(w, "rendered: %s\n", ref.Stem())
	return BatchResult{Rendered: 1}, nil
}

// RenderYear rasterizes every page of one year's PDF, printing per-page
// status to w and returning a summary.
func RenderYear(r Renderer, cfg types.RenderConfig, year string, w io.Writer) (BatchResult, error) {
	pdfPath := PDFPath(cfg, year)
	count, err := r.PageCount(pdfPath)
	if err != nil {
		return BatchResult{}, fmt.Errorf("page count of %s: %w", pdfPath, err)
	}

	var result BatchResult
	for page := 1; page <= count; page++ {
		ref := types.PageRef{Year: year, Page: page}

		outPath, err := pagePNG(cfg, ref)
		if err != nil {
			return result, err
		}
		if _, err := os.Stat(outPath); err == nil {
			result.Skipped++
			continue
		}

		if err := r.RenderPage(pdfPath, page, dpiOrDefault(cfg), outPath); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", ref.Stem(), err)
			result.Failed++
			continue
		}
		result.Rendered++
	}

	fmt.Fprintf(w, "%s: %d rendered, %d skipped, %d failed (total: %d)\n",
		year, result.Rendered, result.Skipped, result.Failed, result.Total())
	return result, nil
}

// Years returns the year names of all PDFs in the source directory, sorted.
// When requested is non-empty only those years are returned; a requested
// year with no PDF is an error. (Targets mode skips missing PDFs with a
// warning instead; see RenderTargets.)
func Years(cfg types.RenderConfig, requested []string, w io.Writer) ([]string, error) {
	if len(requested) > 0 {
		years := make([]string, 0, len(requested))
		for _, y := range requested {
			y = strings.TrimSuffix(y, ".pdf")
			if _, err := os.Stat(PDFPath(cfg, y)); err != nil {
				return nil, fmt.Errorf("no PDF for %s in %s", y, cfg.PDFsDir)
			}
			years = append(years, y)
		}
		return years, nil
	}

	entries, err := os.ReadDir(cfg.PDFsDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", cfg.PDFsDir, err)
	}
	var years []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pdf") {
			continue
		}
		years = append(years, strings.TrimSuffix(e.Name(), ".pdf"))
	}
	return years, nil
}

func dpiOrDefault(cfg types.RenderConfig) int {
	if cfg.DPI > 0 {
		return cfg.DPI
	}
	return 300
}
