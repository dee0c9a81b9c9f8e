// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext extracts the embedded text layer from scanned directory
// PDFs. The directories were digitized with an OCR layer baked into the
// PDF; this stage recovers it as the "original" hypothesis source.
package pdftext

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// Extractor reads per-page text from a PDF. The production implementation
// is MuPDF; tests substitute a fake.
type Extractor interface {
	// PageCount returns the number of pages in the PDF.
	PageCount(pdfPath string) (int, error)

	// PageText returns the embedded text of page (1-based).
	PageText(pdfPath string, page int) (string, error)
}

// FitzExtractor is the MuPDF-backed Extractor.
type FitzExtractor struct{}

func (FitzExtractor) PageCount(pdfPath string) (int, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

func (FitzExtractor) PageText(pdfPath string, page int) (string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer doc.Close()
	text, err := doc.Text(page - 1)
	if err != nil {
		return "", fmt.Errorf("extracting page %d: %w", page, err)
	}
	return text, nil
}

// BatchResult holds the outcome of a batch extraction run.
type BatchResult struct {
	Extracted int
	Failed    int
}

// Total returns the number of pages processed.
func (r BatchResult) Total() int {
	return r.Extracted + r.Failed
}

// HasFailures reports whether any pages failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ExtractPDF writes the embedded text of every page of pdfPath into
// outputDir as <stem>-page-NNNN.txt files. Per-page failures are reported
// on w and counted; they do not abort the run. When outputDir is empty the
// text is written to w with page separators instead.
func ExtractPDF(ex Extractor, pdfPath, outputDir string, w io.Writer) (BatchResult, error) {
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))

	count, err := ex.PageCount(pdfPath)
	if err != nil {
		return BatchResult{}, fmt.Errorf("page count of %s: %w", pdfPath, err)
	}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return BatchResult{}, fmt.Errorf("creating %s: %w", outputDir, err)
		}
	}

	var result BatchResult
	for page := 1; page <= count; page++ {
		text, err := ex.PageText(pdfPath, page)
		if err != nil {
			fmt.Fprintf(w, "failed:  page %d (%v)\n", page, err)
			result.Failed++
			continue
		}

		if outputDir == "" {
			fmt.Fprintf(w, "=== PAGE %d ===\n%s\n\n", page, strings.TrimSpace(text))
			result.Extracted++
			continue
		}

		ref := types.PageRef{Year: stem, Page: page}
		outPath := filepath.Join(outputDir, ref.Stem()+".txt")
		if err := os.WriteFile(outPath, []byte(strings.TrimSpace(text)), 0o644); err != nil {
			fmt.Fprintf(w, "failed:  page %d (%v)\n", page, err)
			result.Failed++
			continue
		}
		result.Extracted++
	}

	fmt.Fprintf(w, "\nExtracted %d/%d pages from %s\n", result.Extracted, count, filepath.Base(pdfPath))
	return result, nil
}

// ExtractYear extracts the embedded text of one directory year into
// cfg.OutputDir/<year>/.
func ExtractYear(ex Extractor, cfg types.PDFTextConfig, year string, w io.Writer) (BatchResult, error) {
	pdfPath := filepath.Join(cfg.PDFsDir, year+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return BatchResult{}, fmt.Errorf("source PDF %s: %w", pdfPath, err)
	}
	return ExtractPDF(ex, pdfPath, filepath.Join(cfg.OutputDir, year), w)
}
