// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"image/png"
	"os"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer rasterizes pages in-process through MuPDF. It is the default
// backend: no external binary required.
type FitzRenderer struct{}

// NewFitzRenderer creates the MuPDF-backed renderer.
func NewFitzRenderer() *FitzRenderer {
	return &FitzRenderer{}
}

func (f *FitzRenderer) PageCount(pdfPath string) (int, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// RenderPage rasterizes one page and encodes it as PNG. The page argument
// is 1-based; go-fitz indexes from 0.
func (f *FitzRenderer) RenderPage(pdfPath string, page, dpi int, outPath string) error {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer doc.Close()

	img, err := doc.ImageDPI(page-1, float64(dpi))
	if err != nil {
		return fmt.Errorf("rasterizing page %d: %w", page, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("encoding %s: %w", outPath, err)
	}
	return nil
}

// Info holds basic PDF facts for the info command.
type Info struct {
	PageCount int
	Metadata  map[string]string
}

// PDFInfo opens a PDF and reports its page count and document metadata.
func PDFInfo(pdfPath string) (Info, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return Info{}, fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer doc.Close()

	return Info{
		PageCount: doc.NumPage(),
		Metadata:  doc.Metadata(),
	}, nil
}
