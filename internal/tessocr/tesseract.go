// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tessocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// TesseractEngine implements Engine on the gosseract client.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs the Tesseract-backed engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

// Recognize runs Tesseract on the image at imgPath. The directories are
// French; cfg defaults apply when Language or PSM are unset.
func (e *TesseractEngine) Recognize(imgPath string, cfg types.OCRConfig) (string, error) {
	c := e.clientFactory()
	defer c.Close()

	lang := cfg.Language
	if lang == "" {
		lang = "fra"
	}
	if err := c.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("set language %q: %w", lang, err)
	}

	psm := cfg.PSM
	if psm == 0 {
		psm = 3
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
		return "", fmt.Errorf("set page segmentation mode %d: %w", psm, err)
	}

	if err := c.SetImage(imgPath); err != nil {
		return "", fmt.Errorf("set image %s: %w", imgPath, err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize %s: %w", imgPath, err)
	}
	return text, nil
}
