// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package correct

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/renyi/annuaire-pipeline/internal/prompt"
	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// DefaultModels is the model matrix for a full correction sweep, vendors
// interleaved so neither API is hit in a long uninterrupted run.
var DefaultModels = []string{
	"gpt-5-mini",
	"gemini-2.5-flash",
	"gpt-5",
	"gemini-2.5-pro",
}

// runSources are the OCR inputs swept by RunAll.
var runSources = []types.OCRSource{types.SourceOriginal, types.SourceTesseract}

// KeySet carries one API key per vendor.
type KeySet struct {
	OpenAI string
	Gemini string
}

func (k KeySet) forVendor(v Vendor) (string, error) {
	switch v {
	case VendorOpenAI:
		if k.OpenAI == "" {
			return "", fmt.Errorf("missing OpenAI API key")
		}
		return k.OpenAI, nil
	case VendorGemini:
		if k.Gemini == "" {
			return "", fmt.Errorf("missing Gemini API key")
		}
		return k.Gemini, nil
	}
	return "", fmt.Errorf("unknown vendor %q", v)
}

// RunAll sweeps every model over every OCR source for one year. Models
// default to DefaultModels. Each model/source pair runs to completion
// before the next starts; a failing pair aborts the sweep.
func RunAll(ctx context.Context, cfg types.CorrectionConfig, keys KeySet, year string, pages []int, models []string, w io.Writer) (BatchResult, error) {
	if len(models) == 0 {
		models = DefaultModels
	}

	instructions, err := prompt.Correction(cfg.PromptDir)
	if err != nil {
		return BatchResult{}, err
	}

	for _, source := range runSources {
		dir, ok := cfg.OCRDirs[source]
		if !ok {
			return BatchResult{}, fmt.Errorf("no OCR directory configured for source %q", source)
		}
		if _, err := os.Stat(filepath.Join(dir, year)); err != nil {
			return BatchResult{}, fmt.Errorf("OCR input missing for %s/%s: %w", source, year, err)
		}
	}

	var total BatchResult
	for _, model := range models {
		vendor, err := ModelVendor(model)
		if err != nil {
			return total, err
		}
		key, err := keys.forVendor(vendor)
		if err != nil {
			return total, err
		}

		runCfg := cfg
		runCfg.Model = model
		runCfg.APIKey = key

		backend, err := NewBackend(ctx, runCfg.AIConfig, instructions)
		if err != nil {
			return total, err
		}

		for _, source := range runSources {
			fmt.Fprintf(w, "=== %s / %s / %s ===\n", source, model, year)
			res, err := CorrectYear(ctx, backend, runCfg, source, year, pages, w)
			total.Corrected += res.Corrected
			total.Skipped += res.Skipped
			total.Failed += res.Failed
			if err != nil {
				return total, fmt.Errorf("%s/%s: %w", source, model, err)
			}
		}
	}

	fmt.Fprintf(w, "sweep complete: %d corrected, %d skipped, %d failed\n",
		total.Corrected, total.Skipped, total.Failed)
	return total, nil
}
