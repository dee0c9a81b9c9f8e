// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package correct runs LLM post-correction over raw OCR text, turning each
// page into a structured TSV of directory entries.
package correct

import (
	"context"
	"fmt"
	"strings"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// Vendor identifies which API family serves a model.
type Vendor string

const (
	VendorOpenAI Vendor = "openai"
	VendorGemini Vendor = "gemini"
)

// ModelVendor maps a model identifier to its vendor by name prefix.
func ModelVendor(model string) (Vendor, error) {
	switch {
	case strings.HasPrefix(model, "gpt-"), strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return VendorOpenAI, nil
	case strings.HasPrefix(model, "gemini-"):
		return VendorGemini, nil
	default:
		return "", fmt.Errorf("cannot determine vendor for model %q", model)
	}
}

// Backend corrects one page of OCR text into a TSV table.
type Backend interface {
	// Correct sends the OCR text to the model and returns its raw reply.
	Correct(ctx context.Context, ocrText string) (string, error)
}

// NewBackend builds the backend matching the configured model. The
// instructions string is the assembled correction prompt.
func NewBackend(ctx context.Context, cfg types.AIConfig, instructions string) (Backend, error) {
	vendor, err := ModelVendor(cfg.Model)
	if err != nil {
		return nil, err
	}
	switch vendor {
	case VendorOpenAI:
		return &OpenAIBackend{
			APIKey:       cfg.APIKey,
			Model:        cfg.Model,
			Instructions: instructions,
			MaxRetries:   cfg.MaxRetries,
		}, nil
	case VendorGemini:
		return NewGeminiBackend(ctx, cfg, instructions)
	}
	return nil, fmt.Errorf("unsupported vendor %q", vendor)
}
