// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package correct

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/renyi/annuaire-pipeline/internal/prompt"
	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// geminiRetryBaseDelay controls backoff between failed Gemini calls.
// Tests override this to avoid real sleeps.
var geminiRetryBaseDelay = 5 * time.Second

// GeminiBackend calls the Gemini API to correct one page of OCR text.
// Generation runs at temperature 0 so the table output stays stable.
type GeminiBackend struct {
	client       *genai.Client
	model        string
	instructions string
	maxRetries   int
}

// NewGeminiBackend creates a Gemini API client for the configured model.
func NewGeminiBackend(ctx context.Context, cfg types.AIConfig, instructions string) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &GeminiBackend{
		client:       client,
		model:        cfg.Model,
		instructions: instructions,
		maxRetries:   cfg.MaxRetries,
	}, nil
}

// Correct sends the full prompt and OCR text as a single user message and
// returns the model's text output. Failed calls are retried with
// exponential backoff.
func (b *GeminiBackend) Correct(ctx context.Context, ocrText string) (string, error) {
	full := b.instructions + prompt.OCRSuffix + ocrText
	contents := []*genai.Content{genai.NewContentFromText(full, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0)),
	}

	maxRetries := b.maxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * geminiRetryBaseDelay
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, config)
		if err != nil {
			lastErr = fmt.Errorf("calling Gemini API: %w", err)
			continue
		}
		text, err := geminiText(resp)
		if err != nil {
			lastErr = err
			continue
		}
		return text, nil
	}
	return "", lastErr
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("Gemini API returned no candidates")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text, nil
		}
	}
	return "", fmt.Errorf("no text part in Gemini response")
}
