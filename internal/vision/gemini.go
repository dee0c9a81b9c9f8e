// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vision

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/renyi/annuaire-pipeline/internal/prompt"
	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// GeminiVision transcribes a page by uploading its image through the Files
// API and passing the file reference with the prompt.
type GeminiVision struct {
	client       *genai.Client
	model        string
	instructions string
}

// NewGeminiVision creates a Gemini API client for the configured model.
func NewGeminiVision(ctx context.Context, cfg types.AIConfig, instructions string) (*GeminiVision, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &GeminiVision{client: client, model: cfg.Model, instructions: instructions}, nil
}

// Transcribe uploads the page image, then sends the instructions and the
// file reference as one user message and returns the model's text output.
func (v *GeminiVision) Transcribe(ctx context.Context, imagePath string) (string, error) {
	file, err := v.client.Files.UploadFromPath(ctx, imagePath, &genai.UploadFileConfig{
		MIMEType: "image/png",
	})
	if err != nil {
		return "", fmt.Errorf("uploading image: %w", err)
	}

	content := &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			genai.NewPartFromText(v.instructions + prompt.ImageSuffix),
			genai.NewPartFromURI(file.URI, file.MIMEType),
		},
	}
	resp, err := v.client.Models.GenerateContent(ctx, v.model, []*genai.Content{content},
		&genai.GenerateContentConfig{Temperature: genai.Ptr(float32(0))})
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}

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
