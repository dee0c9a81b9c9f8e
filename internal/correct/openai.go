// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package correct

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/renyi/annuaire-pipeline/internal/httputil"
	"github.com/renyi/annuaire-pipeline/internal/prompt"
)

// openaiResponsesURL is the OpenAI Responses API endpoint. Package-level
// var for test substitution.
var openaiResponsesURL = "https://api.openai.com/v1/responses"

// OpenAIBackend calls the OpenAI Responses API to correct one page of OCR
// text. Rate-limit retries are handled by httputil.DoWithRetry.
type OpenAIBackend struct {
	APIKey       string
	Model        string
	Instructions string
	MaxRetries   int
	Client       *http.Client
}

type openaiRequest struct {
	Model        string `json:"model"`
	Instructions string `json:"instructions"`
	Input        string `json:"input"`
}

type openaiResponse struct {
	Output []openaiOutputItem `json:"output"`
	Error  *openaiError       `json:"error"`
}

type openaiOutputItem struct {
	Type    string          `json:"type"`
	Content []openaiContent `json:"content"`
}

type openaiContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openaiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Correct sends the OCR text to the Responses API and returns the model's
// text output.
func (b *OpenAIBackend) Correct(ctx context.Context, ocrText string) (string, error) {
	reqBody := openaiRequest{
		Model:        b.Model,
		Instructions: b.Instructions,
		Input:        prompt.OCRSuffix + ocrText,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiResponsesURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, b.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, string(body))
	}

	var oResp openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return "", fmt.Errorf("decoding OpenAI response: %w", err)
	}
	if oResp.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s", oResp.Error.Message)
	}

	return extractOutputText(oResp.Output)
}

// extractOutputText pulls the first output_text block from a Responses API
// output array.
func extractOutputText(output []openaiOutputItem) (string, error) {
	for _, item := range output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" {
				return c.Text, nil
			}
		}
	}
	return "", fmt.Errorf("no output_text in OpenAI response")
}
