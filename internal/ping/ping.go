// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ping verifies API connectivity and credentials for both vendors
// before long runs are started.
package ping

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/renyi/annuaire-pipeline/internal/correct"
)

// openaiModelsURL is the OpenAI model listing endpoint. Package-level var
// for test substitution.
var openaiModelsURL = "https://api.openai.com/v1/models"

// defaultGeminiModel answers the Gemini round trip.
const defaultGeminiModel = "gemini-2.5-flash"

// OpenAI checks that the OpenAI key can list models.
func OpenAI(ctx context.Context, apiKey string, client *http.Client) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openaiModelsURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling OpenAI API: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OpenAI API returned %d", resp.StatusCode)
	}
	return nil
}

// Gemini checks that the Gemini key can answer a one-word generation.
func Gemini(ctx context.Context, apiKey, model string) error {
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("creating Gemini client: %w", err)
	}

	contents := []*genai.Content{genai.NewContentFromText("Réponds uniquement: pong", genai.RoleUser)}
	resp, err := client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return fmt.Errorf("calling Gemini API: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("Gemini API returned no candidates")
	}
	return nil
}

// All pings every vendor a key is present for, reporting each outcome on
// w. It returns an error when every attempted ping failed or no keys were
// given.
func All(ctx context.Context, keys correct.KeySet, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	attempted, failed := 0, 0
	if keys.OpenAI != "" {
		attempted++
		if err := OpenAI(ctx, keys.OpenAI, nil); err != nil {
			fmt.Fprintf(w, "openai: %v\n", err)
			failed++
		} else {
			fmt.Fprintln(w, "openai: ok")
		}
	}
	if keys.Gemini != "" {
		attempted++
		if err := Gemini(ctx, keys.Gemini, ""); err != nil {
			fmt.Fprintf(w, "gemini: %v\n", err)
			failed++
		} else {
			fmt.Fprintln(w, "gemini: ok")
		}
	}

	if attempted == 0 {
		return fmt.Errorf("no API keys configured")
	}
	if failed == attempted {
		return fmt.Errorf("all pings failed")
	}
	return nil
}
