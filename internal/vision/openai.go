// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/renyi/annuaire-pipeline/internal/httputil"
)

// OpenAI endpoints. Package-level vars for test substitution.
var (
	openaiResponsesURL = "https://api.openai.com/v1/responses"
	openaiFilesURL     = "https://api.openai.com/v1/files"
)

// OpenAIVision transcribes a page by uploading its image to the Files API
// and referencing the file ID in a Responses call.
type OpenAIVision struct {
	APIKey       string
	Model        string
	Instructions string
	MaxRetries   int
	Client       *http.Client
}

type visionRequest struct {
	Model        string          `json:"model"`
	Instructions string          `json:"instructions"`
	Input        []visionMessage `json:"input"`
}

type visionMessage struct {
	Role    string       `json:"role"`
	Content []visionPart `json:"content"`
}

type visionPart struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	FileID string `json:"file_id,omitempty"`
}

type visionResponse struct {
	Output []visionOutput `json:"output"`
	Error  *visionError   `json:"error"`
}

type visionOutput struct {
	Type    string       `json:"type"`
	Content []visionPart `json:"content"`
}

type visionError struct {
	Message string `json:"message"`
}

type visionFile struct {
	ID string `json:"id"`
}

// Transcribe uploads the page image, then sends a Responses request that
// references the uploaded file and returns the model's text output.
func (v *OpenAIVision) Transcribe(ctx context.Context, imagePath string) (string, error) {
	fileID, err := v.uploadImage(ctx, imagePath)
	if err != nil {
		return "", err
	}

	reqBody := visionRequest{
		Model:        v.Model,
		Instructions: v.Instructions,
		Input: []visionMessage{{
			Role: "user",
			Content: []visionPart{
				{Type: "input_image", FileID: fileID},
			},
		}},
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
	req.Header.Set("Authorization", "Bearer "+v.APIKey)

	resp, err := httputil.DoWithRetry(ctx, v.httpClient(), req, v.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, string(body))
	}

	var vResp visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&vResp); err != nil {
		return "", fmt.Errorf("decoding OpenAI response: %w", err)
	}
	if vResp.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s", vResp.Error.Message)
	}
	for _, item := range vResp.Output {
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

// uploadImage sends the PNG to the Files API with purpose "vision" and
// returns the file ID.
func (v *OpenAIVision) uploadImage(ctx context.Context, imagePath string) (string, error) {
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("purpose", "vision"); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	part, err := mw.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if _, err := part.Write(img); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiFilesURL, bytes.NewReader(body.Bytes()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+v.APIKey)

	resp, err := httputil.DoWithRetry(ctx, v.httpClient(), req, v.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("uploading image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, string(respBody))
	}
	var f visionFile
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return "", fmt.Errorf("decoding upload response: %w", err)
	}
	if f.ID == "" {
		return "", fmt.Errorf("upload returned no file ID")
	}
	return f.ID, nil
}

func (v *OpenAIVision) httpClient() *http.Client {
	if v.Client != nil {
		return v.Client
	}
	return http.DefaultClient
}
