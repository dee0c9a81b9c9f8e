// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

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

// openaiAPIBase is the OpenAI API root. Package-level var for test
// substitution.
var openaiAPIBase = "https://api.openai.com/v1"

// OpenAIClient drives the OpenAI Files and Batches APIs.
type OpenAIClient struct {
	APIKey string
	Client *http.Client
}

type openaiFile struct {
	ID string `json:"id"`
}

type openaiBatch struct {
	ID            string              `json:"id"`
	Status        string              `json:"status"`
	InputFileID   string              `json:"input_file_id"`
	OutputFileID  string              `json:"output_file_id"`
	ErrorFileID   string              `json:"error_file_id"`
	CreatedAt     int64               `json:"created_at"`
	CompletedAt   int64               `json:"completed_at"`
	RequestCounts openaiRequestCounts `json:"request_counts"`
	Errors        json.RawMessage     `json:"errors"`
}

type openaiRequestCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

func (b openaiBatch) job() Job {
	return Job{
		ID:         b.ID,
		Vendor:     "openai",
		Status:     b.Status,
		InputFile:  b.InputFileID,
		OutputFile: b.OutputFileID,
		ErrorFile:  b.ErrorFileID,
		CreatedAt:  b.CreatedAt,
		Completed:  b.CompletedAt,
		Total:      b.RequestCounts.Total,
		Done:       b.RequestCounts.Completed,
		Failed:     b.RequestCounts.Failed,
	}
}

// UploadFile uploads a file (JSONL requests with purpose "batch", page
// images with purpose "vision") and returns the file ID.
func (c *OpenAIClient) UploadFile(ctx context.Context, path, purpose string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("purpose", purpose); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	var f openaiFile
	if err := c.do(ctx, http.MethodPost, "/files", mw.FormDataContentType(), body.Bytes(), &f); err != nil {
		return "", err
	}
	if f.ID == "" {
		return "", fmt.Errorf("upload returned no file ID")
	}
	return f.ID, nil
}

// CreateBatch starts a batch over an uploaded request file.
func (c *OpenAIClient) CreateBatch(ctx context.Context, fileID, completionWindow string) (Job, error) {
	if completionWindow == "" {
		completionWindow = "24h"
	}
	reqBody, err := json.Marshal(map[string]string{
		"input_file_id":     fileID,
		"endpoint":          "/v1/responses",
		"completion_window": completionWindow,
	})
	if err != nil {
		return Job{}, fmt.Errorf("marshaling batch request: %w", err)
	}

	var b openaiBatch
	if err := c.do(ctx, http.MethodPost, "/batches", "application/json", reqBody, &b); err != nil {
		return Job{}, err
	}
	return b.job(), nil
}

// GetBatch fetches the current state of a batch.
func (c *OpenAIClient) GetBatch(ctx context.Context, batchID string) (Job, error) {
	var b openaiBatch
	if err := c.do(ctx, http.MethodGet, "/batches/"+batchID, "", nil, &b); err != nil {
		return Job{}, err
	}
	return b.job(), nil
}

// DownloadOutput fetches a finished batch's output JSONL and writes it to
// path, creating parent directories on the way.
func DownloadOutput(ctx context.Context, c *OpenAIClient, job Job, path string, w io.Writer) error {
	if job.OutputFile == "" {
		return fmt.Errorf("batch %s has no output file", job.ID)
	}
	data, err := c.DownloadFile(ctx, job.OutputFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	fmt.Fprintf(w, "downloaded: %s\n", path)
	return nil
}

// DownloadFile returns the raw content of an output or error file.
func (c *OpenAIClient) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, "/files/"+fileID+"/content", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

func (c *OpenAIClient) do(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	resp, err := c.send(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, string(respBody))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding OpenAI response: %w", err)
	}
	return nil
}

func (c *OpenAIClient) send(ctx context.Context, method, path, contentType string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, openaiAPIBase+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("calling OpenAI API: %w", err)
	}
	return resp, nil
}
