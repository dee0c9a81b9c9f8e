// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"google.golang.org/genai"
)

// GeminiClient drives the Gemini batch API. Requests travel inlined in the
// job rather than through the file store, so results come back inside the
// job record and are paired with their pages by position.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Submit reads a Gemini JSONL request file and starts a batch job over its
// requests.
func (c *GeminiClient) Submit(ctx context.Context, model, requestsPath string) (Job, error) {
	lines, err := readGeminiRequests(requestsPath)
	if err != nil {
		return Job{}, err
	}

	inlined := make([]*genai.InlinedRequest, 0, len(lines))
	for _, line := range lines {
		var contents []*genai.Content
		for _, content := range line.Request.Contents {
			parts := make([]*genai.Part, 0, len(content.Parts))
			for _, p := range content.Parts {
				if p.InlineData != nil {
					data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
					if err != nil {
						return Job{}, fmt.Errorf("decoding inline data for %s: %w", line.Key, err)
					}
					parts = append(parts, genai.NewPartFromBytes(data, p.InlineData.MIMEType))
					continue
				}
				parts = append(parts, genai.NewPartFromText(p.Text))
			}
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
		}
		inlined = append(inlined, &genai.InlinedRequest{
			Contents: contents,
			Config: &genai.GenerateContentConfig{
				Temperature: genai.Ptr(float32(0)),
			},
		})
	}

	job, err := c.client.Batches.Create(ctx, model,
		&genai.BatchJobSource{InlinedRequests: inlined},
		&genai.CreateBatchJobConfig{DisplayName: filepath.Base(requestsPath)})
	if err != nil {
		return Job{}, fmt.Errorf("creating Gemini batch: %w", err)
	}

	return Job{
		ID:     job.Name,
		Vendor: "gemini",
		Status: string(job.State),
		Total:  len(lines),
	}, nil
}

// GetBatch fetches the current state of a batch job.
func (c *GeminiClient) GetBatch(ctx context.Context, name string) (Job, error) {
	job, err := c.client.Batches.Get(ctx, name, nil)
	if err != nil {
		return Job{}, fmt.Errorf("fetching Gemini batch: %w", err)
	}
	j := Job{
		ID:     job.Name,
		Vendor: "gemini",
		Status: string(job.State),
	}
	if job.Dest != nil {
		j.Done = len(job.Dest.InlinedResponses)
	}
	return j, nil
}

// Result is one harvested page from a finished batch.
type Result struct {
	Key  string
	Text string
	Err  string
}

// Results fetches a finished job and pairs its responses with the request
// keys by position. The job must have succeeded.
func (c *GeminiClient) Results(ctx context.Context, name, requestsPath string) ([]Result, error) {
	job, err := c.client.Batches.Get(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching Gemini batch: %w", err)
	}
	if job.State != genai.JobStateSucceeded {
		return nil, fmt.Errorf("batch %s is %s, not succeeded", name, job.State)
	}
	if job.Dest == nil {
		return nil, fmt.Errorf("batch %s has no results", name)
	}

	lines, err := readGeminiRequests(requestsPath)
	if err != nil {
		return nil, err
	}
	if len(job.Dest.InlinedResponses) != len(lines) {
		return nil, fmt.Errorf("batch %s returned %d responses for %d requests",
			name, len(job.Dest.InlinedResponses), len(lines))
	}

	results := make([]Result, 0, len(lines))
	for i, resp := range job.Dest.InlinedResponses {
		r := Result{Key: lines[i].Key}
		switch {
		case resp.Error != nil:
			r.Err = resp.Error.Message
		case resp.Response == nil:
			r.Err = "empty response"
		default:
			text, err := candidateText(resp.Response)
			if err != nil {
				r.Err = err.Error()
			} else {
				r.Text = text
			}
		}
		results = append(results, r)
	}
	return results, nil
}

func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates in response")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text, nil
		}
	}
	return "", fmt.Errorf("no text part in response")
}

func readGeminiRequests(path string) ([]geminiBatchLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening request file: %w", err)
	}
	defer f.Close()

	var lines []geminiBatchLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var line geminiBatchLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return nil, fmt.Errorf("parsing request file: %w", err)
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading request file: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no requests in %s", path)
	}
	return lines, nil
}
