// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch builds, submits, and harvests vendor batch jobs that run
// the correction prompt over many pages at once, at half the interactive
// API price.
package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/renyi/annuaire-pipeline/internal/bench"
	"github.com/renyi/annuaire-pipeline/internal/correct"
	"github.com/renyi/annuaire-pipeline/internal/prompt"
	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// RequestsPath returns the canonical JSONL request file for one
// source/model pair.
func RequestsPath(dir string, source types.OCRSource, model string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-requests-%s.jsonl", source, model))
}

// OutputPath returns where the downloaded results JSONL for one
// source/model pair lands.
func OutputPath(dir string, source types.OCRSource, model string) string {
	base := fmt.Sprintf("%s-requests-%s.output.jsonl", source, model)
	return filepath.Join(dir, "raw-batch-output", base)
}

// RawOutputDir returns the root directory for extracted per-page TSVs.
func RawOutputDir(dir string) string {
	return filepath.Join(dir, "raw-output-tsv")
}

// openaiBatchLine is one request in an OpenAI batch input file.
type openaiBatchLine struct {
	CustomID string          `json:"custom_id"`
	Method   string          `json:"method"`
	URL      string          `json:"url"`
	Body     openaiBatchBody `json:"body"`
}

type openaiBatchBody struct {
	Model        string           `json:"model"`
	Reasoning    *openaiReasoning `json:"reasoning,omitempty"`
	Instructions string           `json:"instructions"`
	Input        string           `json:"input"`
}

type openaiReasoning struct {
	Effort string `json:"effort"`
}

// geminiBatchLine is one request in a Gemini batch input file.
type geminiBatchLine struct {
	Key     string             `json:"key"`
	Request geminiBatchRequest `json:"request"`
}

type geminiBatchRequest struct {
	Contents []geminiBatchContent `json:"contents"`
}

type geminiBatchContent struct {
	Parts []geminiBatchPart `json:"parts"`
}

type geminiBatchPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

// Build writes the JSONL request file for one source/model pair from the
// benchmark rows. Each page becomes one request carrying the correction
// instructions and the page's OCR text.
func Build(cfg types.BatchConfig, rows []bench.Row, source types.OCRSource, model string, w io.Writer) (string, error) {
	instructions, err := prompt.Correction(cfg.PromptDir)
	if err != nil {
		return "", err
	}
	vendor, err := correct.ModelVendor(model)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating batch directory: %w", err)
	}
	path := RequestsPath(cfg.Dir, source, model)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating request file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	for _, row := range rows {
		var line any
		switch vendor {
		case correct.VendorOpenAI:
			line = openaiBatchLine{
				CustomID: row.Ref.Key(),
				Method:   "POST",
				URL:      "/v1/responses",
				Body: openaiBatchBody{
					Model:        model,
					Reasoning:    &openaiReasoning{Effort: effortOrDefault(cfg.ReasoningEffort)},
					Instructions: instructions,
					Input:        prompt.OCRSuffix + row.Text,
				},
			}
		case correct.VendorGemini:
			line = geminiBatchLine{
				Key: row.Ref.Key(),
				Request: geminiBatchRequest{
					Contents: []geminiBatchContent{{
						Parts: []geminiBatchPart{{
							Text: instructions + prompt.OCRSuffix + row.Text,
						}},
					}},
				},
			}
		}
		if err := enc.Encode(line); err != nil {
			return "", fmt.Errorf("encoding request for %s: %w", row.Ref, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return "", fmt.Errorf("writing request file: %w", err)
	}

	fmt.Fprintf(w, "built: %s (%d requests)\n", path, len(rows))
	return path, nil
}

func effortOrDefault(effort string) string {
	if effort == "" {
		return "high"
	}
	return effort
}
