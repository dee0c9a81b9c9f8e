// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/renyi/annuaire-pipeline/internal/prompt"
	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// openaiImageLine is one vision request in an OpenAI batch input file. The
// page image is referenced by file ID, so the PNG must be in the file store
// before the batch is submitted.
type openaiImageLine struct {
	CustomID string          `json:"custom_id"`
	Method   string          `json:"method"`
	URL      string          `json:"url"`
	Body     openaiImageBody `json:"body"`
}

type openaiImageBody struct {
	Model        string               `json:"model"`
	Reasoning    *openaiReasoning     `json:"reasoning,omitempty"`
	Instructions string               `json:"instructions"`
	Input        []openaiImageMessage `json:"input"`
}

type openaiImageMessage struct {
	Role    string            `json:"role"`
	Content []openaiImagePart `json:"content"`
}

type openaiImagePart struct {
	Type   string `json:"type"`
	FileID string `json:"file_id,omitempty"`
}

func pageImage(imagesDir string, ref types.PageRef) string {
	return filepath.Join(imagesDir, ref.Year, ref.Stem()+".png")
}

// BuildImagesOpenAI writes the OpenAI JSONL request file for transcribing
// page images directly. Each page PNG is uploaded to the file store with
// purpose "vision" and referenced by ID in its request line.
func BuildImagesOpenAI(ctx context.Context, c *OpenAIClient, cfg types.BatchConfig, refs []types.PageRef, imagesDir, model string, w io.Writer) (string, error) {
	instructions, err := prompt.Vision(cfg.PromptDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating batch directory: %w", err)
	}
	path := RequestsPath(cfg.Dir, types.SourceOnlyLLM, model)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating request file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	for _, ref := range refs {
		imgPath := pageImage(imagesDir, ref)
		fileID, err := c.UploadFile(ctx, imgPath, "vision")
		if err != nil {
			return "", fmt.Errorf("uploading %s: %w", ref, err)
		}
		fmt.Fprintf(w, "uploaded: %s (%s)\n", ref, fileID)

		line := openaiImageLine{
			CustomID: ref.Key(),
			Method:   "POST",
			URL:      "/v1/responses",
			Body: openaiImageBody{
				Model:        model,
				Reasoning:    &openaiReasoning{Effort: effortOrDefault(cfg.ReasoningEffort)},
				Instructions: instructions,
				Input: []openaiImageMessage{{
					Role: "user",
					Content: []openaiImagePart{{
						Type:   "input_image",
						FileID: fileID,
					}},
				}},
			},
		}
		if err := enc.Encode(line); err != nil {
			return "", fmt.Errorf("encoding request for %s: %w", ref, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return "", fmt.Errorf("writing request file: %w", err)
	}

	fmt.Fprintf(w, "built: %s (%d requests)\n", path, len(refs))
	return path, nil
}

// BuildImagesGemini writes the Gemini JSONL request file for transcribing
// page images directly. PNG bytes travel base64-inlined in each request
// line; Submit decodes them back into image parts.
func BuildImagesGemini(cfg types.BatchConfig, refs []types.PageRef, imagesDir, model string, w io.Writer) (string, error) {
	instructions, err := prompt.Vision(cfg.PromptDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating batch directory: %w", err)
	}
	path := RequestsPath(cfg.Dir, types.SourceOnlyLLM, model)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating request file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	for _, ref := range refs {
		img, err := os.ReadFile(pageImage(imagesDir, ref))
		if err != nil {
			return "", fmt.Errorf("reading image for %s: %w", ref, err)
		}
		line := geminiBatchLine{
			Key: ref.Key(),
			Request: geminiBatchRequest{
				Contents: []geminiBatchContent{{
					Parts: []geminiBatchPart{
						{Text: instructions + prompt.ImageSuffix},
						{InlineData: &geminiInlineData{
							MIMEType: "image/png",
							Data:     base64.StdEncoding.EncodeToString(img),
						}},
					},
				}},
			},
		}
		if err := enc.Encode(line); err != nil {
			return "", fmt.Errorf("encoding request for %s: %w", ref, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return "", fmt.Errorf("writing request file: %w", err)
	}

	fmt.Fprintf(w, "built: %s (%d requests)\n", path, len(refs))
	return path, nil
}
