// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// SubmitOpenAI uploads the request file and starts an OpenAI batch,
// recording both steps in sidecars. A file ID left by an earlier submit is
// reused rather than re-uploaded.
func SubmitOpenAI(ctx context.Context, c *OpenAIClient, cfg types.BatchConfig, requestsPath string, w io.Writer) (Job, error) {
	if _, err := os.Stat(requestsPath); err != nil {
		return Job{}, fmt.Errorf("request file missing (run build first): %w", err)
	}

	fileID, err := ReadFileID(requestsPath)
	if err != nil {
		return Job{}, err
	}
	if fileID == "" {
		fileID, err = c.UploadFile(ctx, requestsPath, "batch")
		if err != nil {
			return Job{}, err
		}
		if err := WriteFileID(requestsPath, fileID); err != nil {
			return Job{}, err
		}
		fmt.Fprintf(w, "uploaded: %s\n", fileID)
	} else {
		fmt.Fprintf(w, "reusing uploaded file: %s\n", fileID)
	}

	job, err := c.CreateBatch(ctx, fileID, cfg.CompletionWindow)
	if err != nil {
		return Job{}, err
	}
	if err := WriteJob(requestsPath, job); err != nil {
		return Job{}, err
	}
	fmt.Fprintf(w, "submitted: %s (%s)\n", job.ID, job.Status)
	return job, nil
}

// SubmitGemini starts a Gemini batch from the request file and records the
// job in a sidecar.
func SubmitGemini(ctx context.Context, c *GeminiClient, model, requestsPath string, w io.Writer) (Job, error) {
	job, err := c.Submit(ctx, model, requestsPath)
	if err != nil {
		return Job{}, err
	}
	if err := WriteJob(requestsPath, job); err != nil {
		return Job{}, err
	}
	fmt.Fprintf(w, "submitted: %s (%s)\n", job.ID, job.Status)
	return job, nil
}
