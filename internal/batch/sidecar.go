// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Sidecar files sit next to a request JSONL and record where the job went:
// <file>.file_id.txt holds the uploaded input file ID, <file>.batch.json
// holds the last seen job record. Their presence makes the status and
// extract stages stateless.

// Job is the vendor-neutral record stored in the batch sidecar.
type Job struct {
	ID         string `json:"id"`
	Vendor     string `json:"vendor"`
	Status     string `json:"status"`
	InputFile  string `json:"input_file_id,omitempty"`
	OutputFile string `json:"output_file_id,omitempty"`
	ErrorFile  string `json:"error_file_id,omitempty"`
	CreatedAt  int64  `json:"created_at,omitempty"`
	Completed  int64  `json:"completed_at,omitempty"`
	Total      int    `json:"total_requests,omitempty"`
	Done       int    `json:"completed_requests,omitempty"`
	Failed     int    `json:"failed_requests,omitempty"`
}

func fileIDSidecar(requestsPath string) string {
	return requestsPath + ".file_id.txt"
}

func jobSidecar(requestsPath string) string {
	return requestsPath + ".batch.json"
}

// WriteFileID records the uploaded input file ID next to the request file.
func WriteFileID(requestsPath, fileID string) error {
	if err := os.WriteFile(fileIDSidecar(requestsPath), []byte(fileID+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing file ID sidecar: %w", err)
	}
	return nil
}

// ReadFileID returns the previously recorded input file ID, or "" when no
// upload has happened yet.
func ReadFileID(requestsPath string) (string, error) {
	data, err := os.ReadFile(fileIDSidecar(requestsPath))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading file ID sidecar: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteJob records the job next to the request file.
func WriteJob(requestsPath string, job Job) error {
	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling job record: %w", err)
	}
	if err := os.WriteFile(jobSidecar(requestsPath), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing job sidecar: %w", err)
	}
	return nil
}

// ReadJob returns the recorded job for a request file.
func ReadJob(requestsPath string) (Job, error) {
	data, err := os.ReadFile(jobSidecar(requestsPath))
	if err != nil {
		return Job{}, fmt.Errorf("reading job sidecar (was the batch submitted?): %w", err)
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("parsing job sidecar: %w", err)
	}
	return job, nil
}
