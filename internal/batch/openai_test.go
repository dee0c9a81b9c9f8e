// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

func withOpenAIServer(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	old := openaiAPIBase
	openaiAPIBase = srv.URL
	t.Cleanup(func() { openaiAPIBase = old })

	return &OpenAIClient{APIKey: "test-key"}
}

func TestOpenAIClient_UploadFile(t *testing.T) {
	c := withOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "batch", r.FormValue("purpose"))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "requests.jsonl", header.Filename)
		json.NewEncoder(w).Encode(map[string]string{"id": "file-123"})
	})

	path := filepath.Join(t.TempDir(), "requests.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"custom_id":"1887-0001"}`+"\n"), 0o644))

	id, err := c.UploadFile(context.Background(), path, "batch")
	require.NoError(t, err)
	assert.Equal(t, "file-123", id)
}

func TestOpenAIClient_CreateAndGetBatch(t *testing.T) {
	c := withOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/batches":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "file-123", body["input_file_id"])
			assert.Equal(t, "/v1/responses", body["endpoint"])
			assert.Equal(t, "24h", body["completion_window"])
			json.NewEncoder(w).Encode(map[string]any{
				"id": "batch-1", "status": "validating", "input_file_id": "file-123",
			})
		case r.Method == http.MethodGet && r.URL.Path == "/batches/batch-1":
			json.NewEncoder(w).Encode(map[string]any{
				"id": "batch-1", "status": "completed", "output_file_id": "file-out",
				"request_counts": map[string]int{"total": 5, "completed": 4, "failed": 1},
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	job, err := c.CreateBatch(context.Background(), "file-123", "")
	require.NoError(t, err)
	assert.Equal(t, "batch-1", job.ID)
	assert.Equal(t, "validating", job.Status)

	job, err = c.GetBatch(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.True(t, job.Succeeded())
	assert.Equal(t, "file-out", job.OutputFile)
	assert.Equal(t, 5, job.Total)
	assert.Equal(t, 1, job.Failed)
}

func TestOpenAIClient_DownloadFile(t *testing.T) {
	c := withOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files/file-out/content", r.URL.Path)
		w.Write([]byte("line1\nline2\n"))
	})

	data, err := c.DownloadFile(context.Background(), "file-out")
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2\n", string(data))
}

func TestSubmitOpenAI_ReusesUpload(t *testing.T) {
	uploads := 0
	c := withOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files":
			uploads++
			json.NewEncoder(w).Encode(map[string]string{"id": "file-9"})
		case "/batches":
			json.NewEncoder(w).Encode(map[string]any{"id": "batch-9", "status": "validating"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	requestsPath := filepath.Join(t.TempDir(), "original-gpt-5-requests.jsonl")
	require.NoError(t, os.WriteFile(requestsPath, []byte("{}\n"), 0o644))
	cfg := types.BatchConfig{}

	var log bytes.Buffer
	_, err := SubmitOpenAI(context.Background(), c, cfg, requestsPath, &log)
	require.NoError(t, err)
	_, err = SubmitOpenAI(context.Background(), c, cfg, requestsPath, &log)
	require.NoError(t, err)

	assert.Equal(t, 1, uploads)
	job, err := ReadJob(requestsPath)
	require.NoError(t, err)
	assert.Equal(t, "batch-9", job.ID)
}

func TestSubmitOpenAI_MissingRequestFile(t *testing.T) {
	c := &OpenAIClient{APIKey: "k"}
	_, err := SubmitOpenAI(context.Background(), c, types.BatchConfig{},
		filepath.Join(t.TempDir(), "nope.jsonl"), &bytes.Buffer{})
	require.Error(t, err)
}
