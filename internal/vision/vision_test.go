// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vision

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

const validReply = "nom\tannée\tnotes\tadresse\thoraires\nABADIE\t1861\t\t12 rue X\t2-4"

type fakeBackend struct {
	reply   string
	replies []string // consumed before reply when non-empty
	failFor string
	calls   []string
}

func (f *fakeBackend) Transcribe(ctx context.Context, imagePath string) (string, error) {
	f.calls = append(f.calls, imagePath)
	if f.failFor != "" && strings.Contains(imagePath, f.failFor) {
		return "", errors.New("backend error")
	}
	if len(f.replies) > 0 {
		r := f.replies[0]
		f.replies = f.replies[1:]
		return r, nil
	}
	return f.reply, nil
}

// noBackoff zeroes the retry delay for the test.
func noBackoff(t *testing.T) {
	t.Helper()
	old := retryBaseDelay
	retryBaseDelay = 0
	t.Cleanup(func() { retryBaseDelay = old })
}

func setupVision(t *testing.T, year string, pages ...int) types.VisionConfig {
	t.Helper()
	tmp := t.TempDir()
	yearDir := filepath.Join(tmp, "images", year)
	if err := os.MkdirAll(yearDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, p := range pages {
		ref := types.PageRef{Year: year, Page: p}
		if err := os.WriteFile(filepath.Join(yearDir, ref.Stem()+".png"), []byte("png"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return types.VisionConfig{
		AIConfig:  types.AIConfig{Model: "gemini-2.5-pro"},
		ImagesDir: filepath.Join(tmp, "images"),
		OutputDir: filepath.Join(tmp, "only-llm"),
	}
}

func TestTranscribeYear(t *testing.T) {
	noBackoff(t)
	cfg := setupVision(t, "1887", 1, 2)
	b := &fakeBackend{reply: validReply, failFor: "0002"}

	var log bytes.Buffer
	got, err := TranscribeYear(context.Background(), b, cfg, "1887", &log)
	if err != nil {
		t.Fatal(err)
	}
	if got.Transcribed != 1 || got.Failed != 1 {
		t.Errorf("result = %+v", got)
	}

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "1887-page-0001-gemini-2.5-pro.tsv"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != validReply+"\n" {
		t.Errorf("output = %q", data)
	}
}

func TestTranscribeYear_SkipsExisting(t *testing.T) {
	cfg := setupVision(t, "1887", 1)
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(cfg.OutputDir, "1887-page-0001-gemini-2.5-pro.tsv")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := &fakeBackend{reply: validReply}
	got, err := TranscribeYear(context.Background(), b, cfg, "1887", &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Skipped != 1 || len(b.calls) != 0 {
		t.Errorf("result = %+v, calls = %v", got, b.calls)
	}
}

func TestTranscribePage(t *testing.T) {
	cfg := setupVision(t, "1887", 3)
	b := &fakeBackend{reply: "```\n" + validReply + "\n```"}

	got, err := TranscribePage(context.Background(), b, cfg, types.PageRef{Year: "1887", Page: 3}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Transcribed != 1 {
		t.Errorf("result = %+v", got)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "1887-page-0003-gemini-2.5-pro.tsv")); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestTranscribePage_RetriesInvalidReply(t *testing.T) {
	noBackoff(t)
	cfg := setupVision(t, "1887", 3)
	b := &fakeBackend{replies: []string{"pas un tableau", validReply}}

	got, err := TranscribePage(context.Background(), b, cfg, types.PageRef{Year: "1887", Page: 3}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Transcribed != 1 || got.Failed != 0 {
		t.Errorf("result = %+v, want 1 transcribed", got)
	}
	if len(b.calls) != 2 {
		t.Errorf("backend called %d times, want a retry after the invalid table", len(b.calls))
	}
}

func TestTranscribePage_MissingImage(t *testing.T) {
	cfg := setupVision(t, "1887", 1)
	_, err := TranscribePage(context.Background(), &fakeBackend{}, cfg, types.PageRef{Year: "1887", Page: 9}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for missing image")
	}
}

func TestTranscribeYear_NoImages(t *testing.T) {
	cfg := setupVision(t, "1887")
	if _, err := TranscribeYear(context.Background(), &fakeBackend{}, cfg, "1887", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for empty image directory")
	}
}
