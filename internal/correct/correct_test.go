// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package correct

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

const validReply = "nom\tannée\tnotes\tadresse\thoraires\nABADIE (Jean)\t1861\tméd.\t12 rue X\t2-4"

type fakeBackend struct {
	reply   string
	replies []string // consumed before reply when non-empty
	err     error
	failFor string
	calls   []string
}

func (f *fakeBackend) Correct(ctx context.Context, ocrText string) (string, error) {
	f.calls = append(f.calls, ocrText)
	if f.err != nil {
		return "", f.err
	}
	if f.failFor != "" && strings.Contains(ocrText, f.failFor) {
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

func setupCorrection(t *testing.T, year string, pages ...int) types.CorrectionConfig {
	t.Helper()
	tmp := t.TempDir()
	ocrDir := filepath.Join(tmp, "rosenwald-original-ocr")
	yearDir := filepath.Join(ocrDir, year)
	if err := os.MkdirAll(yearDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, p := range pages {
		ref := types.PageRef{Year: year, Page: p}
		content := "ocr text for " + ref.Stem()
		if err := os.WriteFile(filepath.Join(yearDir, ref.Stem()+".txt"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return types.CorrectionConfig{
		AIConfig: types.AIConfig{Model: "gpt-5-mini"},
		OCRDirs: map[types.OCRSource]string{
			types.SourceOriginal: ocrDir,
		},
		OutputDir: filepath.Join(tmp, "llm-corrected-results"),
	}
}

func TestCorrectYear(t *testing.T) {
	cfg := setupCorrection(t, "1887", 1, 2)
	b := &fakeBackend{reply: validReply}

	var log bytes.Buffer
	got, err := CorrectYear(context.Background(), b, cfg, types.SourceOriginal, "1887", nil, &log)
	if err != nil {
		t.Fatal(err)
	}
	if got.Corrected != 2 || got.Failed != 0 {
		t.Errorf("result = %+v, want 2 corrected", got)
	}

	outDir := filepath.Join(cfg.OutputDir, "original", "gpt-5-mini", "1887")
	data, err := os.ReadFile(filepath.Join(outDir, "1887-page-0001.tsv"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != validReply+"\n" {
		t.Errorf("output = %q", data)
	}

	var s Summary
	sData, err := os.ReadFile(filepath.Join(outDir, "processing_summary.yaml"))
	if err != nil {
		t.Fatalf("reading summary: %v", err)
	}
	if err := yaml.Unmarshal(sData, &s); err != nil {
		t.Fatal(err)
	}
	if s.Corrected != 2 || s.Model != "gpt-5-mini" || len(s.Pages) != 2 {
		t.Errorf("summary = %+v", s)
	}
}

func TestCorrectYear_PageFilter(t *testing.T) {
	cfg := setupCorrection(t, "1887", 1, 2, 3)
	b := &fakeBackend{reply: validReply}

	got, err := CorrectYear(context.Background(), b, cfg, types.SourceOriginal, "1887", []int{2}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Corrected != 1 || len(b.calls) != 1 {
		t.Errorf("result = %+v, calls = %d, want exactly page 2", got, len(b.calls))
	}
	if !strings.Contains(b.calls[0], "1887-page-0002") {
		t.Errorf("wrong page sent: %q", b.calls[0])
	}
}

func TestCorrectYear_SkipsExisting(t *testing.T) {
	cfg := setupCorrection(t, "1887", 1, 2)
	outDir := filepath.Join(cfg.OutputDir, "original", "gpt-5-mini", "1887")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "1887-page-0001.tsv"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := &fakeBackend{reply: validReply}
	got, err := CorrectYear(context.Background(), b, cfg, types.SourceOriginal, "1887", nil, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Corrected != 1 || got.Skipped != 1 {
		t.Errorf("result = %+v, want 1 corrected, 1 skipped", got)
	}
}

func TestCorrectYear_BackendFailure(t *testing.T) {
	noBackoff(t)
	cfg := setupCorrection(t, "1887", 1, 2)
	b := &fakeBackend{reply: validReply, failFor: "0001"}

	var log bytes.Buffer
	got, err := CorrectYear(context.Background(), b, cfg, types.SourceOriginal, "1887", nil, &log)
	if err != nil {
		t.Fatal(err)
	}
	if got.Corrected != 1 || got.Failed != 1 {
		t.Errorf("result = %+v, want 1 corrected, 1 failed", got)
	}
	if !strings.Contains(log.String(), "failed: 1887-page-0001") {
		t.Errorf("log = %q", log.String())
	}
}

func TestCorrectYear_InvalidReply(t *testing.T) {
	noBackoff(t)
	cfg := setupCorrection(t, "1887", 1)
	b := &fakeBackend{reply: "this is not a table"}

	got, err := CorrectYear(context.Background(), b, cfg, types.SourceOriginal, "1887", nil, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Failed != 1 {
		t.Errorf("result = %+v, want 1 failed", got)
	}
	if len(b.calls) != 3 {
		t.Errorf("backend called %d times, want 3 attempts", len(b.calls))
	}
	outDir := filepath.Join(cfg.OutputDir, "original", "gpt-5-mini", "1887")
	if _, err := os.Stat(filepath.Join(outDir, "1887-page-0001.tsv")); err == nil {
		t.Error("invalid reply was written to disk")
	}
}

func TestCorrectYear_RetriesInvalidReply(t *testing.T) {
	noBackoff(t)
	cfg := setupCorrection(t, "1887", 1)
	b := &fakeBackend{replies: []string{"pas un tableau", validReply}}

	got, err := CorrectYear(context.Background(), b, cfg, types.SourceOriginal, "1887", nil, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Corrected != 1 || got.Failed != 0 {
		t.Errorf("result = %+v, want 1 corrected", got)
	}
	if len(b.calls) != 2 {
		t.Errorf("backend called %d times, want a retry after the invalid table", len(b.calls))
	}

	outDir := filepath.Join(cfg.OutputDir, "original", "gpt-5-mini", "1887")
	data, err := os.ReadFile(filepath.Join(outDir, "1887-page-0001.tsv"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != validReply+"\n" {
		t.Errorf("output = %q", data)
	}

	var s Summary
	sData, err := os.ReadFile(filepath.Join(outDir, "processing_summary.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := yaml.Unmarshal(sData, &s); err != nil {
		t.Fatal(err)
	}
	if len(s.Pages) != 1 || s.Pages[0].Retries != 1 {
		t.Errorf("summary pages = %+v, want 1 retry recorded", s.Pages)
	}
}

func TestCorrectYear_MissingSource(t *testing.T) {
	cfg := setupCorrection(t, "1887", 1)
	_, err := CorrectYear(context.Background(), &fakeBackend{}, cfg, types.SourceTesseract, "1887", nil, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for unconfigured source")
	}
}

func TestModelVendor(t *testing.T) {
	tests := []struct {
		model   string
		want    Vendor
		wantErr bool
	}{
		{"gpt-5-mini", VendorOpenAI, false},
		{"gpt-5", VendorOpenAI, false},
		{"gemini-2.5-flash", VendorGemini, false},
		{"gemini-2.5-pro", VendorGemini, false},
		{"claude-sonnet", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ModelVendor(tt.model)
		if (err != nil) != tt.wantErr {
			t.Errorf("ModelVendor(%q) error = %v, wantErr %v", tt.model, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ModelVendor(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}
