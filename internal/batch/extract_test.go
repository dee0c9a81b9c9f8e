// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

const extractReply = "nom\tannée\tnotes\tadresse\thoraires\nABADIE\t1861\t\t12 rue X\t2-4"

func openaiOutputJSONL() []byte {
	lines := []string{
		`{"custom_id":"1887-0032","response":{"status_code":200,"body":{"output":[{"type":"reasoning"},{"type":"message","content":[{"type":"output_text","text":"` +
			strings.ReplaceAll(strings.ReplaceAll(extractReply, "\t", `\t`), "\n", `\n`) + `"}]}]}}}`,
		`{"custom_id":"1887-0033","error":{"message":"request timed out"}}`,
		`{"custom_id":"1887-0034","response":{"status_code":200,"body":{"output":[{"type":"message","content":[{"type":"output_text","text":"pas un tableau"}]}]}}}`,
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

func TestExtractOpenAI(t *testing.T) {
	outputRoot := t.TempDir()

	var log bytes.Buffer
	got, err := ExtractOpenAI(openaiOutputJSONL(), outputRoot, types.SourceOriginal, "gpt-5-mini", &log)
	if err != nil {
		t.Fatal(err)
	}
	if got.Extracted != 1 || got.Failed != 2 {
		t.Errorf("result = %+v, want 1 extracted, 2 failed", got)
	}

	data, err := os.ReadFile(filepath.Join(outputRoot, "original-gpt-5-mini", "1887-page-0032.tsv"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != extractReply+"\n" {
		t.Errorf("output = %q", data)
	}
	if !strings.Contains(log.String(), "request timed out") {
		t.Errorf("log = %q", log.String())
	}
}

func TestExtractOpenAI_Empty(t *testing.T) {
	_, err := ExtractOpenAI([]byte("\n"), t.TempDir(), types.SourceOriginal, "gpt-5-mini", &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for empty output file")
	}
}

func TestExtractGemini(t *testing.T) {
	outputRoot := t.TempDir()
	results := []Result{
		{Key: "1913-0005", Text: "```tsv\n" + extractReply + "\n```"},
		{Key: "1913-0006", Err: "quota exceeded"},
	}

	got, err := ExtractGemini(results, outputRoot, types.SourceTesseract, "gemini-2.5-pro", &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Extracted != 1 || got.Failed != 1 {
		t.Errorf("result = %+v", got)
	}

	data, err := os.ReadFile(filepath.Join(outputRoot, "tesseract-gemini-2.5-pro", "1913-page-0005.tsv"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != extractReply+"\n" {
		t.Errorf("output = %q", data)
	}
}

func TestRefFromKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{"1887-0032", "1887-page-0032", false},
		{"1887-32", "1887-page-0032", false},
		{"1887", "", true},
		{"1887-", "", true},
		{"-0032", "", true},
		{"1887-abc", "", true},
		{"../evil-0001", "", true},
	}
	for _, tt := range tests {
		ref, err := refFromKey(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("refFromKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && ref.Stem() != tt.want {
			t.Errorf("refFromKey(%q) = %q, want %q", tt.key, ref.Stem(), tt.want)
		}
	}
}
