// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package repair

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const header = "nom\tannée\tnotes\tadresse\thoraires"

func TestRepair(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		want      string
		numIssues int
	}{
		{
			"clean file",
			header + "\nABADIE\t1861\tméd.\t12 rue X\t2-4\n",
			header + "\nABADIE\t1861\tméd.\t12 rue X\t2-4\n",
			0,
		},
		{
			"byte order mark",
			"\uFEFF" + header + "\nA\t1\t\tx\ty\n",
			header + "\nA\t1\t\tx\ty\n",
			1,
		},
		{
			"missing header",
			"ABADIE\t1861\tméd.\t12 rue X\t2-4\n",
			header + "\nABADIE\t1861\tméd.\t12 rue X\t2-4\n",
			1,
		},
		{
			"miscased header",
			"NOM\tANNÉE\tNOTES\tADRESSE\tHORAIRES\nA\t1\t\tx\ty\n",
			header + "\nA\t1\t\tx\ty\n",
			1,
		},
		{
			"under-split row",
			header + "\nABADIE\t1861\tméd.\n",
			header + "\nABADIE\t1861\tméd.\t\t\n",
			1,
		},
		{
			"over-split row",
			header + "\nABADIE\t1861\tméd.\tchir.\t12 rue X\t2-4\n",
			header + "\nABADIE\t1861\tméd. chir.\t12 rue X\t2-4\n",
			1,
		},
		{
			"blank lines dropped",
			header + "\nA\t1\t\tx\ty\n\n\nB\t2\t\tx\ty\n",
			header + "\nA\t1\t\tx\ty\nB\t2\t\tx\ty\n",
			2,
		},
		{
			"crlf endings",
			header + "\r\nA\t1\t\tx\ty\r\n",
			header + "\nA\t1\t\tx\ty\n",
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, report := Repair(tt.in)
			if got != tt.want {
				t.Errorf("Repair() = %q, want %q", got, tt.want)
			}
			if len(report.Issues) != tt.numIssues {
				t.Errorf("issues = %+v, want %d", report.Issues, tt.numIssues)
			}
		})
	}
}

func TestRepairTree(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	sub := filepath.Join(inDir, "original", "gpt-5", "1887")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		filepath.Join(sub, "1887-page-0001.tsv"):   "ABADIE\t1861\t\tx\ty\n",
		filepath.Join(sub, "1887-page-0002.tsv"):   header + "\nA\t1\t\tx\ty\n",
		filepath.Join(inDir, "notes-readme.txt"):   "not a tsv",
		filepath.Join(inDir, "stray-root-file.tsv"): header + "\n",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var log bytes.Buffer
	got, err := RepairTree(inDir, outDir, &log)
	if err != nil {
		t.Fatal(err)
	}
	if got.Repaired != 1 || got.Clean != 2 || got.Failed != 0 {
		t.Errorf("result = %+v", got)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "original", "gpt-5", "1887", "1887-page-0001.tsv"))
	if err != nil {
		t.Fatalf("reading repaired copy: %v", err)
	}
	if !strings.HasPrefix(string(data), header+"\n") {
		t.Errorf("repaired copy = %q", data)
	}
	if !strings.Contains(log.String(), "inserted missing header") {
		t.Errorf("log = %q", log.String())
	}
}

func TestRepairTree_Empty(t *testing.T) {
	if _, err := RepairTree(t.TempDir(), t.TempDir(), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for empty input tree")
	}
}
