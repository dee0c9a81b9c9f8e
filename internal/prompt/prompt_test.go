// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePromptDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCorrection(t *testing.T) {
	dir := writePromptDir(t, map[string]string{
		"instructions-raw.txt":            "Corrige le texte OCR.\n",
		"instructions-example-output.tsv": "nom\tannée\tnotes\tadresse\thoraires\nABADIE\t1861\t\t12 rue X\t2-4\n",
	})

	got, err := Correction(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "Corrige le texte OCR.") {
		t.Errorf("prompt does not start with instructions: %q", got)
	}
	if !strings.Contains(got, "### EXEMPLE DE SORTIE ATTENDUE") {
		t.Error("prompt missing example section header")
	}
	if !strings.HasSuffix(got, "ABADIE\t1861\t\t12 rue X\t2-4") {
		t.Errorf("prompt does not end with example table: %q", got)
	}
}

func TestVision(t *testing.T) {
	dir := writePromptDir(t, map[string]string{
		"instructions-image-input.txt":    "Transcris la page.",
		"instructions-example-output.tsv": "nom\tannée\tnotes\tadresse\thoraires",
	})

	got, err := Vision(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "Transcris la page.") {
		t.Errorf("prompt = %q", got)
	}
}

func TestCorrection_MissingFiles(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"no instructions", map[string]string{"instructions-example-output.tsv": "x"}},
		{"no example", map[string]string{"instructions-raw.txt": "x"}},
		{"empty instructions", map[string]string{
			"instructions-raw.txt":            "  \n",
			"instructions-example-output.tsv": "x",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writePromptDir(t, tt.files)
			if _, err := Correction(dir); err == nil {
				t.Error("expected error")
			}
		})
	}
}
