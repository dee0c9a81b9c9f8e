// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTargets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "target-pages.tsv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadTargets(t *testing.T) {
	tsv := "year\tpage_begin\tpage_end\tnote\n" +
		"1887\t30\t35\tannuaire\n" +
		"1888\t10\t12\t\n" +
		"1889\tabc\t5\tbad\n" +
		"1890\t7\t3\tinverted\n"

	var log bytes.Buffer
	targets, err := ReadTargets(writeTargets(t, tsv), nil, &log)
	if err != nil {
		t.Fatal(err)
	}

	if len(targets) != 2 {
		t.Fatalf("targets = %+v, want 2 valid rows", targets)
	}
	if targets[0] != (Target{Year: "1887", Begin: 30, End: 35}) {
		t.Errorf("first target = %+v", targets[0])
	}
	if !strings.Contains(log.String(), "non-numeric") || !strings.Contains(log.String(), "malformed") {
		t.Errorf("expected skip diagnostics, got %q", log.String())
	}
}

func TestReadTargets_YearFilter(t *testing.T) {
	tsv := "year\tpage_begin\tpage_end\n1887\t1\t2\n1888\t3\t4\n"

	targets, err := ReadTargets(writeTargets(t, tsv), []string{"1888"}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 || targets[0].Year != "1888" {
		t.Errorf("targets = %+v, want only 1888", targets)
	}
}

func TestReadTargets_MissingColumn(t *testing.T) {
	tsv := "year\tstart\tend\n1887\t1\t2\n"
	if _, err := ReadTargets(writeTargets(t, tsv), nil, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for missing page_begin column")
	}
}

func TestRenderTargets(t *testing.T) {
	cfg := setupPDF(t, "1887")
	r := &fakeRenderer{pageCount: 4}

	targets := []Target{
		{Year: "1887", Begin: 1, End: 2},
		{Year: "1887", Begin: 2, End: 3}, // overlap deduplicated
		{Year: "1887", Begin: 6, End: 6}, // beyond PDF length
		{Year: "1900", Begin: 1, End: 1}, // no PDF on disk
	}

	var log bytes.Buffer
	got := RenderTargets(r, cfg, targets, &log)

	want := BatchResult{Rendered: 3}
	if got != want {
		t.Errorf("result = %+v, want %+v", got, want)
	}
	if !strings.Contains(log.String(), "beyond PDF length") {
		t.Errorf("expected out-of-range diagnostic, got %q", log.String())
	}
	if !strings.Contains(log.String(), "skip 1900") {
		t.Errorf("expected missing-PDF diagnostic, got %q", log.String())
	}
}
