// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// fakeRenderer implements Renderer for testing. It writes a small marker
// file for each rendered page, or fails pages listed in failPages.
type fakeRenderer struct {
	pageCount int
	countErr  error
	failPages map[int]bool
	rendered  []int
}

func (f *fakeRenderer) PageCount(pdfPath string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	if _, err := os.Stat(pdfPath); err != nil {
		return 0, err
	}
	return f.pageCount, nil
}

func (f *fakeRenderer) RenderPage(pdfPath string, page, dpi int, outPath string) error {
	if f.failPages[page] {
		return errors.New("render error")
	}
	f.rendered = append(f.rendered, page)
	return os.WriteFile(outPath, []byte("png"), 0o644)
}

// setupPDF creates pdfs/<year>.pdf under a temp dir and returns the config.
func setupPDF(t *testing.T, year string) types.RenderConfig {
	t.Helper()
	tmp := t.TempDir()
	pdfsDir := filepath.Join(tmp, "pdfs")
	if err := os.MkdirAll(pdfsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pdfsDir, year+".pdf"), []byte("fake pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	return types.RenderConfig{
		PDFsDir:   pdfsDir,
		ImagesDir: filepath.Join(tmp, "images"),
		DPI:       300,
	}
}

func TestRenderPage(t *testing.T) {
	tests := []struct {
		name      string
		renderer  *fakeRenderer
		page      int
		preCreate bool
		want      BatchResult
		wantErr   bool
		wantLog   string
	}{
		{
			name:     "successful render",
			renderer: &fakeRenderer{pageCount: 100},
			page:     32,
			want:     BatchResult{Rendered: 1},
			wantLog:  "rendered: 1887-page-0032",
		},
		{
			name:      "skip existing PNG",
			renderer:  &fakeRenderer{pageCount: 100},
			page:      32,
			preCreate: true,
			want:      BatchResult{Skipped: 1},
			wantLog:   "skipped:",
		},
		{
			name:     "page beyond PDF length",
			renderer: &fakeRenderer{pageCount: 10},
			page:     32,
			wantErr:  true,
		},
		{
			name:     "render failure",
			renderer: &fakeRenderer{pageCount: 100, failPages: map[int]bool{32: true}},
			page:     32,
			want:     BatchResult{Failed: 1},
			wantLog:  "failed:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := setupPDF(t, "1887")
			ref := types.PageRef{Year: "1887", Page: tt.page}

			if tt.preCreate {
				yearDir := filepath.Join(cfg.ImagesDir, "1887")
				if err := os.MkdirAll(yearDir, 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(filepath.Join(yearDir, ref.Stem()+".png"), []byte("old"), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			var log bytes.Buffer
			got, err := RenderPage(tt.renderer, cfg, ref, &log)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("result = %+v, want %+v", got, tt.want)
			}
			if !strings.Contains(log.String(), tt.wantLog) {
				t.Errorf("log %q does not contain %q", log.String(), tt.wantLog)
			}
		})
	}
}

func TestRenderPage_MissingPDF(t *testing.T) {
	cfg := setupPDF(t, "1887")
	_, err := RenderPage(&fakeRenderer{pageCount: 10}, cfg, types.PageRef{Year: "1900", Page: 1}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for missing PDF")
	}
}

func TestRenderYear_SkipsExisting(t *testing.T) {
	cfg := setupPDF(t, "1887")
	r := &fakeRenderer{pageCount: 3}

	// Pre-render page 2.
	yearDir := filepath.Join(cfg.ImagesDir, "1887")
	if err := os.MkdirAll(yearDir, 0o755); err != nil {
		t.Fatal(err)
	}
	ref := types.PageRef{Year: "1887", Page: 2}
	if err := os.WriteFile(filepath.Join(yearDir, ref.Stem()+".png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	var log bytes.Buffer
	got, err := RenderYear(r, cfg, "1887", &log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := BatchResult{Rendered: 2, Skipped: 1}
	if got != want {
		t.Errorf("result = %+v, want %+v", got, want)
	}
	if len(r.rendered) != 2 {
		t.Errorf("rendered pages = %v, want pages 1 and 3 only", r.rendered)
	}
	for _, p := range []int{1, 3} {
		path := filepath.Join(yearDir, fmt.Sprintf("1887-page-%04d.png", p))
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing output %s", path)
		}
	}
}

func TestYears(t *testing.T) {
	cfg := setupPDF(t, "1887")
	if err := os.WriteFile(filepath.Join(cfg.PDFsDir, "1888.pdf"), []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	var log bytes.Buffer

	all, err := Years(cfg, nil, &log)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("all years = %v, want 2 entries", all)
	}

	some, err := Years(cfg, []string{"1887"}, &log)
	if err != nil {
		t.Fatal(err)
	}
	if len(some) != 1 || some[0] != "1887" {
		t.Errorf("filtered years = %v, want [1887]", some)
	}
}

func TestYears_MissingRequestedPDF(t *testing.T) {
	cfg := setupPDF(t, "1887")
	_, err := Years(cfg, []string{"1887", "1899"}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for explicitly requested year with no PDF")
	}
	if !strings.Contains(err.Error(), "1899") {
		t.Errorf("error %q does not name the missing year", err)
	}
}
