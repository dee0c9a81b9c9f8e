// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

const (
	binPdftoppm = "pdftoppm"
	binPdfinfo  = "pdfinfo"
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(name string, args ...string) error
	Output(name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s: %s", err, msg)
		}
		return err
	}
	return nil
}

func (o *osExecutor) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

var defaultExec executor = &osExecutor{}

// PdftoppmRenderer shells out to poppler's pdftoppm. Kept as an alternative
// backend for environments where MuPDF renders the old scans poorly.
type PdftoppmRenderer struct {
	exec executor
}

// NewPdftoppmRenderer verifies that pdftoppm and pdfinfo exist on PATH and
// returns the exec-backed renderer.
func NewPdftoppmRenderer() (*PdftoppmRenderer, error) {
	return newPdftoppmRenderer(defaultExec)
}

func newPdftoppmRenderer(ex executor) (*PdftoppmRenderer, error) {
	for _, bin := range []string{binPdftoppm, binPdfinfo} {
		if _, err := ex.LookPath(bin); err != nil {
			return nil, fmt.Errorf("%s not found on PATH: %w", bin, err)
		}
	}
	return &PdftoppmRenderer{exec: ex}, nil
}

// PageCount parses the "Pages:" line of pdfinfo output.
func (p *PdftoppmRenderer) PageCount(pdfPath string) (int, error) {
	out, err := p.exec.Output(binPdfinfo, pdfPath)
	if err != nil {
		return 0, fmt.Errorf("pdfinfo %s: %w", pdfPath, err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, fmt.Errorf("parsing page count %q: %w", line, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("no Pages line in pdfinfo output for %s", pdfPath)
}

// RenderPage renders one page with -singlefile into a temp prefix, then
// renames the result onto outPath. The per-page temp prefix avoids
// collisions when several renders run against the same year.
func (p *PdftoppmRenderer) RenderPage(pdfPath string, page, dpi int, outPath string) error {
	tempPrefix := fmt.Sprintf("%s.tmp-%d-%d", strings.TrimSuffix(outPath, ".png"), page, os.Getpid())

	args := []string{
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-singlefile",
		pdfPath,
		tempPrefix,
	}
	if err := p.exec.Run(binPdftoppm, args...); err != nil {
		return fmt.Errorf("pdftoppm page %d of %s: %w", page, pdfPath, err)
	}

	tempFile := tempPrefix + ".png"
	if _, err := os.Stat(tempFile); err != nil {
		return fmt.Errorf("expected output %s was not created", tempFile)
	}
	if err := os.Rename(tempFile, outPath); err != nil {
		return fmt.Errorf("renaming %s: %w", tempFile, err)
	}
	return nil
}

// DetectRenderer returns the pdftoppm backend when poppler is installed,
// otherwise the in-process MuPDF backend.
func DetectRenderer(preferExec bool) Renderer {
	if preferExec {
		if r, err := NewPdftoppmRenderer(); err == nil {
			return r
		}
	}
	return NewFitzRenderer()
}
