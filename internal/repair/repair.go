// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package repair fixes the mechanical defects LLMs leave in TSV output:
// byte order marks, missing headers, and rows with the wrong number of
// columns. Repaired copies go to a parallel tree; inputs are never
// touched.
package repair

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// Issue is one defect found (and fixed) in a file.
type Issue struct {
	Line    int
	Problem string
}

// Report lists what was repaired in one file.
type Report struct {
	Issues []Issue
}

// Clean reports whether the file needed no repairs.
func (r Report) Clean() bool {
	return len(r.Issues) == 0
}

func (r *Report) add(line int, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Line: line, Problem: fmt.Sprintf(format, args...)})
}

// Repair fixes a TSV document and returns the repaired text with the
// report of what changed.
func Repair(text string) (string, Report) {
	var report Report

	if strings.HasPrefix(text, "\uFEFF") {
		text = strings.TrimPrefix(text, "\uFEFF")
		report.add(1, "removed byte order mark")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	header := strings.Join(types.TSVHeader, "\t")
	want := len(types.TSVHeader)

	if len(lines) == 0 || !headerLike(lines[0]) {
		lines = append([]string{header}, lines...)
		report.add(1, "inserted missing header")
	} else if lines[0] != header {
		report.add(1, "canonicalized header %q", lines[0])
		lines[0] = header
	}

	out := []string{lines[0]}
	for i, line := range lines[1:] {
		lineNo := i + 2
		if strings.TrimSpace(line) == "" {
			report.add(lineNo, "dropped blank line")
			continue
		}
		fields := strings.Split(line, "\t")
		switch {
		case len(fields) < want:
			report.add(lineNo, "padded row with %d columns", len(fields))
			for len(fields) < want {
				fields = append(fields, "")
			}
		case len(fields) > want:
			// Extra tabs almost always come from a split notes column:
			// keep name and year, fold the middle back together, keep
			// the last two fields as address and hours.
			report.add(lineNo, "merged row with %d columns", len(fields))
			merged := strings.Join(fields[2:len(fields)-2], " ")
			fields = []string{fields[0], fields[1], merged, fields[len(fields)-2], fields[len(fields)-1]}
		}
		out = append(out, strings.Join(fields, "\t"))
	}

	return strings.Join(out, "\n") + "\n", report
}

// headerLike reports whether a line is some spelling of the expected
// header, ignoring case and stray whitespace.
func headerLike(line string) bool {
	fields := strings.Split(strings.ToLower(strings.TrimSpace(line)), "\t")
	if len(fields) == 0 {
		return false
	}
	return strings.TrimSpace(fields[0]) == types.TSVHeader[0]
}

// RepairFile repairs one TSV file into outPath.
func RepairFile(inPath, outPath string) (Report, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return Report{}, fmt.Errorf("reading %s: %w", inPath, err)
	}

	fixed, report := Repair(string(data))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return report, fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(fixed), 0o644); err != nil {
		return report, fmt.Errorf("writing %s: %w", outPath, err)
	}
	return report, nil
}

// BatchResult summarizes one tree repair.
type BatchResult struct {
	Repaired int
	Clean    int
	Failed   int
}

// RepairTree walks every .tsv under inDir and writes repaired copies to
// the same relative paths under outDir, reporting each issue on w.
func RepairTree(inDir, outDir string, w io.Writer) (BatchResult, error) {
	var paths []string
	err := filepath.WalkDir(inDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tsv") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return BatchResult{}, fmt.Errorf("walking %s: %w", inDir, err)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return BatchResult{}, fmt.Errorf("no TSV files found under %s", inDir)
	}

	var result BatchResult
	for _, path := range paths {
		rel, err := filepath.Rel(inDir, path)
		if err != nil {
			return result, err
		}
		report, err := RepairFile(path, filepath.Join(outDir, rel))
		if err != nil {
			fmt.Fprintf(w, "failed: %s (%v)\n", rel, err)
			result.Failed++
			continue
		}
		if report.Clean() {
			result.Clean++
			continue
		}
		result.Repaired++
		for _, issue := range report.Issues {
			fmt.Fprintf(w, "repaired: %s line %d: %s\n", rel, issue.Line, issue.Problem)
		}
	}

	fmt.Fprintf(w, "%d repaired, %d clean, %d failed\n", result.Repaired, result.Clean, result.Failed)
	return result, nil
}
