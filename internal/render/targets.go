// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// Target is one row of a target-pages TSV: a page range within a year that
// carries manually verified reference data.
type Target struct {
	Year  string
	Begin int
	End   int
}

// ReadTargets loads a target-pages TSV (columns year, page_begin, page_end,
// trailing columns ignored), optionally filtered to a set of years.
// Malformed rows are reported on w and skipped.
func ReadTargets(path string, years []string, w io.Writer) ([]Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening targets %s: %w", path, err)
	}
	defer f.Close()

	filter := make(map[string]bool, len(years))
	for _, y := range years {
		filter[strings.TrimSpace(y)] = true
	}

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading targets header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, need := range []string{"year", "page_begin", "page_end"} {
		if _, ok := col[need]; !ok {
			return nil, fmt.Errorf("targets %s: missing column %q", path, need)
		}
	}

	var targets []Target
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading targets row: %w", err)
		}

		year := field(row, col["year"])
		if year == "" || (len(filter) > 0 && !filter[year]) {
			continue
		}
		begin, err1 := strconv.Atoi(field(row, col["page_begin"]))
		end, err2 := strconv.Atoi(field(row, col["page_end"]))
		if err1 != nil || err2 != nil {
			fmt.Fprintf(w, "skip row with non-numeric pages: %v\n", row)
			continue
		}
		if begin <= 0 || end < begin {
			fmt.Fprintf(w, "skip malformed row: %v\n", row)
			continue
		}
		targets = append(targets, Target{Year: year, Begin: begin, End: end})
	}
	return targets, nil
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// RenderTargets renders every page listed in the targets, grouped per year,
// deduplicating overlapping ranges and dropping pages past the end of the
// PDF. A year whose PDF is missing is skipped with a warning.
func RenderTargets(r Renderer, cfg types.RenderConfig, targets []Target, w io.Writer) BatchResult {
	pagesByYear := make(map[string]map[int]bool)
	for _, t := range targets {
		pages := pagesByYear[t.Year]
		if pages == nil {
			pages = make(map[int]bool)
			pagesByYear[t.Year] = pages
		}
		for p := t.Begin; p <= t.End; p++ {
			pages[p] = true
		}
	}

	years := make([]string, 0, len(pagesByYear))
	for y := range pagesByYear {
		years = append(years, y)
	}
	sort.Strings(years)

	var result BatchResult
	for _, year := range years {
		pdfPath := PDFPath(cfg, year)
		count, err := r.PageCount(pdfPath)
		if err != nil {
			fmt.Fprintf(w, "skip %s: %v\n", year, err)
			continue
		}

		pages := make([]int, 0, len(pagesByYear[year]))
		for p := range pagesByYear[year] {
			if p > count {
				fmt.Fprintf(w, "skip %s page %d: beyond PDF length %d\n", year, p, count)
				continue
			}
			pages = append(pages, p)
		}
		sort.Ints(pages)

		for _, p := range pages {
			res, err := RenderPage(r, cfg, types.PageRef{Year: year, Page: p}, w)
			if err != nil {
				fmt.Fprintf(w, "failed:  %s page %d (%v)\n", year, p, err)
				result.Failed++
				continue
			}
			result.Add(res)
		}
	}

	fmt.Fprintf(w, "\nTargets summary: %d rendered, %d skipped, %d failed (total: %d)\n",
		result.Rendered, result.Skipped, result.Failed, result.Total())
	return result
}
