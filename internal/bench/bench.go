// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bench reads the benchmark table that drives batch runs. Each row
// pairs a page reference with its raw OCR text, flattened to one line with
// escaped control characters.
package bench

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// Row is one benchmark page: its reference and the raw OCR text to correct.
type Row struct {
	Ref  types.PageRef
	Text string
}

// Read parses a benchmark TSV with columns year, page, text. The text
// column stores newlines and tabs as the literal sequences \n and \t;
// Read restores them. Malformed rows are reported on w and dropped.
func Read(path string, w io.Writer) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening benchmark file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var rows []Row
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 && strings.HasPrefix(line, "year\t") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.SplitN(line, "\t", 3)
		if len(fields) < 3 {
			fmt.Fprintf(w, "skipped: line %d has %d columns, want 3\n", lineNo, len(fields))
			continue
		}
		year := strings.TrimSpace(fields[0])
		if year == "" {
			fmt.Fprintf(w, "skipped: line %d has no year\n", lineNo)
			continue
		}
		page, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil || page < 1 {
			fmt.Fprintf(w, "skipped: line %d has invalid page %q\n", lineNo, fields[1])
			continue
		}

		rows = append(rows, Row{
			Ref:  types.PageRef{Year: year, Page: page},
			Text: Unescape(fields[2]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading benchmark file: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no usable rows in %s", path)
	}
	return rows, nil
}

// Unescape restores newlines and tabs stored as literal \n and \t. A
// backslash not starting either sequence passes through unchanged.
func Unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case 't':
				b.WriteByte('\t')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
