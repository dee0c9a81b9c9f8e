// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package correct

import (
	"fmt"
	"strings"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// CleanResponse strips markdown code fences and surrounding whitespace from
// a model reply, leaving the bare TSV text.
func CleanResponse(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if i := strings.Index(text, "\n"); i >= 0 {
			text = text[i+1:]
		} else {
			text = ""
		}
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
	}
	return strings.TrimSpace(text)
}

// ValidateTSV checks that a model reply is a well-formed entry table. The
// first line must be the expected header, and every following non-empty
// line must carry the same number of columns. A reply that is only the
// header is valid; it marks a page with no entries.
func ValidateTSV(text string) error {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return fmt.Errorf("empty response")
	}

	wantHeader := strings.Join(types.TSVHeader, "\t")
	if strings.TrimSpace(lines[0]) != wantHeader {
		return fmt.Errorf("first line is not the expected header: %q", lines[0])
	}

	for i, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if got := len(strings.Split(line, "\t")); got != len(types.TSVHeader) {
			return fmt.Errorf("line %d has %d columns, want %d", i+2, got, len(types.TSVHeader))
		}
	}
	return nil
}
