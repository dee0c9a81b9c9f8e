// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// defaultReportWidth is the wrap column for alignment visualizations.
const defaultReportWidth = 100

// WriteAlignment renders a word alignment as stacked REF/HYP/ERR lines,
// wrapped at width columns. Hits get a blank marker; substitutions,
// insertions, and deletions get S, I, and D. Missing tokens render as
// asterisks, the way alignment dumps usually do.
func WriteAlignment(w io.Writer, ops []Op, width int) {
	if width <= 0 {
		width = defaultReportWidth
	}

	var refLine, hypLine, errLine strings.Builder
	flush := func() {
		if refLine.Len() == 0 {
			return
		}
		fmt.Fprintf(w, "REF: %s\n", strings.TrimRight(refLine.String(), " "))
		fmt.Fprintf(w, "HYP: %s\n", strings.TrimRight(hypLine.String(), " "))
		fmt.Fprintf(w, "ERR: %s\n\n", strings.TrimRight(errLine.String(), " "))
		refLine.Reset()
		hypLine.Reset()
		errLine.Reset()
	}

	for _, op := range ops {
		ref, hyp := op.Ref, op.Hyp
		if ref == "" {
			ref = strings.Repeat("*", utf8.RuneCountInString(hyp))
		}
		if hyp == "" {
			hyp = strings.Repeat("*", utf8.RuneCountInString(ref))
		}
		cell := max(utf8.RuneCountInString(ref), utf8.RuneCountInString(hyp))

		if refLine.Len() > 0 && refLine.Len()+cell+1 > width {
			flush()
		}

		marker := " "
		if op.Kind != OpHit {
			marker = string(op.Kind)
		}
		refLine.WriteString(pad(ref, cell) + " ")
		hypLine.WriteString(pad(hyp, cell) + " ")
		errLine.WriteString(pad(marker, cell) + " ")
	}
	flush()
}

func pad(s string, width int) string {
	if n := width - utf8.RuneCountInString(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// WriteReport writes the detailed comparison for one page: the scores,
// then the alignment.
func WriteReport(w io.Writer, name string, score Score) {
	fmt.Fprintf(w, "=== %s ===\n", name)
	fmt.Fprintf(w, "WER: %.4f  CER: %.4f  (ref %d words, hyp %d words)\n\n",
		score.WER, score.CER, score.RefWords, score.HypWords)
	WriteAlignment(w, score.WordOps, defaultReportWidth)
}
