// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate scores hypothesis transcriptions against the golden
// truth with word and character error rates.
package evaluate

import (
	"strings"
	"unicode"
)

// Flatten turns a TSV page into comparable plain text: the header line is
// dropped, tabs become spaces, and the remaining lines are joined with
// spaces.
func Flatten(tsv string) string {
	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	if len(lines) > 0 && isHeader(lines[0]) {
		lines = lines[1:]
	}
	for i, line := range lines {
		lines[i] = strings.ReplaceAll(line, "\t", " ")
	}
	return strings.Join(lines, " ")
}

func isHeader(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "nom\t")
}

// Normalize lowercases the text, removes punctuation and symbols, and
// collapses runs of whitespace to single spaces. Accented letters are
// kept; they carry meaning in French names.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			// Punctuation and symbols become spaces so glued tokens
			// like "méd.1861" still split.
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Words splits normalized text into word tokens.
func Words(text string) []string {
	return strings.Fields(text)
}

// Chars splits normalized text into single-rune tokens, spaces included.
func Chars(text string) []string {
	runes := []rune(text)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}
