// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// Reference is one golden-truth page ready for comparison.
type Reference struct {
	// Text is the flattened, normalized page text.
	Text string

	// Entries is the number of data rows in the golden table.
	Entries int
}

// LoadReference reads the golden-truth TSV for a page.
func LoadReference(goldenDir string, ref types.PageRef) (Reference, error) {
	data, err := os.ReadFile(filepath.Join(goldenDir, ref.Stem()+".tsv"))
	if err != nil {
		return Reference{}, fmt.Errorf("reading golden truth: %w", err)
	}
	text := string(data)
	return Reference{
		Text:    Normalize(Flatten(text)),
		Entries: countEntries(text),
	}, nil
}

func countEntries(tsv string) int {
	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	n := 0
	for i, line := range lines {
		if i == 0 && isHeader(line) {
			continue
		}
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// CorrectedPath returns the TSV written by the correction stage for one
// model/source pair.
func CorrectedPath(correctedDir string, source types.OCRSource, model string, ref types.PageRef) string {
	if source == types.SourceOnlyLLM {
		return filepath.Join(correctedDir, string(source), fmt.Sprintf("%s-%s.tsv", ref.Stem(), model))
	}
	return filepath.Join(correctedDir, string(source), model, ref.Year, ref.Stem()+".tsv")
}

// LoadCorrected reads and normalizes a corrected TSV hypothesis.
func LoadCorrected(correctedDir string, source types.OCRSource, model string, ref types.PageRef) (string, error) {
	data, err := os.ReadFile(CorrectedPath(correctedDir, source, model, ref))
	if err != nil {
		return "", err
	}
	return Normalize(Flatten(string(data))), nil
}

// LoadRawOCR reads and normalizes an uncorrected OCR hypothesis, the
// baseline the models are judged against. Files are named
// <stem>-<source>.txt.
func LoadRawOCR(rawDir string, source types.OCRSource, ref types.PageRef) (string, error) {
	data, err := os.ReadFile(filepath.Join(rawDir, fmt.Sprintf("%s-%s.txt", ref.Stem(), source)))
	if err != nil {
		return "", err
	}
	return Normalize(string(data)), nil
}
