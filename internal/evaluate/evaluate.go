// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// PageScore is one scored hypothesis for one page.
type PageScore struct {
	Year    string
	Page    int
	Model   string
	Source  types.OCRSource
	WER     float64
	CER     float64
	Entries int
}

// rawModel marks baseline rows where no model was involved.
const rawModel = "raw"

// correctionSources are the hypothesis trees scored per model.
var correctionSources = []types.OCRSource{
	types.SourceOriginal,
	types.SourceTesseract,
	types.SourceOnlyLLM,
}

// EvaluatePage scores every available hypothesis for one page against the
// golden truth: each model over each source, plus the two uncorrected OCR
// baselines. Missing hypotheses are reported on w and skipped. Detailed
// alignment reports land under <output>/<stem>/, and the score table is
// printed on w.
func EvaluatePage(cfg types.EvalConfig, ref types.PageRef, models []string, w io.Writer) ([]PageScore, error) {
	golden, err := LoadReference(cfg.GoldenDir, ref)
	if err != nil {
		return nil, err
	}

	reportDir := filepath.Join(cfg.OutputDir, ref.Stem())
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}

	var scores []PageScore
	add := func(name string, model string, source types.OCRSource, hyp string) error {
		s := ScorePair(golden.Text, hyp)
		scores = append(scores, PageScore{
			Year:    ref.Year,
			Page:    ref.Page,
			Model:   model,
			Source:  source,
			WER:     s.WER,
			CER:     s.CER,
			Entries: golden.Entries,
		})
		f, err := os.Create(filepath.Join(reportDir, name+".txt"))
		if err != nil {
			return fmt.Errorf("creating report: %w", err)
		}
		defer f.Close()
		WriteReport(f, fmt.Sprintf("%s / %s", ref.Stem(), name), s)
		return nil
	}

	for _, source := range []types.OCRSource{types.SourceOriginal, types.SourceTesseract} {
		hyp, err := LoadRawOCR(cfg.RawOCRDir, source, ref)
		if os.IsNotExist(err) {
			fmt.Fprintf(w, "missing: raw %s OCR\n", source)
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := add(fmt.Sprintf("raw-%s", source), rawModel, source, hyp); err != nil {
			return nil, err
		}
	}

	for _, model := range models {
		for _, source := range correctionSources {
			hyp, err := LoadCorrected(cfg.CorrectedDir, source, model, ref)
			if os.IsNotExist(err) {
				fmt.Fprintf(w, "missing: %s/%s\n", source, model)
				continue
			}
			if err != nil {
				return nil, err
			}
			if err := add(fmt.Sprintf("%s-%s", source, model), model, source, hyp); err != nil {
				return nil, err
			}
		}
	}

	if len(scores) == 0 {
		return nil, fmt.Errorf("no hypotheses found for %s", ref.Stem())
	}

	PrintTable(w, golden.Entries, scores)
	return scores, nil
}

// PrintTable renders page scores as an aligned WER/CER table.
func PrintTable(w io.Writer, entries int, scores []PageScore) {
	fmt.Fprintf(w, "\ngolden entries: %d\n", entries)
	fmt.Fprintf(w, "%-12s %-28s %8s %8s\n", "source", "model", "WER", "CER")
	for _, s := range scores {
		fmt.Fprintf(w, "%-12s %-28s %8.4f %8.4f\n", s.Source, s.Model, s.WER, s.CER)
	}
}

// CompareFiles scores one hypothesis TSV against one reference TSV and
// writes the report on w. It backs the two-file comparison mode.
func CompareFiles(refPath, hypPath string, w io.Writer) (Score, error) {
	refData, err := os.ReadFile(refPath)
	if err != nil {
		return Score{}, fmt.Errorf("reading reference: %w", err)
	}
	hypData, err := os.ReadFile(hypPath)
	if err != nil {
		return Score{}, fmt.Errorf("reading hypothesis: %w", err)
	}

	s := ScorePair(Normalize(Flatten(string(refData))), Normalize(Flatten(string(hypData))))
	WriteReport(w, fmt.Sprintf("%s vs %s", filepath.Base(refPath), filepath.Base(hypPath)), s)
	return s, nil
}
