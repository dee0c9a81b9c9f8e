// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/renyi/annuaire-pipeline/internal/correct"
	"github.com/renyi/annuaire-pipeline/internal/evaluate"
	"github.com/renyi/annuaire-pipeline/internal/scores"
	"github.com/renyi/annuaire-pipeline/pkg/types"
)

var compareCmd = &cobra.Command{
	Use:   "compare <year> <page>",
	Short: "Score hypotheses against the golden truth",
	Long: `Compare scores every available hypothesis for a page (each model over
each OCR source, plus the raw OCR baselines) against the golden-truth
TSV, computing word and character error rates. Detailed alignment
reports land under <output-dir>/<stem>/ and the scores are recorded in
the score index.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

var compareFilesCmd = &cobra.Command{
	Use:   "files <reference.tsv> <hypothesis.tsv>",
	Short: "Score one TSV file against another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := evaluate.CompareFiles(args[0], args[1], os.Stdout)
		return err
	},
}

var compareScoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Print recorded scores and per-model aggregates",
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir, _ := cmd.Flags().GetString("output-dir")
		store, err := scores.NewStore(outputDir)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		all, err := store.List(ctx)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Println("no scores recorded")
			return nil
		}

		fmt.Printf("%-6s %-6s %-12s %-28s %8s %8s\n", "year", "page", "source", "model", "WER", "CER")
		for _, s := range all {
			fmt.Printf("%-6s %-6d %-12s %-28s %8.4f %8.4f\n", s.Year, s.Page, s.Source, s.Model, s.WER, s.CER)
		}

		aggs, err := store.Aggregates(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("\n%-12s %-28s %8s %8s %6s\n", "source", "model", "WER", "CER", "pages")
		for _, a := range aggs {
			fmt.Printf("%-12s %-28s %8.4f %8.4f %6d\n", a.Source, a.Model, a.MeanWER, a.MeanCER, a.Pages)
		}
		return nil
	},
}

func init() {
	compareCmd.PersistentFlags().String("golden-dir", defaultGoldenDir, "directory of golden-truth TSVs")
	compareCmd.PersistentFlags().String("corrected-dir", defaultCorrectedDir, "root of corrected TSVs")
	compareCmd.PersistentFlags().String("raw-ocr-dir", defaultRawOCRDir, "directory of raw OCR baseline text")
	compareCmd.PersistentFlags().String("output-dir", defaultCompareDir, "directory for reports and the score index")
	compareCmd.Flags().StringSlice("models", correct.DefaultModels, "models to score")

	compareCmd.AddCommand(compareFilesCmd)
	compareCmd.AddCommand(compareScoresCmd)
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	goldenDir, _ := cmd.Flags().GetString("golden-dir")
	correctedDir, _ := cmd.Flags().GetString("corrected-dir")
	rawOCRDir, _ := cmd.Flags().GetString("raw-ocr-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	models, _ := cmd.Flags().GetStringSlice("models")

	page, err := strconv.Atoi(args[1])
	if err != nil || page < 1 {
		return fmt.Errorf("invalid page number %q", args[1])
	}

	cfg := types.EvalConfig{
		GoldenDir:    goldenDir,
		CorrectedDir: correctedDir,
		RawOCRDir:    rawOCRDir,
		OutputDir:    outputDir,
	}
	ref := types.PageRef{Year: args[0], Page: page}

	pageScores, err := evaluate.EvaluatePage(cfg, ref, models, os.Stdout)
	if err != nil {
		return err
	}

	store, err := scores.NewStore(outputDir)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(cmd.Context(), pageScores)
}
