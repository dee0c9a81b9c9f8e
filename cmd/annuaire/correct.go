// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/renyi/annuaire-pipeline/internal/correct"
	"github.com/renyi/annuaire-pipeline/internal/prompt"
	"github.com/renyi/annuaire-pipeline/pkg/types"
)

var correctCmd = &cobra.Command{
	Use:   "correct <year>",
	Short: "Correct raw OCR text with an LLM",
	Long: `Correct sends each page's OCR text to the configured model along with
the correction instructions, validates the returned TSV, and writes it
under <output-dir>/<source>/<model>/<year>/. Pages with existing output
are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runCorrect,
}

var correctRunAllCmd = &cobra.Command{
	Use:   "run-all <year>",
	Short: "Sweep every model over every OCR source",
	Long: `Run-all corrects one year with the full model matrix (gpt-5-mini,
gemini-2.5-flash, gpt-5, gemini-2.5-pro) over both OCR sources, vendors
interleaved.`,
	Args: cobra.ExactArgs(1),
	RunE: runCorrectAll,
}

func init() {
	correctCmd.PersistentFlags().String("prompt-dir", defaultPromptDir, "directory of instruction files")
	correctCmd.PersistentFlags().String("original-dir", defaultOriginalDir, "directory of embedded-text OCR")
	correctCmd.PersistentFlags().String("tesseract-dir", defaultTesseractDir, "directory of Tesseract OCR")
	correctCmd.PersistentFlags().String("output-dir", defaultCorrectedDir, "output directory for corrected TSVs")
	correctCmd.PersistentFlags().String("pages", "", "page selection, e.g. \"1,5,10-12\"")
	correctCmd.PersistentFlags().Duration("delay", 0, "pause between pages")
	correctCmd.PersistentFlags().Int("max-retries", 3, "retry attempts per API call")
	correctCmd.Flags().String("model", "gpt-5-mini", "model identifier")
	correctCmd.Flags().String("source", "original", "OCR source: original or tesseract")
	correctCmd.Flags().String("api-key", "", "vendor API key (default: .secrets/ or environment)")

	correctCmd.AddCommand(correctRunAllCmd)
	rootCmd.AddCommand(correctCmd)
}

func correctionConfig(cmd *cobra.Command) types.CorrectionConfig {
	promptDir, _ := cmd.Flags().GetString("prompt-dir")
	originalDir, _ := cmd.Flags().GetString("original-dir")
	tesseractDir, _ := cmd.Flags().GetString("tesseract-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	delay, _ := cmd.Flags().GetDuration("delay")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")

	return types.CorrectionConfig{
		AIConfig:  types.AIConfig{MaxRetries: maxRetries},
		PromptDir: promptDir,
		OCRDirs: map[types.OCRSource]string{
			types.SourceOriginal:  originalDir,
			types.SourceTesseract: tesseractDir,
		},
		OutputDir: outputDir,
		PageDelay: delay,
	}
}

func parsePagesFlag(cmd *cobra.Command) ([]int, error) {
	pagesFlag, _ := cmd.Flags().GetString("pages")
	return correct.ParsePageRange(pagesFlag)
}

func runCorrect(cmd *cobra.Command, args []string) error {
	cfg := correctionConfig(cmd)
	model, _ := cmd.Flags().GetString("model")
	sourceFlag, _ := cmd.Flags().GetString("source")
	apiKey, _ := cmd.Flags().GetString("api-key")

	source := types.OCRSource(sourceFlag)
	if source != types.SourceOriginal && source != types.SourceTesseract {
		return fmt.Errorf("invalid source %q: want original or tesseract", sourceFlag)
	}
	pages, err := parsePagesFlag(cmd)
	if err != nil {
		return err
	}

	vendor, err := correct.ModelVendor(model)
	if err != nil {
		return err
	}
	cfg.Model = model
	cfg.APIKey = secretDefault(string(vendor)+"-api-key", apiKey)
	if cfg.APIKey == "" {
		return fmt.Errorf("no API key for %s: use --api-key, .secrets/, or the environment", vendor)
	}

	instructions, err := prompt.Correction(cfg.PromptDir)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	backend, err := correct.NewBackend(ctx, cfg.AIConfig, instructions)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := correct.CorrectYear(ctx, backend, cfg, source, args[0], pages, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("finished in %s\n", time.Since(start).Round(time.Second))
	if result.HasFailures() {
		return fmt.Errorf("%d page(s) failed correction", result.Failed)
	}
	return nil
}

func runCorrectAll(cmd *cobra.Command, args []string) error {
	cfg := correctionConfig(cmd)
	pages, err := parsePagesFlag(cmd)
	if err != nil {
		return err
	}

	result, err := correct.RunAll(cmd.Context(), cfg, apiKeys(), args[0], pages, nil, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d page(s) failed correction", result.Failed)
	}
	return nil
}
