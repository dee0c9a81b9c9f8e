// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/renyi/annuaire-pipeline/internal/correct"
	"github.com/renyi/annuaire-pipeline/internal/prompt"
	"github.com/renyi/annuaire-pipeline/internal/vision"
	"github.com/renyi/annuaire-pipeline/pkg/types"
)

var visionCmd = &cobra.Command{
	Use:   "vision <year>",
	Short: "Transcribe page images directly with a multimodal model",
	Long: `Vision sends page images straight to the model with no OCR pass in
front. The transcriptions land as <stem>-<model>.tsv files in the
only-llm hypothesis directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runVision,
}

func init() {
	visionCmd.Flags().String("images-dir", defaultImagesDir, "directory of page images")
	visionCmd.Flags().String("prompt-dir", defaultPromptDir, "directory of instruction files")
	visionCmd.Flags().String("output-dir", defaultCorrectedDir+"/only-llm", "output directory for transcriptions")
	visionCmd.Flags().String("model", "gemini-2.5-pro", "model identifier")
	visionCmd.Flags().Int("page", 0, "transcribe a single page")
	visionCmd.Flags().Int("max-retries", 3, "retry attempts per API call")
	visionCmd.Flags().String("api-key", "", "vendor API key (default: .secrets/ or environment)")

	rootCmd.AddCommand(visionCmd)
}

func runVision(cmd *cobra.Command, args []string) error {
	imagesDir, _ := cmd.Flags().GetString("images-dir")
	promptDir, _ := cmd.Flags().GetString("prompt-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	model, _ := cmd.Flags().GetString("model")
	page, _ := cmd.Flags().GetInt("page")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	apiKey, _ := cmd.Flags().GetString("api-key")

	vendor, err := correct.ModelVendor(model)
	if err != nil {
		return err
	}
	cfg := types.VisionConfig{
		AIConfig: types.AIConfig{
			Model:      model,
			APIKey:     secretDefault(string(vendor)+"-api-key", apiKey),
			MaxRetries: maxRetries,
		},
		ImagesDir: imagesDir,
		PromptDir: promptDir,
		OutputDir: outputDir,
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("no API key for %s: use --api-key, .secrets/, or the environment", vendor)
	}

	instructions, err := prompt.Vision(cfg.PromptDir)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	backend, err := vision.NewBackend(ctx, cfg.AIConfig, instructions)
	if err != nil {
		return err
	}

	var result vision.BatchResult
	if page > 0 {
		result, err = vision.TranscribePage(ctx, backend, cfg, types.PageRef{Year: args[0], Page: page}, os.Stdout)
	} else {
		result, err = vision.TranscribeYear(ctx, backend, cfg, args[0], os.Stdout)
	}
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d page(s) failed transcription", result.Failed)
	}
	return nil
}
