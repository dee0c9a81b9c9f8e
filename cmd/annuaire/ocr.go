// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/renyi/annuaire-pipeline/internal/tessocr"
	"github.com/renyi/annuaire-pipeline/pkg/types"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr <years...>",
	Short: "Run Tesseract over rendered page images",
	Long: `Ocr recognizes every page image of the given years with Tesseract,
writing one text file per page under <output-dir>/<year>/. Pages with
existing output are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOCR,
}

func init() {
	ocrCmd.Flags().String("images-dir", defaultImagesDir, "directory of page images")
	ocrCmd.Flags().String("output-dir", defaultTesseractDir, "output directory for recognized text")
	ocrCmd.Flags().String("lang", "fra", "Tesseract language code")
	ocrCmd.Flags().Int("psm", 3, "Tesseract page segmentation mode")
	ocrCmd.Flags().Int("page", 0, "recognize a single page (single year only)")

	rootCmd.AddCommand(ocrCmd)
}

func runOCR(cmd *cobra.Command, args []string) error {
	imagesDir, _ := cmd.Flags().GetString("images-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	lang, _ := cmd.Flags().GetString("lang")
	psm, _ := cmd.Flags().GetInt("psm")
	page, _ := cmd.Flags().GetInt("page")

	cfg := types.OCRConfig{
		ImagesDir: imagesDir,
		OutputDir: outputDir,
		Language:  lang,
		PSM:       psm,
	}
	engine := tessocr.NewTesseractEngine()

	if page > 0 {
		if len(args) != 1 {
			return fmt.Errorf("--page requires exactly one year")
		}
		result, err := tessocr.RecognizePage(engine, cfg, types.PageRef{Year: args[0], Page: page}, os.Stdout)
		if err != nil {
			return err
		}
		if result.HasFailures() {
			return fmt.Errorf("recognition failed")
		}
		return nil
	}

	failed := 0
	for _, year := range args {
		result, err := tessocr.RecognizeYear(engine, cfg, year, os.Stdout)
		if err != nil {
			return err
		}
		failed += result.Failed
	}
	if failed > 0 {
		return fmt.Errorf("%d page(s) failed recognition", failed)
	}
	return nil
}
