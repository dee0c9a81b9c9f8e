// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/renyi/annuaire-pipeline/internal/pdftext"
	"github.com/renyi/annuaire-pipeline/pkg/types"
)

var pdftextCmd = &cobra.Command{
	Use:   "pdftext <years...>",
	Short: "Extract the embedded OCR text layer from PDFs",
	Long: `Pdftext pulls the text layer that the scanning vendor embedded in the
PDFs, one file per page under <output-dir>/<year>/. With --stdout the text
is printed with page markers instead of written to files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPDFText,
}

func init() {
	pdftextCmd.Flags().String("pdfs-dir", defaultPDFsDir, "directory of <year>.pdf files")
	pdftextCmd.Flags().String("output-dir", defaultOriginalDir, "output directory for page text")
	pdftextCmd.Flags().Bool("stdout", false, "print text instead of writing files")

	rootCmd.AddCommand(pdftextCmd)
}

func runPDFText(cmd *cobra.Command, args []string) error {
	pdfsDir, _ := cmd.Flags().GetString("pdfs-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	toStdout, _ := cmd.Flags().GetBool("stdout")

	cfg := types.PDFTextConfig{PDFsDir: pdfsDir, OutputDir: outputDir}
	if toStdout {
		cfg.OutputDir = ""
	}

	ex := pdftext.FitzExtractor{}
	failed := 0
	for _, year := range args {
		result, err := pdftext.ExtractYear(ex, cfg, year, os.Stdout)
		if err != nil {
			return err
		}
		failed += result.Failed
	}
	if failed > 0 {
		return fmt.Errorf("%d page(s) failed extraction", failed)
	}
	return nil
}
