// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/renyi/annuaire-pipeline/internal/correct"
	"github.com/renyi/annuaire-pipeline/internal/render"
	"github.com/renyi/annuaire-pipeline/pkg/types"
)

var renderCmd = &cobra.Command{
	Use:   "render [years...]",
	Short: "Rasterize PDF pages to PNG images",
	Long: `Render rasterizes directory PDFs into one PNG per page under
<images-dir>/<year>/. Years default to every PDF present. Pages that
already have an image are skipped, so interrupted runs resume cheaply.`,
	RunE: runRender,
}

var renderInfoCmd = &cobra.Command{
	Use:   "info <year>",
	Short: "Print page count and metadata for a year's PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := renderConfig(cmd)
		info, err := render.PDFInfo(render.PDFPath(cfg, args[0]))
		if err != nil {
			return err
		}
		fmt.Printf("pages: %d\n", info.PageCount)
		for k, v := range info.Metadata {
			if v != "" {
				fmt.Printf("%s: %s\n", k, v)
			}
		}
		return nil
	},
}

var renderTargetsCmd = &cobra.Command{
	Use:   "targets <file>",
	Short: "Render the page ranges listed in a targets TSV",
	Long: `Targets reads a TSV with columns year, page_begin, and page_end and
renders exactly those pages. Use --years to restrict the file to a subset.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := renderConfig(cmd)
		years, _ := cmd.Flags().GetStringSlice("years")

		targets, err := render.ReadTargets(args[0], years, os.Stdout)
		if err != nil {
			return err
		}
		result := render.RenderTargets(newRenderer(cmd), cfg, targets, os.Stdout)
		if result.HasFailures() {
			return fmt.Errorf("%d page(s) failed to render", result.Failed)
		}
		return nil
	},
}

func init() {
	renderCmd.PersistentFlags().String("pdfs-dir", defaultPDFsDir, "directory of <year>.pdf files")
	renderCmd.PersistentFlags().String("images-dir", defaultImagesDir, "output directory for page images")
	renderCmd.PersistentFlags().Int("dpi", 0, "rasterization resolution (default 300)")
	renderCmd.PersistentFlags().Bool("exec", false, "use the pdftoppm binary instead of the built-in renderer")
	renderCmd.Flags().String("pages", "", "page selection, e.g. \"1,5,10-12\" (single year only)")
	renderTargetsCmd.Flags().StringSlice("years", nil, "restrict targets to these years")

	renderCmd.AddCommand(renderInfoCmd)
	renderCmd.AddCommand(renderTargetsCmd)
	rootCmd.AddCommand(renderCmd)
}

func renderConfig(cmd *cobra.Command) types.RenderConfig {
	pdfsDir, _ := cmd.Flags().GetString("pdfs-dir")
	imagesDir, _ := cmd.Flags().GetString("images-dir")
	dpi, _ := cmd.Flags().GetInt("dpi")
	return types.RenderConfig{PDFsDir: pdfsDir, ImagesDir: imagesDir, DPI: dpi}
}

func newRenderer(cmd *cobra.Command) render.Renderer {
	preferExec, _ := cmd.Flags().GetBool("exec")
	return render.DetectRenderer(preferExec)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := renderConfig(cmd)
	r := newRenderer(cmd)

	pagesFlag, _ := cmd.Flags().GetString("pages")
	if pagesFlag != "" {
		if len(args) != 1 {
			return fmt.Errorf("--pages requires exactly one year")
		}
		pages, err := correct.ParsePageRange(pagesFlag)
		if err != nil {
			return err
		}
		var result render.BatchResult
		for _, page := range pages {
			res, err := render.RenderPage(r, cfg, types.PageRef{Year: args[0], Page: page}, os.Stdout)
			if err != nil {
				return err
			}
			result.Add(res)
		}
		if result.HasFailures() {
			return fmt.Errorf("%d page(s) failed to render", result.Failed)
		}
		return nil
	}

	years, err := render.Years(cfg, args, os.Stdout)
	if err != nil {
		return err
	}

	var result render.BatchResult
	for _, year := range years {
		res, err := render.RenderYear(r, cfg, year, os.Stdout)
		if err != nil {
			return err
		}
		result.Add(res)
	}
	if result.HasFailures() {
		return fmt.Errorf("%d page(s) failed to render", result.Failed)
	}
	return nil
}
