// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the annuaire CLI, the pipeline that
// turns scanned Rosenwald medical directory pages into structured TSV
// records and scores the results against golden truth.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/renyi/annuaire-pipeline/internal/correct"
	"github.com/renyi/annuaire-pipeline/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// Default directory layout, relative to the working directory.
const (
	defaultPDFsDir      = "pdfs"
	defaultImagesDir    = "rosenwald-images"
	defaultOriginalDir  = "rosenwald-original-ocr"
	defaultTesseractDir = "rosenwald-tesseract-ocr"
	defaultCorrectedDir = "llm-corrected-results"
	defaultGoldenDir    = "golden-truth"
	defaultRawOCRDir    = "ocr-no-ad"
	defaultCompareDir   = "compare-results"
	defaultBatchDir     = "batch"
	defaultPromptDir    = "prompts"
)

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault resolves a key in precedence order: explicit fallback (a
// flag value), then environment and config via viper, then .secrets/.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v := viper.GetString(key); v != "" {
		return v
	}
	return loadedSecrets[key]
}

// apiKeys collects the per-vendor keys from secrets, environment, and
// config.
func apiKeys() correct.KeySet {
	return correct.KeySet{
		OpenAI: secretDefault("openai-api-key", ""),
		Gemini: secretDefault("gemini-api-key", ""),
	}
}

// rootCmd is the base command for the annuaire CLI.
var rootCmd = &cobra.Command{
	Use:   "annuaire",
	Short: "OCR and LLM pipeline for historical medical directories",
	Long: `annuaire converts scanned pages of the Rosenwald medical directories into
structured TSV records. The pipeline renders PDF pages to images, runs OCR,
corrects the raw text with LLMs (or transcribes page images directly), and
scores every hypothesis against manually verified golden truth.

Each stage is a subcommand: render, pdftext, ocr, correct, vision, batch,
compare, and repair.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./annuaire.yaml or ~/.config/annuaire/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("annuaire")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "annuaire"))
		}
	}

	viper.SetEnvPrefix("ANNUAIRE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
