// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/renyi/annuaire-pipeline/internal/batch"
	"github.com/renyi/annuaire-pipeline/internal/bench"
	"github.com/renyi/annuaire-pipeline/internal/correct"
	"github.com/renyi/annuaire-pipeline/pkg/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run corrections through vendor batch APIs",
	Long: `Batch runs the correction prompt over benchmark pages through the
vendors' asynchronous batch APIs. The workflow is build (write the JSONL
request file), submit, status, and extract. Sidecar files next to the
request JSONL track the uploaded file and the job, so each step can run
in a fresh process.

With --source only-llm the requests carry the page images themselves
instead of OCR text, and the model transcribes each page from scratch.`,
}

var batchBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Write the JSONL request file from the benchmark table",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, source, model, err := batchParams(cmd)
		if err != nil {
			return err
		}
		benchPath, _ := cmd.Flags().GetString("benchmark")
		rows, err := bench.Read(benchPath, os.Stdout)
		if err != nil {
			return err
		}
		if source == types.SourceOnlyLLM {
			imagesDir, _ := cmd.Flags().GetString("images-dir")
			refs := make([]types.PageRef, len(rows))
			for i, row := range rows {
				refs[i] = row.Ref
			}
			return buildImages(cmd.Context(), cfg, refs, imagesDir, model)
		}
		_, err = batch.Build(cfg, rows, source, model, os.Stdout)
		return err
	},
}

func buildImages(ctx context.Context, cfg types.BatchConfig, refs []types.PageRef, imagesDir, model string) error {
	vendor, err := correct.ModelVendor(model)
	if err != nil {
		return err
	}
	switch vendor {
	case correct.VendorOpenAI:
		client, err := openaiBatchClient()
		if err != nil {
			return err
		}
		_, err = batch.BuildImagesOpenAI(ctx, client, cfg, refs, imagesDir, model, os.Stdout)
		return err
	case correct.VendorGemini:
		_, err = batch.BuildImagesGemini(cfg, refs, imagesDir, model, os.Stdout)
		return err
	}
	return fmt.Errorf("unsupported vendor %q", vendor)
}

var batchSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Upload the request file and start the batch job",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, source, model, err := batchParams(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		requestsPath := batch.RequestsPath(cfg.Dir, source, model)

		vendor, err := correct.ModelVendor(model)
		if err != nil {
			return err
		}
		switch vendor {
		case correct.VendorOpenAI:
			client, err := openaiBatchClient()
			if err != nil {
				return err
			}
			_, err = batch.SubmitOpenAI(ctx, client, cfg, requestsPath, os.Stdout)
			return err
		case correct.VendorGemini:
			client, err := geminiBatchClient(ctx)
			if err != nil {
				return err
			}
			_, err = batch.SubmitGemini(ctx, client, model, requestsPath, os.Stdout)
			return err
		}
		return fmt.Errorf("unsupported vendor %q", vendor)
	},
}

var batchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show (or wait for) the state of the batch job",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, source, model, err := batchParams(cmd)
		if err != nil {
			return err
		}
		wait, _ := cmd.Flags().GetBool("wait")
		id, _ := cmd.Flags().GetString("id")
		ctx := cmd.Context()
		requestsPath := batch.RequestsPath(cfg.Dir, source, model)

		var job batch.Job
		if id != "" {
			vendor, err := correct.ModelVendor(model)
			if err != nil {
				return err
			}
			job = batch.Job{ID: id, Vendor: string(vendor)}
		} else {
			job, err = batch.ReadJob(requestsPath)
			if err != nil {
				return err
			}
		}
		fetch, err := jobFetcher(ctx, job)
		if err != nil {
			return err
		}

		if wait {
			job, err = batch.Poll(ctx, fetch, cfg.PollInterval, os.Stdout)
		} else {
			job, err = fetch(ctx)
		}
		if err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return fmt.Errorf("creating batch directory: %w", err)
		}
		if err := batch.WriteJob(requestsPath, job); err != nil {
			return err
		}
		job.Print(os.Stdout)

		if job.Vendor == "openai" && job.Succeeded() {
			outputPath := batch.OutputPath(cfg.Dir, source, model)
			if _, err := os.Stat(outputPath); err == nil {
				return nil
			}
			client, err := openaiBatchClient()
			if err != nil {
				return err
			}
			return batch.DownloadOutput(ctx, client, job, outputPath, os.Stdout)
		}
		return nil
	},
}

var batchExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Harvest a finished batch into per-page TSVs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, source, model, err := batchParams(cmd)
		if err != nil {
			return err
		}
		outputRoot, _ := cmd.Flags().GetString("output-dir")
		ctx := cmd.Context()
		requestsPath := batch.RequestsPath(cfg.Dir, source, model)

		job, err := batch.ReadJob(requestsPath)
		if err != nil {
			return err
		}

		var result batch.BatchResult
		switch job.Vendor {
		case "openai":
			data, err := openaiOutput(ctx, cfg, job, source, model)
			if err != nil {
				return err
			}
			result, err = batch.ExtractOpenAI(data, outputRoot, source, model, os.Stdout)
			if err != nil {
				return err
			}
		case "gemini":
			client, err := geminiBatchClient(ctx)
			if err != nil {
				return err
			}
			results, err := client.Results(ctx, job.ID, requestsPath)
			if err != nil {
				return err
			}
			result, err = batch.ExtractGemini(results, outputRoot, source, model, os.Stdout)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown vendor %q in job sidecar", job.Vendor)
		}

		fmt.Printf("%d extracted, %d failed\n", result.Extracted, result.Failed)
		if result.HasFailures() {
			return fmt.Errorf("%d page(s) failed extraction", result.Failed)
		}
		return nil
	},
}

// openaiOutput returns the batch output JSONL, reusing an already
// downloaded copy when one exists.
func openaiOutput(ctx context.Context, cfg types.BatchConfig, job batch.Job, source types.OCRSource, model string) ([]byte, error) {
	outputPath := batch.OutputPath(cfg.Dir, source, model)
	if data, err := os.ReadFile(outputPath); err == nil {
		return data, nil
	}

	client, err := openaiBatchClient()
	if err != nil {
		return nil, err
	}
	job, err = client.GetBatch(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	if !job.Succeeded() {
		return nil, fmt.Errorf("batch %s is %s, not completed", job.ID, job.Status)
	}
	if err := batch.DownloadOutput(ctx, client, job, outputPath, os.Stdout); err != nil {
		return nil, err
	}
	return os.ReadFile(outputPath)
}

func init() {
	batchCmd.PersistentFlags().String("batch-dir", defaultBatchDir, "working directory for batch files")
	batchCmd.PersistentFlags().String("prompt-dir", defaultPromptDir, "directory of instruction files")
	batchCmd.PersistentFlags().String("source", "original", "OCR source: original, tesseract, or only-llm")
	batchCmd.PersistentFlags().String("model", "gpt-5-mini", "model identifier")
	batchBuildCmd.Flags().String("benchmark", defaultGoldenDir+"/benchmark.tsv", "benchmark TSV with year, page, text columns")
	batchBuildCmd.Flags().String("effort", "high", "OpenAI reasoning effort")
	batchBuildCmd.Flags().String("images-dir", defaultImagesDir, "root of rendered page images (only-llm source)")
	batchStatusCmd.Flags().Bool("wait", false, "poll until the job reaches a terminal state")
	batchStatusCmd.Flags().Duration("poll-interval", 30*time.Second, "sleep between status polls")
	batchStatusCmd.Flags().String("id", "", "query this job ID instead of the sidecar record")
	batchExtractCmd.Flags().String("output-dir", batch.RawOutputDir(defaultBatchDir), "root directory for extracted TSVs")

	batchCmd.AddCommand(batchBuildCmd)
	batchCmd.AddCommand(batchSubmitCmd)
	batchCmd.AddCommand(batchStatusCmd)
	batchCmd.AddCommand(batchExtractCmd)
	rootCmd.AddCommand(batchCmd)
}

func batchParams(cmd *cobra.Command) (types.BatchConfig, types.OCRSource, string, error) {
	dir, _ := cmd.Flags().GetString("batch-dir")
	promptDir, _ := cmd.Flags().GetString("prompt-dir")
	sourceFlag, _ := cmd.Flags().GetString("source")
	model, _ := cmd.Flags().GetString("model")
	effort, _ := cmd.Flags().GetString("effort")
	pollInterval, _ := cmd.Flags().GetDuration("poll-interval")

	source := types.OCRSource(sourceFlag)
	if source != types.SourceOriginal && source != types.SourceTesseract && source != types.SourceOnlyLLM {
		return types.BatchConfig{}, "", "", fmt.Errorf("invalid source %q: want original, tesseract, or only-llm", sourceFlag)
	}
	cfg := types.BatchConfig{
		Dir:             dir,
		PromptDir:       promptDir,
		ReasoningEffort: effort,
		PollInterval:    pollInterval,
	}
	return cfg, source, model, nil
}

func openaiBatchClient() (*batch.OpenAIClient, error) {
	key := apiKeys().OpenAI
	if key == "" {
		return nil, fmt.Errorf("no OpenAI API key: use .secrets/ or the environment")
	}
	return &batch.OpenAIClient{APIKey: key}, nil
}

func geminiBatchClient(ctx context.Context) (*batch.GeminiClient, error) {
	key := apiKeys().Gemini
	if key == "" {
		return nil, fmt.Errorf("no Gemini API key: use .secrets/ or the environment")
	}
	return batch.NewGeminiClient(ctx, key)
}

func jobFetcher(ctx context.Context, job batch.Job) (func(context.Context) (batch.Job, error), error) {
	switch job.Vendor {
	case "openai":
		client, err := openaiBatchClient()
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (batch.Job, error) {
			return client.GetBatch(ctx, job.ID)
		}, nil
	case "gemini":
		client, err := geminiBatchClient(ctx)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (batch.Job, error) {
			return client.GetBatch(ctx, job.ID)
		}, nil
	}
	return nil, fmt.Errorf("unknown vendor %q in job sidecar", job.Vendor)
}
