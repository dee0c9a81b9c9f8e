// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// OCRSource identifies where hypothesis text came from before LLM correction.
type OCRSource string

const (
	// SourceOriginal is the text layer embedded in the scanned PDFs.
	SourceOriginal OCRSource = "original"
	// SourceTesseract is text produced by running Tesseract over page images.
	SourceTesseract OCRSource = "tesseract"
	// SourceOnlyLLM marks results produced from the page image directly,
	// with no OCR pass in front of the model.
	SourceOnlyLLM OCRSource = "only-llm"
)

// RenderConfig holds settings for PDF page rasterization.
type RenderConfig struct {
	// PDFsDir is the directory containing <year>.pdf source files.
	PDFsDir string `json:"pdfs_dir" yaml:"pdfs_dir"`

	// ImagesDir is the root output directory for page PNGs
	// (contains one subdirectory per year).
	ImagesDir string `json:"images_dir" yaml:"images_dir"`

	// DPI is the rasterization resolution (default 300).
	DPI int `json:"dpi" yaml:"dpi"`
}

// PDFTextConfig holds settings for embedded text extraction.
type PDFTextConfig struct {
	// PDFsDir is the directory containing <year>.pdf source files.
	PDFsDir string `json:"pdfs_dir" yaml:"pdfs_dir"`

	// OutputDir is the root directory for extracted text
	// (contains one subdirectory per year).
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// OCRConfig holds settings for the Tesseract recognition stage.
type OCRConfig struct {
	// ImagesDir is the root directory of page PNGs.
	ImagesDir string `json:"images_dir" yaml:"images_dir"`

	// OutputDir is the root directory for recognized text.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Language is the Tesseract language code (default "fra").
	Language string `json:"language" yaml:"language"`

	// PSM is the Tesseract page segmentation mode (default 3).
	PSM int `json:"psm" yaml:"psm"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the model identifier (e.g. "gpt-5-mini" or "gemini-2.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the vendor API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// CorrectionConfig holds settings for the LLM post-correction stage.
type CorrectionConfig struct {
	AIConfig `yaml:",inline"`

	// PromptDir is the directory containing instructions-raw.txt and
	// instructions-example-output.tsv.
	PromptDir string `json:"prompt_dir" yaml:"prompt_dir"`

	// OCRDirs maps an OCR source to its root text directory.
	OCRDirs map[OCRSource]string `json:"ocr_dirs" yaml:"ocr_dirs"`

	// OutputDir is the root for corrected TSVs
	// (contains <source>/<model>/<year>/ subtrees).
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// PageDelay is the pause between consecutive pages, for rate limiting.
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`
}

// VisionConfig holds settings for direct image-input extraction.
type VisionConfig struct {
	AIConfig `yaml:",inline"`

	// ImagesDir is the root directory of page PNGs.
	ImagesDir string `json:"images_dir" yaml:"images_dir"`

	// PromptDir is the directory containing instructions-image-input.txt and
	// instructions-example-output.tsv.
	PromptDir string `json:"prompt_dir" yaml:"prompt_dir"`

	// OutputDir is the directory for only-llm TSVs.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// BatchConfig holds settings for vendor batch job orchestration.
type BatchConfig struct {
	// Dir is the working directory for request/response JSONL files and
	// sidecar job records (default "batch").
	Dir string `json:"dir" yaml:"dir"`

	// PromptDir is the directory containing the instruction files.
	PromptDir string `json:"prompt_dir" yaml:"prompt_dir"`

	// CompletionWindow is the OpenAI batch completion window (default "24h").
	CompletionWindow string `json:"completion_window" yaml:"completion_window"`

	// ReasoningEffort is the reasoning effort hint for OpenAI requests
	// ("medium" or "high", default "high").
	ReasoningEffort string `json:"reasoning_effort" yaml:"reasoning_effort"`

	// PollInterval is the sleep between status polls (default 30s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`
}

// EvalConfig holds settings for WER/CER scoring against golden truth.
type EvalConfig struct {
	// GoldenDir contains the manually verified reference TSVs.
	GoldenDir string `json:"golden_dir" yaml:"golden_dir"`

	// CorrectedDir is the root of LLM-corrected TSVs.
	CorrectedDir string `json:"corrected_dir" yaml:"corrected_dir"`

	// RawOCRDir contains raw OCR hypothesis text files named
	// <year>-page-<page>-<source>.txt.
	RawOCRDir string `json:"raw_ocr_dir" yaml:"raw_ocr_dir"`

	// OutputDir is where detailed comparison reports and the score index
	// are written.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Render     RenderConfig     `json:"render" yaml:"render"`
	PDFText    PDFTextConfig    `json:"pdftext" yaml:"pdftext"`
	OCR        OCRConfig        `json:"ocr" yaml:"ocr"`
	Correction CorrectionConfig `json:"correction" yaml:"correction"`
	Vision     VisionConfig     `json:"vision" yaml:"vision"`
	Batch      BatchConfig      `json:"batch" yaml:"batch"`
	Eval       EvalConfig       `json:"eval" yaml:"eval"`
}
