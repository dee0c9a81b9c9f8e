// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt assembles the LLM instruction prompts from the prompt
// directory. The instructions are authored in French alongside an example
// output table; both are required files.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	rawInstructionsFile   = "instructions-raw.txt"
	imageInstructionsFile = "instructions-image-input.txt"
	exampleOutputFile     = "instructions-example-output.tsv"
)

// OCRSuffix introduces the OCR text block appended after the instructions
// when the full prompt travels as a single message.
const OCRSuffix = "\n\n### TEXTE OCR À TRAITER:\n"

// ImageSuffix introduces the page image reference for vision requests.
const ImageSuffix = "\n\n### IMAGE À TRAITER:\n"

// Correction returns the system instructions for correcting OCR text:
// the raw-text instructions followed by the expected-output example.
func Correction(dir string) (string, error) {
	return build(dir, rawInstructionsFile)
}

// Vision returns the system instructions for transcribing a page image
// directly, without any OCR input.
func Vision(dir string) (string, error) {
	return build(dir, imageInstructionsFile)
}

func build(dir, instructionsFile string) (string, error) {
	instructions, err := readPromptFile(dir, instructionsFile)
	if err != nil {
		return "", err
	}
	example, err := readPromptFile(dir, exampleOutputFile)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n### EXEMPLE DE SORTIE ATTENDUE\n")
	b.WriteString(example)
	return b.String(), nil
}

func readPromptFile(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("reading prompt file %s: %w", name, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("prompt file %s is empty", name)
	}
	return text, nil
}
