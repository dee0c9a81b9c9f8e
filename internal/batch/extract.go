// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/renyi/annuaire-pipeline/internal/correct"
	"github.com/renyi/annuaire-pipeline/pkg/types"
)

// BatchResult summarizes one extract run.
type BatchResult struct {
	Extracted int
	Failed    int
}

// HasFailures reports whether any page failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// openaiOutputLine is one line of an OpenAI batch output file.
type openaiOutputLine struct {
	CustomID string           `json:"custom_id"`
	Error    *openaiLineError `json:"error"`
	Response *openaiLineResp  `json:"response"`
}

type openaiLineError struct {
	Message string `json:"message"`
}

type openaiLineResp struct {
	StatusCode int            `json:"status_code"`
	Body       openaiLineBody `json:"body"`
}

type openaiLineBody struct {
	Output []openaiLineOutput `json:"output"`
	Error  *openaiLineError   `json:"error"`
}

type openaiLineOutput struct {
	Type    string              `json:"type"`
	Content []openaiLineContent `json:"content"`
}

type openaiLineContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ExtractOpenAI walks a downloaded batch output file and writes one TSV per
// successful page under <outputRoot>/<source>-<model>/. Lines that carry
// errors or malformed tables are reported on w and counted.
func ExtractOpenAI(data []byte, outputRoot string, source types.OCRSource, model string, w io.Writer) (BatchResult, error) {
	var result BatchResult
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var line openaiOutputLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			fmt.Fprintf(w, "failed: unparseable output line (%v)\n", err)
			result.Failed++
			continue
		}

		text, err := openaiLineText(line)
		if err != nil {
			fmt.Fprintf(w, "failed: %s (%v)\n", line.CustomID, err)
			result.Failed++
			continue
		}
		writeExtracted(&result, outputRoot, source, model, line.CustomID, text, w)
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("reading output file: %w", err)
	}
	if result.Extracted+result.Failed == 0 {
		return result, fmt.Errorf("output file contained no results")
	}
	return result, nil
}

func openaiLineText(line openaiOutputLine) (string, error) {
	if line.Error != nil {
		return "", fmt.Errorf("request error: %s", line.Error.Message)
	}
	if line.Response == nil {
		return "", fmt.Errorf("no response")
	}
	if line.Response.StatusCode != 0 && line.Response.StatusCode != 200 {
		return "", fmt.Errorf("response status %d", line.Response.StatusCode)
	}
	if line.Response.Body.Error != nil {
		return "", fmt.Errorf("API error: %s", line.Response.Body.Error.Message)
	}
	for _, item := range line.Response.Body.Output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" {
				return c.Text, nil
			}
		}
	}
	return "", fmt.Errorf("no output_text in response")
}

// ExtractGemini writes one TSV per harvested page under
// <outputRoot>/<source>-<model>/.
func ExtractGemini(results []Result, outputRoot string, source types.OCRSource, model string, w io.Writer) (BatchResult, error) {
	var result BatchResult
	for _, r := range results {
		if r.Err != "" {
			fmt.Fprintf(w, "failed: %s (%s)\n", r.Key, r.Err)
			result.Failed++
			continue
		}
		writeExtracted(&result, outputRoot, source, model, r.Key, r.Text, w)
	}
	if result.Extracted+result.Failed == 0 {
		return result, fmt.Errorf("batch contained no results")
	}
	return result, nil
}

func writeExtracted(result *BatchResult, outputRoot string, source types.OCRSource, model, key, text string, w io.Writer) {
	ref, err := refFromKey(key)
	if err != nil {
		fmt.Fprintf(w, "failed: %s (%v)\n", key, err)
		result.Failed++
		return
	}

	tsv := correct.CleanResponse(text)
	if err := correct.ValidateTSV(tsv); err != nil {
		fmt.Fprintf(w, "failed: %s (%v)\n", ref, err)
		result.Failed++
		return
	}

	outDir := filepath.Join(outputRoot, fmt.Sprintf("%s-%s", source, model))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed: %s (%v)\n", ref, err)
		result.Failed++
		return
	}
	outPath := filepath.Join(outDir, ref.Stem()+".tsv")
	if err := os.WriteFile(outPath, []byte(tsv+"\n"), 0o644); err != nil {
		fmt.Fprintf(w, "failed: %s (%v)\n", ref, err)
		result.Failed++
		return
	}
	fmt.Fprintf(w, "extracted: %s\n", ref)
	result.Extracted++
}

// refFromKey parses a batch correlation key like "1887-0032". The page
// part must be a positive number; the year part must be safe to use as a
// directory name.
func refFromKey(key string) (types.PageRef, error) {
	i := strings.LastIndex(key, "-")
	if i <= 0 || i == len(key)-1 {
		return types.PageRef{}, fmt.Errorf("malformed key %q", key)
	}
	page, err := strconv.Atoi(key[i+1:])
	if err != nil || page < 1 {
		return types.PageRef{}, fmt.Errorf("malformed key %q", key)
	}
	year := key[:i]
	if strings.ContainsAny(year, `/\`) {
		return types.PageRef{}, fmt.Errorf("malformed key %q", key)
	}
	return types.PageRef{Year: year, Page: page}, nil
}
