// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// PageRef identifies one page of one directory year.
type PageRef struct {
	// Year is the directory year, e.g. "1887".
	Year string `json:"year" yaml:"year"`

	// Page is the 1-based page number within the year's PDF.
	Page int `json:"page" yaml:"page"`
}

// Stem returns the canonical file stem for the page, e.g. "1887-page-0032".
// All stages name their per-page artifacts with this stem plus an extension.
func (p PageRef) Stem() string {
	return fmt.Sprintf("%s-page-%04d", p.Year, p.Page)
}

// Key returns the short identifier used for batch request correlation,
// e.g. "1887-0032".
func (p PageRef) Key() string {
	return fmt.Sprintf("%s-%04d", p.Year, p.Page)
}

func (p PageRef) String() string {
	return p.Stem()
}

// TSVHeader is the expected header of every structured output table, in
// column order: practitioner name, first listed year, qualifications and
// notes, address, consultation hours.
var TSVHeader = []string{"nom", "année", "notes", "adresse", "horaires"}

// PageResult records the outcome of processing one page through a model.
type PageResult struct {
	Page     string  `json:"page" yaml:"page"`
	Success  bool    `json:"success" yaml:"success"`
	Error    string  `json:"error,omitempty" yaml:"error,omitempty"`
	Model    string  `json:"model,omitempty" yaml:"model,omitempty"`
	Duration float64 `json:"seconds,omitempty" yaml:"seconds,omitempty"`
	Retries  int     `json:"retries,omitempty" yaml:"retries,omitempty"`
}
