// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ResultStatus tags the outcome of one export.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusFailure ResultStatus = "failure"
)

// Destination is the computed output location for one export.
type Destination struct {
	// Dir is the output directory.
	Dir string `json:"dir" yaml:"dir"`

	// Filename is "{title}_{yyyyMMdd_HHmmss}.ifc".
	Filename string `json:"filename" yaml:"filename"`

	// FullPath joins Dir and Filename.
	FullPath string `json:"full_path" yaml:"full_path"`
}

// Result is the outcome of an export. FullPath is set only on success.
type Result struct {
	Status   ResultStatus `json:"status" yaml:"status"`
	Message  string       `json:"message" yaml:"message"`
	FullPath string       `json:"full_path,omitempty" yaml:"full_path,omitempty"`
}

// Succeeded reports whether the result is tagged success.
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// HistoryEntry is one recorded export outcome.
type HistoryEntry struct {
	ID         string       `json:"id" yaml:"id"`
	SourcePath string       `json:"source_path" yaml:"source_path"`
	Title      string       `json:"title" yaml:"title"`
	FullPath   string       `json:"full_path,omitempty" yaml:"full_path,omitempty"`
	Status     ResultStatus `json:"status" yaml:"status"`
	Message    string       `json:"message" yaml:"message"`
	IFCVersion IFCVersion   `json:"ifc_version" yaml:"ifc_version"`
	ExportedAt time.Time    `json:"exported_at" yaml:"exported_at"`
}
