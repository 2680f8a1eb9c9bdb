// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// IFCVersion identifies the IFC schema the host writes.
type IFCVersion string

const (
	IFC2x3 IFCVersion = "IFC2x3"
	IFC4   IFCVersion = "IFC4"
)

// EntireModel is the FilterViewID sentinel that exports every element rather
// than the contents of a single view.
const EntireModel = ""

// ExportConfig describes how the modeling host performs the conversion. It is
// a value type; callers build it once and pass copies.
type ExportConfig struct {
	// IFCVersion is the target schema: IFC2x3 or IFC4.
	IFCVersion IFCVersion `json:"ifc_version" yaml:"ifc_version" mapstructure:"ifc_version" validate:"oneof=IFC2x3 IFC4"`

	// SpaceBoundaryLevel is the space-boundary detail level (0, 1 or 2).
	SpaceBoundaryLevel int `json:"space_boundary_level" yaml:"space_boundary_level" mapstructure:"space_boundary_level" validate:"min=0,max=2"`

	// ExportBaseQuantities includes computed base quantities for elements.
	ExportBaseQuantities bool `json:"export_base_quantities" yaml:"export_base_quantities" mapstructure:"export_base_quantities"`

	// WallAndColumnSplitting splits walls and columns at story boundaries.
	WallAndColumnSplitting bool `json:"wall_and_column_splitting" yaml:"wall_and_column_splitting" mapstructure:"wall_and_column_splitting"`

	// FilterViewID restricts the export to one view. EntireModel exports
	// the whole document.
	FilterViewID string `json:"filter_view_id" yaml:"filter_view_id" mapstructure:"filter_view_id"`
}

// DefaultExportConfig returns the policy the tool applies when nothing is
// configured: IFC2x3, boundary level 2, base quantities, splitting, whole model.
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		IFCVersion:             IFC2x3,
		SpaceBoundaryLevel:     2,
		ExportBaseQuantities:   true,
		WallAndColumnSplitting: true,
		FilterViewID:           EntireModel,
	}
}

// ScopeEntireModel reports whether the configuration exports the whole model.
func (c ExportConfig) ScopeEntireModel() bool {
	return c.FilterViewID == EntireModel
}

var validate = validator.New()

// Validate checks enumerated fields against their allowed values.
func (c ExportConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid export configuration: %w", err)
	}
	return nil
}

// CollisionPolicy decides what happens when the destination filename is
// already taken.
type CollisionPolicy string

const (
	// CollisionOverwrite reuses the computed name; the host overwrites.
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionSuffix appends _1, _2, ... before the extension until free.
	CollisionSuffix CollisionPolicy = "suffix"
)

// OutputConfig holds destination and failure-handling settings.
type OutputConfig struct {
	// Dir is the output directory. Empty means <home>/Desktop/RevitExport.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Collision selects the filename collision policy.
	Collision CollisionPolicy `json:"collision" yaml:"collision" mapstructure:"collision" validate:"omitempty,oneof=overwrite suffix"`

	// RemovePartial deletes a file left at the destination when the export fails.
	RemovePartial bool `json:"remove_partial" yaml:"remove_partial" mapstructure:"remove_partial"`

	// MaxRetries is the number of retries for transient export errors (default 0).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"min=0,max=10"`
}

// Validate checks the output settings.
func (c OutputConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid output configuration: %w", err)
	}
	return nil
}

// HostConfig configures the process-backed modeling host.
type HostConfig struct {
	// Command is the bridge executable that drives the modeling host.
	Command string `json:"command" yaml:"command" mapstructure:"command"`

	// Args are passed to Command before the operation arguments.
	Args []string `json:"args" yaml:"args" mapstructure:"args"`

	// Timeout bounds each host operation. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// HistoryConfig configures the export history ledger.
type HistoryConfig struct {
	// Enabled records every export outcome when true.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite database file. Empty means <output dir>/history.db.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// Config groups every setting the CLI reads.
type Config struct {
	Export  ExportConfig  `json:"export" yaml:"export" mapstructure:"export"`
	Output  OutputConfig  `json:"output" yaml:"output" mapstructure:"output"`
	Host    HostConfig    `json:"host" yaml:"host" mapstructure:"host"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
}
