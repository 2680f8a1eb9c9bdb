// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package host defines the modeling-host capability the exporter depends on
// and a process-backed implementation that drives the host through a bridge
// command.
package host

import (
	"context"
	"errors"

	"github.com/pdiddy/revit-ifc-export/pkg/types"
)

var (
	// ErrHostUnavailable is returned when no host session can be acquired.
	ErrHostUnavailable = errors.New("modeling host unavailable")

	// ErrTransient marks export failures the host reports as retryable.
	ErrTransient = errors.New("transient host failure")
)

// Host opens documents. Open may fail for missing, corrupt, or incompatible
// files, license problems, or version mismatches.
type Host interface {
	Open(ctx context.Context, path string) (Document, error)
}

// Document is an opened model. Callers must Close it on every path.
type Document interface {
	// Title is the human-readable document title used for filenames.
	Title() string

	// Export converts the document to IFC, writing dir/filename as a side
	// effect. The call is atomic from the caller's point of view.
	Export(ctx context.Context, dir, filename string, cfg types.ExportConfig) error

	// Close releases the document and any session resources it holds.
	Close() error
}

// transientError keeps the host's message text intact while matching
// ErrTransient under errors.Is.
type transientError struct {
	msg string
}

func (e *transientError) Error() string { return e.msg }

func (e *transientError) Is(target error) bool { return target == ErrTransient }

// Transient returns an error with text msg that satisfies errors.Is(err, ErrTransient).
func Transient(msg string) error {
	return &transientError{msg: msg}
}
