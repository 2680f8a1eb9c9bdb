// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package hosttest provides an in-memory modeling host for tests.
package hosttest

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pdiddy/revit-ifc-export/internal/host"
	"github.com/pdiddy/revit-ifc-export/pkg/types"
)

// ExportCall records one Export invocation.
type ExportCall struct {
	Dir      string
	Filename string
	Config   types.ExportConfig
}

// Host is a fake host.Host. OpenErr fails Open. Each Export consumes the
// next entry of ExportErrs; a nil entry (or running out) succeeds and, when
// WriteFile is set, writes a placeholder IFC file at the destination.
type Host struct {
	Title      string
	OpenErr    error
	ExportErrs []error
	WriteFile  bool

	Opened []string
	Doc    *Document
}

// Open returns a fake document unless OpenErr is set.
func (h *Host) Open(_ context.Context, path string) (host.Document, error) {
	h.Opened = append(h.Opened, path)
	if h.OpenErr != nil {
		return nil, h.OpenErr
	}
	h.Doc = &Document{host: h, title: h.Title}
	return h.Doc, nil
}

// Document is the fake document returned by Host.Open.
type Document struct {
	host   *Host
	title  string
	Calls  []ExportCall
	Closed int
}

// NewDocument returns a standalone document with the given title and
// export outcomes.
func NewDocument(title string, exportErrs ...error) *Document {
	return &Document{host: &Host{ExportErrs: exportErrs}, title: title}
}

func (d *Document) Title() string { return d.title }

func (d *Document) Export(_ context.Context, dir, filename string, cfg types.ExportConfig) error {
	d.Calls = append(d.Calls, ExportCall{Dir: dir, Filename: filename, Config: cfg})
	var err error
	if i := len(d.Calls) - 1; i < len(d.host.ExportErrs) {
		err = d.host.ExportErrs[i]
	}
	if d.host.WriteFile {
		if werr := os.WriteFile(filepath.Join(dir, filename), []byte("ISO-10303-21;\n"), 0o644); werr != nil {
			return werr
		}
	}
	return err
}

func (d *Document) Close() error {
	d.Closed++
	return nil
}
