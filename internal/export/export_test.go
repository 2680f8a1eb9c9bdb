// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/revit-ifc-export/internal/host"
	"github.com/pdiddy/revit-ifc-export/internal/host/hosttest"
	"github.com/pdiddy/revit-ifc-export/internal/retry"
	"github.com/pdiddy/revit-ifc-export/pkg/types"
)

func init() {
	retry.BaseDelay = time.Millisecond
}

var fixedTime = time.Date(2026, 3, 7, 9, 5, 2, 0, time.Local)

func newTestOrchestrator(t *testing.T, out types.OutputConfig) *Orchestrator {
	t.Helper()
	if out.Dir == "" {
		out.Dir = filepath.Join(t.TempDir(), "Desktop", DirName)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	o := New(types.DefaultExportConfig(), out, log)
	o.Now = func() time.Time { return fixedTime }
	return o
}

func TestFilename(t *testing.T) {
	tests := []struct {
		title string
		at    time.Time
		want  string
	}{
		{"Tower-A", fixedTime, "Tower-A_20260307_090502.ifc"},
		{"Clinic Phase 2", time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC), "Clinic Phase 2_20251231_235959.ifc"},
		{"", fixedTime, "_20260307_090502.ifc"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.title, tt.at))
		})
	}
}

func TestFilename_SameSecondCollides(t *testing.T) {
	a := Filename("Tower-A", fixedTime)
	b := Filename("Tower-A", fixedTime.Add(900*time.Millisecond))
	assert.Equal(t, a, b)
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("HOME", "/home/operator")
	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/operator", "Desktop", "RevitExport"), dir)
}

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	require.NoError(t, EnsureDir(dir))
	require.DirExists(t, dir)
	require.NoError(t, EnsureDir(dir))

	entries, err := os.ReadDir(filepath.Dir(dir))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnsureDir_FileInTheWay(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := EnsureDir(filepath.Join(blocker, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating output directory")
}

func TestDestination_Suffix(t *testing.T) {
	o := newTestOrchestrator(t, types.OutputConfig{Collision: types.CollisionSuffix})
	require.NoError(t, EnsureDir(o.Output.Dir))

	first, err := o.Destination("Tower-A", fixedTime)
	require.NoError(t, err)
	assert.Equal(t, "Tower-A_20260307_090502.ifc", first.Filename)

	require.NoError(t, os.WriteFile(first.FullPath, nil, 0o644))
	second, err := o.Destination("Tower-A", fixedTime)
	require.NoError(t, err)
	assert.Equal(t, "Tower-A_20260307_090502_1.ifc", second.Filename)

	require.NoError(t, os.WriteFile(second.FullPath, nil, 0o644))
	third, err := o.Destination("Tower-A", fixedTime)
	require.NoError(t, err)
	assert.Equal(t, "Tower-A_20260307_090502_2.ifc", third.Filename)
}

func TestDestination_OverwriteKeepsName(t *testing.T) {
	o := newTestOrchestrator(t, types.OutputConfig{Collision: types.CollisionOverwrite})
	require.NoError(t, EnsureDir(o.Output.Dir))

	first, err := o.Destination("Tower-A", fixedTime)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(first.FullPath, nil, 0o644))

	second, err := o.Destination("Tower-A", fixedTime)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExport_Success(t *testing.T) {
	o := newTestOrchestrator(t, types.OutputConfig{})
	doc := hosttest.NewDocument("Tower-A")

	res := o.Export(context.Background(), doc)

	wantPath := filepath.Join(o.Output.Dir, "Tower-A_20260307_090502.ifc")
	require.True(t, res.Succeeded())
	assert.Equal(t, "IFC file exported successfully to:\n"+wantPath, res.Message)
	assert.Equal(t, wantPath, res.FullPath)
	assert.DirExists(t, o.Output.Dir, "directory is created before export")

	require.Len(t, doc.Calls, 1)
	assert.Equal(t, hosttest.ExportCall{
		Dir:      o.Output.Dir,
		Filename: "Tower-A_20260307_090502.ifc",
		Config:   types.DefaultExportConfig(),
	}, doc.Calls[0])
}

func TestExport_DirectoryAlreadyExists(t *testing.T) {
	o := newTestOrchestrator(t, types.OutputConfig{})
	require.NoError(t, os.MkdirAll(o.Output.Dir, 0o755))

	res := o.Export(context.Background(), hosttest.NewDocument("Tower-A"))
	assert.True(t, res.Succeeded())
}

func TestExport_Failure(t *testing.T) {
	o := newTestOrchestrator(t, types.OutputConfig{})
	doc := hosttest.NewDocument("Tower-A", errors.New("disk full"))

	res := o.Export(context.Background(), doc)

	assert.Equal(t, types.StatusFailure, res.Status)
	assert.Equal(t, "Export Failed: disk full", res.Message)
	assert.Empty(t, res.FullPath)
}

func TestExport_DirectoryFailure(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	o := newTestOrchestrator(t, types.OutputConfig{Dir: filepath.Join(blocker, "out")})
	doc := hosttest.NewDocument("Tower-A")

	res := o.Export(context.Background(), doc)

	assert.Equal(t, types.StatusFailure, res.Status)
	assert.True(t, strings.HasPrefix(res.Message, "Export Failed: creating output directory"))
	assert.Empty(t, doc.Calls, "host is never called without a destination directory")
}

func TestExport_HostPanicBecomesFailure(t *testing.T) {
	o := newTestOrchestrator(t, types.OutputConfig{})
	res := o.Export(context.Background(), panicDoc{})
	assert.Equal(t, types.StatusFailure, res.Status)
	assert.Equal(t, "Export Failed: host crashed", res.Message)
}

func TestExport_PartialOutput(t *testing.T) {
	tests := []struct {
		name          string
		removePartial bool
		wantFile      bool
	}{
		{name: "left in place by default", removePartial: false, wantFile: true},
		{name: "removed when configured", removePartial: true, wantFile: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator(t, types.OutputConfig{RemovePartial: tt.removePartial})
			h := &hosttest.Host{Title: "Tower-A", ExportErrs: []error{errors.New("unsupported element")}, WriteFile: true}
			doc, err := h.Open(context.Background(), "model.rvt")
			require.NoError(t, err)

			res := o.Export(context.Background(), doc)
			require.Equal(t, types.StatusFailure, res.Status)

			path := filepath.Join(o.Output.Dir, "Tower-A_20260307_090502.ifc")
			if tt.wantFile {
				assert.FileExists(t, path)
			} else {
				assert.NoFileExists(t, path)
			}
		})
	}
}

func TestExport_Retry(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		errs       []error
		wantCalls  int
		wantOK     bool
		wantMsg    string
	}{
		{
			name:       "transient error retried then succeeds",
			maxRetries: 2,
			errs:       []error{host.Transient("file locked"), nil},
			wantCalls:  2,
			wantOK:     true,
		},
		{
			name:       "transient error not retried by default",
			maxRetries: 0,
			errs:       []error{host.Transient("file locked")},
			wantCalls:  1,
			wantMsg:    "Export Failed: file locked",
		},
		{
			name:       "permanent error never retried",
			maxRetries: 3,
			errs:       []error{errors.New("permission denied")},
			wantCalls:  1,
			wantMsg:    "Export Failed: permission denied",
		},
		{
			name:       "retries exhausted",
			maxRetries: 1,
			errs:       []error{host.Transient("file locked"), host.Transient("still locked")},
			wantCalls:  2,
			wantMsg:    "Export Failed: still locked",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator(t, types.OutputConfig{MaxRetries: tt.maxRetries})
			doc := hosttest.NewDocument("Tower-A", tt.errs...)

			res := o.Export(context.Background(), doc)

			assert.Len(t, doc.Calls, tt.wantCalls)
			assert.Equal(t, tt.wantOK, res.Succeeded())
			if !tt.wantOK {
				assert.Equal(t, tt.wantMsg, res.Message)
			}
		})
	}
}

type panicDoc struct{}

func (panicDoc) Title() string { return "Broken" }

func (panicDoc) Export(context.Context, string, string, types.ExportConfig) error {
	panic("host crashed")
}

func (panicDoc) Close() error { return nil }
