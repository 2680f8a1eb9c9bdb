// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export orchestrates one IFC export: it derives the destination,
// ensures the output directory exists, invokes the host, and turns every
// outcome into a types.Result.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/revit-ifc-export/internal/host"
	"github.com/pdiddy/revit-ifc-export/internal/retry"
	"github.com/pdiddy/revit-ifc-export/pkg/types"
)

const (
	// DirName is the tool's folder under the operator's desktop.
	DirName = "RevitExport"

	// TimestampLayout renders yyyyMMdd_HHmmss.
	TimestampLayout = "20060102_150405"

	ifcExt = ".ifc"

	successPrefix = "IFC file exported successfully to:\n"
	failurePrefix = "Export Failed: "
)

// DefaultDir returns <home>/Desktop/RevitExport.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, "Desktop", DirName), nil
}

// Filename returns "{title}_{yyyyMMdd_HHmmss}.ifc".
func Filename(title string, t time.Time) string {
	return title + "_" + t.Format(TimestampLayout) + ifcExt
}

// Orchestrator runs exports with a fixed configuration and output policy.
type Orchestrator struct {
	Config types.ExportConfig
	Output types.OutputConfig

	// Now supplies the export timestamp. Defaults to time.Now.
	Now func() time.Time

	Log logrus.FieldLogger
}

// New returns an orchestrator for the given settings.
func New(cfg types.ExportConfig, out types.OutputConfig, log logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{Config: cfg, Output: out, Now: time.Now, Log: log}
}

// Destination computes the output directory, filename, and full path for a
// document title at time t. It does not touch the file system except under
// the suffix collision policy, which probes for existing files.
func (o *Orchestrator) Destination(title string, t time.Time) (types.Destination, error) {
	dir := o.Output.Dir
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return types.Destination{}, err
		}
	}
	name := Filename(title, t)
	if o.Output.Collision == types.CollisionSuffix {
		name = freeName(dir, name)
	}
	return types.Destination{
		Dir:      dir,
		Filename: name,
		FullPath: filepath.Join(dir, name),
	}, nil
}

// freeName appends _1, _2, ... before the extension until no file exists.
func freeName(dir, name string) string {
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		return name
	}
	base := strings.TrimSuffix(name, ifcExt)
	for i := 1; ; i++ {
		candidate := base + "_" + strconv.Itoa(i) + ifcExt
		if _, err := os.Stat(filepath.Join(dir, candidate)); err != nil {
			return candidate
		}
	}
}

// EnsureDir creates dir and any missing parents. It succeeds silently when
// dir already exists.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return nil
}

// Export converts doc to IFC. It never returns an error: every failure is
// reported as a failure Result carrying the underlying message, including a
// panic raised inside the host.
func (o *Orchestrator) Export(ctx context.Context, doc host.Document) (res types.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(fmt.Errorf("%v", r))
		}
	}()

	log := o.logger().WithField("title", doc.Title())

	now := time.Now
	if o.Now != nil {
		now = o.Now
	}

	dest, err := o.Destination(doc.Title(), now())
	if err != nil {
		return failure(err)
	}
	if err := EnsureDir(dest.Dir); err != nil {
		return failure(err)
	}
	log.WithField("path", dest.FullPath).Debug("exporting")

	err = retry.Do(ctx, o.Output.MaxRetries, isTransient, func() error {
		err := doc.Export(ctx, dest.Dir, dest.Filename, o.Config)
		if err != nil && isTransient(err) {
			log.WithError(err).Warn("transient export failure")
		}
		return err
	})
	if err != nil {
		if o.Output.RemovePartial {
			if rmErr := os.Remove(dest.FullPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				log.WithError(rmErr).Warn("could not remove partial output")
			}
		}
		return failure(err)
	}

	log.WithField("path", dest.FullPath).Debug("export complete")
	return types.Result{
		Status:   types.StatusSuccess,
		Message:  successPrefix + dest.FullPath,
		FullPath: dest.FullPath,
	}
}

func (o *Orchestrator) logger() logrus.FieldLogger {
	if o.Log == nil {
		return logrus.StandardLogger()
	}
	return o.Log
}

func isTransient(err error) bool {
	return errors.Is(err, host.ErrTransient)
}

func failure(err error) types.Result {
	return types.Result{Status: types.StatusFailure, Message: failurePrefix + err.Error()}
}
