// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/revit-ifc-export/internal/export"
	"github.com/pdiddy/revit-ifc-export/internal/history"
	"github.com/pdiddy/revit-ifc-export/internal/host"
	"github.com/pdiddy/revit-ifc-export/pkg/types"
)

const (
	usageMessage    = "Usage: ifc-export <Revit Project File Path>"
	notFoundMessage = "The specified Revit file does not exist."

	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// exporter runs one export invocation. Collaborators are fields so tests
// can swap in a fake host and a fixed clock.
type exporter struct {
	cfg     types.Config
	newHost func(types.HostConfig, logrus.FieldLogger) (host.Host, error)
	now     func() time.Time
	log     logrus.FieldLogger
	out     io.Writer
}

func newProcessHost(cfg types.HostConfig, log logrus.FieldLogger) (host.Host, error) {
	return host.NewProcessHost(cfg, log)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	e := &exporter{
		cfg:     cfg,
		newHost: newProcessHost,
		now:     time.Now,
		log:     logger,
		out:     cmd.OutOrStdout(),
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if code := e.run(ctx, args); code != exitOK {
		return &exitError{code: code}
	}
	return nil
}

// run validates the arguments, opens the document, exports it, prints one
// result line, and returns the process exit status.
func (e *exporter) run(ctx context.Context, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(e.out, usageMessage)
		return exitUsage
	}
	path := args[0]

	if info, err := os.Stat(path); err != nil || info.IsDir() {
		fmt.Fprintln(e.out, notFoundMessage)
		return exitFailure
	}

	if err := e.cfg.Export.Validate(); err != nil {
		return e.fail(err)
	}
	if err := e.cfg.Output.Validate(); err != nil {
		return e.fail(err)
	}

	h, err := e.newHost(e.cfg.Host, e.log)
	if err != nil {
		return e.fail(err)
	}

	doc, err := h.Open(ctx, path)
	if err != nil {
		return e.fail(err)
	}
	defer func() {
		if err := doc.Close(); err != nil {
			e.log.WithError(err).Warn("closing document")
		}
	}()

	orch := export.New(e.cfg.Export, e.cfg.Output, e.log)
	orch.Now = e.now
	res := orch.Export(ctx, doc)

	e.record(ctx, path, doc.Title(), res)

	fmt.Fprintln(e.out, res.Message)
	if !res.Succeeded() {
		return exitFailure
	}
	return exitOK
}

func (e *exporter) fail(err error) int {
	fmt.Fprintf(e.out, "Error: %s\n", err)
	return exitFailure
}

// record appends the outcome to the history ledger when enabled. Ledger
// problems are logged and never change the export result.
func (e *exporter) record(ctx context.Context, source, title string, res types.Result) {
	if !e.cfg.History.Enabled {
		return
	}
	path, err := historyPath(e.cfg)
	if err != nil {
		e.log.WithError(err).Warn("resolving history path")
		return
	}
	store, err := history.NewStore(path)
	if err != nil {
		e.log.WithError(err).Warn("opening history")
		return
	}
	defer store.Close()

	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}
	entry, err := store.Record(ctx, types.HistoryEntry{
		SourcePath: abs,
		Title:      title,
		FullPath:   res.FullPath,
		Status:     res.Status,
		Message:    res.Message,
		IFCVersion: e.cfg.Export.IFCVersion,
		ExportedAt: e.now(),
	})
	if err != nil {
		e.log.WithError(err).Warn("recording history")
		return
	}
	e.log.WithField("id", entry.ID).Debug("history recorded")
}
