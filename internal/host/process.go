// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/revit-ifc-export/pkg/types"
)

const (
	opOpen   = "open"
	opExport = "export"

	resultFile  = "result.json"
	optionsFile = "options.json"

	bridgeStatusSuccess = "success"
)

// bridgeResult is the JSON document the bridge writes to its result file.
type bridgeResult struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Title     string `json:"title,omitempty"`
	Transient bool   `json:"transient,omitempty"`
}

// bridgeOptions is the export configuration handed to the bridge.
type bridgeOptions struct {
	FileVersion            string `json:"file_version"`
	SpaceBoundaryLevel     int    `json:"space_boundary_level"`
	ExportBaseQuantities   bool   `json:"export_base_quantities"`
	WallAndColumnSplitting bool   `json:"wall_and_column_splitting"`
	FilterViewID           string `json:"filter_view_id,omitempty"`
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec. Run returns the
// command's stderr.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// ProcessHost drives the modeling host through a bridge command. Every
// operation is one bridge invocation that reports its outcome in a JSON
// result file.
type ProcessHost struct {
	bin     string
	args    []string
	timeout time.Duration
	exec    executor
	log     logrus.FieldLogger
}

var defaultExec = &osExecutor{}

// NewProcessHost checks that the bridge command is on PATH and returns a host
// backed by it.
func NewProcessHost(cfg types.HostConfig, log logrus.FieldLogger) (*ProcessHost, error) {
	return newProcessHost(cfg, defaultExec, log)
}

func newProcessHost(cfg types.HostConfig, exec executor, log logrus.FieldLogger) (*ProcessHost, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("%w: no host command configured", ErrHostUnavailable)
	}
	bin, err := exec.LookPath(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found: %v", ErrHostUnavailable, cfg.Command, err)
	}
	return &ProcessHost{
		bin:     bin,
		args:    cfg.Args,
		timeout: cfg.Timeout,
		exec:    exec,
		log:     log,
	}, nil
}

// Open asks the bridge to open the document and returns a handle carrying
// its title. The handle owns a scratch directory removed by Close.
func (h *ProcessHost) Open(ctx context.Context, path string) (Document, error) {
	workDir, err := os.MkdirTemp("", "ifc-export-*")
	if err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	res, err := h.invoke(ctx, workDir, opOpen, abs)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}

	title := res.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	h.log.WithFields(logrus.Fields{"path": abs, "title": title}).Debug("document opened")

	return &processDocument{
		host:    h,
		source:  abs,
		title:   title,
		workDir: workDir,
	}, nil
}

// invoke runs one bridge operation and decodes its result file. A result
// with a non-success status becomes an error carrying the bridge's message.
func (h *ProcessHost) invoke(ctx context.Context, workDir, op string, opArgs ...string) (bridgeResult, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	resPath := filepath.Join(workDir, op+"-"+resultFile)
	os.Remove(resPath)

	args := make([]string, 0, len(h.args)+len(opArgs)+2)
	args = append(args, h.args...)
	args = append(args, op)
	args = append(args, opArgs...)
	args = append(args, resPath)

	h.log.WithFields(logrus.Fields{"bin": h.bin, "args": args}).Debug("running host bridge")
	stderr, runErr := h.exec.Run(ctx, h.bin, args...)

	var res bridgeResult
	data, readErr := os.ReadFile(resPath)
	if readErr != nil {
		if runErr != nil {
			if msg := strings.TrimSpace(string(stderr)); msg != "" {
				return res, fmt.Errorf("host bridge %s failed: %s", op, msg)
			}
			return res, fmt.Errorf("host bridge %s failed: %w", op, runErr)
		}
		return res, fmt.Errorf("host bridge %s wrote no result: %w", op, readErr)
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return res, fmt.Errorf("decoding host bridge %s result: %w", op, err)
	}

	if res.Status != bridgeStatusSuccess {
		msg := res.Message
		if msg == "" {
			msg = fmt.Sprintf("host bridge %s reported status %q", op, res.Status)
		}
		if res.Transient {
			return res, Transient(msg)
		}
		return res, errors.New(msg)
	}
	return res, nil
}

// processDocument is a document opened through the bridge.
type processDocument struct {
	host    *ProcessHost
	source  string
	title   string
	workDir string
}

func (d *processDocument) Title() string { return d.title }

func (d *processDocument) Export(ctx context.Context, dir, filename string, cfg types.ExportConfig) error {
	opts := bridgeOptions{
		FileVersion:            string(cfg.IFCVersion),
		SpaceBoundaryLevel:     cfg.SpaceBoundaryLevel,
		ExportBaseQuantities:   cfg.ExportBaseQuantities,
		WallAndColumnSplitting: cfg.WallAndColumnSplitting,
		FilterViewID:           cfg.FilterViewID,
	}
	data, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encoding export options: %w", err)
	}
	optsPath := filepath.Join(d.workDir, optionsFile)
	if err := os.WriteFile(optsPath, data, 0o600); err != nil {
		return fmt.Errorf("writing export options: %w", err)
	}

	_, err = d.host.invoke(ctx, d.workDir, opExport, d.source, dir, filename, optsPath)
	return err
}

func (d *processDocument) Close() error {
	if d.workDir == "" {
		return nil
	}
	err := os.RemoveAll(d.workDir)
	d.workDir = ""
	return err
}
