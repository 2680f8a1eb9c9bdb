// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ifc-export CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/revit-ifc-export/internal/export"
	"github.com/pdiddy/revit-ifc-export/internal/history"
	"github.com/pdiddy/revit-ifc-export/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger writes diagnostics to stderr; stdout carries only the result line.
var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.SetLevel(logrus.WarnLevel)
	return l
}

// exitError carries a process exit status through cobra. The message has
// already been printed.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// rootCmd exports one Revit document to IFC.
var rootCmd = &cobra.Command{
	Use:   "ifc-export <Revit Project File Path>",
	Short: "Export a Revit project to IFC through the modeling host",
	Long: `ifc-export opens a single Revit project through the external modeling host,
exports it to IFC with the configured options, and writes the result to
<output.dir>/<title>_<yyyyMMdd_HHmmss>.ifc (default ~/Desktop/RevitExport).

It prints exactly one result line. Exit status is 0 on success, 1 on any
failure, and 2 on a usage error.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		return configureLogger(logger, viper.GetString("log.level"), verbose)
	},
	RunE: runExport,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ifc-export.yaml or ~/.config/ifc-export/ifc-export.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log each export step to stderr")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	setDefaults(viper.GetViper())
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ifc-export")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ifc-export"))
		}
	}

	viper.SetEnvPrefix("IFC_EXPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Debugf("Using config file: %s", viper.ConfigFileUsed())
	}
}

// setDefaults registers every configuration key so environment overrides
// and Unmarshal see them.
func setDefaults(v *viper.Viper) {
	def := types.DefaultExportConfig()
	v.SetDefault("export.ifc_version", string(def.IFCVersion))
	v.SetDefault("export.space_boundary_level", def.SpaceBoundaryLevel)
	v.SetDefault("export.export_base_quantities", def.ExportBaseQuantities)
	v.SetDefault("export.wall_and_column_splitting", def.WallAndColumnSplitting)
	v.SetDefault("export.filter_view_id", def.FilterViewID)

	v.SetDefault("output.dir", "")
	v.SetDefault("output.collision", string(types.CollisionOverwrite))
	v.SetDefault("output.remove_partial", false)
	v.SetDefault("output.max_retries", 0)

	v.SetDefault("host.command", "revit-bridge")
	v.SetDefault("host.args", []string{})
	v.SetDefault("host.timeout", "0s")

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", "")

	v.SetDefault("log.level", "warn")
}

// loadConfig decodes the viper state into a Config.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

// historyPath resolves the ledger location: history.path, else
// <output dir>/history.db.
func historyPath(cfg types.Config) (string, error) {
	if cfg.History.Path != "" {
		return cfg.History.Path, nil
	}
	dir := cfg.Output.Dir
	if dir == "" {
		var err error
		if dir, err = export.DefaultDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, history.DBFile), nil
}

func configureLogger(l *logrus.Logger, level string, verbose bool) error {
	if verbose {
		l.SetLevel(logrus.DebugLevel)
		return nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log.level %q: %w", level, err)
	}
	l.SetLevel(lvl)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
