// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/revit-ifc-export/internal/history"
	"github.com/pdiddy/revit-ifc-export/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded exports",
	Long: `History lists exports recorded in the SQLite ledger (enable with
history.enabled). Entries are shown newest first as a table, or dumped as
YAML or JSON with --format.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("status", "", "filter by status: success or failure")
	historyCmd.Flags().Int("limit", 50, "maximum number of entries")
	historyCmd.Flags().String("format", "table", "output format: table, yaml, or json")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	path, err := historyPath(cfg)
	if err != nil {
		return err
	}

	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")

	opts := history.ListOptions{Status: types.ResultStatus(status), Limit: limit}
	switch opts.Status {
	case "", types.StatusSuccess, types.StatusFailure:
	default:
		return fmt.Errorf("invalid --status %q: use success or failure", status)
	}

	store, err := history.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if format != "table" {
		return store.Dump(ctx, cmd.OutOrStdout(), history.Format(format), opts)
	}

	entries, err := store.List(ctx, opts)
	if err != nil {
		return err
	}
	formatHistoryTable(cmd.OutOrStdout(), entries)
	return nil
}

func formatHistoryTable(w io.Writer, entries []types.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No exports recorded.")
		return
	}

	fmt.Fprintf(w, "%-19s  %-7s  %-24s  %s\n", "Exported", "Status", "Title", "Output / Message")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, e := range entries {
		title := e.Title
		if len(title) > 24 {
			title = title[:21] + "..."
		}
		detail := e.FullPath
		if e.Status != types.StatusSuccess {
			detail = e.Message
		}
		fmt.Fprintf(w, "%-19s  %-7s  %-24s  %s\n",
			e.ExportedAt.Local().Format("2006-01-02 15:04:05"), e.Status, title, detail)
	}

	fmt.Fprintf(w, "\n%d exports\n", len(entries))
}
