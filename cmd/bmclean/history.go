package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nao1215/bmclean/internal/config"
	"github.com/nao1215/bmclean/internal/history"
	"github.com/nao1215/bmclean/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded clean runs",
		Long: `History lists runs recorded with --history, newest first.
Given a run ID, it prints the full report of that run.

Examples:
  # List the last 20 runs
  bmclean history

  # Show run 3 as Markdown
  bmclean history -m 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")
	cmd.Flags().BoolP("json", "j", false, "Print the run report as JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Print the run report as Markdown")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	dir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	if _, err := os.Stat(filepath.Join(dir, history.FileName)); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet (use --history to record runs).")
		return nil
	}

	store, err := history.Open(dir, history.Options{})
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run ID %q: %w", args[0], err)
		}
		return showRun(ctx, cmd, store, id)
	}

	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

func showRun(ctx context.Context, cmd *cobra.Command, store *history.Store, id int64) error {
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return err
	}

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOut && markdownOut {
		return config.ErrConflictingReportFormats
	}

	var w report.Writer
	switch {
	case jsonOut:
		w = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	case markdownOut:
		w = report.NewMarkdownWriter(cmd.OutOrStdout())
	default:
		w = report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(true))
	}
	_, err = w.Write(run)
	return err
}

func printRuns(out io.Writer, runs []history.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return
	}
	for _, r := range runs {
		state := "not written"
		if r.Written {
			state = "written"
		}
		fmt.Fprintf(out, "#%d  %s  %s -> %s  (%d unique, %d duplicate, %d outdated, %d removed, %s)\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Input, r.Output,
			r.UniqueURLs, r.DuplicateURLs, r.OutdatedURLs, r.RemovedNodes, state)
	}
}
