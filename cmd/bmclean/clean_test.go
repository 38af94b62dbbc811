package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/bmclean/internal/config"
	"github.com/nao1215/bmclean/internal/history"
	"github.com/nao1215/bmclean/internal/model"
	"github.com/nao1215/bmclean/internal/report"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestRunClean tests the clean run outside of cobra.
func TestRunClean(t *testing.T) {
	t.Parallel()

	t.Run("records the run when history is enabled", func(t *testing.T) {
		t.Parallel()

		srv := siteServer(t)
		dir := t.TempDir()

		cfg := config.NewConfig()
		cfg.Input = writeBookmarks(t, dir, srv.URL+"/a", srv.URL+"/gone", srv.URL+"/a")
		cfg.History = true
		cfg.DBDir = filepath.Join(dir, "db")

		var out bytes.Buffer
		cleanReport, err := runClean(context.Background(), cfg, discardLogger(), &out, io.Discard)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cleanReport.RemovedNodes != 2 || !cleanReport.Written {
			t.Errorf("unexpected report: %+v", cleanReport)
		}

		store, err := history.Open(cfg.DBDir, history.Options{})
		if err != nil {
			t.Fatalf("history not created: %v", err)
		}
		defer store.Close()

		runs, err := store.ListRuns(context.Background(), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}
		if runs[0].OutdatedURLs != 1 || runs[0].DuplicateURLs != 1 || runs[0].Checksum != cleanReport.Checksum {
			t.Errorf("unexpected run record: %+v", runs[0])
		}
	})

	t.Run("writes prometheus metrics", func(t *testing.T) {
		t.Parallel()

		srv := siteServer(t)
		dir := t.TempDir()

		cfg := config.NewConfig()
		cfg.Input = writeBookmarks(t, dir, srv.URL+"/a", srv.URL+"/gone", srv.URL+"/a")
		cfg.MetricsFile = filepath.Join(dir, "bmclean.prom")

		if _, err := runClean(context.Background(), cfg, discardLogger(), io.Discard, io.Discard); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := os.ReadFile(cfg.MetricsFile)
		if err != nil {
			t.Fatalf("metrics not written: %v", err)
		}
		for _, want := range []string{
			`bmclean_probes_total{status="dead"} 1`,
			`bmclean_probes_total{status="alive"} 1`,
			`bmclean_removed_urls_total{reason="outdated"} 1`,
			"bmclean_unique_urls 2",
			"bmclean_last_run_success 1",
		} {
			if !strings.Contains(string(data), want) {
				t.Errorf("expected %q in:\n%s", want, data)
			}
		}
	})

	t.Run("metrics record a failed run", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfg := config.NewConfig()
		cfg.Input = filepath.Join(dir, "missing.html")
		cfg.MetricsFile = filepath.Join(dir, "bmclean.prom")

		if _, err := runClean(context.Background(), cfg, discardLogger(), io.Discard, io.Discard); err == nil {
			t.Fatal("expected error for missing input")
		}
		data, err := os.ReadFile(cfg.MetricsFile)
		if err != nil {
			t.Fatalf("metrics not written: %v", err)
		}
		if !strings.Contains(string(data), "bmclean_last_run_success 0") {
			t.Errorf("expected failed run, got:\n%s", data)
		}
	})

	t.Run("report file gets JSON while stdout keeps the text summary", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfg := config.NewConfig()
		cfg.Input = writeBookmarks(t, dir, "https://a.example", "https://a.example")
		cfg.SkipCheck = true
		cfg.ReportFile = filepath.Join(dir, "reports", "run.json")

		var out bytes.Buffer
		if _, err := runClean(context.Background(), cfg, discardLogger(), &out, io.Discard); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "Duplicate URLs:") {
			t.Errorf("expected text summary on stdout:\n%s", out.String())
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("report file not written: %v", err)
		}
		var saved model.CleanReport
		if err := json.Unmarshal(data, &saved); err != nil {
			t.Fatalf("report file is not JSON: %v", err)
		}
		if len(saved.Duplicates) != 1 || saved.RemovedNodes != 1 {
			t.Errorf("unexpected saved report: %+v", saved)
		}
	})

	t.Run("unwritable report file fails the run", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfg := config.NewConfig()
		cfg.Input = writeBookmarks(t, dir, "https://a.example")
		cfg.SkipCheck = true
		cfg.ReportFile = dir

		if _, err := runClean(context.Background(), cfg, discardLogger(), io.Discard, io.Discard); err == nil {
			t.Error("expected error when the report file is a directory")
		}
	})

	t.Run("events are logged at debug level", func(t *testing.T) {
		t.Parallel()

		srv := siteServer(t)
		dir := t.TempDir()
		cfg := config.NewConfig()
		cfg.Input = writeBookmarks(t, dir, srv.URL+"/a", srv.URL+"/a")

		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		if _, err := runClean(context.Background(), cfg, logger, io.Discard, io.Discard); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, kind := range []string{"duplicate_found", "probe_started", "url_classified", "duplicate_removed"} {
			if !strings.Contains(logs.String(), "kind="+kind) {
				t.Errorf("expected %s event in logs:\n%s", kind, logs.String())
			}
		}
	})

	t.Run("history stays empty when disabled", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfg := config.NewConfig()
		cfg.Input = writeBookmarks(t, dir, "https://a.example", "https://a.example")
		cfg.SkipCheck = true
		cfg.DBDir = filepath.Join(dir, "db")

		if _, err := runClean(context.Background(), cfg, discardLogger(), io.Discard, io.Discard); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := history.Open(cfg.DBDir, history.Options{}); err == nil {
			t.Error("history database should not exist")
		}
	})
}

// TestNewReportWriter tests format selection.
func TestNewReportWriter(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		json     bool
		markdown bool
		check    func(report.Writer) bool
	}{
		{"simple by default", false, false, func(w report.Writer) bool { _, ok := w.(*report.SimpleWriter); return ok }},
		{"json", true, false, func(w report.Writer) bool { _, ok := w.(*report.JSONWriter); return ok }},
		{"markdown", false, true, func(w report.Writer) bool { _, ok := w.(*report.MarkdownWriter); return ok }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig()
			cfg.JSONReport = tc.json
			cfg.MarkdownReport = tc.markdown
			if w := newReportWriter(cfg, io.Discard); !tc.check(w) {
				t.Errorf("unexpected writer %T", w)
			}
		})
	}
}

// TestNewLogger tests that logs go to stderr in the selected format.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("json logs", func(t *testing.T) {
		t.Parallel()

		var stderr bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetErr(&stderr)
		if err := cmd.ParseFlags([]string{"--log-json"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		newLogger(cmd, false).Warn("probe failed", "url", "https://user:pw@example.com/")

		got := stderr.String()
		if !strings.HasPrefix(got, "{") {
			t.Errorf("expected JSON log line, got %q", got)
		}
		if strings.Contains(got, "pw@") {
			t.Errorf("password leaked into log: %q", got)
		}
	})

	t.Run("debug hidden unless verbose", func(t *testing.T) {
		t.Parallel()

		var stderr bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetErr(&stderr)
		newLogger(cmd, false).Debug("hidden")
		if stderr.Len() != 0 {
			t.Errorf("expected no output, got %q", stderr.String())
		}
		newLogger(cmd, true).Debug("shown")
		if !strings.Contains(stderr.String(), "shown") {
			t.Errorf("expected debug output, got %q", stderr.String())
		}
	})
}
