package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/bmclean/internal/config"
	"github.com/nao1215/bmclean/internal/history"
	"github.com/nao1215/bmclean/internal/liveness"
	bmlog "github.com/nao1215/bmclean/internal/log"
	"github.com/nao1215/bmclean/internal/metrics"
	"github.com/nao1215/bmclean/internal/model"
	"github.com/nao1215/bmclean/internal/pipeline"
	"github.com/nao1215/bmclean/internal/report"
	"github.com/nao1215/bmclean/internal/tor"
	"github.com/spf13/cobra"
)

// newLogger creates the logger for a command. Logs go to stderr so that
// stdout only carries the report.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	jsonLogs, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		jsonLogs = false
	}
	if jsonLogs {
		return bmlog.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return bmlog.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}

// runClean cleans cfg.Input, prints the report to stdout and records the
// run when history is enabled. Progress notes for slow setup go to stderr.
func runClean(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) (*model.CleanReport, error) {
	output := cfg.OutputPath()
	logger.Info("starting clean",
		"input", cfg.Input,
		"output", output,
		"skipCheck", cfg.SkipCheck,
		"dryRun", cfg.DryRun,
		"concurrency", cfg.Concurrency,
	)

	var collector *metrics.Metrics
	reporter := model.MultiReporter{eventLogger(logger)}
	if cfg.MetricsFile != "" {
		collector = metrics.New()
		reporter = append(reporter, collector)
	}

	proxyAddr := cfg.ProxyAddress
	if cfg.Tor && !cfg.SkipCheck {
		daemon, err := startTor(ctx, cfg, logger, stderr)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := daemon.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}()
		if proxyAddr, err = daemon.SocksAddr(); err != nil {
			return nil, err
		}
	}

	checker, err := newChecker(cfg, proxyAddr, logger)
	if err != nil {
		return nil, err
	}

	p := pipeline.Default(
		[]pipeline.Option{pipeline.WithLogger(logger)},
		pipeline.WithChecker(checker),
		pipeline.WithSkipCheck(cfg.SkipCheck),
		pipeline.WithDryRun(cfg.DryRun),
		pipeline.WithReporter(reporter),
		pipeline.WithStepLogger(logger),
	)

	cleanReport := model.NewCleanReport(cfg.Input, output)
	cleanReport.DryRun = cfg.DryRun
	err = p.Execute(ctx, pipeline.NewState(cleanReport))
	if collector != nil {
		collector.ObserveRun(cleanReport, err)
		if werr := collector.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Error("failed to write metrics", "path", cfg.MetricsFile, "error", werr)
		}
	}
	if err != nil {
		return cleanReport, err
	}

	if err := writeReport(cfg, stdout, cleanReport); err != nil {
		return cleanReport, err
	}

	if cfg.History {
		if err := saveRun(ctx, cfg.DBDir, cleanReport, logger); err != nil {
			logger.Error("failed to record run", "error", err)
		}
	}
	return cleanReport, nil
}

// startTor launches the embedded Tor daemon.
func startTor(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer) (*tor.Daemon, error) {
	fmt.Fprintln(stderr, "Starting embedded Tor daemon (this may take 1-3 minutes)...")

	daemon := tor.NewDaemon(tor.WithStartupTimeout(cfg.TorStartupTimeout))
	if err := daemon.Start(ctx); err != nil {
		return nil, err
	}
	addr, err := daemon.SocksAddr()
	if err != nil {
		return nil, err
	}
	logger.Info("embedded Tor daemon started", "socksAddr", addr)
	return daemon, nil
}

// eventLogger logs every pipeline event at debug level.
func eventLogger(logger *slog.Logger) model.Reporter {
	return model.ReporterFunc(func(e model.Event) {
		logger.Debug("event", "kind", e.Kind.String(), "url", e.URL)
	})
}

// newChecker creates the liveness checker. It returns nil when probing is
// skipped. Probe events reach the pipeline reporter through the pipeline.
func newChecker(cfg *config.Config, proxyAddr string, logger *slog.Logger) (*liveness.Checker, error) {
	if cfg.SkipCheck {
		return nil, nil
	}
	client, err := liveness.NewHTTPClient(cfg.Timeout, proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return liveness.NewChecker(
		liveness.WithHTTPClient(client),
		liveness.WithTimeout(cfg.Timeout),
		liveness.WithUserAgent(cfg.UserAgent),
		liveness.WithHeaders(cfg.Headers),
		liveness.WithConcurrency(cfg.Concurrency),
		liveness.WithLogger(logger),
	), nil
}

// newReportWriter returns the writer for the requested summary format.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

// writeReport prints the summary to stdout and, when cfg.ReportFile is set,
// also saves it there as JSON.
func writeReport(cfg *config.Config, stdout io.Writer, cleanReport *model.CleanReport) error {
	writer := newReportWriter(cfg, stdout)

	var file *os.File
	if cfg.ReportFile != "" {
		var err error
		if file, err = createReportFile(cfg.ReportFile); err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		writer = report.NewMultiWriter(writer, report.NewJSONWriter(file, report.WithPrettyPrint()))
	}

	_, err := writer.Write(cleanReport)
	if file != nil {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func createReportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
}

func saveRun(ctx context.Context, dir string, cleanReport *model.CleanReport, logger *slog.Logger) error {
	store, err := history.Open(dir, history.DefaultOptions())
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.SaveRun(ctx, cleanReport)
	if err != nil {
		return err
	}
	logger.Info("run recorded", "id", id, "db", store.Path())
	return nil
}
