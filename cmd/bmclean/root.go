package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nao1215/bmclean/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command. Run with a bookmark file, it cleans it.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bmclean [flags] <bookmarks.html>",
		Short: "Remove duplicate and dead bookmarks from a browser export",
		Long: `bmclean reads a bookmark file exported by a web browser (Netscape bookmark HTML),
removes entries that repeat a URL, and removes entries whose URL answers
404 Not Found. The first entry of each duplicated URL is kept.

The cleaned file is written next to the input as <name>-cleaned.html unless
--output is given. Nothing is written when there is nothing to clean.

Examples:
  # Clean bookmarks.html into bookmarks-cleaned.html
  bmclean bookmarks.html

  # Only remove duplicates, without any network access
  bmclean --skip-check bookmarks.html

  # Show what would be removed as Markdown, without writing
  bmclean -n -m bookmarks.html

  # Probe through a running Tor client
  bmclean -x 127.0.0.1:9050 bookmarks.html

  # Probe through an embedded Tor daemon
  bmclean --tor bookmarks.html`,
		Version:       getVersion(),
		Args:          cobra.ExactArgs(1),
		RunE:          runRootCmd,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.Flags().StringP("output", "o", "",
		"Output file path (default: <input>-cleaned.html)")
	cmd.Flags().DurationP(config.FlagTimeout, "t", config.DefaultTimeout,
		"Timeout for each URL probe")
	cmd.Flags().IntP(config.FlagConcurrency, "c", config.DefaultConcurrency,
		"Maximum number of probes in flight (0 for no limit)")
	cmd.Flags().StringP(config.FlagUserAgent, "u", config.DefaultUserAgent,
		"User-Agent header sent with probes")
	cmd.Flags().StringP(config.FlagProxy, "x", "",
		"SOCKS5 proxy address for probes (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool(config.FlagTor, false,
		"Probe through an embedded Tor daemon (mutually exclusive with --proxy)")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
	cmd.Flags().Bool("skip-check", false,
		"Skip URL probing and only remove duplicates")
	cmd.Flags().BoolP("dry-run", "n", false,
		"Report what would be removed without writing the output")
	cmd.Flags().BoolP("json", "j", false,
		"Print the summary as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print the summary as Markdown (mutually exclusive with --json)")
	cmd.Flags().String("config", "",
		"Configuration file path (default: .bmclean in current or home directory)")
	cmd.Flags().Bool(config.FlagHistory, false,
		"Record the run in the history database")
	cmd.Flags().String("metrics-file", "",
		"Write Prometheus metrics of the run to this file")
	cmd.Flags().String("report-file", "",
		"Also save the summary as JSON to this file")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runRootCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cfg.Verbose)
	_, err = runClean(context.Background(), cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return err
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from flags and the configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Output, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration(config.FlagTimeout); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt(config.FlagConcurrency); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString(config.FlagUserAgent); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString(config.FlagProxy); err != nil {
		return nil, err
	}
	if cfg.Tor, err = flags.GetBool(config.FlagTor); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.SkipCheck, err = flags.GetBool("skip-check"); err != nil {
		return nil, err
	}
	if cfg.DryRun, err = flags.GetBool("dry-run"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.History, err = flags.GetBool(config.FlagHistory); err != nil {
		return nil, err
	}
	if cfg.MetricsFile, err = flags.GetString("metrics-file"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report-file"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	// An explicit --config must exist; a searched one is optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := cfg.ApplyFile(f, flags.Changed); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if len(args) == 0 {
		return nil, errors.New("no bookmark file provided")
	}
	cfg.Input = args[0]

	return cfg, nil
}
