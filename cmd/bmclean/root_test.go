package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/bmclean/internal/config"
	"github.com/nao1215/bmclean/internal/document"
	"github.com/nao1215/bmclean/internal/model"
)

// writeBookmarks writes a bookmark file linking to urls and returns its path.
func writeBookmarks(t *testing.T, dir string, urls ...string) string {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n<TITLE>Bookmarks</TITLE>\n<H1>Bookmarks</H1>\n<DL><p>\n")
	for i, u := range urls {
		fmt.Fprintf(&sb, "    <DT><A HREF=%q>site %d</A>\n", u, i)
	}
	sb.WriteString("</DL><p>\n")

	path := filepath.Join(dir, "bookmarks.html")
	if err := os.WriteFile(path, []byte(sb.String()), 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

// writeConfig writes a configuration file and returns its path.
func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// siteServer answers /gone with 404 and everything else with 200.
func siteServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if !strings.HasPrefix(cmd.Use, "bmclean") {
			t.Errorf("expected use to start with 'bmclean', got %q", cmd.Use)
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
	})

	t.Run("has clean flags", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name      string
			shorthand string
			defValue  string
		}{
			{"output", "o", ""},
			{"timeout", "t", config.DefaultTimeout.String()},
			{"concurrency", "c", fmt.Sprint(config.DefaultConcurrency)},
			{"user-agent", "u", config.DefaultUserAgent},
			{"proxy", "x", ""},
			{"skip-check", "", "false"},
			{"dry-run", "n", "false"},
			{"json", "j", "false"},
			{"markdown", "m", "false"},
			{"config", "", ""},
			{"history", "", "false"},
			{"tor", "", "false"},
			{"tor-timeout", "", config.DefaultTorStartupTimeout.String()},
			{"metrics-file", "", ""},
			{"report-file", "", ""},
		}
		for _, tc := range testCases {
			flag := cmd.Flags().Lookup(tc.name)
			if flag == nil {
				t.Errorf("expected %s flag", tc.name)
				continue
			}
			if flag.Shorthand != tc.shorthand {
				t.Errorf("%s: expected shorthand %q, got %q", tc.name, tc.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tc.defValue {
				t.Errorf("%s: expected default %q, got %q", tc.name, tc.defValue, flag.DefValue)
			}
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()

		want := map[string]bool{"init": false, "history": false, "version": false}
		for _, sub := range cmd.Commands() {
			want[sub.Name()] = true
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage || !cmd.SilenceErrors {
			t.Error("expected SilenceUsage and SilenceErrors to be true")
		}
	})
}

// TestRootCmdClean tests cleaning through the command line.
func TestRootCmdClean(t *testing.T) {
	t.Parallel()

	t.Run("removes duplicates and dead links", func(t *testing.T) {
		t.Parallel()

		srv := siteServer(t)
		dir := t.TempDir()
		input := writeBookmarks(t, dir,
			srv.URL+"/a", srv.URL+"/gone", srv.URL+"/a", srv.URL+"/b")
		cfgPath := writeConfig(t, dir, "probe:\n  concurrency: 2\n")

		stdout, _, err := execute(t, "--config", cfgPath, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := filepath.Join(dir, "bookmarks-cleaned.html")
		if !strings.Contains(stdout, "Saved cleaned bookmarks to: "+output) {
			t.Errorf("expected saved line, got:\n%s", stdout)
		}
		if !strings.Contains(stdout, srv.URL+"/a (2 occurrences)") {
			t.Errorf("expected duplicate line, got:\n%s", stdout)
		}
		if !strings.Contains(stdout, srv.URL+"/gone") {
			t.Errorf("expected outdated URL, got:\n%s", stdout)
		}

		d, err := document.ParseFile(output)
		if err != nil {
			t.Fatalf("failed to parse output: %v", err)
		}
		data, err := d.Bytes()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bytes.Contains(data, []byte("/gone")) {
			t.Error("dead link should be removed")
		}
		if bytes.Count(data, []byte(srv.URL+"/a")) != 1 {
			t.Error("duplicate should collapse to one entry")
		}
	})

	t.Run("nothing to clean writes nothing", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeBookmarks(t, dir, "https://a.example", "https://b.example")
		cfgPath := writeConfig(t, dir, "")

		stdout, _, err := execute(t, "--config", cfgPath, "--skip-check", input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "nothing written") {
			t.Errorf("expected nothing-written line, got:\n%s", stdout)
		}
		if _, err := os.Stat(filepath.Join(dir, "bookmarks-cleaned.html")); !errors.Is(err, os.ErrNotExist) {
			t.Error("output should not be written")
		}
	})

	t.Run("json summary with explicit output", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeBookmarks(t, dir, "https://a.example", "https://a.example")
		cfgPath := writeConfig(t, dir, "")
		output := filepath.Join(dir, "out", "clean.html")

		stdout, _, err := execute(t, "--config", cfgPath, "--skip-check", "-j", "-o", output, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got model.CleanReport
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
		}
		if !got.Written || got.Output != output || got.RemovedNodes != 1 {
			t.Errorf("unexpected report: %+v", got)
		}
		if _, err := os.Stat(output); err != nil {
			t.Errorf("expected output file: %v", err)
		}
	})

	t.Run("dry run never writes", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeBookmarks(t, dir, "https://a.example", "https://a.example")
		cfgPath := writeConfig(t, dir, "")

		stdout, _, err := execute(t, "--config", cfgPath, "--skip-check", "-n", input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Dry run") {
			t.Errorf("expected dry run line, got:\n%s", stdout)
		}
		if _, err := os.Stat(filepath.Join(dir, "bookmarks-cleaned.html")); !errors.Is(err, os.ErrNotExist) {
			t.Error("dry run should not write")
		}
	})
}

// TestRootCmdErrors tests failures reported by the root command.
func TestRootCmdErrors(t *testing.T) {
	t.Parallel()

	t.Run("requires exactly one file", func(t *testing.T) {
		t.Parallel()
		if _, _, err := execute(t); err == nil {
			t.Error("expected error without arguments")
		}
	})

	t.Run("conflicting report formats", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeBookmarks(t, dir, "https://a.example")
		cfgPath := writeConfig(t, dir, "")

		_, _, err := execute(t, "--config", cfgPath, "-j", "-m", input)
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("output equal to input", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeBookmarks(t, dir, "https://a.example")
		cfgPath := writeConfig(t, dir, "")

		_, _, err := execute(t, "--config", cfgPath, "-o", input, input)
		if !errors.Is(err, config.ErrOutputIsInput) {
			t.Errorf("expected ErrOutputIsInput, got %v", err)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeBookmarks(t, dir, "https://a.example")

		_, _, err := execute(t, "--config", filepath.Join(dir, "missing.yaml"), input)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid timeout in config file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeBookmarks(t, dir, "https://a.example")
		cfgPath := writeConfig(t, dir, "probe:\n  timeout: soon\n")

		_, _, err := execute(t, "--config", cfgPath, input)
		if !errors.Is(err, config.ErrInvalidTimeout) {
			t.Errorf("expected ErrInvalidTimeout, got %v", err)
		}
	})

	t.Run("invalid proxy", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeBookmarks(t, dir, "https://a.example")
		cfgPath := writeConfig(t, dir, "")

		_, _, err := execute(t, "--config", cfgPath, "-x", "no-port", input)
		if !errors.Is(err, config.ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("tor and proxy together", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeBookmarks(t, dir, "https://a.example")
		cfgPath := writeConfig(t, dir, "")

		_, _, err := execute(t, "--config", cfgPath, "--tor", "-x", "127.0.0.1:9050", input)
		if !errors.Is(err, config.ErrConflictingProxy) {
			t.Errorf("expected ErrConflictingProxy, got %v", err)
		}
	})

	t.Run("missing input file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfgPath := writeConfig(t, dir, "")

		_, _, err := execute(t, "--config", cfgPath, "--skip-check", filepath.Join(dir, "none.html"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})
}

// TestBuildConfig tests flag and file precedence.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("file fills values not given as flags", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfgPath := writeConfig(t, dir,
			"probe:\n  timeout: 3s\n  concurrency: 4\n  userAgent: file-agent\n  headers:\n    X-Test: enabled\nhistory: true\n")

		cmd := NewRootCmd()
		if err := cmd.ParseFlags([]string{"--config", cfgPath, "-u", "flag-agent"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg, err := buildConfig(cmd, []string{"in.html"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Timeout.String() != "3s" || cfg.Concurrency != 4 {
			t.Errorf("expected file values, got timeout=%s concurrency=%d", cfg.Timeout, cfg.Concurrency)
		}
		if cfg.UserAgent != "flag-agent" {
			t.Errorf("flag should win over file, got %q", cfg.UserAgent)
		}
		if cfg.Headers["X-Test"] != "enabled" || !cfg.History {
			t.Errorf("unexpected headers or history: %v %v", cfg.Headers, cfg.History)
		}
		if cfg.Input != "in.html" {
			t.Errorf("unexpected input %q", cfg.Input)
		}
	})
}
