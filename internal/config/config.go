package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/bmclean/internal/liveness"
	"github.com/nao1215/bmclean/internal/tor"
)

// Default configuration values.
const (
	// AppName is used for XDG directory paths.
	AppName = "bmclean"

	// DefaultTimeout is the per-request probe timeout.
	DefaultTimeout = liveness.DefaultTimeout

	// DefaultConcurrency is the number of probes in flight.
	DefaultConcurrency = liveness.DefaultConcurrency

	// DefaultUserAgent is sent with every probe.
	DefaultUserAgent = liveness.DefaultUserAgent

	// DefaultTorStartupTimeout bounds the embedded Tor bootstrap.
	DefaultTorStartupTimeout = tor.DefaultStartupTimeout

	// cleanedSuffix is appended to the input stem to form the default output name.
	cleanedSuffix = "-cleaned"
)

// Config holds all options of a clean run.
type Config struct {
	// Input is the bookmark HTML file to read.
	Input string

	// Output is where the cleaned document is written.
	// Empty means DefaultOutputPath(Input).
	Output string

	// Timeout bounds each probe request.
	Timeout time.Duration

	// Concurrency is the maximum number of probes in flight. Zero means no limit.
	Concurrency int

	// UserAgent is the User-Agent header sent with probes.
	UserAgent string

	// Headers are extra request headers sent with probes.
	Headers map[string]string

	// ProxyAddress routes probes through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// Tor starts an embedded Tor daemon and probes through it.
	// Mutually exclusive with ProxyAddress.
	Tor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// SkipCheck disables liveness probing; only duplicates are removed.
	SkipCheck bool

	// DryRun reports what would change without writing anything.
	DryRun bool

	// JSONReport prints the summary as JSON. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints the summary as Markdown.
	MarkdownReport bool

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit configuration file. Empty means search.
	ConfigFilePath string

	// History records the run in the history database.
	History bool

	// DBDir is the directory of the history database.
	DBDir string

	// MetricsFile receives Prometheus metrics of the run when set.
	MetricsFile string

	// ReportFile receives a JSON copy of the summary when set, in addition
	// to the summary printed on stdout.
	ReportFile string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		Concurrency:       DefaultConcurrency,
		UserAgent:         DefaultUserAgent,
		Headers:           make(map[string]string),
		TorStartupTimeout: DefaultTorStartupTimeout,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/bmclean on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/bmclean on Linux.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultOutputPath returns "<stem>-cleaned<ext>" next to input.
func DefaultOutputPath(input string) string {
	dir, base := filepath.Split(input)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+cleanedSuffix+ext)
}

// OutputPath returns the effective output path.
func (c *Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	return DefaultOutputPath(c.Input)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.Input == "" {
		return ErrNoInput
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency < 0 {
		return ErrInvalidConcurrency
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if samePath(c.Input, c.OutputPath()) {
		return ErrOutputIsInput
	}
	if c.ReportFile != "" && (samePath(c.ReportFile, c.Input) || samePath(c.ReportFile, c.OutputPath())) {
		return ErrReportFileConflict
	}
	if c.ProxyAddress != "" && !liveness.ValidProxyAddress(c.ProxyAddress) {
		return ErrInvalidProxyAddress
	}
	if c.Tor && c.ProxyAddress != "" {
		return ErrConflictingProxy
	}
	if c.Tor && c.TorStartupTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
