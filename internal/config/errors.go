package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoInput is returned when no bookmark file is given.
	ErrNoInput = errors.New("no input specified: provide a bookmark HTML file")

	// ErrInvalidTimeout is returned when the probe timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the in-flight limit is negative.
	// Zero is allowed and means no limit.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be zero or positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrOutputIsInput is returned when the output path would overwrite the input.
	ErrOutputIsInput = errors.New("output path must differ from the input file")

	// ErrReportFileConflict is returned when the report file would overwrite
	// the input or the cleaned output.
	ErrReportFileConflict = errors.New("report file must differ from the input and output files")

	// ErrInvalidProxyAddress is returned when the proxy is not in host:port form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")

	// ErrConflictingProxy is returned when both --tor and --proxy are specified.
	ErrConflictingProxy = errors.New("conflicting proxies: --tor and --proxy cannot be used together")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
