package config

import (
	"fmt"
	"time"
)

// Flag names whose values a configuration file may supply.
const (
	FlagTimeout     = "timeout"
	FlagConcurrency = "concurrency"
	FlagUserAgent   = "user-agent"
	FlagProxy       = "proxy"
	FlagTor         = "tor"
	FlagHistory     = "history"
)

// ProbeSettings configures liveness probes.
type ProbeSettings struct {
	// Timeout is a Go duration string such as "15s".
	Timeout string `yaml:"timeout,omitempty"`

	// Concurrency is the in-flight limit. A pointer so that 0 (no limit)
	// can be told apart from "not set".
	Concurrency *int `yaml:"concurrency,omitempty"`

	// UserAgent overrides the browser User-Agent.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Headers are extra request headers.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Proxy is a SOCKS5 proxy in host:port form.
	Proxy string `yaml:"proxy,omitempty"`

	// Tor probes through an embedded Tor daemon.
	Tor bool `yaml:"tor,omitempty"`
}

// File is the structure of the .bmclean configuration file.
type File struct {
	Probe ProbeSettings `yaml:"probe,omitempty"`

	// History records every run in the history database.
	History bool `yaml:"history,omitempty"`
}

// ApplyFile copies the values set in f into c. Settings whose flag was
// given on the command line, as reported by changed, are left alone.
// Headers are merged, with existing keys kept.
func (c *Config) ApplyFile(f *File, changed func(flag string) bool) error {
	if f == nil {
		return nil
	}
	if changed == nil {
		changed = func(string) bool { return false }
	}

	if f.Probe.Timeout != "" && !changed(FlagTimeout) {
		d, err := time.ParseDuration(f.Probe.Timeout)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTimeout, f.Probe.Timeout)
		}
		c.Timeout = d
	}
	if f.Probe.Concurrency != nil && !changed(FlagConcurrency) {
		c.Concurrency = *f.Probe.Concurrency
	}
	if f.Probe.UserAgent != "" && !changed(FlagUserAgent) {
		c.UserAgent = f.Probe.UserAgent
	}
	if f.Probe.Proxy != "" && !changed(FlagProxy) {
		c.ProxyAddress = f.Probe.Proxy
	}
	if f.Probe.Tor && !changed(FlagTor) {
		c.Tor = true
	}
	if f.History && !changed(FlagHistory) {
		c.History = true
	}

	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	for k, v := range f.Probe.Headers {
		if _, ok := c.Headers[k]; !ok {
			c.Headers[k] = v
		}
	}
	return nil
}
