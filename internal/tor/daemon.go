// Package tor starts a private Tor daemon so that probes can reach .onion
// bookmarks without a Tor installation.
package tor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/tornago"
)

// DefaultStartupTimeout bounds the bootstrap of the daemon.
const DefaultStartupTimeout = 3 * time.Minute

// ErrNotRunning is returned when the daemon has not been started.
var ErrNotRunning = errors.New("embedded Tor daemon is not running")

// Daemon is an embedded Tor process listening on random local ports.
// Bootstrapping usually takes one to three minutes.
type Daemon struct {
	process        *tornago.TorProcess
	socksAddr      string
	startupTimeout time.Duration
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithStartupTimeout sets the maximum time to wait for Tor to bootstrap.
func WithStartupTimeout(timeout time.Duration) Option {
	return func(d *Daemon) {
		if timeout > 0 {
			d.startupTimeout = timeout
		}
	}
}

// NewDaemon creates a Daemon. Call Start to launch it.
func NewDaemon(opts ...Option) *Daemon {
	d := &Daemon{startupTimeout: DefaultStartupTimeout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the daemon and blocks until it has bootstrapped.
func (d *Daemon) Start(ctx context.Context) error {
	cfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(d.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	process, err := tornago.StartTorDaemon(cfg)
	if err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = process.Stop() //nolint:errcheck // already failing
		return err
	}

	d.process = process
	d.socksAddr = process.SocksAddr()
	return nil
}

// Stop shuts the daemon down. Stopping a daemon that is not running is a no-op.
func (d *Daemon) Stop() error {
	if d.process == nil {
		return nil
	}
	err := d.process.Stop()
	d.process = nil
	d.socksAddr = ""
	return err
}

// Running reports whether the daemon was started and not stopped.
func (d *Daemon) Running() bool {
	return d.process != nil
}

// SocksAddr returns the SOCKS5 address of the running daemon in host:port
// form, suitable for liveness.NewHTTPClient.
func (d *Daemon) SocksAddr() (string, error) {
	if !d.Running() {
		return "", ErrNotRunning
	}
	return d.socksAddr, nil
}
