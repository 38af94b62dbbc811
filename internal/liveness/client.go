package liveness

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

const (
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 10 * time.Second

	// maxRedirects is how many redirects a probe follows before failing.
	maxRedirects = 10
)

// ValidProxyAddress reports whether address is in "host:port" form with a
// port between 1 and 65535.
func ValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// NewHTTPClient returns the client used for probes.
// When proxyAddr is not empty every connection is made through that SOCKS5
// proxy, which also allows probing .onion bookmarks through a local Tor
// daemon.
func NewHTTPClient(timeout time.Duration, proxyAddr string) (*http.Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: timeout,
	}

	if proxyAddr != "" {
		if !ValidProxyAddress(proxyAddr) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, proxyAddr)
		}
		dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}, nil
}
