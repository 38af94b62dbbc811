package liveness

import "errors"

var (
	// ErrInvalidProxyAddress is returned when a proxy address is not in
	// "host:port" form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrTooManyRedirects is returned when a probe follows more than
	// maxRedirects redirects.
	ErrTooManyRedirects = errors.New("stopped after too many redirects")
)
