package transport

import "errors"

// Transport errors.
var (
	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrProxyCannotConnect is returned when no TCP connection to the proxy
	// can be established.
	ErrProxyCannotConnect = errors.New("cannot connect to proxy")

	// ErrProxyNotSOCKS5 is returned when the proxy accepts the connection but
	// does not answer the SOCKS5 greeting.
	ErrProxyNotSOCKS5 = errors.New("proxy does not speak SOCKS5")

	// ErrProxyTimeout is returned when the proxy handshake times out.
	ErrProxyTimeout = errors.New("timeout connecting to proxy")

	// ErrNoProxy is returned by CheckProxy on a direct dialer.
	ErrNoProxy = errors.New("no proxy configured")

	// ErrTorNotRunning is returned when a dialer is requested from an
	// embedded Tor daemon that has not been started.
	ErrTorNotRunning = errors.New("embedded Tor daemon is not running")
)
