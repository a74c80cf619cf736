package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// SOCKS5 greeting bytes.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthNoAccept = 0xFF
)

// checkProxyTimeout bounds the SOCKS5 greeting performed by CheckProxy.
const checkProxyTimeout = 2 * time.Second

// Dialer opens plain TCP connections, directly or through a SOCKS5 proxy.
type Dialer struct {
	// proxyAddress is the SOCKS5 proxy in "host:port" form, empty for direct.
	proxyAddress string

	// dialer performs the actual dial.
	dialer proxy.Dialer

	// timeout bounds connection establishment.
	timeout time.Duration
}

// NewDialer returns a Dialer. An empty proxyAddress selects direct connections.
// The address is validated but the proxy is not contacted; call CheckProxy for that.
func NewDialer(proxyAddress string, timeout time.Duration) (*Dialer, error) {
	forward := &net.Dialer{Timeout: timeout}

	if proxyAddress == "" {
		return &Dialer{dialer: forward, timeout: timeout}, nil
	}

	if !isValidProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}

	// No auth: local SOCKS proxies usually accept anonymous clients.
	d, err := proxy.SOCKS5("tcp", proxyAddress, nil, forward)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	return &Dialer{
		proxyAddress: proxyAddress,
		dialer:       d,
		timeout:      timeout,
	}, nil
}

// FromDialer wraps an existing proxy.Dialer, mostly for tests.
func FromDialer(d proxy.Dialer) *Dialer {
	return &Dialer{dialer: d}
}

// isValidProxyAddress checks for a non-empty host and a port in 1-65535.
func isValidProxyAddress(address string) bool {
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

// ProxyAddress returns the configured proxy address, empty when dialing directly.
func (d *Dialer) ProxyAddress() string {
	return d.proxyAddress
}

// Dial implements proxy.Dialer.
func (d *Dialer) Dial(network, address string) (net.Conn, error) {
	return d.dialer.Dial(network, address)
}

// DialContext dials address and gives up when ctx is done.
// Dialers without native context support are dialed in a goroutine; on
// cancellation a late connection is closed as soon as it arrives.
func (d *Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if cd, ok := d.dialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, address)
	}

	type dialResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan dialResult, 1)

	go func() {
		conn, err := d.dialer.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case result := <-resultCh:
		return result.conn, result.err
	case <-ctx.Done():
		go func() {
			if r := <-resultCh; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// CheckProxy performs a SOCKS5 greeting against the configured proxy.
// It verifies that something speaking SOCKS5 without authentication is
// listening, without asking it to connect anywhere.
func (d *Dialer) CheckProxy(ctx context.Context) error {
	if d.proxyAddress == "" {
		return ErrNoProxy
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var nd net.Dialer
	conn, err := nd.DialContext(ctx, "tcp", d.proxyAddress)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrProxyTimeout
		}
		return fmt.Errorf("%w: %w", ErrProxyCannotConnect, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrProxyCannotConnect, err)
	}

	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return fmt.Errorf("%w: %w", ErrProxyCannotConnect, err)
	}

	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return ErrProxyTimeout
		}
		return ErrProxyNotSOCKS5
	}

	if resp[0] != socks5Version || resp[1] == socks5AuthNoAccept || resp[1] != socks5AuthNone {
		return ErrProxyNotSOCKS5
	}
	return nil
}
