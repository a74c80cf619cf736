package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/tornago"
)

// DefaultTorStartupTimeout bounds the bootstrap of an embedded Tor daemon.
const DefaultTorStartupTimeout = 3 * time.Minute

// EmbeddedTor runs a private Tor daemon whose SOCKS5 port is used as the
// proxy of a Dialer. It requires a tor binary on PATH.
//
// Bootstrapping downloads directory information and builds the first
// circuits, which usually takes one to three minutes. The fetch timeout
// does not apply to this phase; startupTimeout does.
type EmbeddedTor struct {
	// process is the running daemon, nil before Start and after Stop.
	process *tornago.TorProcess

	// socksAddr is the SOCKS5 listener, set once Start succeeds.
	socksAddr string

	// startupTimeout bounds Start.
	startupTimeout time.Duration
}

// EmbeddedTorOption configures an EmbeddedTor.
type EmbeddedTorOption func(*EmbeddedTor)

// WithStartupTimeout sets how long Start waits for the daemon to bootstrap.
func WithStartupTimeout(timeout time.Duration) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		e.startupTimeout = timeout
	}
}

// NewEmbeddedTor creates an EmbeddedTor. Nothing is started until Start.
func NewEmbeddedTor(opts ...EmbeddedTorOption) *EmbeddedTor {
	e := &EmbeddedTor{startupTimeout: DefaultTorStartupTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the daemon on OS-assigned ports and blocks until it has
// bootstrapped or the startup timeout expires. If ctx ends during startup
// the daemon is stopped again and the context error returned.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = process.Stop() //nolint:errcheck // already failing
		return err
	}

	e.process = process
	e.socksAddr = process.SocksAddr()
	return nil
}

// Stop shuts the daemon down. It is safe to call on an EmbeddedTor that was
// never started and to call more than once.
func (e *EmbeddedTor) Stop() error {
	if e.process == nil {
		return nil
	}
	err := e.process.Stop()
	e.process = nil
	e.socksAddr = ""
	return err
}

// SocksAddr returns the daemon's SOCKS5 address, empty when not running.
func (e *EmbeddedTor) SocksAddr() string {
	return e.socksAddr
}

// IsRunning reports whether Start succeeded and Stop has not been called.
func (e *EmbeddedTor) IsRunning() bool {
	return e.process != nil
}

// NewDialer returns a Dialer that connects through the running daemon.
func (e *EmbeddedTor) NewDialer(timeout time.Duration) (*Dialer, error) {
	if !e.IsRunning() {
		return nil, ErrTorNotRunning
	}
	return NewDialer(e.socksAddr, timeout)
}
