// Package transport provides the raw connection layer used by the fetcher.
//
// Connections are made either directly over TCP or through a SOCKS5 proxy,
// both exposed as a golang.org/x/net/proxy Dialer so the fetcher never needs
// to know which one it is using. No TLS is ever negotiated here.
//
// # Usage
//
//	d, err := transport.NewDialer("", 30*time.Second) // direct
//	conn, err := d.DialContext(ctx, "tcp", "example.com:80")
//
//	d, err = transport.NewDialer("127.0.0.1:1080", 30*time.Second) // SOCKS5
//	if err := d.CheckProxy(ctx); err != nil { ... }
//
// # Embedded Tor
//
// EmbeddedTor starts a private Tor daemon through github.com/nao1215/tornago
// and hands out Dialers bound to its SOCKS5 port:
//
//	tor := transport.NewEmbeddedTor()
//	if err := tor.Start(ctx); err != nil { ... }
//	defer tor.Stop()
//	d, err := tor.NewDialer(30*time.Second)
package transport
