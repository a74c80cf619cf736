package fetch

import (
	"net"
	"strconv"
	"strings"
)

// crlf is the HTTP line terminator.
const crlf = "\r\n"

// BuildRequest returns the raw GET request for addr: request line, Host,
// optional User-Agent, "Connection: close" and the terminating blank line.
// port is the port actually dialed; it appears in the Host header only when
// it is not the HTTP default.
func BuildRequest(addr RemoteAddress, port int, userAgent string) []byte {
	host := addr.Host
	if port != 0 && port != DefaultPort {
		host = net.JoinHostPort(addr.Host, strconv.Itoa(port))
	}

	var sb strings.Builder
	sb.WriteString("GET " + addr.RequestTarget() + " HTTP/1.1" + crlf)
	sb.WriteString("Host: " + host + crlf)
	if userAgent != "" {
		sb.WriteString("User-Agent: " + userAgent + crlf)
	}
	// The server closes the connection after one response, which is how
	// the end of the response is detected.
	sb.WriteString("Connection: close" + crlf)
	sb.WriteString(crlf)

	return []byte(sb.String())
}
