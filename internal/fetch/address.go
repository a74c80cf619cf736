package fetch

import (
	"regexp"
	"strconv"
	"strings"
)

// addressPattern decomposes "scheme://host(.label)+rest". The host excludes
// the scheme, any port and everything from the first "/", "?" or "#".
var addressPattern = regexp.MustCompile(`(?i)^https?://([a-z0-9\-]{1,63}(?:\.[a-z0-9\-]{1,63})+)(?::([0-9]{1,5}))?(.*)$`)

// RemoteAddress is the result of decomposing a URL for a raw fetch.
type RemoteAddress struct {
	// Host is the hostname without scheme, port or path. Empty when the URL
	// does not have the expected shape.
	Host string

	// Port is an explicit port from the URL, 0 when absent.
	Port int

	// PathQuery is everything after the host (and port): path, query and fragment.
	PathQuery string
}

// SplitAddress decomposes rawURL into a RemoteAddress. A URL that does not
// match "http(s)://host.tld..." yields a zero RemoteAddress.
func SplitAddress(rawURL string) RemoteAddress {
	m := addressPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return RemoteAddress{}
	}

	addr := RemoteAddress{
		Host:      m[1],
		PathQuery: m[3],
	}
	if m[2] != "" {
		if port, err := strconv.Atoi(m[2]); err == nil && port > 0 && port <= 65535 {
			addr.Port = port
		}
	}
	return addr
}

// RequestTarget returns the origin-form request target: PathQuery without its
// fragment, or "/" when nothing remains.
func (a RemoteAddress) RequestTarget() string {
	target, _, _ := strings.Cut(a.PathQuery, "#")
	if target == "" {
		return "/"
	}
	if !strings.HasPrefix(target, "/") {
		// "http://host.tld?q=1" has a query but no path.
		return "/" + target
	}
	return target
}

// Valid reports whether the address has a host to connect to.
func (a RemoteAddress) Valid() bool {
	return a.Host != ""
}
