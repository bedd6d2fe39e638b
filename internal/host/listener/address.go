package listener

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPort is used when the address omits a port.
const DefaultPort = "80"

// Address is a parsed bind address of the form scheme://host:port/path/.
type Address struct {
	scheme string
	host   string
	port   string
	path   string
}

// ParseAddress parses and validates a bind address.
//
// The hosts "+" and "*" bind every interface.
func ParseAddress(raw string) (*Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case "http":
	case "":
		return nil, fmt.Errorf("%w: %q has no scheme", ErrInvalidAddress, raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrInvalidAddress, raw)
	}
	if u.User != nil || u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("%w: %q must not carry userinfo, query or fragment", ErrInvalidAddress, raw)
	}

	port := u.Port()
	if port == "" {
		port = DefaultPort
	}
	if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		return nil, fmt.Errorf("%w: port %q", ErrInvalidAddress, port)
	}

	if !strings.HasSuffix(u.Path, "/") {
		return nil, fmt.Errorf("%w: %q", ErrMissingTrailingSlash, raw)
	}

	return &Address{
		scheme: scheme,
		host:   host,
		port:   port,
		path:   u.Path,
	}, nil
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(raw string) *Address {
	a, err := ParseAddress(raw)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the canonical form of the address.
func (a *Address) String() string {
	return a.scheme + "://" + net.JoinHostPort(a.host, a.port) + a.path
}

// Host returns the host part as written.
func (a *Address) Host() string { return a.host }

// Port returns the port, DefaultPort when it was omitted.
func (a *Address) Port() string { return a.port }

// Path returns the path prefix, always ending in '/'.
func (a *Address) Path() string { return a.path }

// Wildcard reports whether the address binds every interface.
func (a *Address) Wildcard() bool {
	return a.host == "+" || a.host == "*"
}

// ListenAddr returns the host:port passed to net.Listen.
func (a *Address) ListenAddr() string {
	if a.Wildcard() {
		return ":" + a.port
	}
	return net.JoinHostPort(a.host, a.port)
}

// Matches reports whether a request path falls under the address path.
// "/api" matches the prefix "/api/".
func (a *Address) Matches(path string) bool {
	if strings.HasPrefix(path, a.path) {
		return true
	}
	return path+"/" == a.path
}
