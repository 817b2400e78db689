package probe

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Endpoint is the probe-relevant view of a target URL.
type Endpoint struct {
	URL    string
	Scheme string
	Host   string
	Port   int
}

// TLS reports whether TLS-dependent probes apply.
func (e Endpoint) TLS() bool { return e.Scheme == "https" }

// Addr is host:port for dialing.
func (e Endpoint) Addr() string { return net.JoinHostPort(e.Host, strconv.Itoa(e.Port)) }

// ParseEndpoint extracts host and port from a target URL. An explicit port
// wins; otherwise https defaults to 443 and everything else to 80.
func ParseEndpoint(raw string) (Endpoint, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse url %q: %w", raw, err)
	}
	host := u.Hostname()
	if host == "" {
		return Endpoint{}, fmt.Errorf("url %q has no host", raw)
	}
	scheme := strings.ToLower(u.Scheme)

	port := 80
	if scheme == "https" {
		port = 443
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return Endpoint{}, fmt.Errorf("url %q has invalid port %q", raw, p)
		}
		port = n
	}
	return Endpoint{URL: raw, Scheme: scheme, Host: host, Port: port}, nil
}

// BaseDomain returns the registrable domain (eTLD+1) of host, e.g.
// "www.example.co.uk" -> "example.co.uk". Hosts without a public suffix
// match are returned unchanged.
func BaseDomain(host string) string {
	h := strings.TrimSuffix(strings.ToLower(host), ".")
	base, err := publicsuffix.EffectiveTLDPlusOne(h)
	if err != nil {
		return h
	}
	return base
}

func isIP(host string) bool { return net.ParseIP(host) != nil }
