package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

var errNoAnswer = errors.New("no records")

// DNSAuthoritative times an A query sent straight to the first nameserver of
// the host's base domain, bypassing caching resolvers. NS and nameserver
// address lookups are not part of the measured time but share the budget.
func (s *Set) DNSAuthoritative(ctx context.Context, host string) Result[float64] {
	if isIP(host) {
		return None[float64]()
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeouts.DNS)
	defer cancel()

	nsIP, err := s.nameserverIP(ctx, BaseDomain(host))
	if err != nil {
		s.fail("dns_ns", host, err)
		return None[float64]()
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = false

	start := time.Now()
	if _, _, err := s.DNSClient.ExchangeContext(ctx, msg, net.JoinHostPort(nsIP, s.DNSPort)); err != nil {
		s.fail("dns_ns", host, err)
		return None[float64]()
	}
	return Some(millis(time.Since(start)))
}

func (s *Set) nameserverIP(ctx context.Context, domain string) (string, error) {
	ns, err := s.Resolver.LookupNS(ctx, domain)
	if err != nil {
		return "", fmt.Errorf("lookup NS %s: %w", domain, err)
	}
	if len(ns) == 0 {
		return "", fmt.Errorf("lookup NS %s: %w", domain, errNoAnswer)
	}
	nsHost := strings.TrimSuffix(ns[0].Host, ".")

	addrs, err := s.Resolver.LookupHost(ctx, nsHost)
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", nsHost, err)
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return a, nil
		}
	}
	if len(addrs) > 0 {
		return addrs[0], nil
	}
	return "", fmt.Errorf("lookup %s: %w", nsHost, errNoAnswer)
}

// DNSLocal times a lookup through the system resolver path.
func (s *Set) DNSLocal(ctx context.Context, host string) Result[float64] {
	if isIP(host) {
		return None[float64]()
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeouts.DNS)
	defer cancel()

	start := time.Now()
	addrs, err := s.Resolver.LookupHost(ctx, host)
	elapsed := time.Since(start)
	if err == nil && len(addrs) == 0 {
		err = errNoAnswer
	}
	if err != nil {
		var de *net.DNSError
		if errors.As(err, &de) && de.IsNotFound {
			err = fmt.Errorf("NXDOMAIN: %w", err)
		}
		s.fail("dns_local", host, err)
		return None[float64]()
	}
	return Some(millis(elapsed))
}
