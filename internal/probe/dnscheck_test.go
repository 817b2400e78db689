package probe

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	mu     sync.Mutex
	ns     map[string][]*net.NS
	hosts  map[string][]string
	nsAsks []string
}

func (f *fakeResolver) LookupNS(_ context.Context, name string) ([]*net.NS, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nsAsks = append(f.nsAsks, name)
	if ns, ok := f.ns[name]; ok {
		return ns, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

func (f *fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if addrs, ok := f.hosts[host]; ok {
		return addrs, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

// startNameserver runs an in-process UDP DNS server that answers every A
// question and returns its port.
func startNameserver(t *testing.T) (string, *int) {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	queries := 0
	srv := &dns.Server{
		PacketConn: pc,
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			mu.Lock()
			queries++
			mu.Unlock()
			m := new(dns.Msg)
			m.SetReply(r)
			m.Authoritative = true
			rr, err := dns.NewRR(r.Question[0].Name + " 60 IN A 192.0.2.10")
			if err == nil {
				m.Answer = append(m.Answer, rr)
			}
			_ = w.WriteMsg(m)
		}),
	}
	started := make(chan struct{})
	srv.NotifyStartedFunc = func() { close(started) }
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })

	_, port, err := net.SplitHostPort(pc.LocalAddr().String())
	require.NoError(t, err)
	return port, &queries
}

func TestDNSAuthoritative_QueriesFirstNameserverOfBaseDomain(t *testing.T) {
	port, queries := startNameserver(t)
	res := &fakeResolver{
		ns: map[string][]*net.NS{
			"example.com": {{Host: "ns1.example.net."}, {Host: "ns2.example.net."}},
		},
		hosts: map[string][]string{
			"ns1.example.net": {"::1", "127.0.0.1"},
		},
	}
	s := newTestSet()
	s.Resolver = res
	s.DNSPort = port

	out := s.DNSAuthoritative(context.Background(), "www.example.com")
	require.True(t, out.OK, "want a measurement")
	require.GreaterOrEqual(t, out.Value, 0.0)
	require.Equal(t, []string{"example.com"}, res.nsAsks)
	require.Equal(t, 1, *queries)
}

func TestDNSAuthoritative_FailsWhenAnyStepFails(t *testing.T) {
	port, _ := startNameserver(t)

	t.Run("no NS", func(t *testing.T) {
		s := newTestSet()
		s.Resolver = &fakeResolver{}
		s.DNSPort = port
		require.False(t, s.DNSAuthoritative(context.Background(), "example.com").OK)
	})

	t.Run("NS host does not resolve", func(t *testing.T) {
		s := newTestSet()
		s.Resolver = &fakeResolver{ns: map[string][]*net.NS{"example.com": {{Host: "ns1.example.net."}}}}
		s.DNSPort = port
		require.False(t, s.DNSAuthoritative(context.Background(), "example.com").OK)
	})

	t.Run("nameserver silent", func(t *testing.T) {
		pc, err := net.ListenPacket("udp", "127.0.0.1:0")
		require.NoError(t, err)
		defer pc.Close()
		_, silent, _ := net.SplitHostPort(pc.LocalAddr().String())

		s := newTestSet()
		s.Resolver = &fakeResolver{
			ns:    map[string][]*net.NS{"example.com": {{Host: "ns1.example.net."}}},
			hosts: map[string][]string{"ns1.example.net": {"127.0.0.1"}},
		}
		s.DNSPort = silent
		s.DNSClient.Timeout = 100 * time.Millisecond
		require.False(t, s.DNSAuthoritative(context.Background(), "example.com").OK)
	})

	t.Run("ip literal", func(t *testing.T) {
		s := newTestSet()
		s.Resolver = &fakeResolver{}
		require.False(t, s.DNSAuthoritative(context.Background(), "192.0.2.1").OK)
	})
}

func TestDNSLocal(t *testing.T) {
	s := newTestSet()
	s.Resolver = &fakeResolver{hosts: map[string][]string{"example.com": {"192.0.2.1"}}}

	require.True(t, s.DNSLocal(context.Background(), "example.com").OK)
	require.False(t, s.DNSLocal(context.Background(), "missing.example.com").OK)
}

func TestNameserverIP_PrefersIPv4(t *testing.T) {
	s := newTestSet()
	s.Resolver = &fakeResolver{
		ns:    map[string][]*net.NS{"example.com": {{Host: "ns.example.com."}}},
		hosts: map[string][]string{"ns.example.com": {"2001:db8::1", "192.0.2.53"}},
	}
	ip, err := s.nameserverIP(context.Background(), "example.com")
	require.NoError(t, err)
	require.Equal(t, "192.0.2.53", ip)

	s.Resolver = &fakeResolver{ns: map[string][]*net.NS{"example.com": {}}}
	_, err = s.nameserverIP(context.Background(), "example.com")
	require.True(t, errors.Is(err, errNoAnswer))
}
