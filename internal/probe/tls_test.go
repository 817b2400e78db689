package probe

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func hostPort(t *testing.T, addr net.Addr) (string, int) {
	t.Helper()
	host, p, err := net.SplitHostPort(addr.String())
	require.NoError(t, err)
	port, err := strconv.Atoi(p)
	require.NoError(t, err)
	return host, port
}

func TestTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port := hostPort(t, ln.Addr())

	s := newTestSet()
	require.True(t, s.TCP(context.Background(), host, port).OK)

	require.NoError(t, ln.Close())
	require.False(t, s.TCP(context.Background(), host, port).OK, "closed port must yield no result")
}

func TestTLS_HandshakeAndDaysRemaining(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	host, port := hostPort(t, srv.Listener.Addr())

	s := newTestSet()
	s.TLSConfig = &tls.Config{RootCAs: srv.Client().Transport.(*http.Transport).TLSClientConfig.RootCAs}
	notAfter := srv.Certificate().NotAfter
	s.now = func() time.Time { return notAfter.Add(-30*24*time.Hour - time.Minute) }

	out := s.TLS(context.Background(), host, port)
	require.True(t, out.Handshake.OK)
	require.True(t, out.DaysRemaining.OK)
	require.Equal(t, 30, out.DaysRemaining.Value)
}

func TestTLS_UntrustedCertificateYieldsNothing(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	host, port := hostPort(t, srv.Listener.Addr())

	out := newTestSet().TLS(context.Background(), host, port)
	require.False(t, out.Handshake.OK)
	require.False(t, out.DaysRemaining.OK)
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		notAfter time.Time
		want     int
	}{
		{now.Add(30 * 24 * time.Hour), 30},
		{now.Add(30*24*time.Hour - time.Second), 29},
		{now.Add(time.Hour), 0},
		{now.Add(-time.Hour), -1},
		{now.Add(-48 * time.Hour), -2},
	}
	for _, c := range cases {
		if got := daysUntil(c.notAfter, now); got != c.want {
			t.Fatalf("daysUntil(%s)=%d want %d", c.notAfter, got, c.want)
		}
	}
}
