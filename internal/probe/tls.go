package probe

import (
	"context"
	"crypto/tls"
	"math"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// TLS times connect plus handshake against the system trust store and
// reports whole days left on the peer certificate (negative once expired).
func (s *Set) TLS(ctx context.Context, host string, port int) TLSResult {
	ctx, cancel := context.WithTimeout(ctx, s.Timeouts.TLS)
	defer cancel()

	cfg := &tls.Config{}
	if s.TLSConfig != nil {
		cfg = s.TLSConfig.Clone()
	}
	cfg.ServerName = host

	d := tls.Dialer{NetDialer: &net.Dialer{Timeout: s.Timeouts.TLS}, Config: cfg}
	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	elapsed := time.Since(start)
	if err != nil {
		s.fail("tls", host, err)
		return TLSResult{}
	}
	defer conn.Close()

	out := TLSResult{Handshake: Some(millis(elapsed))}
	tc, ok := conn.(*tls.Conn)
	if !ok {
		return out
	}
	certs := tc.ConnectionState().PeerCertificates
	if len(certs) == 0 || certs[0].NotAfter.IsZero() {
		s.Logger.Debug("tls_no_expiry", zap.String("host", host))
		return out
	}
	out.DaysRemaining = Some(daysUntil(certs[0].NotAfter, s.clock()))
	return out
}

// daysUntil floors towards negative infinity, so a certificate that expired
// an hour ago reports -1.
func daysUntil(notAfter, now time.Time) int {
	return int(math.Floor(notAfter.Sub(now).Hours() / 24))
}
