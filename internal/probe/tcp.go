package probe

import (
	"context"
	"net"
	"strconv"
	"time"
)

// TCP times a full connect to host:port; the connection is closed at once.
func (s *Set) TCP(ctx context.Context, host string, port int) Result[float64] {
	ctx, cancel := context.WithTimeout(ctx, s.Timeouts.TCP)
	defer cancel()

	d := net.Dialer{Timeout: s.Timeouts.TCP}
	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	elapsed := time.Since(start)
	if err != nil {
		s.fail("tcp", host, err)
		return None[float64]()
	}
	_ = conn.Close()
	return Some(millis(elapsed))
}
