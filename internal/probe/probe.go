package probe

import (
	"context"
	"crypto/tls"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// Result is the outcome of a single probe. OK is false when the probe did
// not produce a measurement; that is the normal "no metric" case, not an error.
type Result[T any] struct {
	Value T
	OK    bool
}

// Some wraps a measured value.
func Some[T any](v T) Result[T] { return Result[T]{Value: v, OK: true} }

// None is the empty result.
func None[T any]() Result[T] { return Result[T]{} }

// TLSResult holds the two independent outcomes of the TLS probe.
type TLSResult struct {
	Handshake     Result[float64] // ms
	DaysRemaining Result[int]
}

// Prober performs the timing probes against one endpoint property each.
// Implementations never return errors; a failed probe yields an empty Result.
type Prober interface {
	DNSAuthoritative(ctx context.Context, host string) Result[float64]
	DNSLocal(ctx context.Context, host string) Result[float64]
	TCP(ctx context.Context, host string, port int) Result[float64]
	TLS(ctx context.Context, host string, port int) TLSResult
	HTTP(ctx context.Context, rawURL string) Result[float64]
}

// Timeouts bounds each probe type.
type Timeouts struct {
	DNS  time.Duration
	TCP  time.Duration
	TLS  time.Duration
	HTTP time.Duration
}

// DefaultTimeouts returns the per-probe budgets used when nothing is configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		DNS:  5 * time.Second,
		TCP:  3 * time.Second,
		TLS:  3 * time.Second,
		HTTP: 5 * time.Second,
	}
}

// resolver is the subset of *net.Resolver the DNS probes need.
type resolver interface {
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Set is the production Prober.
type Set struct {
	Logger     *zap.Logger
	Timeouts   Timeouts
	Resolver   resolver
	DNSClient  *dns.Client
	DNSPort    string
	HTTPClient *http.Client
	TLSConfig  *tls.Config // base config; ServerName is set per probe

	now func() time.Time
}

var _ Prober = (*Set)(nil)

// NewSet builds a Set that uses the system resolver, the system trust store
// and a fresh connection per probe.
func NewSet(logger *zap.Logger, t Timeouts) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := DefaultTimeouts()
	if t.DNS <= 0 {
		t.DNS = d.DNS
	}
	if t.TCP <= 0 {
		t.TCP = d.TCP
	}
	if t.TLS <= 0 {
		t.TLS = d.TLS
	}
	if t.HTTP <= 0 {
		t.HTTP = d.HTTP
	}
	return &Set{
		Logger:    logger,
		Timeouts:  t,
		Resolver:  net.DefaultResolver,
		DNSClient: &dns.Client{Net: "udp", Timeout: t.DNS},
		DNSPort:   "53",
		HTTPClient: &http.Client{
			Timeout:   t.HTTP,
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment, DisableKeepAlives: true},
		},
		now: time.Now,
	}
}

func (s *Set) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *Set) fail(probe, host string, err error) {
	s.Logger.Debug("probe_error",
		zap.String("probe", probe),
		zap.String("host", host),
		zap.Error(err),
	)
}

// millis converts a duration to milliseconds rounded to 0.01.
func millis(d time.Duration) float64 {
	return math.Round(float64(d)/float64(time.Millisecond)*100) / 100
}
