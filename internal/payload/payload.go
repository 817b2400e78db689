// Package payload turns probe results into the collector wire payload.
package payload

import (
	"github.com/hamed0406/probeagent/internal/domain"
	"github.com/hamed0406/probeagent/internal/probe"
)

// Build emits one metric per successful probe, in probe order. Timings are
// already milliseconds; certificate days are carried as a whole number.
func Build(token, url string, r probe.Results) domain.Payload {
	p := domain.Payload{Token: token, URL: url, Metrics: []domain.Metric{}}
	add := func(name string, res probe.Result[float64]) {
		if res.OK {
			p.Metrics = append(p.Metrics, domain.Metric{Name: name, Value: res.Value})
		}
	}

	add(domain.MetricDNSNSTime, r.DNSAuthoritative)
	add(domain.MetricDNSLocalTime, r.DNSLocal)
	add(domain.MetricTCPTime, r.TCP)
	add(domain.MetricSSLTime, r.TLS)
	if r.CertDaysRemaining.OK {
		p.Metrics = append(p.Metrics, domain.Metric{
			Name:  domain.MetricSSLDaysRemaining,
			Value: float64(r.CertDaysRemaining.Value),
		})
	}
	add(domain.MetricHTTPTime, r.HTTP)
	return p
}

// Empty reports whether a payload carries nothing worth sending.
func Empty(p domain.Payload) bool { return len(p.Metrics) == 0 }
