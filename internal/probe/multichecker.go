package probe

import "context"

// Results collects the outcomes of every probe for one target.
type Results struct {
	DNSAuthoritative  Result[float64]
	DNSLocal          Result[float64]
	TCP               Result[float64]
	TLS               Result[float64]
	CertDaysRemaining Result[int]
	HTTP              Result[float64]
}

// Run executes the probes for rawURL one after another in a fixed order:
// authoritative DNS, local DNS, TCP, TLS (https only), HTTP. A failed probe
// does not stop the ones after it. The error is only for URLs that cannot be
// turned into an endpoint.
func Run(ctx context.Context, p Prober, rawURL string) (Results, error) {
	ep, err := ParseEndpoint(rawURL)
	if err != nil {
		return Results{}, err
	}

	var r Results
	r.DNSAuthoritative = p.DNSAuthoritative(ctx, ep.Host)
	r.DNSLocal = p.DNSLocal(ctx, ep.Host)
	r.TCP = p.TCP(ctx, ep.Host, ep.Port)
	if ep.TLS() {
		t := p.TLS(ctx, ep.Host, ep.Port)
		r.TLS = t.Handshake
		r.CertDaysRemaining = t.DaysRemaining
	}
	r.HTTP = p.HTTP(ctx, rawURL)
	return r, nil
}

// Missing lists the names of the probes that produced no result, for logs.
func (r Results) Missing(tls bool) []string {
	var out []string
	if !r.DNSAuthoritative.OK {
		out = append(out, "dns_ns")
	}
	if !r.DNSLocal.OK {
		out = append(out, "dns_local")
	}
	if !r.TCP.OK {
		out = append(out, "tcp")
	}
	if tls && !r.TLS.OK {
		out = append(out, "tls")
	}
	if tls && !r.CertDaysRemaining.OK {
		out = append(out, "cert_expiry")
	}
	if !r.HTTP.OK {
		out = append(out, "http")
	}
	return out
}
