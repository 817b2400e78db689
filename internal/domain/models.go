package domain

// Metric names reported to the collector.
const (
	MetricDNSNSTime        = "dns_ns_time"
	MetricDNSLocalTime     = "dns_local_time"
	MetricTCPTime          = "tcp_time"
	MetricSSLTime          = "ssl_time"
	MetricSSLDaysRemaining = "ssl_days_remaining"
	MetricHTTPTime         = "http_time"
)

// Target is an endpoint the agent probes on every run.
type Target struct {
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`
}

// Metric is a single named measurement. Timings are milliseconds,
// ssl_days_remaining is whole days.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Payload is the unit of delivery to the collector.
type Payload struct {
	Token   string   `json:"token"`
	URL     string   `json:"url"`
	Metrics []Metric `json:"metrics"`
}

// QueueEntry is a payload persisted after delivery was exhausted.
// The token is not stored; it is attached again when the queue drains.
type QueueEntry struct {
	URL     string   `json:"url"`
	Metrics []Metric `json:"metrics"`
}

// Entry strips the token so the payload can be queued.
func (p Payload) Entry() QueueEntry {
	return QueueEntry{URL: p.URL, Metrics: p.Metrics}
}

// Payload rebuilds a deliverable payload using the current token.
func (e QueueEntry) Payload(token string) Payload {
	return Payload{Token: token, URL: e.URL, Metrics: e.Metrics}
}
