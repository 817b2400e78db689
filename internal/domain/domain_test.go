package domain

import (
	"encoding/json"
	"testing"
)

func TestPayload_WireShape(t *testing.T) {
	p := Payload{
		Token: "tok",
		URL:   "https://example.com",
		Metrics: []Metric{
			{Name: MetricTCPTime, Value: 20},
			{Name: MetricSSLDaysRemaining, Value: -3},
		},
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"token":"tok","url":"https://example.com","metrics":[{"name":"tcp_time","value":20},{"name":"ssl_days_remaining","value":-3}]}`
	if string(b) != want {
		t.Fatalf("wire mismatch:\nwant=%s\ngot =%s", want, b)
	}
}

func TestQueueEntry_DropsAndRestoresToken(t *testing.T) {
	p := Payload{Token: "old", URL: "https://example.com", Metrics: []Metric{{Name: MetricHTTPTime, Value: 80}}}

	e := p.Entry()
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"url":"https://example.com","metrics":[{"name":"http_time","value":80}]}` {
		t.Fatalf("entry should not carry a token: %s", b)
	}

	got := e.Payload("new")
	if got.Token != "new" || got.URL != p.URL || len(got.Metrics) != 1 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}
