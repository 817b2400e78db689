package probe

import (
	"context"
	"net/http"
	"time"
)

// HTTP times a GET until response headers arrive. Any status counts as a
// measurement; only transport failures yield no result.
func (s *Set) HTTP(ctx context.Context, rawURL string) Result[float64] {
	ctx, cancel := context.WithTimeout(ctx, s.Timeouts.HTTP)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		s.fail("http", rawURL, err)
		return None[float64]()
	}

	start := time.Now()
	resp, err := s.HTTPClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		s.fail("http", rawURL, err)
		return None[float64]()
	}
	_ = resp.Body.Close()
	return Some(millis(latency))
}
