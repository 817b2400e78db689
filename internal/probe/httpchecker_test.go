package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestSet() *Set {
	return NewSet(zap.NewNop(), Timeouts{
		DNS:  time.Second,
		TCP:  time.Second,
		TLS:  time.Second,
		HTTP: time.Second,
	})
}

func TestHTTP_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("want GET, got %s", r.Method)
		}
		w.WriteHeader(200)
		_, _ = w.Write([]byte("ok"))
	}))
	defer s.Close()

	out := newTestSet().HTTP(context.Background(), s.URL)
	if !out.OK {
		t.Fatalf("want a measurement, got %+v", out)
	}
	if out.Value < 0 {
		t.Fatalf("latency should be >= 0, got %f", out.Value)
	}
}

func TestHTTP_Status500StillMeasured(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 500)
	}))
	defer s.Close()

	if out := newTestSet().HTTP(context.Background(), s.URL); !out.OK {
		t.Fatalf("a 500 answer is still a round trip, got %+v", out)
	}
}

func TestHTTP_TimeoutYieldsNoResult(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer s.Close()

	set := NewSet(zap.NewNop(), Timeouts{HTTP: 50 * time.Millisecond})
	if out := set.HTTP(context.Background(), s.URL); out.OK {
		t.Fatalf("want no result on timeout, got %+v", out)
	}
}

func TestHTTP_BadURL(t *testing.T) {
	if out := newTestSet().HTTP(context.Background(), "http://[::1"); out.OK {
		t.Fatalf("want no result for malformed url, got %+v", out)
	}
}
