package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidHTTPURL(t *testing.T) {
	for in, want := range map[string]bool{
		"https://example.com":         true,
		"HTTP://EXAMPLE.com/health":   true,
		"http://127.0.0.1:8080/":      true,
		"http://[::1]/":               true,
		"ftp://files.example.com":     false,
		"example.com":                 false,
		"https://":                    false,
		"":                            false,
		"https://exa mple.com/status": false,
	} {
		assert.Equal(t, want, isValidHTTPURL(in), in)
	}
}

// Agents report the URL as configured; variants of one endpoint must share
// a key in the latest-per-URL view.
func TestNormalizeHTTPURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://EXAMPLE.com/", "https://example.com"},
		{"HTTPS://example.com:443", "https://example.com"},
		{"http://example.com:80/", "http://example.com"},
		{"https://example.com:80/", "https://example.com:80"},
		{"https://example.com/status/", "https://example.com/status/"},
		{"http://example.com:8080/health?deep=1", "http://example.com:8080/health?deep=1"},
		{"http://[::1]:80/", "http://[::1]"},
		{"https://[2001:DB8::1]:8443", "https://[2001:db8::1]:8443"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, normalizeHTTPURL(c.in), c.in)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusBadRequest, "url must be http(s)")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"url must be http(s)"}`, rec.Body.String())
}
