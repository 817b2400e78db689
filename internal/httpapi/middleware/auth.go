package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Credential returns the bearer token or X-API-Key presented by r, if any.
func Credential(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// KeySet is a list of accepted secrets. Blank entries are dropped.
type KeySet [][]byte

func NewKeySet(keys []string) KeySet {
	var ks KeySet
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			ks = append(ks, []byte(k))
		}
	}
	return ks
}

// Contains compares given against every key in constant time.
func (ks KeySet) Contains(given string) bool {
	if given == "" {
		return false
	}
	g := []byte(given)
	found := 0
	for _, k := range ks {
		found |= subtle.ConstantTimeCompare(k, g)
	}
	return found == 1
}

// HasKey reports whether given is one of set.
func HasKey(given string, set []string) bool { return NewKeySet(set).Contains(given) }

// Unauthorized writes the 401 body shared by the key checks.
func Unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="collector"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}

// RequireKey admits requests presenting one of keys. With no keys configured
// every request passes (local development).
func RequireKey(keys []string) func(http.Handler) http.Handler {
	ks := NewKeySet(keys)
	return func(next http.Handler) http.Handler {
		if len(ks) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ks.Contains(Credential(r)) {
				Unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
