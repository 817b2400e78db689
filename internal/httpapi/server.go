package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/probeagent/internal/domain"
	apimw "github.com/hamed0406/probeagent/internal/httpapi/middleware"
	"github.com/hamed0406/probeagent/internal/repo"
)

// maxBody caps an accepted payload.
const maxBody = 1 << 20

// Server is a minimal collector: it accepts agent payloads and serves the
// latest one per URL.
type Server struct {
	Logger   *zap.Logger
	Payloads repo.PayloadStore
	Tokens   []string // accepted agent tokens; empty accepts any
	limiter  *apimw.Limiter
}

func NewServer(l *zap.Logger, ps repo.PayloadStore, tokens []string) *Server {
	return &Server{Logger: l, Payloads: ps, Tokens: tokens}
}

type RouterOptions struct {
	ReadKeys       []string
	AllowedOrigins []string
	TokenRPM       int // per agent token
	TokenBurst     int
	ReadRPM        int // per client IP on read routes
	ReadBurst      int
}

func (s *Server) Router(o RouterOptions) http.Handler {
	s.limiter = apimw.NewLimiter(o.TokenRPM, o.TokenBurst)

	r := chi.NewRouter()
	if len(o.AllowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: o.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/api/metrics", s.handleMetrics)

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(o.ReadRPM, o.ReadBurst))
		r.Use(apimw.RequireKey(o.ReadKeys))
		r.Get("/api/payloads/latest", s.handleLatest)
	})

	return r
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var p domain.Payload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(&p); err != nil || !isValidHTTPURL(p.URL) || p.Metrics == nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if len(s.Tokens) > 0 && !apimw.HasKey(p.Token, s.Tokens) {
		s.Logger.Warn("payload_unauthorized", zap.String("url", p.URL))
		writeError(w, http.StatusUnauthorized, "unknown token")
		return
	}
	if !s.limiter.Allow(p.Token) {
		apimw.TooManyRequests(w)
		return
	}

	rec := &domain.Received{
		URL:        normalizeHTTPURL(p.URL),
		Metrics:    p.Metrics,
		ReceivedAt: time.Now().UTC(),
	}
	if err := s.Payloads.Append(r.Context(), rec); err != nil {
		s.Logger.Error("payload_store_failed", zap.String("url", p.URL), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not store")
		return
	}

	s.Logger.Info("payload_received",
		zap.Int64("id", rec.ID),
		zap.String("url", rec.URL),
		zap.Int("metrics", len(rec.Metrics)),
	)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"id": rec.ID})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Payloads.Latest(r.Context())
	if err != nil {
		s.Logger.Error("latest_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "latest error")
		return
	}
	if rows == nil {
		rows = []domain.Received{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func isValidHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Hostname() != ""
}

// normalizeHTTPURL lowercases the host, drops the scheme's default port and
// a bare trailing slash, so the same endpoint groups under one key.
func normalizeHTTPURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}
	u.Host = host
	if u.Path == "/" {
		u.Path = ""
	}
	return u.String()
}
