package config

import (
	"os"
	"strconv"
	"strings"
)

// Collector configures the reference collector (cmd/collector). It is read
// from plain environment variables.
type Collector struct {
	Addr           string   // e.g. "127.0.0.1:8080" (Windows) or ":8080" (Docker)
	LogDir         string   // logs directory
	DatabaseURL    string   // empty means in-memory store
	AgentTokens    []string // tokens accepted on POST /api/metrics; empty accepts any
	ReadKeys       []string // keys for GET /api/payloads/latest; empty allows all
	AllowedOrigins []string // CORS; empty allows all
	TokenRPM       int      // per-token requests per minute; 0 disables
	TokenBurst     int
}

func CollectorFromEnv() Collector {
	// Bind address (Windows-friendly default)
	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	return Collector{
		Addr:           addr,
		LogDir:         logDir,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AgentTokens:    splitList(os.Getenv("COLLECTOR_TOKENS")),
		ReadKeys:       splitList(os.Getenv("READ_API_KEYS")),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		TokenRPM:       envInt("TOKEN_RPM", 120, 0),
		TokenBurst:     envInt("TOKEN_BURST", 60, 1),
	}
}

func envInt(name string, def, min int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= min {
			return n
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
