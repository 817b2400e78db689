// Package config loads the agent configuration from defaults, an optional
// file (JSON or YAML), PROBEAGENT_* environment variables and bound flags,
// in increasing order of precedence.
package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/hamed0406/probeagent/internal/delivery"
	"github.com/hamed0406/probeagent/internal/domain"
	"github.com/hamed0406/probeagent/internal/errs"
	"github.com/hamed0406/probeagent/internal/logging"
	"github.com/hamed0406/probeagent/internal/probe"
)

const EnvPrefix = "PROBEAGENT"

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	Token        string         `mapstructure:"token"`
	AgentToken   string         `mapstructure:"agent_token"` // older name for token
	CollectorURL string         `mapstructure:"collector_url"`
	Checks       []Check        `mapstructure:"checks"`
	LogDir       string         `mapstructure:"log_dir"`
	LogLevel     string         `mapstructure:"log_level"`
	LogStderr    bool           `mapstructure:"log_stderr"`
	LockPath     string         `mapstructure:"lock_path"`
	Queue        QueueConfig    `mapstructure:"queue"`
	Delivery     DeliveryConfig `mapstructure:"delivery"`
	Probe        ProbeConfig    `mapstructure:"probe"`
	Interval     time.Duration  `mapstructure:"interval"`
	SlackWebhook string         `mapstructure:"slack_webhook"`

	// File is the config file actually read, if any.
	File string `mapstructure:"-"`
}

// Check is one configured target. A missing enabled flag means enabled.
type Check struct {
	URL     string `mapstructure:"url"`
	Enabled *bool  `mapstructure:"enabled"`
}

type QueueConfig struct {
	Backend         string `mapstructure:"backend"`
	Path            string `mapstructure:"path"`
	MaxEntries      int    `mapstructure:"max_entries"`
	AlertThreshold  int    `mapstructure:"alert_threshold"`
	AlertOnRecovery bool   `mapstructure:"alert_on_recovery"`
}

type DeliveryConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	Attempts int           `mapstructure:"attempts"`
	Backoff  time.Duration `mapstructure:"backoff"`
}

type ProbeConfig struct {
	DNSTimeout  time.Duration `mapstructure:"dns_timeout"`
	TCPTimeout  time.Duration `mapstructure:"tcp_timeout"`
	TLSTimeout  time.Duration `mapstructure:"tls_timeout"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// SetDefaults registers every key so environment overrides apply to it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("token", "")
	v.SetDefault("agent_token", "")
	v.SetDefault("collector_url", "https://collector.invalid/api/index.php")
	v.SetDefault("checks", []map[string]any{})
	v.SetDefault("log_dir", "logs")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_stderr", false)
	v.SetDefault("lock_path", filepath.Join(os.TempDir(), "probe-agent.lock"))
	v.SetDefault("queue.backend", BackendFile)
	v.SetDefault("queue.path", "")
	v.SetDefault("queue.max_entries", 0)
	v.SetDefault("queue.alert_threshold", 0)
	v.SetDefault("queue.alert_on_recovery", false)
	v.SetDefault("delivery.timeout", 10*time.Second)
	v.SetDefault("delivery.attempts", 3)
	v.SetDefault("delivery.backoff", 2*time.Second)
	d := probe.DefaultTimeouts()
	v.SetDefault("probe.dns_timeout", d.DNS)
	v.SetDefault("probe.tcp_timeout", d.TCP)
	v.SetDefault("probe.tls_timeout", d.TLS)
	v.SetDefault("probe.http_timeout", d.HTTP)
	v.SetDefault("interval", time.Duration(0))
	v.SetDefault("slack_webhook", "")
}

// Load reads the configuration into v (a fresh one when nil) and validates
// it. Flags bound to v before the call take precedence over everything else.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Wrap(err, errs.CodeConfigRead, "reading config", errs.Field("path", path))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(err, errs.CodeConfigInvalid, "unmarshalling config")
	}
	cfg.File = v.ConfigFileUsed()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, errs.Wrap(err, errs.CodeConfigInvalid, "validating config")
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	if c.Token == "" {
		c.Token = c.AgentToken
	}
	c.Queue.Backend = strings.ToLower(strings.TrimSpace(c.Queue.Backend))
	if c.Queue.Path == "" {
		if c.Queue.Backend == BackendSQLite {
			c.Queue.Path = "probe-agent-failed.db"
		} else {
			c.Queue.Path = "probe-agent-failed.json"
		}
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var err error
	invalid := func(format string, args ...any) {
		err = multierr.Append(err, errs.Errorf(errs.CodeConfigInvalid, "config: "+format, args...))
	}

	if strings.TrimSpace(c.Token) == "" {
		invalid("token must not be empty")
	}
	if u, perr := url.Parse(c.CollectorURL); perr != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		invalid("collector_url must be an absolute http(s) URL, got %q", c.CollectorURL)
	}
	for i, ch := range c.Checks {
		u, perr := url.Parse(ch.URL)
		if perr != nil || (u.Scheme != "http" && u.Scheme != "https") {
			invalid("checks[%d].url must be an http(s) URL, got %q", i, ch.URL)
			continue
		}
		if _, perr := probe.ParseEndpoint(ch.URL); perr != nil {
			invalid("checks[%d].url: %v", i, perr)
		}
	}
	switch c.Queue.Backend {
	case BackendFile, BackendSQLite:
	default:
		invalid("queue.backend must be one of [file, sqlite], got %q", c.Queue.Backend)
	}
	if c.Queue.MaxEntries < 0 {
		invalid("queue.max_entries must not be negative, got %d", c.Queue.MaxEntries)
	}
	if c.Queue.AlertThreshold < 0 {
		invalid("queue.alert_threshold must not be negative, got %d", c.Queue.AlertThreshold)
	}
	if c.Delivery.Timeout <= 0 {
		invalid("delivery.timeout must be positive, got %s", c.Delivery.Timeout)
	}
	if c.Delivery.Attempts < 1 {
		invalid("delivery.attempts must be at least 1, got %d", c.Delivery.Attempts)
	}
	if c.Delivery.Backoff < 0 {
		invalid("delivery.backoff must not be negative, got %s", c.Delivery.Backoff)
	}
	for name, d := range map[string]time.Duration{
		"probe.dns_timeout":  c.Probe.DNSTimeout,
		"probe.tcp_timeout":  c.Probe.TCPTimeout,
		"probe.tls_timeout":  c.Probe.TLSTimeout,
		"probe.http_timeout": c.Probe.HTTPTimeout,
	} {
		if d <= 0 {
			invalid("%s must be positive, got %s", name, d)
		}
	}
	if c.Interval < 0 {
		invalid("interval must not be negative, got %s", c.Interval)
	}
	if _, lerr := logging.ParseLevel(c.LogLevel); lerr != nil {
		invalid("log_level: %v", lerr)
	}
	if c.LockPath == "" {
		invalid("lock_path must not be empty")
	}
	return err
}

// Targets returns the checks in configured order.
func (c *Config) Targets() []domain.Target {
	out := make([]domain.Target, 0, len(c.Checks))
	for _, ch := range c.Checks {
		enabled := true
		if ch.Enabled != nil {
			enabled = *ch.Enabled
		}
		out = append(out, domain.Target{URL: ch.URL, Enabled: enabled})
	}
	return out
}

func (c *Config) Timeouts() probe.Timeouts {
	return probe.Timeouts{
		DNS:  c.Probe.DNSTimeout,
		TCP:  c.Probe.TCPTimeout,
		TLS:  c.Probe.TLSTimeout,
		HTTP: c.Probe.HTTPTimeout,
	}
}

func (c *Config) Retry() delivery.RetryPolicy {
	return delivery.RetryPolicy{Attempts: c.Delivery.Attempts, Delay: c.Delivery.Backoff}
}

// LoggingOptions maps the log keys onto the logger constructor.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Dir: c.LogDir, Level: c.LogLevel, Stderr: c.LogStderr}
}
