// Package config loads the verso serving configuration: the HTTP serving
// shell, logging and metrics options, the named backends, and the flat
// negotiation rule namespace handed to pkg/ruleset.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Listen         string `yaml:"listen"`
	ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms"`
	PidFile        string `yaml:"pid_file"`
}

type LoggingConfig struct {
	Level         string `yaml:"level"`
	AccessLog     bool   `yaml:"access_log"`
	AccessLogPath string `yaml:"access_log_path"`

	accessLogSet bool `yaml:"-"`
}

// UnmarshalYAML tracks whether access_log was present, so an explicit false
// survives the true default.
func (c *LoggingConfig) UnmarshalYAML(value *yaml.Node) error {
	type rawLogging struct {
		Level         string `yaml:"level"`
		AccessLog     bool   `yaml:"access_log"`
		AccessLogPath string `yaml:"access_log_path"`
	}
	var raw rawLogging
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.Level = raw.Level
	c.AccessLog = raw.AccessLog
	c.AccessLogPath = raw.AccessLogPath
	c.accessLogSet = false

	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		if strings.TrimSpace(value.Content[i].Value) == "access_log" {
			c.accessLogSet = true
		}
	}
	return nil
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// BackendConfig describes one upstream application that a version name can
// resolve to.
type BackendConfig struct {
	URL string `yaml:"url"`
}

type NegotiationConfig struct {
	// AutoReload watches the config file and rebuilds the rule tables at
	// runtime.
	AutoReload struct {
		Enabled    bool `yaml:"enabled"`
		DebounceMs int  `yaml:"debounce_ms"`
	} `yaml:"auto_reload"`

	// Rules is the flat rule namespace: version, version.<v>, alias.<a>,
	// uri.<prefix>, type.<ctype>, .<suffix>, overwrite_headers.
	Rules map[string]string `yaml:"rules"`
}

type Config struct {
	Server      ServerConfig             `yaml:"server"`
	Logging     LoggingConfig            `yaml:"logging"`
	Metrics     MetricsConfig            `yaml:"metrics"`
	Backends    map[string]BackendConfig `yaml:"backends"`
	Negotiation NegotiationConfig        `yaml:"negotiation"`
}

func Load(path string) (*Config, error) {
	// #nosec G304 -- path is provided by trusted config/flag.
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = ":3300"
	}
	if cfg.Server.ReadTimeoutMs <= 0 {
		cfg.Server.ReadTimeoutMs = 60000
	}
	if cfg.Server.WriteTimeoutMs <= 0 {
		cfg.Server.WriteTimeoutMs = 60000
	}
	if strings.TrimSpace(cfg.Server.PidFile) == "" {
		cfg.Server.PidFile = "/var/run/verso.pid"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	// default true for local debugging
	if !cfg.Logging.accessLogSet {
		cfg.Logging.AccessLog = true
	}
	if strings.TrimSpace(cfg.Metrics.Path) == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Negotiation.AutoReload.DebounceMs <= 0 {
		cfg.Negotiation.AutoReload.DebounceMs = 300
	}
	if cfg.Backends == nil {
		cfg.Backends = map[string]BackendConfig{}
	}
	if cfg.Negotiation.Rules == nil {
		cfg.Negotiation.Rules = map[string]string{}
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("VERSO_LISTEN")); v != "" {
		cfg.Server.Listen = v
	}
	if n, ok := envInt("VERSO_READ_TIMEOUT_MS"); ok && n > 0 {
		cfg.Server.ReadTimeoutMs = n
	}
	if n, ok := envInt("VERSO_WRITE_TIMEOUT_MS"); ok && n > 0 {
		cfg.Server.WriteTimeoutMs = n
	}
	if v := strings.TrimSpace(os.Getenv("VERSO_PID_FILE")); v != "" {
		cfg.Server.PidFile = v
	}
	if v := strings.TrimSpace(os.Getenv("VERSO_ACCESS_LOG_PATH")); v != "" {
		cfg.Logging.AccessLogPath = v
	}
	cfg.Metrics.Enabled = envBool("VERSO_METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Negotiation.AutoReload.Enabled = envBool("VERSO_NEGOTIATION_AUTO_RELOAD_ENABLED", cfg.Negotiation.AutoReload.Enabled)
	if n, ok := envInt("VERSO_NEGOTIATION_AUTO_RELOAD_DEBOUNCE_MS"); ok {
		cfg.Negotiation.AutoReload.DebounceMs = n
	}
}

func validate(cfg *Config) error {
	for name, backend := range cfg.Backends {
		if strings.TrimSpace(name) == "" {
			return errors.New("backends must have non-empty names")
		}
		u, err := url.Parse(strings.TrimSpace(backend.URL))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("backends.%s.url must be an absolute URL (e.g. http://127.0.0.1:8081)", name)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("backends.%s.url must use http or https", name)
		}
	}
	for key, value := range cfg.Negotiation.Rules {
		if key != "version" && !strings.HasPrefix(key, "version.") {
			continue
		}
		if _, ok := cfg.Backends[value]; !ok {
			return fmt.Errorf("negotiation.rules.%s names unknown backend %q", key, value)
		}
	}
	if cfg.Negotiation.AutoReload.Enabled && cfg.Negotiation.AutoReload.DebounceMs <= 0 {
		return errors.New("negotiation.auto_reload.debounce_ms must be > 0 when negotiation.auto_reload.enabled=true")
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	return nil
}

func envInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
