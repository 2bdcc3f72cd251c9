// Package config provides configuration management for the literature search service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/helixir/literature-search-service/internal/domain"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LITSEARCH"

// Failure policies accepted by aggregation.failure_policy.
const (
	FailurePolicyIsolate  = "isolate"
	FailurePolicyFailFast = "fail_fast"
)

// Config holds all configuration for the literature search service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Aggregation contains fan-out behaviour settings.
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	// PaperSources contains per-engine API settings.
	PaperSources PaperSourcesConfig `mapstructure:"paper_sources"`
	// Events contains Kafka publisher settings for search events.
	Events EventsConfig `mapstructure:"events"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// AggregationConfig holds orchestrator settings.
type AggregationConfig struct {
	// FailurePolicy decides what one engine's transport failure does to the
	// whole request: "isolate" (default) or "fail_fast".
	FailurePolicy string `mapstructure:"failure_policy"`
	// RequestTimeout bounds one aggregated search across all engines.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// DefaultRows is used when a request omits rows.
	DefaultRows int `mapstructure:"default_rows"`
}

// PaperSourcesConfig holds configuration for every engine.
type PaperSourcesConfig struct {
	ACM      ACMSourceConfig   `mapstructure:"acm"`
	HAL      PaperSourceConfig `mapstructure:"hal"`
	Springer PaperSourceConfig `mapstructure:"springer"`
	Scopus   PaperSourceConfig `mapstructure:"scopus"`
	ArXiv    PaperSourceConfig `mapstructure:"arxiv"`
}

// PaperSourceConfig holds configuration for a single engine.
type PaperSourceConfig struct {
	// Enabled controls whether this engine is registered.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is loaded from LITSEARCH_PAPER_SOURCES_<ENGINE>_API_KEY only.
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for one API call.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the rate limiter burst.
	BurstSize int `mapstructure:"burst_size"`
	// MaxRetries is the number of retries on 429 and 5xx responses.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryDelay is the delay between retries absent a Retry-After header.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// ACMSourceConfig adds the Crossref specific settings.
type ACMSourceConfig struct {
	PaperSourceConfig `mapstructure:",squash"`
	// Filter is Crossref's filter expression.
	Filter string `mapstructure:"filter"`
	// Mailto identifies the caller for Crossref's polite pool.
	Mailto string `mapstructure:"mailto"`
}

// EventsConfig holds Kafka publisher settings.
type EventsConfig struct {
	// Enabled controls whether search.completed events are published.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the Kafka topic to publish to.
	Topic string `mapstructure:"topic"`
	// BatchTimeout is the maximum time to wait for a batch to fill.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	// WriteTimeout bounds one publish.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// ByEngine returns the common settings of every engine.
func (c *PaperSourcesConfig) ByEngine() map[domain.Engine]PaperSourceConfig {
	return map[domain.Engine]PaperSourceConfig{
		domain.EngineACM:      c.ACM.PaperSourceConfig,
		domain.EngineHAL:      c.HAL,
		domain.EngineSpringer: c.Springer,
		domain.EngineScopus:   c.Scopus,
		domain.EngineArXiv:    c.ArXiv,
	}
}

// APIKeys returns the configured API key of every engine that has one.
func (c *PaperSourcesConfig) APIKeys() map[domain.Engine]string {
	keys := make(map[domain.Engine]string)
	for engine, sc := range c.ByEngine() {
		if sc.APIKey != "" {
			keys[engine] = sc.APIKey
		}
	}
	return keys
}

// Load loads configuration from environment variables and an optional
// config.yaml found in the usual search paths.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// default locations; a missing explicit file is an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/literature-search-service")
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets never come from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// APIKeyEnv returns the environment variable holding engine's API key.
func APIKeyEnv(engine domain.Engine) string {
	return EnvPrefix + "_PAPER_SOURCES_" + strings.ToUpper(string(engine)) + "_API_KEY"
}

func loadSecrets(cfg *Config) {
	cfg.PaperSources.ACM.APIKey = os.Getenv(APIKeyEnv(domain.EngineACM))
	cfg.PaperSources.HAL.APIKey = os.Getenv(APIKeyEnv(domain.EngineHAL))
	cfg.PaperSources.Springer.APIKey = os.Getenv(APIKeyEnv(domain.EngineSpringer))
	cfg.PaperSources.Scopus.APIKey = os.Getenv(APIKeyEnv(domain.EngineScopus))
	cfg.PaperSources.ArXiv.APIKey = os.Getenv(APIKeyEnv(domain.EngineArXiv))
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "literature_search")

	// Aggregation defaults
	v.SetDefault("aggregation.failure_policy", FailurePolicyIsolate)
	v.SetDefault("aggregation.request_timeout", "45s")
	v.SetDefault("aggregation.default_rows", 25)

	// Paper sources. API keys are loaded exclusively from the environment.
	setSourceDefaults(v, "acm", "https://api.crossref.org", 10.0)
	v.SetDefault("paper_sources.acm.filter", "prefix:10.1145")
	v.SetDefault("paper_sources.acm.mailto", "")
	setSourceDefaults(v, "hal", "https://api.archives-ouvertes.fr", 5.0)
	setSourceDefaults(v, "springer", "https://api.springernature.com", 5.0)
	setSourceDefaults(v, "scopus", "https://api.elsevier.com", 5.0)
	setSourceDefaults(v, "arxiv", "https://export.arxiv.org", 3.0) // arXiv asks for at most 3 req/sec

	// Events defaults
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", []string{"localhost:9092"})
	v.SetDefault("events.topic", "events.literature_search.search_completed")
	v.SetDefault("events.batch_timeout", "10ms")
	v.SetDefault("events.write_timeout", "5s")
}

func setSourceDefaults(v *viper.Viper, name, baseURL string, rateLimit float64) {
	prefix := "paper_sources." + name + "."
	v.SetDefault(prefix+"enabled", true)
	v.SetDefault(prefix+"base_url", baseURL)
	v.SetDefault(prefix+"timeout", "30s")
	v.SetDefault(prefix+"rate_limit", rateLimit)
	v.SetDefault(prefix+"burst_size", int(rateLimit))
	v.SetDefault(prefix+"max_retries", 2)
	v.SetDefault(prefix+"retry_delay", "1s")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
		"disabled": true, "off": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Aggregation.FailurePolicy {
	case FailurePolicyIsolate, FailurePolicyFailFast:
	default:
		return fmt.Errorf("invalid failure policy %q: must be %q or %q",
			c.Aggregation.FailurePolicy, FailurePolicyIsolate, FailurePolicyFailFast)
	}
	if c.Aggregation.RequestTimeout < 0 {
		return fmt.Errorf("aggregation request_timeout must not be negative")
	}
	if c.Aggregation.DefaultRows < 1 || c.Aggregation.DefaultRows > 1000 {
		return fmt.Errorf("aggregation default_rows must be between 1 and 1000, got %d", c.Aggregation.DefaultRows)
	}

	for engine, sc := range c.PaperSources.ByEngine() {
		if !sc.Enabled {
			continue
		}
		if sc.BaseURL == "" {
			return fmt.Errorf("paper source %s: base_url is required", engine)
		}
		if sc.RateLimit < 0 {
			return fmt.Errorf("paper source %s: rate_limit must not be negative", engine)
		}
		if sc.MaxRetries < 0 {
			return fmt.Errorf("paper source %s: max_retries must not be negative", engine)
		}
	}

	if c.Events.Enabled {
		if len(c.Events.Brokers) == 0 {
			return fmt.Errorf("events brokers are required when events are enabled")
		}
		if c.Events.Topic == "" {
			return fmt.Errorf("events topic is required when events are enabled")
		}
	}

	return nil
}
