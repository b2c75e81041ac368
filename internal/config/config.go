// Package config loads druidq settings with viper.
//
// Sources, later overriding earlier: built-in defaults, an optional YAML
// file, then DRUIDQ_-prefixed environment variables (DRUIDQ_BROKER_HOST sets
// broker.host).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix.
const EnvPrefix = "DRUIDQ"

// Config is the complete druidq configuration.
type Config struct {
	Broker  BrokerConfig  `mapstructure:"broker"`
	Log     LogConfig     `mapstructure:"log"`
	History HistoryConfig `mapstructure:"history"`
}

// BrokerConfig locates the Druid broker.
type BrokerConfig struct {
	Scheme     string `mapstructure:"scheme"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Path       string `mapstructure:"path"`
	TimeoutMS  int64  `mapstructure:"timeout_ms"`
	DataSource string `mapstructure:"data_source"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// HistoryConfig configures the execution history database. An empty path
// disables history.
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

var defaults = map[string]any{
	"broker.scheme":      "http",
	"broker.host":        "localhost",
	"broker.port":        8082,
	"broker.path":        "druid/v2",
	"broker.timeout_ms":  0,
	"broker.data_source": "",
	"log.level":          "warn",
	"log.pretty":         true,
	"history.path":       "",
}

// Load reads configuration. path names a YAML file; an empty path skips the
// file.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Broker.Host == "" {
		errs = append(errs, errors.New("broker.host must not be empty"))
	}
	if c.Broker.Port < 1 || c.Broker.Port > 65535 {
		errs = append(errs, fmt.Errorf("broker.port out of range: %d", c.Broker.Port))
	}
	if c.Broker.Scheme != "http" && c.Broker.Scheme != "https" {
		errs = append(errs, fmt.Errorf("broker.scheme must be http or https, found %q", c.Broker.Scheme))
	}
	if c.Broker.TimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("broker.timeout_ms must not be negative: %d", c.Broker.TimeoutMS))
	}
	return errors.Join(errs...)
}

// Endpoint returns the broker query URL.
func (b BrokerConfig) Endpoint() string {
	u := url.URL{
		Scheme: b.Scheme,
		Host:   fmt.Sprintf("%s:%d", b.Host, b.Port),
		Path:   "/" + strings.Trim(b.Path, "/"),
	}
	return u.String()
}

// Timeout returns the broker timeout, zero meaning none.
func (b BrokerConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutMS) * time.Millisecond
}
