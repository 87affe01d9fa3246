// Package config loads nearby's settings from defaults, an optional config
// file, a .env file and NEARBY_* environment variables, in increasing order of
// precedence. Command-line flags bound by the CLI take precedence over all of
// them.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. NEARBY_FETCH_TIMEOUT.
const EnvPrefix = "NEARBY"

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// DefaultSources are the listings available out of the box.
var DefaultSources = map[string]string{
	"source_1": "https://xlr8-interview-files.s3.eu-west-2.amazonaws.com/source_1.json",
	"source_2": "https://xlr8-interview-files.s3.eu-west-2.amazonaws.com/source_2.json",
}

// Config is the complete application configuration.
type Config struct {
	// Sources maps source names to locations. Names are lowercased on load.
	Sources       map[string]string `mapstructure:"sources"`
	DefaultSource string            `mapstructure:"default_source"`
	Fetch         FetchConfig       `mapstructure:"fetch"`
	S3            S3Config          `mapstructure:"s3"`
	Geo           GeoConfig         `mapstructure:"geo"`
	Currency      CurrencyConfig    `mapstructure:"currency"`
	Search        SearchConfig      `mapstructure:"search"`
	Server        ServerConfig      `mapstructure:"server"`
	Log           LogConfig         `mapstructure:"log"`
}

// FetchConfig controls source retrieval.
type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxBytes  int64         `mapstructure:"max_bytes"`
	UserAgent string        `mapstructure:"user_agent"`
}

// S3Config configures s3:// sources.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
}

// GeoConfig controls the distance computation.
type GeoConfig struct {
	// AbsoluteCoordinates drops hemisphere signs before measuring.
	AbsoluteCoordinates bool `mapstructure:"absolute_coordinates"`
}

// CurrencyConfig controls price formatting.
type CurrencyConfig struct {
	Locale     string `mapstructure:"locale"`
	Code       string `mapstructure:"code"`
	ShowSymbol bool   `mapstructure:"show_symbol"`
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	Limit int `mapstructure:"limit"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Address    string        `mapstructure:"address"`
	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadEnv loads a .env file from the working directory if there is one.
func LoadEnv(logger *slog.Logger) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using the environment as is")
	}
}

// NewViper returns a viper instance with defaults, environment binding and,
// when found, the config file applied. An empty configFile searches for
// nearby.{yaml,json,toml} in the working directory and $HOME/.config/nearby;
// not finding one there is not an error.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("nearby")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "nearby"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sources", DefaultSources)
	v.SetDefault("default_source", "source_1")
	v.SetDefault("fetch.timeout", 10*time.Second)
	v.SetDefault("fetch.max_bytes", int64(10<<20))
	v.SetDefault("fetch.user_agent", "nearby/1.0")
	v.SetDefault("s3.endpoint", "s3.amazonaws.com")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.region", "")
	v.SetDefault("geo.absolute_coordinates", true)
	v.SetDefault("currency.locale", "pt")
	v.SetDefault("currency.code", "EUR")
	v.SetDefault("currency.show_symbol", false)
	v.SetDefault("search.limit", 15)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.rate_limit", 10)
	v.SetDefault("server.rate_window", time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", LogFormatJSON)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that have no usable fallback.
func (c *Config) Validate() error {
	if c.Fetch.Timeout <= 0 {
		return &Error{Field: "fetch.timeout", Message: "must be positive"}
	}
	if c.Search.Limit <= 0 {
		return &Error{Field: "search.limit", Message: "must be positive"}
	}
	switch strings.ToLower(c.Log.Format) {
	case LogFormatJSON, LogFormatText:
	default:
		return &Error{Field: "log.format", Message: fmt.Sprintf("unknown format %q", c.Log.Format)}
	}
	return nil
}

// Error is a configuration validation failure.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

// ParseLogLevel maps a level name to a slog.Level. Unknown names default to
// info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the application logger. Output goes to w, normally stderr
// so stdout carries only results.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLogLevel(c.Level)}
	if strings.ToLower(c.Format) == LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
