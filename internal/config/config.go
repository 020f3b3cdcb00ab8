package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Registry URLs used when nothing else is configured.
const (
	DefaultDetailURL = "https://ttbonline.gov/colasonline/viewColaDetails.do?action=publicDisplaySearchAdvanced&ttbid="
	DefaultFormURL   = "https://ttbonline.gov/colasonline/viewColaDetails.do?action=publicFormDisplay&ttbid="
)

// Config holds everything the server, the CLI and the MCP front door need.
type Config struct {
	Port        string `yaml:"port" validate:"required,numeric"`
	DatabaseURL string `yaml:"database_url" validate:"required"`
	Schema      string `yaml:"schema" validate:"required,schemaname"`

	DetailURL    string `yaml:"detail_url" validate:"omitempty,url"`
	FormURL      string `yaml:"form_url" validate:"omitempty,url"`
	InternalURL  string `yaml:"internal_url" validate:"omitempty,url"`
	ImageBaseURL string `yaml:"image_base_url" validate:"omitempty,url"`

	AllowedOrigins []string `yaml:"allowed_origins" validate:"dive,url"`

	DefaultWindowDays int           `yaml:"default_window_days" validate:"gte=1,lte=3650"`
	DisplayLimit      int           `yaml:"display_limit" validate:"gte=1,lte=100"`
	OptionsCacheTTL   time.Duration `yaml:"-" validate:"gte=0"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `yaml:"rate_limit_burst" validate:"gte=0"`

	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable only behind a proxy that sets those headers.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`

	LogLevel           string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	SlowQueryThreshold time.Duration `yaml:"-" validate:"gte=0"`

	// AdminTokenHash is a bcrypt hash; admin routes are disabled when empty.
	AdminTokenHash string `yaml:"admin_token_hash"`
	RulesFile      string `yaml:"rules_file"`
}

// fileConfig mirrors Config for YAML files; durations stay strings there.
type fileConfig struct {
	Config             `yaml:",inline"`
	OptionsCacheTTL    string `yaml:"options_cache_ttl"`
	SlowQueryThreshold string `yaml:"slow_query_threshold"`
}

var (
	validate       *validator.Validate
	schemaNameExpr = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("schemaname", func(fl validator.FieldLevel) bool {
		return schemaNameExpr.MatchString(fl.Field().String())
	})
}

// Default returns the configuration used when neither a file nor the
// environment says otherwise.
func Default() Config {
	return Config{
		Port:               "5050",
		Schema:             "cola_images",
		DetailURL:          DefaultDetailURL,
		FormURL:            DefaultFormURL,
		DefaultWindowDays:  14,
		DisplayLimit:       100,
		OptionsCacheTTL:    5 * time.Minute,
		RateLimitRPS:       10,
		RateLimitBurst:     20,
		LogLevel:           "info",
		SlowQueryThreshold: 100 * time.Millisecond,
	}
}

// LoadDotEnv loads .env.local and then .env; variables already set in the
// process environment win.
func LoadDotEnv() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE, and environment variables, in that order.
//
// Environment variables:
//   - PORT, DATABASE_URL, DB_SCHEMA
//   - DETAIL_URL, FORM_URL, INTERNAL_URL, IMAGE_BASE_URL
//   - ALLOWED_ORIGINS (comma-separated)
//   - DEFAULT_WINDOW_DAYS, DISPLAY_LIMIT, OPTIONS_CACHE_TTL
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, TRUST_PROXY_HEADERS
//   - LOG_LEVEL, SLOW_QUERY_THRESHOLD
//   - ADMIN_TOKEN_HASH, RULES_FILE
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.mergeEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return c.mergeYAML(raw)
}

func (c *Config) mergeYAML(raw []byte) error {
	fc := fileConfig{Config: *c}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.OptionsCacheTTL != "" {
		d, err := time.ParseDuration(fc.OptionsCacheTTL)
		if err != nil {
			return fmt.Errorf("options_cache_ttl: %w", err)
		}
		fc.Config.OptionsCacheTTL = d
	}
	if fc.SlowQueryThreshold != "" {
		d, err := time.ParseDuration(fc.SlowQueryThreshold)
		if err != nil {
			return fmt.Errorf("slow_query_threshold: %w", err)
		}
		fc.Config.SlowQueryThreshold = d
	}

	*c = fc.Config
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) mergeEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("PORT", &c.Port)
	str("DATABASE_URL", &c.DatabaseURL)
	str("DB_SCHEMA", &c.Schema)
	str("DETAIL_URL", &c.DetailURL)
	str("FORM_URL", &c.FormURL)
	str("INTERNAL_URL", &c.InternalURL)
	str("IMAGE_BASE_URL", &c.ImageBaseURL)
	str("LOG_LEVEL", &c.LogLevel)
	str("ADMIN_TOKEN_HASH", &c.AdminTokenHash)
	str("RULES_FILE", &c.RulesFile)
	c.LogLevel = strings.ToLower(c.LogLevel)

	if v, ok := lookup("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = SplitList(v)
	}

	var errs []error
	intVar := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	durVar := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}

	intVar("DEFAULT_WINDOW_DAYS", &c.DefaultWindowDays)
	intVar("DISPLAY_LIMIT", &c.DisplayLimit)
	intVar("RATE_LIMIT_BURST", &c.RateLimitBurst)
	durVar("OPTIONS_CACHE_TTL", &c.OptionsCacheTTL)
	durVar("SLOW_QUERY_THRESHOLD", &c.SlowQueryThreshold)

	if v, ok := lookup("RATE_LIMIT_RPS"); ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS: %w", err))
		} else {
			c.RateLimitRPS = f
		}
	}

	if v, ok := lookup("TRUST_PROXY_HEADERS"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("TRUST_PROXY_HEADERS: %w", err))
		} else {
			c.TrustProxyHeaders = b
		}
	}

	return errors.Join(errs...)
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SplitList splits a comma-separated value, trimming whitespace and dropping
// blanks.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
