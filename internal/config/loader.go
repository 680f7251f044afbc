package config

import (
	"fmt"
	"net"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables, applies the
// defaults declared in struct tags, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is like Load but panics on error. Intended for wiring code
// that cannot proceed without configuration.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// loadStruct walks a struct value and fills its fields from the
// environment. Nested structs are recursed into; leaf fields declare
// their source with `env:"NAME"`, an optional fallback variable with
// `envAlt:"NAME"`, and a fallback value with `default:"..."`.
func loadStruct(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		sf := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := loadStruct(field); err != nil {
				return err
			}
			continue
		}

		envKey := sf.Tag.Get("env")
		if envKey == "" {
			continue
		}

		raw := lookupEnv(envKey, sf.Tag.Get("envAlt"))
		if raw == "" {
			raw = sf.Tag.Get("default")
		}
		if raw == "" {
			continue
		}

		if err := setField(field, raw); err != nil {
			return fmt.Errorf("%s: %w", envKey, err)
		}
	}
	return nil
}

// lookupEnv returns the value of key, falling back to alt. Empty values
// count as unset.
func lookupEnv(key, alt string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if alt != "" {
		return os.Getenv(alt)
	}
	return ""
}

// setField parses raw into the field's type. Supported types: string,
// bool, int, int64, time.Duration, and []string (comma-separated).
func setField(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)

	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid bool %q", raw)
		}
		field.SetBool(b)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("invalid duration %q", raw)
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		field.SetInt(n)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		field.Set(reflect.ValueOf(out))

	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

// Validate checks all settings and reports every problem at once, so a
// misconfigured deployment surfaces all its mistakes in one run.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if c.Upload.MaxFiles <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILES must be positive")
	}
	if c.Action.MaxConcurrent <= 0 {
		errs = append(errs, "ACTION_MAX_CONCURRENT must be positive")
	}
	if c.Action.MaxWaitTime <= 0 {
		errs = append(errs, "ACTION_MAX_WAIT_TIME must be positive")
	}
	if c.Action.HistorySize <= 0 {
		errs = append(errs, "ACTION_HISTORY_SIZE must be positive")
	}
	if c.Analysis.BuyerColumn == "" {
		errs = append(errs, "ANALYSIS_BUYER_COLUMN must not be empty")
	}
	if c.Analysis.DateColumn == "" {
		errs = append(errs, "ANALYSIS_DATE_COLUMN must not be empty")
	}
	if c.Analysis.AddressColumn == "" {
		errs = append(errs, "ANALYSIS_ADDRESS_COLUMN must not be empty")
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, "SESSION_TTL must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, "SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.Session.CookieName == "" {
		errs = append(errs, "SESSION_COOKIE_NAME must not be empty")
	}
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be text or json, got %q", c.Logging.Format))
	}
	for _, proxy := range c.Security.TrustedProxies {
		if _, _, err := net.ParseCIDR(proxy); err != nil && net.ParseIP(proxy) == nil {
			errs = append(errs, fmt.Sprintf("TRUSTED_PROXIES entry %q is not a valid CIDR or IP", proxy))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a one-line summary of the effective configuration,
// suitable for startup logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"server=%s upload(max_file=%dMB max_files=%d) actions(max=%d wait=%s) analysis(buyer=%q date=%q address=%q) session(ttl=%s cookie=%s) rate(enabled=%t per_min=%d) log(%s/%s)",
		c.Server.Addr(),
		c.Upload.MaxFileSize/(1<<20),
		c.Upload.MaxFiles,
		c.Action.MaxConcurrent,
		c.Action.MaxWaitTime,
		c.Analysis.BuyerColumn,
		c.Analysis.DateColumn,
		c.Analysis.AddressColumn,
		c.Session.TTL,
		c.Session.CookieName,
		c.Rate.Enabled,
		c.Rate.RequestsPerMinute,
		c.Logging.Level,
		c.Logging.Format,
	)
}
