// Package config provides application configuration loaded from environment
// variables with defaults and validation. It covers the HTTP server, logging,
// the SQLite database, rate limiting, the Home Assistant connection, the
// reminder scheduler and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "pill-mate")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// HomeAssistantConfig defines the Supervisor and WebSocket API settings.
type HomeAssistantConfig struct {
	Enabled        bool          // HASS_ENABLED; false logs notifications instead
	WebSocketURL   string        // HASS_WEBSOCKET_URL
	AddonInfoURL   string        // HASS_ADDON_INFO_URL
	Token          string        // SUPERVISOR_TOKEN, falls back to HASSIO_TOKEN
	MaxRetry       int           // HASS_MAX_RETRY
	RetryDelay     time.Duration // HASS_RETRY_DELAY
	RequestTimeout time.Duration // HASS_REQUEST_TIMEOUT
}

// SchedulerConfig defines what a firing reminder does.
type SchedulerConfig struct {
	AlarmMediaURL    string        // ALARM_MEDIA_URL
	AlarmMediaPlayer string        // ALARM_MEDIA_PLAYER (media_player entity)
	Locale           string        // REMINDER_LOCALE (BCP 47)
	TriggerTimeout   time.Duration // SCHEDULER_TRIGGER_TIMEOUT
	TimeZone         string        // TZ_LOCATION; empty uses the host zone
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath    string // SQLite path
	StaticDir string // served under <APIBasePath>/static when set (alarm sound)

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Reminders
	HomeAssistant HomeAssistantConfig
	Scheduler     SchedulerConfig

	// Observability
	OTEL OTELConfig
}

// Location returns the time zone reminders are evaluated in.
func (c Config) Location() *time.Location {
	if c.Scheduler.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Scheduler.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LocaleTag returns the parsed REMINDER_LOCALE (French when unparsable).
func (c Config) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Scheduler.Locale)
	if err != nil {
		return language.French
	}
	return tag
}

// MustLoad is Load for main packages: it panics on an invalid environment.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load builds the Config from the environment. Unset or empty variables take
// their default; malformed values and failed checks are all reported
// together in the returned error.
func Load() (Config, error) {
	var e env
	cfg := Config{
		Port:              e.str("PORT", "3000"),
		ReadTimeout:       e.duration("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.duration("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.duration("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       e.duration("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.integer("MAX_HEADER_BYTES", 1<<20),
		GinMode:           ginMode(e.str("GIN_MODE", "release")),

		LogLevel:       logLevel(e.str("LOG_LEVEL", "info")),
		LogPretty:      e.flag("LOG_PRETTY", false),
		SwaggerEnabled: e.flag("SWAGGER_ENABLED", false),
		APIBasePath:    basePath(e.str("API_BASE_PATH", "/api")),

		DBPath:    e.str("DB_PATH", "pillmate.db"),
		StaticDir: strings.TrimSpace(e.str("STATIC_DIR", "")),

		RateRPS:   e.number("RATE_RPS", 10),
		RateBurst: e.integer("RATE_BURST", 20),

		CORS: CORSConfig{
			AllowedOrigins: csv(e.str("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: e.flag("ENABLE_HSTS", false),
			HSTSMaxAge: e.duration("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: e.duration("IDEMPOTENCY_TTL", 24*time.Hour),

		HomeAssistant: HomeAssistantConfig{
			Enabled:        e.flag("HASS_ENABLED", true),
			WebSocketURL:   e.str("HASS_WEBSOCKET_URL", "ws://supervisor/core/websocket"),
			AddonInfoURL:   e.str("HASS_ADDON_INFO_URL", "http://supervisor/addons/self/info"),
			Token:          strings.TrimSpace(e.str("SUPERVISOR_TOKEN", e.str("HASSIO_TOKEN", ""))),
			MaxRetry:       e.integer("HASS_MAX_RETRY", 10),
			RetryDelay:     e.duration("HASS_RETRY_DELAY", 5*time.Second),
			RequestTimeout: e.duration("HASS_REQUEST_TIMEOUT", 15*time.Second),
		},

		Scheduler: SchedulerConfig{
			AlarmMediaURL:    e.str("ALARM_MEDIA_URL", "http://localhost:3000/api/static/alarm.mp3"),
			AlarmMediaPlayer: e.str("ALARM_MEDIA_PLAYER", "media_player.vlc_telnet"),
			Locale:           e.str("REMINDER_LOCALE", "fr"),
			TriggerTimeout:   e.duration("SCHEDULER_TRIGGER_TIMEOUT", 30*time.Second),
			TimeZone:         strings.TrimSpace(e.str("TZ_LOCATION", "")),
		},

		OTEL: OTELConfig{
			Enabled:     e.flag("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.flag("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "pill-mate"),
			SampleRatio: e.number("OTEL_TRACES_SAMPLER_ARG", 1),
		},
	}

	errs := append(e.errs, cfg.check()...)
	return cfg, errors.Join(errs...)
}

// check returns one error per violated constraint.
func (c Config) check() []error {
	ha := c.HomeAssistant
	rules := []struct {
		bad bool
		msg string
	}{
		{c.LogLevel == "", "LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"},
		{strings.TrimSpace(c.Port) == "", "PORT must not be empty"},
		{c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0,
			"READ_TIMEOUT, READ_HEADER_TIMEOUT, WRITE_TIMEOUT and IDLE_TIMEOUT must be > 0"},
		{c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0"},
		{strings.TrimSpace(c.DBPath) == "", "DB_PATH must not be empty"},
		{c.RateRPS < 0, "RATE_RPS must be >= 0"},
		{c.RateBurst < 1, "RATE_BURST must be >= 1"},
		{c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0"},
		{c.IdempotencyTTL <= 0, "IDEMPOTENCY_TTL must be > 0"},
		{c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]"},
		{ha.Enabled && ha.Token == "", "SUPERVISOR_TOKEN (or HASSIO_TOKEN) is required when HASS_ENABLED"},
		{ha.Enabled && (ha.WebSocketURL == "" || ha.AddonInfoURL == ""), "HASS_WEBSOCKET_URL and HASS_ADDON_INFO_URL must not be empty"},
		{ha.MaxRetry < 1, "HASS_MAX_RETRY must be >= 1"},
		{ha.RetryDelay < 0, "HASS_RETRY_DELAY must be >= 0"},
		{ha.RequestTimeout <= 0, "HASS_REQUEST_TIMEOUT must be > 0"},
		{c.Scheduler.TriggerTimeout <= 0, "SCHEDULER_TRIGGER_TIMEOUT must be > 0"},
	}
	var errs []error
	for _, r := range rules {
		if r.bad {
			errs = append(errs, errors.New(r.msg))
		}
	}
	if _, err := language.Parse(c.Scheduler.Locale); err != nil {
		errs = append(errs, fmt.Errorf("REMINDER_LOCALE: %w", err))
	}
	if tz := c.Scheduler.TimeZone; tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			errs = append(errs, fmt.Errorf("TZ_LOCATION: %w", err))
		}
	}
	return errs
}

// env reads typed variables and remembers every value it failed to parse.
type env struct {
	errs []error
}

func (e *env) lookup(k string) (string, bool) {
	v, ok := os.LookupEnv(k)
	return v, ok && v != ""
}

func (e *env) str(k, def string) string {
	if v, ok := e.lookup(k); ok {
		return v
	}
	return def
}

func (e *env) integer(k string, def int) int {
	return parse(e, k, def, strconv.Atoi)
}

func (e *env) number(k string, def float64) float64 {
	return parse(e, k, def, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func (e *env) duration(k string, def time.Duration) time.Duration {
	return parse(e, k, def, time.ParseDuration)
}

func (e *env) flag(k string, def bool) bool {
	return parse(e, k, def, func(v string) (bool, error) {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
		return false, errors.New("not a boolean")
	})
}

func parse[T any](e *env, k string, def T, fn func(string) (T, error)) T {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	out, err := fn(strings.TrimSpace(v))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid value %q", k, v))
		return def
	}
	return out
}

// logLevel lower-cases lvl and accepts "warning" for "warn". Unknown levels
// map to "" and fail check.
func logLevel(lvl string) string {
	switch lvl = strings.ToLower(strings.TrimSpace(lvl)); lvl {
	case "warning":
		return "warn"
	case "debug", "info", "warn", "error", "fatal", "panic":
		return lvl
	}
	return ""
}

// ginMode falls back to release for unknown modes.
func ginMode(m string) string {
	switch m = strings.ToLower(strings.TrimSpace(m)); m {
	case "debug", "release", "test":
		return m
	}
	return "release"
}

func csv(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// basePath returns p with a leading slash and no trailing one; blank is "/".
func basePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
