package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	LibraryAPI LibraryAPIConfig
	Roster     RosterConfig
	Sessions   SessionConfig
	CORS       CORSConfig
	Log        LogConfig
	Metrics    MetricsConfig
	Exports    ExportsConfig
}

// LibraryAPIConfig points the console at the external library API.
type LibraryAPIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// RosterConfig tunes the roster view and ban defaults.
type RosterConfig struct {
	PageSize       int
	DefaultBanDays int
	Locale         string
}

// SessionConfig governs console session expiry.
type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// ExportsConfig toggles roster export endpoints.
type ExportsConfig struct {
	Enabled  bool
	PDFTitle string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.LibraryAPI = LibraryAPIConfig{
		BaseURL: strings.TrimRight(v.GetString("LIBRARY_API_URL"), "/"),
		Token:   v.GetString("LIBRARY_API_TOKEN"),
		Timeout: parseDuration(v.GetString("LIBRARY_API_TIMEOUT"), 15*time.Second),
	}
	if cfg.LibraryAPI.BaseURL == "" {
		return nil, errors.New("LIBRARY_API_URL must be set")
	}

	pageSize := v.GetInt("ROSTER_PAGE_SIZE")
	if pageSize <= 0 {
		pageSize = 10
	}
	banDays := v.GetInt("DEFAULT_BAN_DAYS")
	if banDays < 0 {
		banDays = 7
	}
	cfg.Roster = RosterConfig{PageSize: pageSize, DefaultBanDays: banDays, Locale: v.GetString("ROSTER_LOCALE")}

	cfg.Sessions = SessionConfig{
		TTL:             parseDuration(v.GetString("SESSION_TTL"), 8*time.Hour),
		CleanupInterval: parseDuration(v.GetString("SESSION_CLEANUP_INTERVAL"), 10*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	cfg.Exports = ExportsConfig{
		Enabled:  v.GetBool("ENABLE_EXPORTS"),
		PDFTitle: v.GetString("EXPORT_PDF_TITLE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("LIBRARY_API_URL", "http://localhost:3000/api")
	v.SetDefault("LIBRARY_API_TOKEN", "")
	v.SetDefault("LIBRARY_API_TIMEOUT", "15s")

	v.SetDefault("ROSTER_PAGE_SIZE", 10)
	v.SetDefault("DEFAULT_BAN_DAYS", 7)
	v.SetDefault("ROSTER_LOCALE", "")

	v.SetDefault("SESSION_TTL", "8h")
	v.SetDefault("SESSION_CLEANUP_INTERVAL", "10m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORT_PDF_TITLE", "Student roster")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
