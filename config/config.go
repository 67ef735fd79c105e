package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DatabaseDriver string        `mapstructure:"database_driver"`
	DatabaseURL    string        `mapstructure:"database_url"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTExpiration  time.Duration `mapstructure:"jwt_expiration"`
	ServerPort     string        `mapstructure:"server_port"`
	LogLevel       string        `mapstructure:"log_level"`
	// IANA zone used to split stamps into days and months.
	TimeZone      string `mapstructure:"time_zone"`
	HolidayFile   string `mapstructure:"holiday_file"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

var defaults = map[string]any{
	"database_driver": "postgres",
	"database_url":    "postgresql://postgres@localhost:5432/timecard",
	"jwt_secret":      "your-super-secret-key-change-in-production",
	"jwt_expiration":  24 * time.Hour,
	"server_port":     "8080",
	"log_level":       "info",
	"time_zone":       "Asia/Tokyo",
	"holiday_file":    "",
	"admin_email":     "admin@example.com",
	"admin_password":  "admin",
}

// Load reads .env (if present), then the environment, over the defaults.
// An optional config file may be given.
func Load(configFile ...string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	for _, path := range configFile {
		if path == "" {
			continue
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.DatabaseDriver = strings.ToLower(cfg.DatabaseDriver)
	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == defaults["jwt_secret"] {
		slog.Warn("JWT_SECRET is not set. Do not use in production.")
	}
	return &cfg, nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return slog.LevelInfo
}
