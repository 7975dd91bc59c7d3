package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken       string       `yaml:"discord_token" env:"DISCORD_TOKEN"`
	ApplicationID      string       `yaml:"application_id" env:"DISCORD_APPLICATION_ID"`
	DatabasePath       string       `yaml:"database_path" env:"DATABASE_PATH"`
	LogLevel           string       `yaml:"log_level" env:"LOG_LEVEL"`
	RetentionDays      int          `yaml:"retention_days" env:"RETENTION_DAYS"`
	SecurityLogChannel string       `yaml:"security_log_channel" env:"SECURITY_LOG_CHANNEL"`
	WarningImagePath   string       `yaml:"warning_image_path" env:"WARNING_IMAGE_PATH"`
	Health             HealthConfig `yaml:"health"`
}

type HealthConfig struct {
	Enabled  bool   `yaml:"enabled" env:"HEALTH_ENABLED"`
	Addr     string `yaml:"addr" env:"HEALTH_ADDR"`
	MaxConns int    `yaml:"max_conns" env:"HEALTH_MAX_CONNS"`
}

func DefaultConfig() Config {
	return Config{
		DatabasePath:     "/data/honeypot.db",
		LogLevel:         "info",
		RetentionDays:    30,
		WarningImagePath: "warn.png",
		Health:           HealthConfig{Enabled: false, Addr: ":8080", MaxConns: 16},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// A missing .env is normal in containers.
	_ = godotenv.Load()

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.DiscordToken) == "" {
		return errors.New("DISCORD_TOKEN is required")
	}
	if strings.TrimSpace(cfg.ApplicationID) == "" {
		return errors.New("DISCORD_APPLICATION_ID is required")
	}
	if cfg.RetentionDays < 0 {
		return errors.New("retention_days must not be negative")
	}
	return nil
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(strings.ToLower(level)))

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
