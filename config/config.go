package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Redis        RedisConfig
	SMTP         SMTPConfig
	MQTT         MQTTConfig
	Verification VerificationConfig
	Dispatch     DispatchConfig
	Stats        StatsConfig
	Log          LogConfig
}

type ServerConfig struct {
	Port        int
	MetricsAddr string
	GinMode     string
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	FromName string
}

type MQTTConfig struct {
	URL   string
	Topic string
}

func (m MQTTConfig) Enabled() bool {
	return m.URL != ""
}

type VerificationConfig struct {
	TokenTTLHours int
	FrontendURL   string
}

func (v VerificationConfig) TokenTTL() time.Duration {
	return time.Duration(v.TokenTTLHours) * time.Hour
}

type DispatchConfig struct {
	Workers    int
	QueueSize  int
	TimeoutSec int
}

func (d DispatchConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSec) * time.Second
}

type StatsConfig struct {
	IntervalSec int
}

func (s StatsConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSec) * time.Second
}

type LogConfig struct {
	Level string
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func LoadConfig() (*Config, error) {
	ints := []struct {
		key      string
		fallback int
	}{
		{key: "SERVER_PORT", fallback: 8080},
		{key: "DB_PORT", fallback: 5432},
		{key: "JWT_EXPIRY_HOURS", fallback: 8},
		{key: "REDIS_PORT", fallback: 6379},
		{key: "REDIS_DB", fallback: 0},
		{key: "SMTP_PORT", fallback: 587},
		{key: "VERIFICATION_TOKEN_TTL_HOURS", fallback: 48},
		{key: "DISPATCH_WORKERS", fallback: 2},
		{key: "DISPATCH_QUEUE_SIZE", fallback: 100},
		{key: "DISPATCH_TIMEOUT_SEC", fallback: 30},
		{key: "STATS_INTERVAL_SEC", fallback: 60},
	}
	values := make(map[string]int, len(ints))
	for _, entry := range ints {
		v, err := getIntEnv(entry.key, entry.fallback)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", entry.key, err)
		}
		values[entry.key] = v
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        values["SERVER_PORT"],
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
			GinMode:     getEnv("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     values["DB_PORT"],
			User:     getEnv("DB_USER", "saferoute"),
			Password: getEnv("DB_PASSWORD", "saferoute_dev_password"),
			Name:     getEnv("DB_NAME", "saferoute"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "dev-secret-key-change-in-production"),
			ExpiryHours: values["JWT_EXPIRY_HOURS"],
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     values["REDIS_PORT"],
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       values["REDIS_DB"],
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     values["SMTP_PORT"],
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			FromName: getEnv("SMTP_FROM_NAME", "SafeRoute"),
		},
		MQTT: MQTTConfig{
			URL:   getEnv("MQTT_URL", ""),
			Topic: getEnv("MQTT_TOPIC", "saferoute/verification-requests"),
		},
		Verification: VerificationConfig{
			TokenTTLHours: values["VERIFICATION_TOKEN_TTL_HOURS"],
			FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Dispatch: DispatchConfig{
			Workers:    values["DISPATCH_WORKERS"],
			QueueSize:  values["DISPATCH_QUEUE_SIZE"],
			TimeoutSec: values["DISPATCH_TIMEOUT_SEC"],
		},
		Stats: StatsConfig{
			IntervalSec: values["STATS_INTERVAL_SEC"],
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "memory" {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: must be postgres or memory", cfg.Database.Driver)
	}
	if cfg.JWT.ExpiryHours <= 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_HOURS: must be positive")
	}
	if cfg.Verification.TokenTTLHours <= 0 {
		return nil, fmt.Errorf("invalid VERIFICATION_TOKEN_TTL_HOURS: must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
