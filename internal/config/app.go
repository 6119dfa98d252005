package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	_ "time/tzdata"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	OverlapModeQuery  = "query"
	OverlapModeMemory = "memory"
)

// AppConfig — настройки сервиса бронирования.
type AppConfig struct {
	GRPCAddr  string
	LogLevel  string
	LogFormat string

	// Опорный часовой пояс: по нему определяется "сегодня" и строятся
	// время начала и конца событий во внешнем календаре.
	TimeZone    string
	OverlapMode string

	Sync SyncConfig

	DB *DBConfig
}

// SyncConfig — параметры воркера синхронизации с внешним календарём.
type SyncConfig struct {
	PollInterval       time.Duration
	BatchSize          int
	MaxAttempts        int
	BaseBackoff        time.Duration
	MaxBackoff         time.Duration
	ExternalCalendarID string
}

// fileConfig — формат TOML-файла; длительности задаются строками ("5s", "10m").
type fileConfig struct {
	GRPCAddr    string `toml:"grpc_addr"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
	TimeZone    string `toml:"timezone"`
	OverlapMode string `toml:"overlap_mode"`
	Sync        struct {
		PollInterval       string `toml:"poll_interval"`
		BatchSize          int    `toml:"batch_size"`
		MaxAttempts        int    `toml:"max_attempts"`
		BaseBackoff        string `toml:"base_backoff"`
		MaxBackoff         string `toml:"max_backoff"`
		ExternalCalendarID string `toml:"external_calendar_id"`
	} `toml:"sync"`
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		GRPCAddr:    ":50051",
		LogLevel:    "info",
		LogFormat:   "json",
		TimeZone:    "Asia/Seoul",
		OverlapMode: OverlapModeQuery,
		Sync: SyncConfig{
			PollInterval: 5 * time.Second,
			BatchSize:    20,
			MaxAttempts:  8,
			BaseBackoff:  2 * time.Second,
			MaxBackoff:   10 * time.Minute,
		},
	}
}

// Load собирает конфигурацию: значения по умолчанию, затем TOML-файл
// (если path не пуст), затем переменные окружения.
func Load(path string) (*AppConfig, error) {
	cfg := defaultAppConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		var fc fileConfig
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := applyFileConfig(&cfg, fc); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	cfg.GRPCAddr = getEnv("BOOKING_GRPC_ADDR", cfg.GRPCAddr)
	cfg.LogLevel = getEnv("BOOKING_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("BOOKING_LOG_FORMAT", cfg.LogFormat)
	cfg.TimeZone = getEnv("BOOKING_TIMEZONE", cfg.TimeZone)
	cfg.OverlapMode = getEnv("BOOKING_OVERLAP_MODE", cfg.OverlapMode)
	cfg.Sync.PollInterval = getEnvDuration("BOOKING_SYNC_POLL_INTERVAL", cfg.Sync.PollInterval)
	cfg.Sync.BatchSize = getEnvInt("BOOKING_SYNC_BATCH_SIZE", cfg.Sync.BatchSize)
	cfg.Sync.MaxAttempts = getEnvInt("BOOKING_SYNC_MAX_ATTEMPTS", cfg.Sync.MaxAttempts)
	cfg.Sync.BaseBackoff = getEnvDuration("BOOKING_SYNC_BASE_BACKOFF", cfg.Sync.BaseBackoff)
	cfg.Sync.MaxBackoff = getEnvDuration("BOOKING_SYNC_MAX_BACKOFF", cfg.Sync.MaxBackoff)
	cfg.Sync.ExternalCalendarID = getEnv("GOOGLE_CALENDAR_ID", cfg.Sync.ExternalCalendarID)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	db, err := LoadDBConfig()
	if err != nil {
		return nil, err
	}
	cfg.DB = db
	return &cfg, nil
}

func applyFileConfig(dst *AppConfig, fc fileConfig) error {
	setString(&dst.GRPCAddr, fc.GRPCAddr)
	setString(&dst.LogLevel, fc.LogLevel)
	setString(&dst.LogFormat, fc.LogFormat)
	setString(&dst.TimeZone, fc.TimeZone)
	setString(&dst.OverlapMode, fc.OverlapMode)
	setString(&dst.Sync.ExternalCalendarID, fc.Sync.ExternalCalendarID)
	if fc.Sync.BatchSize != 0 {
		dst.Sync.BatchSize = fc.Sync.BatchSize
	}
	if fc.Sync.MaxAttempts != 0 {
		dst.Sync.MaxAttempts = fc.Sync.MaxAttempts
	}
	durations := []struct {
		dst *time.Duration
		raw string
		key string
	}{
		{&dst.Sync.PollInterval, fc.Sync.PollInterval, "sync.poll_interval"},
		{&dst.Sync.BaseBackoff, fc.Sync.BaseBackoff, "sync.base_backoff"},
		{&dst.Sync.MaxBackoff, fc.Sync.MaxBackoff, "sync.max_backoff"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Location возвращает опорный часовой пояс.
func (c *AppConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

func (c *AppConfig) validate() error {
	var errs []error
	if c.GRPCAddr == "" {
		errs = append(errs, errors.New("grpc_addr must not be empty"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if c.OverlapMode != OverlapModeQuery && c.OverlapMode != OverlapModeMemory {
		errs = append(errs, fmt.Errorf("overlap_mode must be %q or %q, got %q", OverlapModeQuery, OverlapModeMemory, c.OverlapMode))
	}
	if c.Sync.PollInterval <= 0 || c.Sync.BatchSize <= 0 || c.Sync.MaxAttempts <= 0 {
		errs = append(errs, errors.New("sync: poll_interval, batch_size and max_attempts must be positive"))
	}
	if c.Sync.BaseBackoff <= 0 || c.Sync.MaxBackoff < c.Sync.BaseBackoff {
		errs = append(errs, errors.New("sync: invalid backoff bounds"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid app config: %w", errors.Join(errs...))
	}
	return nil
}
