package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	GRPCAddr string `mapstructure:"GRPC_ADDR"`

	// Часовой пояс, в котором интерпретируются дневные окна приёма.
	ScheduleTimeZone string `mapstructure:"SCHEDULE_TIMEZONE"`
	// Cron-выражение для фоновой догенерации слотов; пусто — выключено.
	RegenSchedule string `mapstructure:"REGEN_SCHEDULE"`

	RedisAddr string        `mapstructure:"REDIS_ADDR"`
	RedisDB   int           `mapstructure:"REDIS_DB"`
	CacheTTL  time.Duration `mapstructure:"CACHE_TTL"`

	DB DBConfig `mapstructure:",squash"`
}

var keys = []string{
	"ENV", "LOG_LEVEL", "GRPC_ADDR",
	"SCHEDULE_TIMEZONE", "REGEN_SCHEDULE",
	"REDIS_ADDR", "REDIS_DB", "CACHE_TTL",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"DB_SSLMODE", "DB_TIMEZONE", "SQLITE_PATH",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME_MIN",
}

// Load читает .env (если есть), затем переменные окружения поверх дефолтов.
func Load() (*Config, error) {
	// .env не обязателен: в контейнере всё приходит через окружение.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("GRPC_ADDR", ":50051")
	v.SetDefault("SCHEDULE_TIMEZONE", "UTC")
	v.SetDefault("REGEN_SCHEDULE", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "30s")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "postgres")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "booking")
	v.SetDefault("DB_PASSWORD", "booking")
	v.SetDefault("DB_NAME", "booking_db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("SQLITE_PATH", "clinic.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MIN", 30)

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Location возвращает часовой пояс расписания.
func (c *Config) Location() (*time.Location, error) {
	if c.ScheduleTimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.ScheduleTimeZone)
	if err != nil {
		return nil, fmt.Errorf("load SCHEDULE_TIMEZONE %q: %w", c.ScheduleTimeZone, err)
	}
	return loc, nil
}

func (c *Config) Validate() error {
	if err := c.DB.validate(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.RegenSchedule != "" {
		if _, err := cron.ParseStandard(c.RegenSchedule); err != nil {
			return fmt.Errorf("invalid REGEN_SCHEDULE %q: %w", c.RegenSchedule, err)
		}
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}
	return nil
}
