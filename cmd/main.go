package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/cache"
	"github.com/Leganyst/clinic-booking/internal/config"
	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/logging"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
	"github.com/Leganyst/clinic-booking/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "clinic-booking",
		Short:         "Clinic slot generation and booking core",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(doctorCmd())
	rootCmd.AddCommand(patientCmd())
	rootCmd.AddCommand(availabilityCmd())
	rootCmd.AddCommand(windowCmd())
	rootCmd.AddCommand(slotsCmd())
	rootCmd.AddCommand(bookCmd())
	rootCmd.AddCommand(cancelCmd())
	rootCmd.AddCommand(bookingsCmd())

	return rootCmd
}

// app — собранные зависимости процесса.
type app struct {
	cfg    *config.Config
	loc    *time.Location
	logger zerolog.Logger

	db    *gorm.DB
	redis *redis.Client
	cache cache.SlotCache

	repos        repository.Repositories
	availability *service.AvailabilityService
	generator    *service.SlotGenerator
	bookings     *service.BookingService
}

func newApp(ctx context.Context) (*app, error) {
	// 1. Конфиг из .env и окружения.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.LogLevel, cfg.IsDev())

	// 2. БД через GORM.
	gormDB, err := db.NewGormDB(&cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	a := &app{
		cfg:    cfg,
		loc:    loc,
		logger: logger,
		db:     gormDB,
		cache:  cache.Noop{},
	}

	// 3. Кэш свободных слотов, если задан Redis.
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		a.cache = cache.NewRedisSlotCache(client, cfg.CacheTTL)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("slot cache enabled")
	}

	// 4. Репозитории и сервисы.
	a.repos = repository.NewGormRepositories(gormDB)
	a.availability = service.NewAvailabilityService(gormDB, a.repos, a.cache, logger)
	a.generator = service.NewSlotGenerator(a.repos, loc, a.cache, logger)
	a.bookings = service.NewBookingService(gormDB, a.repos, a.cache, logger)

	return a, nil
}

func (a *app) migrate() error {
	if err := model.AutoMigrate(a.db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// withApp поднимает зависимости на время одной команды.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.migrate(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			})
		},
	}
}
