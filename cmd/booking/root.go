package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-calendar/internal/config"
	"github.com/Leganyst/booking-calendar/internal/db"
	"github.com/Leganyst/booking-calendar/internal/logging"
)

type globalOptions struct {
	ConfigPath string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{ConfigPath: os.Getenv("BOOKING_CONFIG")}

	root := &cobra.Command{
		Use:           "booking",
		Short:         "Booking calendar core service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	bindGlobalFlags(root.PersistentFlags(), opts)

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newMigrateCommand(opts))
	return root
}

func bindGlobalFlags(fs *pflag.FlagSet, opts *globalOptions) {
	fs.StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "Path to TOML config file (env BOOKING_CONFIG)")
}

// deps: то, что нужно любой команде: конфиг, логгер и подключение к БД.
type deps struct {
	cfg    *config.AppConfig
	logger *slog.Logger
	db     *gorm.DB
}

func openDeps(opts *globalOptions) (*deps, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	gormDB, err := db.NewGormDB(cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	return &deps{cfg: cfg, logger: logger, db: gormDB}, nil
}

func (r *deps) close() {
	sqlDB, err := r.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		r.logger.Warn("close db", "error", err)
	}
}
