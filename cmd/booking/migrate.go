package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Leganyst/booking-calendar/internal/model"
)

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openDeps(opts)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := model.AutoMigrate(rt.db); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			rt.logger.Info("schema migrated", "driver", rt.cfg.DB.Driver)
			return nil
		},
	}
}
