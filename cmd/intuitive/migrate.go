package main

import (
	"context"

	"github.com/spf13/cobra"

	"intuitive/internal/domain/lifecycle"
	"intuitive/internal/errors"
	logs "intuitive/internal/infra/log"
	"intuitive/internal/infra/persistence/migrations"
	"intuitive/internal/infra/persistence/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending PostgreSQL schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := logs.New(logs.Params{Config: cfg})
		if err != nil {
			return err
		}

		db, err := postgres.Open(cfg, logger)
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return errors.Wrap(err, "failed to get PostgreSQL sql.DB")
		}
		defer sqlDB.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 6*lifecycle.DefaultTimeout)
		defer cancel()

		if err := migrations.Up(ctx, sqlDB); err != nil {
			return err
		}
		logger.Info("Database migrations applied")

		return nil
	},
}
