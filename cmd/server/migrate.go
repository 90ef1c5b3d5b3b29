package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/akyapi/warehouse-auth/internal/config"
	"github.com/akyapi/warehouse-auth/internal/db"
	"github.com/akyapi/warehouse-auth/internal/logging"
)

var errNoMigrations = errors.New("the memory driver has no migrations")

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSQL(cmd.Context(), func(cfg *config.Config, sqlDB *sql.DB) error {
				return db.RunMigrations(cmd.Context(), sqlDB, cfg.DBDriver, logging.New(cfg.Env, cmd.ErrOrStderr()))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSQL(cmd.Context(), func(cfg *config.Config, sqlDB *sql.DB) error {
				statuses, err := db.MigrationStatus(cmd.Context(), sqlDB, cfg.DBDriver)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
				for _, s := range statuses {
					applied := "-"
					if !s.AppliedAt.IsZero() {
						applied = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
				}
				return w.Flush()
			})
		},
	})

	return cmd
}

func withSQL(ctx context.Context, fn func(cfg *config.Config, sqlDB *sql.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DBDriver == config.DriverMemory {
		return errNoMigrations
	}

	store, err := openStorage(ctx, cfg, logging.New(cfg.Env, os.Stderr))
	if err != nil {
		return err
	}
	defer store.close()

	return fn(cfg, store.sqlDB)
}
