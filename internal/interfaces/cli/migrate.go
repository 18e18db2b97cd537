package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tupiana/lexipipe/internal/infrastructure/database/postgres"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
)

// NewMigrateCmd creates the `migrate` command group for schema management.
// Unlike the job commands it talks to PostgreSQL directly.
func NewMigrateCmd() *cobra.Command {
	var migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "migrations directory (default: config database.migration_path)")

	resolvePath := func(cmd *cobra.Command) (string, string, error) {
		cliCtx, err := GetCLIContext(cmd)
		if err != nil {
			return "", "", err
		}
		path := migrationsPath
		if path == "" {
			path = cliCtx.Config.Database.MigrationPath
		}
		if path == "" {
			path = "file://migrations"
		}
		if !strings.Contains(path, "://") {
			path = "file://" + path
		}
		return postgres.BuildDSN(cliCtx.Config.Database), path, nil
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL, path, err := resolvePath(cmd)
			if err != nil {
				return err
			}
			if err := postgres.RunMigrations(dbURL, path); err != nil {
				return err
			}
			return PrintResult(cmd, "migrations applied")
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL, path, err := resolvePath(cmd)
			if err != nil {
				return err
			}
			cliCtx, _ := GetCLIContext(cmd)
			cliCtx.Logger.Warn("rolling back migrations", logging.Int("steps", steps))
			if err := postgres.RollbackMigration(dbURL, path, steps); err != nil {
				return err
			}
			return PrintResult(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL, path, err := resolvePath(cmd)
			if err != nil {
				return err
			}
			version, dirty, err := postgres.MigrationStatus(dbURL, path)
			if err != nil {
				return err
			}
			return PrintResult(cmd, map[string]any{
				"version": version,
				"dirty":   dirty,
			})
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}
