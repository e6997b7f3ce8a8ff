package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/noah-isme/entity-review-api/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the submission log schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(ctx context.Context, db *sqlx.DB) error {
			if err := database.Migrate(ctx, db.DB); err != nil {
				return err
			}
			return printVersion(ctx, cmd, db)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(ctx context.Context, db *sqlx.DB) error {
			if err := database.Rollback(ctx, db.DB); err != nil {
				return err
			}
			return printVersion(ctx, cmd, db)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(ctx context.Context, db *sqlx.DB) error {
			return printVersion(ctx, cmd, db)
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

func printVersion(ctx context.Context, cmd *cobra.Command, db *sqlx.DB) error {
	v, err := database.Version(ctx, db.DB)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
	return nil
}

func withDatabase(cmd *cobra.Command, fn func(ctx context.Context, db *sqlx.DB) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	conn, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		exitCode = ExitRuntimeError
		return nil
	}
	defer conn.Close() //nolint:errcheck

	if err := fn(ctx, conn); err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		exitCode = ExitRuntimeError
	}
	return nil
}
