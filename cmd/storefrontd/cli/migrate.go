package cli

import (
	"fmt"

	"github.com/goliatone/go-storefront-auth/migrations"
	"github.com/goliatone/go-storefront-auth/persistence"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  `Applies all pending migrations, seeding the default roles on first run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := persistence.Open(cmd.Context(), cfg.DatabaseURL, persistence.Options{
				MaxOpenConns: cfg.MaxDBConnections,
			})
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer persistence.Close(db)

			group, err := migrations.Run(cmd.Context(), db)
			if err != nil {
				return err
			}

			if group.ID == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No new migrations to apply")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Applied migration group %d\n", group.ID)
			}
			return nil
		},
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Roll back the last migration group",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := persistence.Open(cmd.Context(), cfg.DatabaseURL, persistence.Options{})
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer persistence.Close(db)

			group, err := migrations.Rollback(cmd.Context(), db)
			if err != nil {
				return err
			}

			if group.ID == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No migrations to rollback")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Rolled back migration group %d\n", group.ID)
			}
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := persistence.Open(cmd.Context(), cfg.DatabaseURL, persistence.Options{})
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer persistence.Close(db)

			ms, err := migrations.Status(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			for _, m := range ms {
				status := "pending"
				if m.GroupID > 0 {
					status = fmt.Sprintf("applied (group %d)", m.GroupID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", m.Name, status)
			}
			return nil
		},
	})

	return migrateCmd
}
