package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the storage schema",
	Long: `Create or update the storage schema for the configured DB_DRIVER.

SQL drivers get their tables auto-migrated; MongoDB gets its unique and
lookup indexes.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.migrate(cmd.Context()); err != nil {
			return err
		}
		a.log.Info().Msg("migrations applied")
		return nil
	},
}
