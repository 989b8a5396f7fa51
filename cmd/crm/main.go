// Command crm runs the CRM API and its maintenance tasks.
//
// @title                       CRM API
// @version                     1.0
// @description                 Customer, transaction and affiliation management with role-scoped access.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "crm",
	Short: "CRM API server and maintenance tool",
	Long: `crm serves the customer relationship API and runs its maintenance tasks.

Available subcommands:
  serve   - Start the HTTP API
  migrate - Create or update the storage schema
  user    - Manage accounts (bootstrap the first admin)`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
