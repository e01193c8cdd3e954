package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sqlmapdemo",
		Short: "Sample program for the sqlmap object-relational mapper",
		Long: `sqlmapdemo configures a Category and a Product table, inserts a few rows
inside a transaction and reads them back with a raw query and a key lookup.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default ./sqlmapdemo.yaml)")
	rootCmd.PersistentFlags().String("provider", "sqlite", "provider: pgx, postgres, sqlite, sqlite3 or mysql")
	rootCmd.PersistentFlags().String("dsn", ":memory:", "data source name")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log executed SQL")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newProvidersCmd())

	return rootCmd
}
