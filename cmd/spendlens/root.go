package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spendlens/spendlens/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
	rootCmd = &cobra.Command{
		Use:   "spendlens",
		Short: "spendlens answers natural-language questions about purchase order data",
	}
)

// Execute runs the root command.
func Execute() error {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "spendlens.json", "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// Absent .env files are fine; the environment may be set directly.
		_ = godotenv.Load()
		logging.Init(debug)
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(historyCmd())
	err := rootCmd.Execute()
	if err != nil {
		fatal(err)
	}
	return err
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
}
