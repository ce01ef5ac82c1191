package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ashendes/payplus-connector/internal/config"
	"github.com/ashendes/payplus-connector/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "payplus-service",
	Short: "PayPlus checkout connector",
	Long: `Creates PayPlus payment sessions for store checkouts and applies the
payment status callbacks the gateway sends back to the store's orders.`,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: payplus.yaml in ., ./config or /etc/payplus)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Server.Mode)
	return cfg, nil
}
