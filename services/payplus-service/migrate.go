package main

import (
	"github.com/spf13/cobra"

	"github.com/ashendes/payplus-connector/internal/database"
)

var migrateOrders bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the payplus_transactions table",
	Long: `Create the payplus_transactions table in the configured database.
With --orders the orders, order_history and message tables are created too,
for running the connector without a store database.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Open(database.Options{
			Driver:       cfg.Database.Driver,
			DSN:          cfg.Database.DSN,
			MaxOpenConns: cfg.Database.MaxOpenConns,
		})
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		return database.Migrate(db, migrateOrders)
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateOrders, "orders", false, "also create the order tables")
}
