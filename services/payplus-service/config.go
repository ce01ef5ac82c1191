package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(cfg.Masked(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "configuration invalid: %v\n", err)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "configuration valid, using %s endpoint %s\n", cfg.Gateway.Environment, cfg.Endpoint())
		return nil
	},
}
