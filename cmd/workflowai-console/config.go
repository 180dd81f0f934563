package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workflowai/console/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

func init() {
	configValidateCmd.Flags().StringVarP(&configFile, "config", "c", "/etc/workflowai/console.yaml", "Path to configuration file")
	configCmd.AddCommand(configValidateCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("  Listen address: %s\n", cfg.Server.ListenAddr)
	fmt.Printf("  API base URL: %s\n", cfg.API.BaseURL)
	fmt.Printf("  Session backend: %s\n", cfg.Session.Backend)
	fmt.Printf("  Session TTL: %s\n", cfg.Session.TTL)
	fmt.Printf("  Google login: %v\n", cfg.Auth.Google.Enabled)
	fmt.Printf("  TLS: %v\n", cfg.Server.TLS.Enabled)

	return nil
}
