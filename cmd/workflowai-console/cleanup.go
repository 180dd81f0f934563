package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/workflowai/console/internal/config"
	"github.com/workflowai/console/internal/web/server"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge expired sessions from the session store",
	RunE:  runCleanup,
}

func init() {
	cleanupCmd.Flags().StringVarP(&configFile, "config", "c", "/etc/workflowai/console.yaml", "Path to configuration file")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	if cfg.Session.Backend == "memory" {
		fmt.Println("Session backend is memory; nothing to clean up")
		return nil
	}

	store, err := server.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := store.DeleteExpired(time.Now())
	if err != nil {
		return fmt.Errorf("failed to purge expired sessions: %w", err)
	}

	fmt.Printf("Deleted %d expired sessions\n", deleted)
	return nil
}
