package cmd

import (
	"fmt"

	"github.com/billfold/billfold/internal/pocketbase"
	"github.com/billfold/billfold/internal/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	setupOkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	setupWarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// NewSetupCommand creates the expected collections in the store. The run is
// one-shot: collections that already exist are reported, not treated as
// failures.
func NewSetupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the auth and invoicing collections in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.ValidateForSetup(); err != nil {
				return err
			}

			store := pocketbase.NewClient(config.Store.URL,
				pocketbase.WithAdminCredentials(config.Store.AdminEmail, config.Store.AdminPassword),
			)
			ctx := cmd.Context()
			if err := store.Authenticate(ctx); err != nil {
				return fmt.Errorf("admin authentication failed: %w", err)
			}

			results := server.Bootstrap(ctx, store, server.DefaultCollections())
			for _, result := range results {
				if result.Created {
					fmt.Println(setupOkStyle.Render("✓ created " + result.Name))
				} else {
					fmt.Println(setupWarnStyle.Render("! skipped " + result.Name + " (may already exist)"))
				}
			}
			fmt.Println("Setup complete.")
			return nil
		},
	}
}
