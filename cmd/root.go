// Package cmd holds the billfold CLI: serve, setup, init and version.
package cmd

import (
	"fmt"
	"os"

	"github.com/billfold/billfold/internal/common"
	"github.com/spf13/cobra"
)

var configPath string

// NewRootCommand creates the root command and attaches every subcommand.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "billfold",
		Short: "Invoicing backend on top of a PocketBase collection store",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Use \"billfold --help\" for more information about a command.")
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", common.DefaultConfigPath(), "path to the config file")

	root.AddCommand(NewServeCommand())
	root.AddCommand(NewSetupCommand())
	root.AddCommand(NewInitCommand())
	root.AddCommand(NewVersionCommand())

	return root
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*common.Config, error) {
	config := &common.Config{Build: common.NewBuildConfig()}
	return config.LoadConfig(configPath)
}
