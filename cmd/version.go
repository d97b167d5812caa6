package cmd

import (
	"fmt"

	"github.com/billfold/billfold/internal/common"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var versionLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

// NewVersionCommand prints the build metadata.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the billfold version",
		Run: func(cmd *cobra.Command, args []string) {
			build := common.NewBuildConfig()
			fmt.Println(versionLabelStyle.Render("billfold " + build.BuildVersion))
			fmt.Printf("commit: %s\n", build.BuildCommit)
			fmt.Printf("built:  %s\n", build.BuildDate)
		},
	}
}
