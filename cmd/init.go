package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type initAnswers struct {
	Port      string `survey:"port"`
	AppOrigin string `survey:"appOrigin"`
	StoreURL  string `survey:"storeURL"`
}

// NewInitCommand interactively writes a starter config file. Secrets are
// deliberately not prompted for: those stay in the environment.
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil {
				var overwrite bool
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("%s already exists, overwrite?", configPath),
				}
				if err := survey.AskOne(prompt, &overwrite); err != nil {
					return err
				}
				if !overwrite {
					return nil
				}
			}

			questions := []*survey.Question{
				{
					Name:   "port",
					Prompt: &survey.Input{Message: "HTTP port:", Default: "3001"},
				},
				{
					Name:   "appOrigin",
					Prompt: &survey.Input{Message: "Frontend origin (CORS):", Default: "http://localhost:5173"},
				},
				{
					Name:   "storeURL",
					Prompt: &survey.Input{Message: "PocketBase URL:", Default: "http://127.0.0.1:8090"},
				},
			}

			var answers initAnswers
			if err := survey.Ask(questions, &answers); err != nil {
				return err
			}

			out := map[string]any{
				"General": map[string]any{"logLevel": "info"},
				"Http": map[string]any{
					"port":      answers.Port,
					"appOrigin": answers.AppOrigin,
				},
				"Store": map[string]any{"url": answers.StoreURL},
				"Auth":  map[string]any{"baseURL": "http://localhost:" + answers.Port},
			}
			data, err := yaml.Marshal(out)
			if err != nil {
				return err
			}
			if err := os.WriteFile(configPath, data, 0o644); err != nil {
				return err
			}

			fmt.Printf("Wrote %s\n", configPath)
			fmt.Println("Remember to set POCKETBASE_ADMIN_EMAIL, POCKETBASE_ADMIN_PASSWORD and AUTH_SECRET in the environment.")
			return nil
		},
	}
}
