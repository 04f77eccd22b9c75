package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const exampleConfig = `# mentionbot configuration. ${VAR} references are read from the environment.
transport:
  bot_token: ${SLACK_BOT_TOKEN}
  app_token: ${SLACK_APP_TOKEN}

persona:
  name: Helper
  system_prompt: |
    You are Helper, a concise assistant living in a Slack workspace.
    Answer the question you were mentioned in. Keep replies short.

completion:
  default:
    model: gpt-4o-mini
    temperature: 0.7
    max_tokens: 1000

llm:
  provider: openai
  api_key: ${OPENAI_API_KEY}
  timeout: 60s

reply:
  profile: default
  strip_mentions: false
  max_concurrency: 4

log:
  level: info
  format: text

metrics:
  listen: ""
  path: /metrics
`

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if !force {
				if _, err := os.Stat(cfgPath); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
				}
			}
			if err := os.WriteFile(cfgPath, []byte(exampleConfig), 0o600); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
