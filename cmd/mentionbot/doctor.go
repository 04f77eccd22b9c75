package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"mentionbot/internal/channel"
	"mentionbot/internal/config"

	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on the configuration and Slack credentials",
		Long: `Verifies that the config loads, the Slack tokens are accepted, and the
completion backend and metrics listener are set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.ExpandPath(resolveConfigPath())
			fmt.Printf("mentionbot doctor v%s\n\n", version)

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				fmt.Printf("\nRun 'mentionbot init' to create an example configuration.\n")
				return fmt.Errorf("config not found")
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", describeConfigError(err).Error())
				fmt.Printf("\n%d passed, 1 failed\n", passed)
				return fmt.Errorf("config invalid")
			}
			printPass("Config validation", "valid")
			passed++

			// 3. Slack bot token
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			slackCh := channel.NewSlack(channel.SlackConfig{
				BotToken: cfg.Transport.BotToken,
				AppToken: cfg.Transport.AppToken,
				Logger:   logger,
			})
			if self, err := slackCh.ResolveSelfIdentity(ctx); err != nil {
				printFail("Slack auth", err.Error())
				failed++
			} else {
				printPass("Slack auth", fmt.Sprintf("bot user %s (%s)", self.DisplayName, self.ID))
				passed++
			}

			// 4. Completion backend
			if cfg.LLM.APIKey == "" && cfg.LLM.APIBase == "" {
				printWarn("Provider: "+cfg.LLM.Provider, "no api_key or api_base configured")
				warned++
			} else {
				printPass("Provider: "+cfg.LLM.Provider, "configured")
				passed++
			}

			// 5. Metrics listener
			if cfg.Metrics.Listen != "" {
				if err := checkListen(cfg.Metrics.Listen); err != nil {
					printFail("Metrics listen", err.Error())
					failed++
				} else {
					printPass("Metrics listen", cfg.Metrics.Listen)
					passed++
				}
			}

			fmt.Printf("\n%d passed, %d failed, %d warnings\n", passed, failed, warned)
			if failed > 0 {
				return fmt.Errorf("%d checks failed", failed)
			}
			return nil
		},
	}
}

func checkListen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ln.Close()
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
