package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mentionbot/internal/agent"
	"mentionbot/internal/bus"
	"mentionbot/internal/channel"
	"mentionbot/internal/config"
	"mentionbot/internal/metrics"
	"mentionbot/internal/provider"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
	envFile    string
	logLevel   string
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "mentionbot",
		Short: "Slack bot that answers mentions with an LLM",
		Long:  "mentionbot listens for @-mentions in Slack and replies in the same place using a chat completion backend.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(envFile)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config (default: mentionbot.yaml)")
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from this file before reading the config")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level from the config")

	root.AddCommand(runCmd())
	root.AddCommand(initCmd())
	root.AddCommand(configCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(installDaemonCmd())
	root.AddCommand(uninstallDaemonCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadEnvFile populates the process environment from path. Variables that
// are already set win over the file.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(config.ExpandPath(path)); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// newLogger builds the process logger from the log section. A non-empty
// override replaces the configured level.
func newLogger(w io.Writer, cfg config.LogConfig, override string) *slog.Logger {
	level := cfg.Level
	if override != "" {
		level = override
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Slack and answer mentions",
		RunE:  runBot,
	}
}

func runBot(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", describeConfigError(err))
	}
	logger = newLogger(os.Stderr, cfg.Log, logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(100, logger)
	defer messageBus.Close()

	slackCh := channel.NewSlack(channel.SlackConfig{
		BotToken: cfg.Transport.BotToken,
		AppToken: cfg.Transport.AppToken,
		Logger:   logger,
	})
	self, err := slackCh.ResolveSelfIdentity(ctx)
	if err != nil {
		return fmt.Errorf("resolve bot identity: %w", err)
	}

	completion, err := provider.NewFactory(cfg.LLM, logger).Get()
	if err != nil {
		return err
	}
	profile, ok := cfg.Profile(cfg.Reply.Profile)
	if !ok {
		return fmt.Errorf("completion profile %q not found", cfg.Reply.Profile)
	}

	responder := agent.NewResponder(agent.ResponderConfig{
		Completion:    completion,
		Transport:     slackCh,
		Self:          self,
		Persona:       cfg.Persona,
		Profile:       profile,
		StripMentions: cfg.Reply.StripMentions,
		Logger:        logger,
	})
	adapter := agent.NewAdapter(channel.NewSlackDirectory(slackCh.Client(), logger), logger)

	loop := agent.NewLoop(agent.LoopConfig{
		Bus:         messageBus,
		Adapter:     adapter,
		Responder:   responder,
		Logger:      logger,
		Concurrency: cfg.Reply.MaxConcurrency,
	})
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(ctx)
	}()

	if cfg.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, metrics.Collector, cfg.Metrics.Listen, cfg.Metrics.Path, logger); err != nil {
				logger.Error("metrics server stopped", "err", err)
			}
		}()
	}

	logger.Info("mentionbot starting",
		"version", version,
		"persona", cfg.Persona.Name,
		"provider", completion.Name(),
		"model", profile.Model,
		"bot_user", self.ID,
	)

	runErr := slackCh.Start(ctx, messageBus)
	stop()
	<-loopDone
	logger.Info("mentionbot stopped")
	return runErr
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load the config and report the first problem, if any",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := config.Load(cfgPath); err != nil {
				return describeConfigError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved config with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return describeConfigError(err)
			}
			data, err := config.Marshal(config.Sanitize(cfg))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), resolveConfigPath())
		},
	})

	return cmd
}

// describeConfigError adds a hint for the failure kinds an operator can fix directly.
func describeConfigError(err error) error {
	var missing *config.MissingFieldError
	var unresolved *config.UnresolvedEnvError
	switch {
	case errors.Is(err, config.ErrNotFound):
		return fmt.Errorf("%w (run 'mentionbot init' to create one)", err)
	case errors.As(err, &unresolved):
		return fmt.Errorf("%w (export %s or pass --env-file)", err, unresolved.Name)
	case errors.As(err, &missing):
		return fmt.Errorf("%w (add %s to the config)", err, missing.Path)
	}
	return err
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mentionbot %s\n", version)
		},
	}
}
