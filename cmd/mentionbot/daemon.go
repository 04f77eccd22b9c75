package main

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"mentionbot/internal/config"

	"github.com/spf13/cobra"
)

func installDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install mentionbot as a user service (launchd/systemd)",
		Long:  "Generates and installs a service file that runs 'mentionbot run' on login with the current config and env file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := filepath.Abs(resolveConfigPath())
			if err != nil {
				return err
			}
			execPath, err := os.Executable()
			if err != nil {
				return fmt.Errorf("cannot determine executable path: %w", err)
			}
			args = serviceArgs(cfgPath, envFile)

			switch runtime.GOOS {
			case "darwin":
				return installLaunchd(execPath, args)
			case "linux":
				return installSystemd(execPath, args)
			default:
				return fmt.Errorf("unsupported OS: %s (supported: darwin, linux)", runtime.GOOS)
			}
		},
	}
}

func uninstallDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the mentionbot user service",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch runtime.GOOS {
			case "darwin":
				return uninstallLaunchd()
			case "linux":
				return uninstallSystemd()
			default:
				return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
			}
		},
	}
}

// serviceArgs returns the arguments the service passes after the executable.
func serviceArgs(cfgPath, envPath string) []string {
	args := []string{"run", "--config", cfgPath}
	if envPath != "" {
		if abs, err := filepath.Abs(config.ExpandPath(envPath)); err == nil {
			envPath = abs
		}
		args = append(args, "--env-file", envPath)
	}
	return args
}

const launchdLabel = "com.mentionbot.run"

func renderLaunchd(execPath string, args []string, logPath, errLogPath string) string {
	var b strings.Builder
	for _, a := range append([]string{execPath}, args...) {
		b.WriteString("        <string>" + xmlEscape(a) + "</string>\n")
	}
	plist := strings.ReplaceAll(launchdTemplate, "{{ARGS}}", strings.TrimSuffix(b.String(), "\n"))
	plist = strings.ReplaceAll(plist, "{{LABEL}}", launchdLabel)
	plist = strings.ReplaceAll(plist, "{{LOG}}", xmlEscape(logPath))
	plist = strings.ReplaceAll(plist, "{{ERR_LOG}}", xmlEscape(errLogPath))
	return plist
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func renderSystemd(execPath string, args []string) string {
	words := make([]string, 0, len(args)+1)
	for _, a := range append([]string{execPath}, args...) {
		words = append(words, systemdQuote(a))
	}
	return strings.ReplaceAll(systemdTemplate, "{{EXEC}}", strings.Join(words, " "))
}

// systemdQuote renders one ExecStart word. Specifiers (%) and variable
// expansion ($) are escaped so the path reaches the process unchanged.
func systemdQuote(s string) string {
	s = strings.ReplaceAll(s, "%", "%%")
	s = strings.ReplaceAll(s, "$", "$$")
	if s != "" && !strings.ContainsAny(s, " \t\"'\\;") {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func installLaunchd(execPath string, args []string) error {
	home, _ := os.UserHomeDir()
	plistDir := filepath.Join(home, "Library", "LaunchAgents")
	plistPath := filepath.Join(plistDir, launchdLabel+".plist")

	logPath := filepath.Join(home, "Library", "Logs", "mentionbot.log")
	errLogPath := filepath.Join(home, "Library", "Logs", "mentionbot-error.log")

	if err := os.MkdirAll(plistDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(plistPath, []byte(renderLaunchd(execPath, args, logPath, errLogPath)), 0o644); err != nil {
		return err
	}

	fmt.Printf("Daemon installed: %s\n", plistPath)
	fmt.Printf("To start: launchctl load %s\n", plistPath)
	fmt.Printf("To stop:  launchctl unload %s\n", plistPath)
	return nil
}

func uninstallLaunchd() error {
	home, _ := os.UserHomeDir()
	plistPath := filepath.Join(home, "Library", "LaunchAgents", launchdLabel+".plist")
	if err := os.Remove(plistPath); err != nil {
		return fmt.Errorf("remove plist: %w", err)
	}
	fmt.Printf("Daemon uninstalled: %s\n", plistPath)
	return nil
}

func installSystemd(execPath string, args []string) error {
	home, _ := os.UserHomeDir()
	unitDir := filepath.Join(home, ".config", "systemd", "user")
	unitPath := filepath.Join(unitDir, "mentionbot.service")

	if err := os.MkdirAll(unitDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(unitPath, []byte(renderSystemd(execPath, args)), 0o644); err != nil {
		return err
	}

	fmt.Printf("Daemon installed: %s\n", unitPath)
	fmt.Printf("To start:  systemctl --user start mentionbot\n")
	fmt.Printf("To enable: systemctl --user enable mentionbot\n")
	fmt.Printf("To stop:   systemctl --user stop mentionbot\n")
	return nil
}

func uninstallSystemd() error {
	home, _ := os.UserHomeDir()
	unitPath := filepath.Join(home, ".config", "systemd", "user", "mentionbot.service")
	if err := os.Remove(unitPath); err != nil {
		return fmt.Errorf("remove unit: %w", err)
	}
	fmt.Printf("Daemon uninstalled: %s\n", unitPath)
	return nil
}

const launchdTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{LABEL}}</string>
    <key>ProgramArguments</key>
    <array>
{{ARGS}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>{{LOG}}</string>
    <key>StandardErrorPath</key>
    <string>{{ERR_LOG}}</string>
</dict>
</plist>`

const systemdTemplate = `[Unit]
Description=mentionbot Slack mention responder
After=network-online.target

[Service]
Type=simple
ExecStart={{EXEC}}
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target`
