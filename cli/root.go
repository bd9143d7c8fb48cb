// CLAUDE:SUMMARY Cobra root command: config/logging flags and publisher construction shared by subcommands.
// Package cli implements the depeche CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/depeche/publish"
)

var (
	configPath string
	logLevel   string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "depeche",
	Short: "Publish reports to a document platform",
	Long:  "Parses markdown, JSON or HTML reports, compiles them into rate-limited API plans, and publishes them with retry, checkpointing and resume.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: $DEPECHE_CONFIG or depeche.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

// Execute runs the CLI.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("DEPECHE_CONFIG"); env != "" {
		return env
	}
	return "depeche.yaml"
}

func openPublisher(opts ...publish.Option) (*publish.Publisher, error) {
	cfg, err := publish.LoadConfig(getConfigPath())
	if err != nil {
		return nil, err
	}
	return publish.New(cfg, newLogger(), opts...)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
