package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bookscout/bookscout/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var logLevel, logFormat string

	cmd := &cobra.Command{
		Use:   "bookscout",
		Short: "AI book recommendations ranked by nearby library availability",
		Long: `Bookscout recommends books for a keyword by combining a generative model's
suggestions with the data4library (도서관 정보나루) catalog, and ranks them by
how many libraries in the user's nearest regions hold each book.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return setupLogging(logLevel, logFormat)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRecommendCmd())
	cmd.AddCommand(newBatchCmd())

	return cmd
}

func setupLogging(level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig resolves the config source chain and the runtime settings.
func loadConfig() (config.Settings, config.Source, error) {
	secretsFile, _ := config.EnvSource{}.Lookup(config.KeySecretsFile)
	if secretsFile == "" {
		secretsFile = "secrets.yaml"
	}

	source, err := config.DefaultSource(secretsFile)
	if err != nil {
		return config.Settings{}, nil, err
	}

	settings, err := config.Load(source)
	if err != nil {
		return config.Settings{}, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return settings, source, nil
}
