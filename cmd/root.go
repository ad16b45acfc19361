package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joshmayeda/pGEN-server/internal/config"
)

// rootFlags are shared by every subcommand
type rootFlags struct {
	configPath string
	verbose    bool
	logFormat  string
}

func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "pgen",
		Short: "Printable card sheet generator",
		Long: `pgen turns a list of card images into a printable PDF.

Every image is fetched, stretched to 2.5x3.5in at 300 dpi and laid out
nine to a page on 8.5x11in sheets. Decks can be served over HTTP,
rendered locally from a deck file, or uploaded to Google Drive.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return setupLogging(cmd.ErrOrStderr(), flags)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a TOML config file")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "Log format: text or json")

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newGenerateCmd(flags))
	cmd.AddCommand(newUploadCmd(flags))
	cmd.AddCommand(newAuthCmd(flags))

	return cmd
}

func setupLogging(w io.Writer, flags *rootFlags) error {
	level := log.InfoLevel
	if flags.verbose {
		level = log.DebugLevel
	}

	opts := log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	}
	switch flags.logFormat {
	case "", "text":
		opts.Formatter = log.TextFormatter
	case "json":
		opts.Formatter = log.JSONFormatter
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", flags.logFormat)
	}

	slog.SetDefault(slog.New(log.NewWithOptions(w, opts)))
	return nil
}

func (f *rootFlags) loadConfig() (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	slog.Debug("Loaded config",
		"port", cfg.Port,
		"fetch_concurrency", cfg.FetchConcurrency,
		"normalize_concurrency", cfg.NormalizeConcurrency,
		"max_cards", cfg.MaxCards,
		"upload_enabled", cfg.UploadEnabled())
	return cfg, nil
}

func writeOut(cmd *cobra.Command, format string, args ...any) {
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), format, args...); err != nil {
		slog.Error("Unable to write output", "err", err)
	}
}
