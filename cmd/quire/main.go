// Command quire turns documents into structured output.
//
// It extracts text and embedded images from uploads, detects language and
// content structure, optionally rewrites the text through an LLM, and
// exports the result as JSON, CSV, Excel, Word, or plain text. Each stage
// is reachable as a subcommand; serve exposes the whole pipeline over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nevindra/quire/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is loaded by the root command before any subcommand runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "quire",
	Short: "Document parsing, analysis, and transformation pipeline",
	Long: `quire turns documents into structured output. It extracts text and
embedded images, detects language and content structure (tables, images,
headings), optionally rewrites the text through an LLM, and exports the
result as JSON, CSV, Excel, Word, or plain text.

Subcommands cover the pipeline at different depths: parse extracts text
only, run executes the full pipeline for one file, serve exposes it over
HTTP, and models lists what the configured LLM endpoint offers.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = os.Getenv("QUIRE_CONFIG")
		}
		cfg = config.Load(path)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		for _, w := range cfg.Warnings() {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./quire.toml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

// newLogger builds the command logger; --verbose lowers the level to debug.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
