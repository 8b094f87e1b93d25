package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	quire "github.com/nevindra/quire"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run the full pipeline for one document",
	Long: `Run parses a document, detects its language and structure, collects
embedded images, optionally rewrites the text through the configured LLM,
and exports the result. The processed document is persisted to the
configured database unless --no-store is given.

The outcome is printed as JSON: the document record, asset and export file
listings, the transform when one ran, and any stage warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger(cmd)

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		instruction, _ := cmd.Flags().GetString("instruction")
		exports, _ := cmd.Flags().GetStringSlice("export")
		outDir, _ := cmd.Flags().GetString("out")
		renderPages, _ := cmd.Flags().GetBool("render")
		noStore, _ := cmd.Flags().GetBool("no-store")

		if outDir == "" {
			outDir = cfg.Export.Dir
		}
		if format != "" && cfg.LLM.APIKey == "" && cfg.LLM.Provider != "ollama" {
			return fmt.Errorf("--format %s needs llm.api_key (or QUIRE_LLM_API_KEY)", format)
		}

		app, err := buildApp(ctx, logger, !noStore)
		if err != nil {
			return err
		}
		defer app.close()

		out, err := app.pipeline.Run(ctx, quire.Input{
			Name:            filepath.Base(args[0]),
			Data:            data,
			TransformFormat: format,
			Instruction:     instruction,
			ExportFormats:   exports,
			OutDir:          outDir,
			RenderPages:     renderPages,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	runCmd.Flags().String("format", "", "LLM rewrite format: table, summary, report, article, or custom")
	runCmd.Flags().String("instruction", "", "rewrite instruction for --format custom")
	runCmd.Flags().StringSlice("export", nil, "export formats: json, csv, xlsx, docx, txt, md")
	runCmd.Flags().String("out", "", "directory for exported files (default: export.dir from config)")
	runCmd.Flags().Bool("render", false, "rasterize pages to JPEG assets")
	runCmd.Flags().Bool("no-store", false, "skip persisting the processed document")

	rootCmd.AddCommand(runCmd)
}
