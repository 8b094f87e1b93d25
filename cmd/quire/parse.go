package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	quire "github.com/nevindra/quire"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Extract text from a document",
	Long: `Parse runs only the extraction stage and prints the text to stdout.
With --json it prints a summary instead: media type, page count, text
length, embedded image count, and extraction warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)

		parser, err := buildParser(logger)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		res, err := parser.Parse(cmd.Context(), quire.ParseRequest{
			Name: filepath.Base(args[0]),
			Data: data,
		})
		if err != nil {
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"name":       filepath.Base(args[0]),
				"media_type": res.MediaType,
				"page_count": res.PageCount,
				"chars":      len(res.Text),
				"images":     len(res.Images),
				"warnings":   res.Warnings,
			})
		}

		for _, w := range res.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
		fmt.Println(res.Text)
		return nil
	},
}

func init() {
	parseCmd.Flags().Bool("json", false, "print an extraction summary as JSON instead of the text")

	rootCmd.AddCommand(parseCmd)
}
