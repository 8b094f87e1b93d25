package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	quire "github.com/nevindra/quire"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the configured LLM endpoint",
	Long: `Models queries the configured provider's model listing endpoint and
prints what the API key can reach. Useful for checking credentials and
picking a value for llm.model. Only OpenAI-compatible providers expose
a listing endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := buildProvider()
		if err != nil {
			return err
		}
		if provider == nil {
			return errors.New("llm.api_key is not configured")
		}
		lister, ok := provider.(quire.ModelLister)
		if !ok {
			return fmt.Errorf("provider %s has no model listing endpoint", cfg.LLM.Provider)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		models, err := lister.ListModels(ctx)
		if err != nil {
			return err
		}
		sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

		for _, m := range models {
			if m.OwnedBy != "" {
				fmt.Printf("%s\t%s\n", m.ID, m.OwnedBy)
				continue
			}
			fmt.Println(m.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
