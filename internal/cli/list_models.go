/*
PURPOSE:
  Defines the 'list-models' subcommand.
  Shows which model services seqdash talks to and what input each accepts.

REQUIREMENTS:
  User-specified:
  - List available models.

  Implementation-discovered:
  - Useful validation step before a full run: shows the resolved endpoint
    URLs, so a wrong base URL or path override is visible immediately.

ARCHITECTURE INTEGRATION:
  - Uses: internal/config, internal/engine (URL building), internal/normalize (policy)

ERROR HANDLING:
  - A missing base URL still lists the models, with paths instead of URLs.

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  seqdash list-models

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/config/config.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/daryltucker/seqdash/internal/engine"
	"github.com/daryltucker/seqdash/internal/model"
	"github.com/daryltucker/seqdash/internal/normalize"
)

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List the model services and their input rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return present(err)
		}

		client, err := engine.New(cfg)
		if err != nil {
			pterm.Warning.Println(err.Error())
		}

		data := [][]string{{"Model", "Name", "Endpoint", "Min length", "Alphabet"}}
		for _, k := range model.Kinds() {
			endpoint := cfg.Endpoint(k)
			if client != nil {
				endpoint = client.URL(endpoint)
			}
			p := normalize.PolicyFor(cfg, k)
			minLen, alphabet := "-", "any"
			if p.MinLength > 0 {
				minLen = fmt.Sprint(p.MinLength)
			}
			if p.Alphabet != "" {
				alphabet = p.Alphabet
			}
			data = append(data, []string{string(k), k.DisplayName(), endpoint, minLen, alphabet})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

func init() {
	rootCmd.AddCommand(listModelsCmd)
}
