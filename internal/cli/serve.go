package cli

import (
	"github.com/spf13/cobra"

	"github.com/daryltucker/seqdash/internal/dashboard"
	"github.com/daryltucker/seqdash/internal/output"
)

var listenOverride string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser dashboard",
	Long: `Serves the dashboard on --listen (default :8501).

If the service base URL is not configured the dashboard still starts, shows
the problem on every page and refuses to run batches.`,
	Example: `  SEQUENCE_LIBRARIES_URL=https://models.example.org seqdash serve --listen :8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return present(err)
		}
		if listenOverride != "" {
			cfg.Listen = listenOverride
		}

		var runner dashboard.Runner
		r, cfgErr := newRunner(cfg)
		if cfgErr != nil {
			output.PresentError(cfgErr)
		} else {
			runner = r
		}
		return dashboard.New(cfg, runner, cfgErr).ListenAndServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&listenOverride, "listen", "l", "", "address to listen on (overrides config)")
}
