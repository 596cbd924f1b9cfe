/*
PURPOSE:
  Defines the root Cobra command for seqdash.
  Handles global flags and the shared start-up path (config, client, runner).

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config.
  - The missing base URL is reported once at start-up.

  Implementation-discovered:
  - Needs to expose ExecuteContext() for main.go so Ctrl-C cancels runs.
  - Errors already shown with pterm must not be printed twice.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/seqdash/main.go
  - Calls: Child commands (run, serve, list-models)

ERROR HANDLING:
  - Returns error to main.go for exit code handling.
  - Config load failures become Configuration errors.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands.

USAGE:
  Called by main.go.

SELF-HEALING INSTRUCTIONS:
  - If adding new global flags, add them to init().

RELATED FILES:
  - cmd/seqdash/main.go

MAINTENANCE:
  - Update when adding global configuration options.
*/

package cli

import (
	"context"
	stderrors "errors"

	"github.com/spf13/cobra"

	"github.com/daryltucker/seqdash/internal/adapters"
	"github.com/daryltucker/seqdash/internal/batch"
	"github.com/daryltucker/seqdash/internal/config"
	"github.com/daryltucker/seqdash/internal/engine"
	"github.com/daryltucker/seqdash/internal/errors"
	"github.com/daryltucker/seqdash/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "seqdash",
		Short: "Score antibody and nanobody sequences against hosted models",
		Long: `seqdash sends sequences to the managed AbNatiV, NbForge, NbFrame, NanoMelt
and NanoKink services and collects the answers into one report.

Use 'serve' for the browser dashboard or 'run' for a terminal batch.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(verbose)
		},
	}
)

// ExecuteContext executes the root command.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// reported marks an error that has already been shown to the user.
type reported struct{ error }

func (r reported) Unwrap() error { return r.error }

// Reported reports whether err was already rendered.
func Reported(err error) bool {
	var r reported
	return stderrors.As(err, &r)
}

// present renders err and marks it as shown.
func present(err error) error {
	if err == nil {
		return nil
	}
	output.PresentError(err)
	return reported{err}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, errors.Wrap(errors.Configuration, "could not load configuration", err)
	}
	return cfg, nil
}

// newRunner builds the transport and adapters. A missing base URL surfaces here.
func newRunner(cfg *config.Config) (*batch.Runner, error) {
	client, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}
	output.Logger.Debug("Using model services", "base_url", client.BaseURL())
	return batch.New(adapters.NewRegistry(client, cfg), cfg), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./seqdash.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
