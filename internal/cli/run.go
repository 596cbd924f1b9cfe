/*
PURPOSE:
  Defines the 'run' subcommand.
  Scores sequences from the command line or a file against one model and
  prints the report.

REQUIREMENTS:
  User-specified:
  - Same inputs as the dashboard: a manual sequence and/or a CSV/FASTA file.
  - Show a progress indicator, a results table, the success count and the
    per-sequence failures.
  - Save the report as {model}_results.csv.

  Implementation-discovered:
  - A JSON Lines copy is handy for piping into jq.
  - Model options are plain flags; each adapter ignores the ones it does not use.

ARCHITECTURE INTEGRATION:
  - Calls: internal/normalize.Gather, internal/batch.Runner.Run
  - Uses: internal/output for rendering and files

ERROR HANDLING:
  - Configuration/Validation errors are rendered and stop the command.
  - A run where every sequence failed renders the failures and exits non-zero.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Gather -> Run -> Render -> Write.

USAGE:
  seqdash run --model nanomelt --file seqs.csv -o ./reports

SELF-HEALING INSTRUCTIONS:
  - Check flag names match model.Options fields.

RELATED FILES:
  - internal/cli/root.go
  - internal/model/types.go

MAINTENANCE:
  - Update when a model gains options.
*/

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/daryltucker/seqdash/internal/errors"
	"github.com/daryltucker/seqdash/internal/model"
	"github.com/daryltucker/seqdash/internal/normalize"
	"github.com/daryltucker/seqdash/internal/output"
)

var (
	modelName      string
	sequenceText   string
	inputFile      string
	outputOverride string
	noFiles        bool
	jsonLines      bool
	runOpts        = model.DefaultOptions()
	noAlign        bool
	noMinimize     bool
)

var runCmd = &cobra.Command{
	Use:   "run [ID=SEQUENCE ...]",
	Short: "Score sequences against one model",
	Long: `Sends every sequence to the chosen model service and collects the answers.

Sequences come from --sequence, --file (CSV with a sequence column, or FASTA)
and positional arguments. File records come first, then --sequence, then
arguments; an argument without "ID=" is named sequence_{n}. Sequences that fail are listed after the
table; the rest are written to <output-dir>/<model>_results.csv and .jsonl.`,
	Example: `  # One sequence
  seqdash run --model nanomelt --sequence EVQLVESGGGLVQPGGSLRLSCAAS

  # Named sequences as arguments, rows piped to jq
  seqdash run --model nanomelt --jsonl --no-save nb1=EVQLVESGG nb2=QVQLQESGG | jq .

  # A CSV with id and sequence columns, four requests in flight
  SEQDASH_CONCURRENCY=4 seqdash run --model abnativ --file library.csv -o ./reports

  # NbFrame with custom thresholds
  seqdash run --model nbframe --file nanobodies.fasta --kinked-threshold 0.8`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return present(err)
		}
		if outputOverride != "" {
			cfg.OutputDir = outputOverride
		}

		kind, err := model.ParseKind(modelName)
		if err != nil {
			return present(errors.Wrap(errors.Validation, "choose a model with --model", err))
		}

		var upload *normalize.Upload
		if inputFile != "" {
			data, err := os.ReadFile(inputFile)
			if err != nil {
				return present(errors.Wrap(errors.Validation, "could not read input file", err))
			}
			upload = &normalize.Upload{Name: filepath.Base(inputFile), Data: data}
		}
		positional := normalize.Records(argSequences(args))
		var seqs []model.Sequence
		if sequenceText != "" || upload != nil || len(positional) == 0 {
			seqs, err = normalize.Gather(sequenceText, upload)
			if err != nil {
				return present(err)
			}
		}
		seqs = append(seqs, positional...)

		runner, err := newRunner(cfg)
		if err != nil {
			return present(err)
		}

		opts := runOpts
		opts.DoAlign = !noAlign
		opts.Minimize = !noMinimize

		done := output.StartSpinner(fmt.Sprintf("Running %s on %d sequence(s)...", kind.DisplayName(), len(seqs)))
		res, err := runner.Run(cmd.Context(), model.BatchRequest{Model: kind, Sequences: seqs, Options: opts})
		if err != nil {
			done(false, "Run aborted")
			return present(err)
		}
		done(!res.AllFailed(), fmt.Sprintf("%s finished", kind.DisplayName()))

		if jsonLines {
			if err := output.NewJSONStream(cmd.OutOrStdout()).WriteAll(res.Rows); err != nil {
				return err
			}
			for _, f := range res.Failures {
				output.Logger.Warn("Sequence failed", "failure", f)
			}
		} else {
			output.RenderResult(res)
		}
		if res.AllFailed() {
			return reported{fmt.Errorf("%s processing failed for all sequences", kind.DisplayName())}
		}
		if noFiles {
			return nil
		}
		return writeReport(cfg.OutputDir, res)
	},
}

// argSequences turns "ID=SEQ" or bare "SEQ" arguments into records.
func argSequences(args []string) []model.Sequence {
	out := make([]model.Sequence, 0, len(args))
	for _, a := range args {
		id, seq, ok := strings.Cut(a, "=")
		if !ok {
			id, seq = "", a
		}
		out = append(out, model.Sequence{ID: id, Residues: seq})
	}
	return out
}

func writeReport(dir string, res model.BatchResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	csvPath := filepath.Join(dir, output.ReportFilename(res.Model))
	if err := output.WriteCSVFile(csvPath, res.Rows); err != nil {
		return fmt.Errorf("failed to write CSV report at %s: %w", csvPath, err)
	}

	jsonPath := filepath.Join(dir, fmt.Sprintf("%s_results.jsonl", res.Model))
	jw, err := output.NewJSONWriter(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to init JSON writer at %s: %w", jsonPath, err)
	}
	if err := jw.WriteAll(res.Rows); err != nil {
		jw.Close()
		return fmt.Errorf("failed to write JSON report at %s: %w", jsonPath, err)
	}
	if err := jw.Close(); err != nil {
		return err
	}

	pterm.Info.Printfln("Report saved to %s and %s", csvPath, jsonPath)
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringVarP(&modelName, "model", "m", "", "model to run: abnativ, nbforge, nbframe, nanomelt or nanokink")
	f.StringVarP(&sequenceText, "sequence", "s", "", "a single amino-acid sequence")
	f.StringVarP(&inputFile, "file", "f", "", "CSV or FASTA file of sequences")
	f.StringVarP(&outputOverride, "output-dir", "o", "", "directory for the CSV/JSONL report (overrides config)")
	f.BoolVar(&noFiles, "no-save", false, "print the table only, do not write report files")
	f.BoolVar(&jsonLines, "jsonl", false, "print rows as JSON Lines on stdout instead of a table")

	// AbNatiV
	f.StringVar(&runOpts.NativenessType, "nativeness-type", runOpts.NativenessType, "AbNatiV model: VH, VKappa, VLambda, VHH or VH2")
	f.BoolVar(&noAlign, "no-align", false, "AbNatiV: skip alignment")
	f.BoolVar(&runOpts.IsVHH, "vhh", false, "AbNatiV: treat sequences as VHH")

	// NbForge
	f.BoolVar(&runOpts.UseGPU, "gpu", false, "NbForge: run on GPU")
	f.StringVar(&runOpts.GPUDevice, "gpu-device", "", "NbForge: GPU device id (default 0)")
	f.BoolVar(&noMinimize, "no-minimize", false, "NbForge: skip energy minimisation")
	f.BoolVar(&runOpts.IncludeNbFrame, "with-nbframe", false, "NbForge: also run NbFrame")

	// NbFrame
	f.Float64Var(&runOpts.KinkedThreshold, "kinked-threshold", runOpts.KinkedThreshold, "NbFrame: probability at or above which CDR3 is kinked")
	f.Float64Var(&runOpts.ExtendedThreshold, "extended-threshold", runOpts.ExtendedThreshold, "NbFrame: probability at or below which CDR3 is extended")

	// NanoKink
	f.IntVar(&runOpts.BatchSize, "batch-size", runOpts.BatchSize, "NanoKink: sequences per request")
	f.BoolVar(&runOpts.CalculateConfidence, "confidence", false, "NanoKink: compute confidence estimates")
	f.BoolVar(&runOpts.Verbose, "model-verbose", false, "NanoKink: ask the service for verbose output")

	_ = runCmd.MarkFlagRequired("model")
}
