/*
PURPOSE:
  Orchestrates one "Run": dispatches every sequence of a BatchRequest to the
  chosen model adapter and collects rows and per-record failures.

REQUIREMENTS:
  User-specified:
  - One failing sequence never aborts the batch.
  - Failures read "{sequence_id}: {message}".
  - Rows come back in input order.

  Implementation-discovered:
  - Bounded concurrency (config.Concurrency) so the services are not flooded.
  - Adapters that accept many sequences per request (NanoKink) get the whole
    eligible set in one call.
  - Input policy (alphabet, min length) is checked here, per record.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (run), internal/dashboard (POST /run)
  - Uses: internal/adapters, internal/normalize, internal/config

ERROR HANDLING:
  - Run returns an error only for problems that stop the whole batch before
    any request: unknown model, invalid options, no sequences.
  - Everything else lands in BatchResult.Failures.

IMPLEMENTATION RULES:
  - Results are written into a pre-sized slot slice indexed by input position.
  - Workers never return errors to the errgroup; a failure is data.

USAGE:
  r := batch.New(adapters.NewRegistry(client, cfg), cfg)
  res, err := r.Run(ctx, req)

SELF-HEALING INSTRUCTIONS:
  - If rows+failures ever differs from the input count, look at slot filling.

RELATED FILES:
  - internal/adapters/adapter.go
  - internal/model/types.go

MAINTENANCE:
  - Update when adding progress reporting.
*/

package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/daryltucker/seqdash/internal/adapters"
	"github.com/daryltucker/seqdash/internal/config"
	"github.com/daryltucker/seqdash/internal/errors"
	"github.com/daryltucker/seqdash/internal/model"
	"github.com/daryltucker/seqdash/internal/normalize"
	"github.com/daryltucker/seqdash/internal/output"
)

// Runner executes batch requests. It is safe for concurrent use.
type Runner struct {
	Registry *adapters.Registry
	Config   *config.Config
}

// New creates a Runner.
func New(reg *adapters.Registry, cfg *config.Config) *Runner {
	return &Runner{Registry: reg, Config: cfg}
}

// Run dispatches req and returns the aggregated result.
func (r *Runner) Run(ctx context.Context, req model.BatchRequest) (model.BatchResult, error) {
	res := model.BatchResult{Model: req.Model}

	a, err := r.Registry.Get(req.Model)
	if err != nil {
		return res, err
	}
	if v, ok := a.(adapters.OptionsValidator); ok {
		if err := v.ValidateOptions(req.Options); err != nil {
			return res, err
		}
	}
	if len(req.Sequences) == 0 {
		return res, errors.New(errors.Validation, "no sequences provided")
	}

	runID := uuid.NewString()
	log := output.Logger.With("run", runID, "model", req.Model)
	log.Info("Starting batch", "sequences", len(req.Sequences), "concurrency", r.Config.Concurrency)
	start := time.Now()

	slots := make([]adapters.Outcome, len(req.Sequences))
	policy := normalize.PolicyFor(r.Config, req.Model)

	pending := make([]int, 0, len(req.Sequences))
	for i, s := range req.Sequences {
		if policy.Enabled() {
			if err := policy.Check(s.Residues); err != nil {
				slots[i] = adapters.Outcome{Err: err}
				continue
			}
		}
		pending = append(pending, i)
	}

	if ba, ok := a.(adapters.BatchAdapter); ok {
		r.dispatchBatch(ctx, ba, req, pending, slots)
	} else {
		r.dispatch(ctx, a, req, pending, slots)
	}

	for i, s := range req.Sequences {
		o := slots[i]
		switch {
		case o.Err != nil:
			res.Failures = append(res.Failures, fmt.Sprintf("%s: %s", s.ID, o.Err))
		case o.Row == nil:
			res.Failures = append(res.Failures, fmt.Sprintf("%s: %s returned no result", s.ID, req.Model.DisplayName()))
		default:
			res.Rows = append(res.Rows, o.Row)
		}
	}

	log.Info("Batch finished", "rows", len(res.Rows), "failures", len(res.Failures), "duration", time.Since(start).Round(time.Millisecond))
	return res, nil
}

// dispatch calls a once per pending record, at most Config.Concurrency at a time.
func (r *Runner) dispatch(ctx context.Context, a adapters.Adapter, req model.BatchRequest, pending []int, slots []adapters.Outcome) {
	var g errgroup.Group
	g.SetLimit(max(r.Config.Concurrency, 1))

	for _, i := range pending {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				slots[i] = adapters.Outcome{Err: errors.Wrap(errors.Transport, "run cancelled", err)}
				return nil
			}
			seq := req.Sequences[i]
			row, err := a.Call(ctx, seq, req.Options)
			if err != nil {
				output.Logger.Debug("Sequence failed", "sequence_id", seq.ID, "error", err)
			}
			slots[i] = adapters.Outcome{Row: row, Err: err}
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Runner) dispatchBatch(ctx context.Context, a adapters.BatchAdapter, req model.BatchRequest, pending []int, slots []adapters.Outcome) {
	if len(pending) == 0 {
		return
	}
	seqs := make([]model.Sequence, len(pending))
	for j, i := range pending {
		seqs[j] = req.Sequences[i]
	}
	out := a.CallBatch(ctx, seqs, req.Options)
	for j, i := range pending {
		if j < len(out) {
			slots[i] = out[j]
		}
	}
}
