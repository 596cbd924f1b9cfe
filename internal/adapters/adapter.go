/*
PURPOSE:
  One adapter per remote model. Each knows its endpoint, request shape and
  how to flatten a reply into a report row.

REQUIREMENTS:
  User-specified:
  - Build the model-specific payload from a sequence and options.
  - Validate the reply shape; name the expected keys when it is wrong.
  - A 404 means "endpoint unavailable", not a generic failure.

  Implementation-discovered:
  - Candidate sub-object keys are explicit ordered lists per adapter.
  - NanoKink accepts many sequences per request (BatchAdapter).

ARCHITECTURE INTEGRATION:
  - Called by: internal/batch
  - Uses: internal/engine (through Poster), internal/model, internal/errors

ERROR HANDLING:
  - Returns Transport or ResponseShape errors; never retries (engine does).

IMPLEMENTATION RULES:
  - Adapters hold no per-run state.
  - Response values win over record values for sequence_id and sequence.

USAGE:
  reg := adapters.NewRegistry(client, cfg)
  a, _ := reg.Get(model.Stability)
  row, err := a.Call(ctx, seq, opts)

SELF-HEALING INSTRUCTIONS:
  - If a service renames its result block, add the new key to the adapter's candidates.

RELATED FILES:
  - internal/adapters/flatten.go
  - internal/engine/client.go

MAINTENANCE:
  - Update when a model's request contract changes.
*/

package adapters

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/daryltucker/seqdash/internal/config"
	"github.com/daryltucker/seqdash/internal/engine"
	"github.com/daryltucker/seqdash/internal/errors"
	"github.com/daryltucker/seqdash/internal/model"
)

// Poster sends one JSON request. *engine.Client implements it.
type Poster interface {
	PostJSON(ctx context.Context, path string, payload any) (any, error)
}

// Adapter scores one sequence.
type Adapter interface {
	Kind() model.Kind
	Call(ctx context.Context, seq model.Sequence, opts model.Options) (*model.Row, error)
}

// Outcome is the result for one sequence of a batch call.
type Outcome struct {
	Row *model.Row
	Err error
}

// BatchAdapter scores many sequences per request.
// The returned slice is aligned with seqs.
type BatchAdapter interface {
	Adapter
	CallBatch(ctx context.Context, seqs []model.Sequence, opts model.Options) []Outcome
}

// OptionsValidator rejects options before any request is sent.
type OptionsValidator interface {
	ValidateOptions(opts model.Options) error
}

// Registry maps model kinds to adapters.
type Registry struct {
	adapters map[model.Kind]Adapter
}

// NewRegistry builds every adapter against p using the configured paths.
func NewRegistry(p Poster, cfg *config.Config) *Registry {
	ep := func(k model.Kind) endpoint {
		return endpoint{kind: k, path: cfg.Endpoint(k), poster: p}
	}
	r := &Registry{adapters: map[model.Kind]Adapter{}}
	r.Register(&Nativeness{endpoint: ep(model.Nativeness)})
	r.Register(&Structure{endpoint: ep(model.Structure)})
	r.Register(&CDR3{endpoint: ep(model.CDR3)})
	r.Register(&Stability{endpoint: ep(model.Stability)})
	r.Register(&Kink{endpoint: ep(model.Kink)})
	return r
}

// Register adds or replaces an adapter.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Kind()] = a
}

// Get returns the adapter for k.
func (r *Registry) Get(k model.Kind) (Adapter, error) {
	a, ok := r.adapters[k]
	if !ok {
		return nil, errors.Newf(errors.Validation, "no adapter registered for model %q", k)
	}
	return a, nil
}

// endpoint is embedded by every adapter.
type endpoint struct {
	kind   model.Kind
	path   string
	poster Poster
}

func (e endpoint) Kind() model.Kind { return e.kind }

// Path returns the endpoint path relative to the base URL.
func (e endpoint) Path() string { return e.path }

// post sends payload and turns a 404 into "endpoint unavailable".
// Service-reported failures become the call's error.
func (e endpoint) post(ctx context.Context, payload map[string]any) (any, error) {
	resp, err := e.poster.PostJSON(ctx, e.path, payload)
	if err != nil {
		var se *engine.StatusError
		if stderrors.As(err, &se) && engine.IsNotFound(se) {
			return nil, errors.Wrap(errors.Transport,
				fmt.Sprintf("%s API endpoint is unavailable", e.kind.DisplayName()), se)
		}
		return nil, err
	}
	return resp, nil
}

// object asserts a single-object reply and surfaces its failures.
func (e endpoint) object(resp any) (*model.Row, error) {
	obj, ok := resp.(*model.Row)
	if !ok {
		return nil, errors.Newf(errors.ResponseShape, "%s returned a non-object payload (%T).", e.kind.DisplayName(), resp)
	}
	if failures := Failures(obj); len(failures) > 0 {
		return nil, errors.New(errors.ResponseShape, strings.Join(failures, "; "))
	}
	return obj, nil
}
