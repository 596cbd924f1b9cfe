package adapters

import (
	"context"

	"github.com/daryltucker/seqdash/internal/errors"
	"github.com/daryltucker/seqdash/internal/model"
)

// CDR3Candidates are hoisted in this order.
var CDR3Candidates = []string{"prediction", "result", "scores", "probabilities", "thresholds"}

// CDR3 classifies CDR3 conformation (kinked/extended) via NbFrame.
type CDR3 struct {
	endpoint
}

// ValidateOptions rejects an extended threshold above the kinked one.
func (a *CDR3) ValidateOptions(opts model.Options) error {
	if opts.KinkedThreshold < 0 || opts.KinkedThreshold > 1 || opts.ExtendedThreshold < 0 || opts.ExtendedThreshold > 1 {
		return errors.New(errors.Validation, "NbFrame thresholds must be between 0 and 1.")
	}
	if opts.ExtendedThreshold > opts.KinkedThreshold {
		return errors.New(errors.Validation, "Extended threshold cannot be greater than kinked threshold.")
	}
	return nil
}

func (a *CDR3) Call(ctx context.Context, seq model.Sequence, opts model.Options) (*model.Row, error) {
	resp, err := a.post(ctx, map[string]any{
		"sequence":           seq.Residues,
		"sequence_id":        seq.ID,
		"kinked_threshold":   opts.KinkedThreshold,
		"extended_threshold": opts.ExtendedThreshold,
		"mode":               "sequence",
	})
	if err != nil {
		return nil, err
	}
	obj, err := a.object(resp)
	if err != nil {
		return nil, err
	}

	if _, _, ok := FirstBlock(obj, CDR3Candidates); !ok {
		return nil, shapeError(a.kind, "a prediction", CDR3Candidates, obj)
	}
	row := Flatten(seq, obj, CDR3Candidates)
	if !row.Has("probability") {
		if v, ok := row.Get("prob_kinked"); ok {
			row.Set("probability", v)
		}
	}
	return row, nil
}
