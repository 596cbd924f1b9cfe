package adapters

import (
	"context"

	"github.com/daryltucker/seqdash/internal/model"
)

// StabilityCandidates must contain a prediction object.
var StabilityCandidates = []string{"prediction"}

// stabilityRenames maps NanoMelt's column names to report columns.
var stabilityRenames = [][2]string{
	{"ID", "sequence_id"},
	{"Sequence", "sequence"},
	{"Aligned Sequence", "aligned_sequence"},
	{"NanoMelt Tm (C)", "nanomelt_tm_c"},
}

// Stability predicts apparent melting temperature via NanoMelt.
type Stability struct {
	endpoint
}

func (a *Stability) Call(ctx context.Context, seq model.Sequence, _ model.Options) (*model.Row, error) {
	resp, err := a.post(ctx, map[string]any{"sequence": seq.Residues})
	if err != nil {
		return nil, err
	}
	obj, err := a.object(resp)
	if err != nil {
		return nil, err
	}
	if _, _, ok := FirstBlock(obj, StabilityCandidates); !ok {
		return nil, shapeError(a.kind, "prediction", StabilityCandidates, obj)
	}

	row := Flatten(seq, obj, StabilityCandidates)
	for _, r := range stabilityRenames {
		if v, ok := row.Get(r[0]); ok && v == nil {
			row.Delete(r[0])
			continue
		}
		row.Rename(r[0], r[1])
	}
	return row, nil
}
