package adapters

import (
	"context"

	"github.com/daryltucker/seqdash/internal/model"
)

// StructureCandidates are hoisted in this order.
var StructureCandidates = []string{"summary", "prediction", "result", "scores"}

// Structure predicts nanobody structures via NbForge.
type Structure struct {
	endpoint
}

func (a *Structure) Call(ctx context.Context, seq model.Sequence, opts model.Options) (*model.Row, error) {
	payload := map[string]any{
		"sequence":    seq.Residues,
		"vhh_name":    seq.ID,
		"VHH_name":    seq.ID,
		"no_minimize": !opts.Minimize,
		"nbframe":     opts.IncludeNbFrame,
		"cpu":         !opts.UseGPU,
	}
	if opts.UseGPU {
		device := opts.GPUDevice
		if device == "" {
			device = "0"
		}
		payload["gpu"] = device
	}

	resp, err := a.post(ctx, payload)
	if err != nil {
		return nil, err
	}
	obj, err := a.object(resp)
	if err != nil {
		return nil, err
	}

	if _, _, ok := FirstBlock(obj, StructureCandidates); !ok {
		return nil, shapeError(a.kind, "structure results", StructureCandidates, obj)
	}
	return Flatten(seq, obj, StructureCandidates), nil
}
