package adapters

import (
	"context"
	"strings"

	"github.com/daryltucker/seqdash/internal/errors"
	"github.com/daryltucker/seqdash/internal/model"
	"github.com/daryltucker/seqdash/internal/output"
)

// KinkCandidates are hoisted from each batch result.
var KinkCandidates = []string{"prediction", "scores"}

const defaultKinkBatch = 512

// Kink predicts CDR3 kink probability via NanoKink, many sequences per request.
type Kink struct {
	endpoint
}

func (a *Kink) Call(ctx context.Context, seq model.Sequence, opts model.Options) (*model.Row, error) {
	out := a.CallBatch(ctx, []model.Sequence{seq}, opts)
	return out[0].Row, out[0].Err
}

// CallBatch sends seqs in chunks of opts.BatchSize and matches results back
// to records by sequence_id, or by position when the service omits it.
func (a *Kink) CallBatch(ctx context.Context, seqs []model.Sequence, opts model.Options) []Outcome {
	size := opts.BatchSize
	if size <= 0 {
		size = defaultKinkBatch
	}
	out := make([]Outcome, len(seqs))
	for start := 0; start < len(seqs); start += size {
		end := min(start+size, len(seqs))
		a.chunk(ctx, seqs[start:end], size, opts, out[start:end])
	}
	return out
}

func (a *Kink) chunk(ctx context.Context, seqs []model.Sequence, size int, opts model.Options, out []Outcome) {
	items := make([]map[string]any, len(seqs))
	for i, s := range seqs {
		items[i] = map[string]any{"sequence_id": s.ID, "sequence": s.Residues}
	}
	resp, err := a.post(ctx, map[string]any{
		"sequences":            items,
		"batch_size":           size,
		"do_alignment":         true,
		"calculate_confidence": opts.CalculateConfidence,
		"verbose":              opts.Verbose,
	})
	if err == nil {
		err = a.match(seqs, resp, out)
	}
	if err != nil {
		for i := range out {
			out[i] = Outcome{Err: err}
		}
	}
}

func (a *Kink) match(seqs []model.Sequence, resp any, out []Outcome) error {
	results, err := Results(resp)
	if err != nil {
		return err
	}
	var failures []string
	if obj, ok := resp.(*model.Row); ok {
		failures = Failures(obj)
	}

	used := make([]bool, len(seqs))
	byPosition := 0
	for _, item := range results {
		obj, ok := item.(*model.Row)
		if !ok {
			output.Logger.Warn("nanokink: skipping non-object result", "type", item)
			continue
		}
		idx := -1
		if id, ok := obj.Get("sequence_id"); ok && id != nil {
			idx = firstUnused(seqs, used, output.FormatValue(id))
		} else if id, ok := obj.Get("name"); ok && id != nil {
			idx = firstUnused(seqs, used, output.FormatValue(id))
		} else {
			for byPosition < len(seqs) && used[byPosition] {
				byPosition++
			}
			if byPosition < len(seqs) {
				idx = byPosition
			}
		}
		if idx < 0 {
			output.Logger.Warn("nanokink: result did not match any submitted sequence", "keys", obj.Keys())
			continue
		}

		obj.Rename("name", "sequence_id")
		row := Flatten(seqs[idx], obj, KinkCandidates)
		// An object carrying only identity and failures is not a prediction.
		if !HasResultFields(row) {
			output.Logger.Debug("nanokink: result has no prediction fields", "keys", obj.Keys())
			continue
		}
		used[idx] = true
		out[idx] = Outcome{Row: row}
	}

	for i, s := range seqs {
		if used[i] {
			continue
		}
		msg := "NanoKink returned no result for this sequence"
		for _, f := range failures {
			if s.ID != "" && strings.Contains(f, s.ID) {
				msg = strings.TrimPrefix(f, s.ID+": ")
				break
			}
		}
		out[i] = Outcome{Err: errors.New(errors.ResponseShape, msg)}
	}
	return nil
}

func firstUnused(seqs []model.Sequence, used []bool, id string) int {
	for i, s := range seqs {
		if !used[i] && s.ID == id {
			return i
		}
	}
	return -1
}
