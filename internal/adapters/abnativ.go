package adapters

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/daryltucker/seqdash/internal/errors"
	"github.com/daryltucker/seqdash/internal/model"
)

// NativenessCandidates are the sub-objects searched for scores.
var NativenessCandidates = []string{"scores"}

const nativenessPrefix = "abnativ"

// Nativeness scores humanness/nativeness via AbNatiV.
type Nativeness struct {
	endpoint
}

func (a *Nativeness) Call(ctx context.Context, seq model.Sequence, opts model.Options) (*model.Row, error) {
	ntype := opts.NativenessType
	if ntype == "" {
		ntype = model.DefaultOptions().NativenessType
	}

	resp, err := a.post(ctx, map[string]any{
		"sequence":        seq.Residues,
		"sequence_id":     seq.ID,
		"nativeness_type": ntype,
		"do_align":        opts.DoAlign,
		"is_vhh":          opts.IsVHH,
	})
	if err != nil {
		return nil, err
	}
	obj, err := a.object(resp)
	if err != nil {
		return nil, err
	}

	_, scores, ok := FirstBlock(obj, NativenessCandidates)
	if !ok {
		return nil, shapeError(a.kind, "a scores payload", NativenessCandidates, obj)
	}
	score, err := ResolveNativenessScore(scores, ntype)
	if err != nil {
		return nil, err
	}

	row := Flatten(seq, obj, NativenessCandidates)
	out := model.NewRow()
	out.Set("sequence_id", mustGet(row, "sequence_id"))
	out.Set("sequence", mustGet(row, "sequence"))
	out.Set("nativeness_score", score)
	for _, k := range row.Keys() {
		if !out.Has(k) {
			out.Set(k, mustGet(row, k))
		}
	}
	return out, nil
}

// ResolveNativenessScore picks the score from an AbNatiV scores block.
//
// Keys are tried in this order:
//  1. "nativeness_score"
//  2. "AbNatiV Score"
//  3. "AbNatiV {type} Score"
//  4. any key starting with "abnativ" and ending with "score" (case-insensitive),
//     in lexicographic order
func ResolveNativenessScore(scores *model.Row, nativenessType string) (float64, error) {
	candidates := []string{
		"nativeness_score",
		"AbNatiV Score",
		fmt.Sprintf("AbNatiV %s Score", nativenessType),
	}

	var loose []string
	for _, k := range scores.Keys() {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, nativenessPrefix) && strings.HasSuffix(lk, "score") {
			loose = append(loose, k)
		}
	}
	sort.Strings(loose)
	candidates = append(candidates, loose...)

	for _, k := range candidates {
		v, ok := scores.Get(k)
		if !ok {
			continue
		}
		f, err := toFloat(v)
		if err != nil {
			return 0, errors.Wrap(errors.ResponseShape, fmt.Sprintf("AbNatiV score %q is not numeric", k), err)
		}
		return f, nil
	}

	available := scores.Keys()
	sort.Strings(available)
	list := strings.Join(available, ", ")
	if list == "" {
		list = "<none>"
	}
	return 0, errors.Newf(errors.ResponseShape,
		"AbNatiV response missing a recognised nativeness score. Available keys: %s.", list)
}

func mustGet(r *model.Row, k string) any {
	v, _ := r.Get(k)
	return v
}
