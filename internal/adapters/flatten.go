package adapters

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/daryltucker/seqdash/internal/errors"
	"github.com/daryltucker/seqdash/internal/model"
	"github.com/daryltucker/seqdash/internal/output"
)

// IsScalar reports whether v can be a report cell.
func IsScalar(v any) bool {
	switch v.(type) {
	case nil, string, json.Number, bool, float64, int, int64:
		return true
	}
	return false
}

// Flatten builds a row from one reply object.
//
// Order of precedence, lowest first:
//  1. sequence_id and sequence from the record
//  2. scalars of each candidate sub-object, in candidate order
//  3. top-level scalars that are not candidate keys
//  4. sequence and sequence_id echoed by the service
func Flatten(seq model.Sequence, resp *model.Row, candidates []string) *model.Row {
	row := model.NewRow()
	row.Set("sequence_id", seq.ID)
	row.Set("sequence", seq.Residues)

	skip := map[string]bool{"sequence": true, "sequence_id": true}
	for _, key := range candidates {
		skip[key] = true
		v, _ := resp.Get(key)
		block, ok := v.(*model.Row)
		if !ok {
			continue
		}
		hoist(row, block)
	}

	for _, k := range resp.Keys() {
		if skip[k] {
			continue
		}
		if v, _ := resp.Get(k); IsScalar(v) {
			row.Set(k, v)
		}
	}

	for _, k := range []string{"sequence", "sequence_id"} {
		if v, ok := resp.Get(k); ok && IsScalar(v) && v != nil {
			row.Set(k, v)
		}
	}
	return row
}

func hoist(row, block *model.Row) {
	for _, k := range block.Keys() {
		if v, _ := block.Get(k); IsScalar(v) {
			row.Set(k, v)
		}
	}
}

// FirstBlock returns the first candidate key holding an object.
func FirstBlock(resp *model.Row, candidates []string) (string, *model.Row, bool) {
	for _, key := range candidates {
		v, _ := resp.Get(key)
		if block, ok := v.(*model.Row); ok {
			return key, block, true
		}
	}
	return "", nil, false
}

// HasResultFields reports whether row carries anything beyond the identity columns.
func HasResultFields(row *model.Row) bool {
	for _, k := range row.Keys() {
		if k != "sequence_id" && k != "sequence" {
			return true
		}
	}
	return false
}

// Failures reads a top-level "failures" array, if any.
func Failures(resp *model.Row) []string {
	v, _ := resp.Get("failures")
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
			continue
		}
		if IsScalar(item) {
			out = append(out, output.FormatValue(item))
			continue
		}
		b, _ := json.Marshal(item)
		out = append(out, string(b))
	}
	return out
}

// Results normalises single, batch ({"results": [...]}) and bare-list replies.
func Results(resp any) ([]any, error) {
	switch x := resp.(type) {
	case *model.Row:
		if v, ok := x.Get("results"); ok {
			if list, ok := v.([]any); ok {
				return list, nil
			}
		}
		return []any{x}, nil
	case []any:
		return x, nil
	}
	return nil, errors.Newf(errors.ResponseShape, "unexpected payload shape %T", resp)
}

// shapeError names the keys that were expected.
func shapeError(kind model.Kind, what string, candidates []string, resp *model.Row) error {
	available := strings.Join(resp.Keys(), ", ")
	if available == "" {
		available = "<none>"
	}
	return errors.Newf(errors.ResponseShape,
		"%s response missing %s (expected one of: %s; got: %s).",
		kind.DisplayName(), what, strings.Join(candidates, ", "), available)
}

// toFloat accepts the numeric forms a JSON reply can carry.
func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Float64()
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	return 0, fmt.Errorf("value %v (%T) is not numeric", v, v)
}
