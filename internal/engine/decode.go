package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iancoleman/orderedmap"

	"github.com/daryltucker/seqdash/internal/model"
)

// Decode parses a JSON document, keeping object key order.
// Objects become *model.Row, arrays []any and numbers json.Number.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return decodeRaw(raw)
}

func decodeRaw(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, io.ErrUnexpectedEOF
	}

	switch trimmed[0] {
	case '{':
		om := orderedmap.New()
		om.SetUseNumber(true)
		if err := json.Unmarshal(trimmed, om); err != nil {
			return nil, err
		}
		return fromOrdered(om), nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		arr := make([]any, 0, len(items))
		for _, item := range items {
			v, err := decodeRaw(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func fromOrdered(om *orderedmap.OrderedMap) *model.Row {
	row := model.NewRow()
	for _, k := range om.Keys() {
		v, _ := om.Get(k)
		row.Set(k, convert(v))
	}
	return row
}

// convert turns nested ordered maps into rows, recursively.
func convert(v any) any {
	switch x := v.(type) {
	case orderedmap.OrderedMap:
		return fromOrdered(&x)
	case *orderedmap.OrderedMap:
		return fromOrdered(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = convert(item)
		}
		return out
	case float64:
		return json.Number(strconv.FormatFloat(x, 'g', -1, 64))
	}
	return v
}
