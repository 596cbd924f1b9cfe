package model

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestRowKeepsInsertionOrder(t *testing.T) {
	r := NewRow()
	r.Set("sequence_id", "ab1")
	r.Set("sequence", "EVQ")
	r.Set("score", 0.5)
	r.Set("sequence_id", "ab1-renamed")

	want := []string{"sequence_id", "sequence", "score"}
	if got := r.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	if v, _ := r.Get("sequence_id"); v != "ab1-renamed" {
		t.Fatalf("overwrite lost: %v", v)
	}
}

func TestRowRename(t *testing.T) {
	r := NewRow()
	r.Set("ID", "x")
	r.Set("NanoMelt Tm (C)", 61.2)
	r.Rename("NanoMelt Tm (C)", "nanomelt_tm_c")
	r.Rename("missing", "other")

	want := []string{"ID", "nanomelt_tm_c"}
	if got := r.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	if r.Has("other") {
		t.Fatalf("renaming an absent key must be a no-op")
	}
}

func TestRowRenameOntoExisting(t *testing.T) {
	r := NewRow()
	r.Set("sequence_id", "from-record")
	r.Set("ID", "from-service")
	r.Rename("ID", "sequence_id")

	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
	if v, _ := r.Get("sequence_id"); v != "from-service" {
		t.Fatalf("sequence_id = %v", v)
	}
}

func TestRowRenameKeepsPosition(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		from string
		to   string
		want []string
	}{
		{"target earlier", []string{"to", "a", "from", "b"}, "from", "to", []string{"a", "to", "b"}},
		{"target later", []string{"a", "from", "b", "to"}, "from", "to", []string{"a", "to", "b"}},
		{"same key", []string{"a", "from"}, "from", "from", []string{"a", "from"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRow()
			for i, k := range tt.keys {
				r.Set(k, i)
			}
			r.Rename(tt.from, tt.to)
			if got := r.Keys(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Keys() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRowMarshalNested(t *testing.T) {
	inner := NewRow()
	inner.Set("z", "<b>")
	inner.Set("a", nil)
	r := NewRow()
	r.Set("inner", inner)
	r.Set("n", json.Number("1.50"))
	got, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(got, &back); err != nil {
		t.Fatalf("output is not JSON: %s", got)
	}
	if !strings.HasPrefix(string(got), `{"inner":{"z":`) || !strings.Contains(string(got), `"n":1.50`) {
		t.Fatalf("got %s", got)
	}
}

func TestRowMarshalJSON(t *testing.T) {
	r := NewRow()
	r.Set("b", 1)
	r.Set("a", "x")
	got, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(got) != `{"b":1,"a":"x"}` {
		t.Fatalf("got %s", got)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		err  bool
	}{
		{in: "nanomelt", want: Stability},
		{in: "NanoMelt", want: Stability},
		{in: " AbNatiV ", want: Nativeness},
		{in: "nbframe", want: CDR3},
		{in: "alphafold", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.err {
				t.Fatalf("ParseKind(%q) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
