package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/daryltucker/seqdash/internal/model"
)

func row(kv ...any) *model.Row {
	r := model.NewRow()
	for i := 0; i < len(kv); i += 2 {
		r.Set(kv[i].(string), kv[i+1])
	}
	return r
}

func TestToCSVUnionOfColumns(t *testing.T) {
	rows := []*model.Row{
		row("sequence_id", "a", "sequence", "EVQ", "nanomelt_tm_c", json.Number("61.50")),
		row("sequence_id", "b", "sequence", "QVQ", "aligned_sequence", "QV-Q"),
		row("sequence_id", "c", "sequence", "DVQ", "nanomelt_tm_c", 58.25, "ok", true, "note", nil),
	}

	text, err := ToCSV(rows)
	if err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(text)).ReadAll()
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if len(records)-1 != len(rows) {
		t.Fatalf("data rows = %d, want %d", len(records)-1, len(rows))
	}
	wantHeader := []string{"sequence_id", "sequence", "nanomelt_tm_c", "aligned_sequence", "ok", "note"}
	if !reflect.DeepEqual(records[0], wantHeader) {
		t.Fatalf("header = %v", records[0])
	}
	if got := records[1]; !reflect.DeepEqual(got, []string{"a", "EVQ", "61.50", "", "", ""}) {
		t.Fatalf("row a = %v", got)
	}
	if got := records[2]; !reflect.DeepEqual(got, []string{"b", "QVQ", "", "QV-Q", "", ""}) {
		t.Fatalf("row b = %v", got)
	}
	if got := records[3]; !reflect.DeepEqual(got, []string{"c", "DVQ", "58.25", "", "true", ""}) {
		t.Fatalf("row c = %v", got)
	}
}

func TestToCSVQuotesCommas(t *testing.T) {
	text, err := ToCSV([]*model.Row{row("sequence_id", "x,y", "sequence", "A")})
	if err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	if !strings.Contains(text, `"x,y"`) {
		t.Fatalf("comma not quoted: %s", text)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"s", "s"},
		{json.Number("1e-05"), "1e-05"},
		{0.87, "0.87"},
		{42, "42"},
		{int64(7), "7"},
		{false, "false"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteCSVFileAndJSONL(t *testing.T) {
	dir := t.TempDir()
	rows := []*model.Row{row("sequence_id", "a", "score", 1)}

	csvPath := filepath.Join(dir, "out.csv")
	if err := WriteCSVFile(csvPath, rows); err != nil {
		t.Fatalf("WriteCSVFile: %v", err)
	}
	data, _ := os.ReadFile(csvPath)
	if string(data) != "sequence_id,score\na,1\n" {
		t.Fatalf("csv = %q", data)
	}

	jsonPath := filepath.Join(dir, "out.jsonl")
	jw, err := NewJSONWriter(jsonPath)
	if err != nil {
		t.Fatalf("NewJSONWriter: %v", err)
	}
	if err := jw.WriteAll(rows); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	jw.Close()
	data, _ = os.ReadFile(jsonPath)
	if string(data) != "{\"sequence_id\":\"a\",\"score\":1}\n" {
		t.Fatalf("jsonl = %q", data)
	}
}

func TestTableDataShortensCells(t *testing.T) {
	long := strings.Repeat("Q", 120)
	data := TableData([]*model.Row{row("sequence_id", "a", "sequence", long)})
	if len(data) != 2 {
		t.Fatalf("rows = %d", len(data))
	}
	if got := data[1][1]; len(got) != maxCellWidth || !strings.HasSuffix(got, "...") {
		t.Fatalf("cell = %q", got)
	}
}

func TestTableDataKeepsRunes(t *testing.T) {
	tests := []struct {
		name string
		cell string
	}{
		{"two-byte", strings.Repeat("é", 60)},
		{"three-byte wide", strings.Repeat("語", 30)},
		{"mixed", "nb-" + strings.Repeat("αβγ", 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TableData([]*model.Row{row("sequence_id", tt.cell)})[1][0]
			if !utf8.ValidString(got) {
				t.Fatalf("cell is not valid UTF-8: %q", got)
			}
			if !strings.HasSuffix(got, "...") || runewidth.StringWidth(got) > maxCellWidth {
				t.Fatalf("cell = %q (width %d)", got, runewidth.StringWidth(got))
			}
		})
	}
}

func TestReportFilename(t *testing.T) {
	for _, k := range model.Kinds() {
		if got, want := ReportFilename(k), string(k)+"_results.csv"; got != want {
			t.Errorf("ReportFilename(%s) = %q, want %q", k, got, want)
		}
	}
}
