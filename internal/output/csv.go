/*
PURPOSE:
  Serialises batch rows to CSV for download and for the CLI report file.

REQUIREMENTS:
  User-specified:
  - Header is the union of row keys in first-seen order.
  - Missing cells render empty.
  - No numeric formatting beyond each scalar's native text.

  Implementation-discovered:
  - Rows are *model.Row so column order follows the service's reply.
  - json.Number keeps the service's own number text.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli, internal/dashboard
  - Consumes: []*model.Row

ERROR HANDLING:
  - Returns error on write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() before reading the buffer or closing the file.

USAGE:
  text, err := output.ToCSV(result.Rows)
  err := output.WriteCSVFile("nanomelt_results.csv", result.Rows)

SELF-HEALING INSTRUCTIONS:
  - If a new scalar type shows up in rows, extend FormatValue.

RELATED FILES:
  - internal/model/row.go

MAINTENANCE:
  - Keep FormatValue aligned with the dashboard table cells.
*/

package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/daryltucker/seqdash/internal/model"
)

// Columns returns the union of keys across rows in first-seen order.
func Columns(rows []*model.Row) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		for _, k := range r.Keys() {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

// FormatValue renders a scalar cell. nil renders empty.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

// Cells returns a row's values aligned to cols.
func Cells(r *model.Row, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		if v, ok := r.Get(c); ok {
			out[i] = FormatValue(v)
		}
	}
	return out
}

// WriteCSV writes header plus one record per row.
func WriteCSV(w io.Writer, rows []*model.Row) error {
	cw := csv.NewWriter(w)
	cols := Columns(rows)
	if err := cw.Write(cols); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(Cells(r, cols)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ToCSV returns the CSV document for rows.
func ToCSV(rows []*model.Row) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteCSVFile overwrites path with the CSV document for rows.
func WriteCSVFile(path string, rows []*model.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReportFilename is the download and on-disk name of a model's CSV report.
func ReportFilename(k model.Kind) string {
	return fmt.Sprintf("%s_results.csv", k)
}
