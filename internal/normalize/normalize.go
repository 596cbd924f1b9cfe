/*
PURPOSE:
  Turns raw user input (text area and/or uploaded file) into an ordered list
  of cleaned sequences ready for dispatch.

REQUIREMENTS:
  User-specified:
  - Manual text becomes one record named "manual_sequence".
  - CSV uploads need a sequence column; an id column is optional.
  - File records come before the manual record.

  Implementation-discovered:
  - Header matching is case-insensitive; first matching column wins.
  - Generated ids count data rows (header excluded), so skipped blanks still
    advance the counter.
  - FASTA uploads are accepted too (see fasta.go).

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (run), internal/dashboard
  - Produces: []model.Sequence

ERROR HANDLING:
  - Returns a Validation error for a missing sequence column or empty input.

IMPLEMENTATION RULES:
  - Use encoding/csv, tolerant of ragged rows.
  - Never reorder records.

USAGE:
  seqs, err := normalize.Gather(text, &normalize.Upload{Name: "in.csv", Data: b})

SELF-HEALING INSTRUCTIONS:
  - If users report "missing sequence column", extend SequenceColumns.

RELATED FILES:
  - internal/normalize/fasta.go
  - internal/normalize/policy.go

MAINTENANCE:
  - Keep synonyms in sync with the dashboard help text.
*/

package normalize

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/daryltucker/seqdash/internal/errors"
	"github.com/daryltucker/seqdash/internal/model"
)

// ManualID names the record built from the text area.
const ManualID = "manual_sequence"

var (
	// SequenceColumns are accepted sequence header names (lower-cased).
	SequenceColumns = []string{"sequence", "heavy_chain", "heavychain", "vh", "vh_sequence"}
	// IDColumns are accepted identifier header names (lower-cased).
	IDColumns = []string{"id", "name", "sequence_id"}
)

// Upload is a user-supplied file.
type Upload struct {
	Name string
	Data []byte
}

// Clean strips surrounding whitespace and embedded line breaks.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", "")
}

// Records cleans (id, sequence) pairs, dropping blank sequences.
// Blank ids become "sequence_{n}" where n is the 1-based input position.
func Records(pairs []model.Sequence) []model.Sequence {
	out := make([]model.Sequence, 0, len(pairs))
	for i, p := range pairs {
		seq := Clean(p.Residues)
		if seq == "" {
			continue
		}
		id := strings.TrimSpace(p.ID)
		if id == "" {
			id = fmt.Sprintf("sequence_%d", i+1)
		}
		out = append(out, model.Sequence{ID: id, Residues: seq})
	}
	return out
}

// Gather combines file and manual input. file may be nil.
func Gather(manual string, file *Upload) ([]model.Sequence, error) {
	var seqs []model.Sequence

	if file != nil && len(file.Data) > 0 {
		parsed, err := ParseFile(file)
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, parsed...)
	}

	if m := Clean(manual); m != "" {
		seqs = append(seqs, model.Sequence{ID: ManualID, Residues: m})
	}

	if len(seqs) == 0 {
		return nil, errors.New(errors.Validation, "no sequences provided: enter a sequence or upload a CSV/FASTA file")
	}
	return seqs, nil
}

// ParseFile dispatches on the upload's name and content.
func ParseFile(file *Upload) ([]model.Sequence, error) {
	if isFASTA(file) {
		return ParseFASTA(file.Name, bytes.NewReader(file.Data))
	}
	return ParseCSV(bytes.NewReader(file.Data))
}

// ParseCSV reads a comma- or tab-delimited file with a header row.
func ParseCSV(r io.Reader) ([]model.Sequence, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.Validation, "missing sequence column: uploaded CSV has no header")
	}
	if err != nil {
		return nil, errors.Wrap(errors.Validation, "could not read CSV header", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	seqCol := findColumn(header, SequenceColumns)
	if seqCol < 0 {
		return nil, errors.Newf(errors.Validation,
			"missing sequence column: CSV needs a column named one of %s", strings.Join(SequenceColumns, ", "))
	}
	idCol := findColumn(header, IDColumns)

	var out []model.Sequence
	for n := 1; ; n++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.Validation, fmt.Sprintf("could not read CSV row %d", n), err)
		}
		seq := Clean(cell(row, seqCol))
		if seq == "" {
			continue
		}
		id := strings.TrimSpace(cell(row, idCol))
		if id == "" {
			id = fmt.Sprintf("csv_sequence_%d", n)
		}
		out = append(out, model.Sequence{ID: id, Residues: seq})
	}
	return out, nil
}

// sniffDelimiter picks tab for a header line that has tabs and no commas.
func sniffDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(br.Size())
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.IndexByte(head, '\t') >= 0 && bytes.IndexByte(head, ',') < 0 {
		return '\t'
	}
	return ','
}

func findColumn(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
