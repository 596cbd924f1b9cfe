package normalize

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/daryltucker/seqdash/internal/errors"
	"github.com/daryltucker/seqdash/internal/model"
)

var fastaSuffixes = []string{".fa", ".fasta", ".faa", ".fas"}

func isFASTA(file *Upload) bool {
	name := strings.TrimSuffix(strings.ToLower(file.Name), ".gz")
	for _, s := range fastaSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return bytes.HasPrefix(bytes.TrimLeft(file.Data, " \t\r\n\ufeff"), []byte(">"))
}

// ParseFASTA reads records; the id is the first word of each header line.
// Records with no residues are skipped; headerless ids become "fasta_sequence_{n}".
func ParseFASTA(name string, r io.Reader) ([]model.Sequence, error) {
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(errors.Validation, "could not open gzip upload", err)
		}
		defer gr.Close()
		r = gr
	}

	var (
		out  []model.Sequence
		id   string
		buf  strings.Builder
		n    int
		seen bool
	)
	flush := func() {
		if !seen {
			return
		}
		seq := Clean(buf.String())
		if seq != "" {
			rid := id
			if rid == "" {
				rid = fmt.Sprintf("fasta_sequence_%d", n)
			}
			out = append(out, model.Sequence{ID: rid, Residues: seq})
		}
		buf.Reset()
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for first := true; sc.Scan(); first = false {
		text := sc.Text()
		if first {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		line := strings.TrimSpace(text)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if line[0] == '>' {
			flush()
			n++
			seen = true
			id = ""
			if f := strings.Fields(line[1:]); len(f) > 0 {
				id = f[0]
			}
			continue
		}
		if !seen {
			return nil, errors.New(errors.Validation, "FASTA upload must start with a '>' header line")
		}
		buf.WriteString(line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.Validation, "could not read FASTA upload", err)
	}
	flush()
	return out, nil
}
