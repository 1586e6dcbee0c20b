package roster

import (
	"encoding/csv"
	"io"
	"strings"
)

// Table is one parsed source file: the header row plus data rows. Rows are
// kept positional; decoding goes through a resolved FieldMap.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ReadTable parses a comma-separated source file. Quoted fields with doubled
// quote escaping are handled by encoding/csv; ragged rows are tolerated
// (short rows read as "" through FieldMap.Get). A file without a header row
// yields an empty table, not an error.
func ReadTable(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var t Table
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line: skip it, keep going. Source exports are not
			// under our control and a bad row must not sink the upload.
			if _, ok := err.(*csv.ParseError); ok {
				continue
			}
			return t, err
		}
		if first {
			for i := range rec {
				rec[i] = strings.TrimSpace(rec[i])
			}
			t.Headers = rec
			first = false
			continue
		}
		if blankRow(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// ReadTableString parses a source file held in memory.
func ReadTableString(s string) (Table, error) {
	return ReadTable(strings.NewReader(s))
}

func blankRow(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
