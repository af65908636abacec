package table

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
)

// Writer writes the annotation table as CSV or TSV.
type Writer struct {
	Sep rune // ',' (default) or '\t'
	// Separate restricts output to the sequence, accession and annotation
	// columns, dropping the original quant matrix and metadata.
	Separate bool
}

// Write serializes the table. Missing numeric cells (NaN) become empty
// fields; Inf values are written as +Inf/-Inf, never clamped.
func (wr *Writer) Write(w io.Writer, t *Table) error {
	sep := wr.Sep
	if sep == 0 {
		sep = ','
	}
	c := csv.NewWriter(w)
	c.Comma = sep

	cols := t.Columns()
	if wr.Separate {
		var kept []*Column
		for _, col := range cols {
			switch col.Role {
			case RoleMeta, RoleQuant:
			default:
				kept = append(kept, col)
			}
		}
		cols = kept
	}

	header := make([]string, len(cols))
	for j, col := range cols {
		header[j] = col.Name
	}
	if err := c.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(cols))
	for i := 0; i < t.NumRows(); i++ {
		for j, col := range cols {
			if col.Numeric() {
				rec[j] = formatCell(col.Float[i])
			} else {
				rec[j] = col.Str[i]
			}
		}
		if err := c.Write(rec); err != nil {
			return err
		}
	}
	c.Flush()
	return c.Error()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
