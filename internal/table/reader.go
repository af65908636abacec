package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Schema tells the reader how to type the input columns. The quant marker
// pattern distinguishes quantification channels from metadata; the sequence
// and accession column names come from the upstream column adapter (or the
// command line).
type Schema struct {
	QuantPattern *regexp.Regexp
	SeqColumn    string
	AccColumn    string
	// FillNA, when non-nil, replaces missing quant cells with its value.
	FillNA *float64
}

// Reader reads a peptide table from a CSV or TSV export.
type Reader struct {
	Schema Schema
	// Sep is the field separator. Zero means sniff: comma first, with a
	// fallback to semicolon when the header parses as a single field
	// (common in European-locale exports).
	Sep rune
	Log *zap.Logger
}

// Read materializes the full table. Input bytes pass through a
// charset-detecting reader first, so non-UTF-8 instrument exports are
// accepted.
func (rd *Reader) Read(r io.Reader) (*Table, error) {
	logger := rd.Log
	if logger == nil {
		logger = zap.NewNop()
	}
	if rd.Schema.QuantPattern == nil {
		return nil, fmt.Errorf("table: no quant-column pattern configured")
	}

	cr, err := charset.NewReader(r, "text/csv")
	if err != nil {
		return nil, fmt.Errorf("table: charset detection: %w", err)
	}
	raw, err := io.ReadAll(cr)
	if err != nil {
		return nil, fmt.Errorf("table: read input: %w", err)
	}

	recs, err := rd.parse(raw)
	if err != nil {
		return nil, err
	}
	if len(recs) < 1 {
		return nil, fmt.Errorf("table: input has no header row")
	}
	header := recs[0]
	rows := recs[1:]

	t := New(len(rows))
	quantCols := 0
	for j, name := range header {
		role := rd.roleOf(name)
		if role == RoleQuant {
			quantCols++
			vals := make([]float64, len(rows))
			bad := 0
			for i, rec := range rows {
				vals[i], err = parseCell(rec[j])
				if err != nil {
					bad++
					vals[i] = math.NaN()
				}
				if math.IsNaN(vals[i]) && rd.Schema.FillNA != nil {
					vals[i] = *rd.Schema.FillNA
				}
			}
			if bad > 0 {
				logger.Warn("non-numeric quant values coerced to missing",
					zap.String("column", name), zap.Int("cells", bad))
			}
			if err := t.AppendFloat(name, role, vals); err != nil {
				return nil, err
			}
			continue
		}
		vals := make([]string, len(rows))
		for i, rec := range rows {
			vals[i] = strings.TrimSpace(rec[j])
		}
		if err := t.AppendStr(name, role, vals); err != nil {
			return nil, err
		}
	}
	if quantCols == 0 {
		return nil, fmt.Errorf("table: no columns match quant pattern %q",
			rd.Schema.QuantPattern)
	}
	logger.Info("read peptide table",
		zap.Int("rows", t.NumRows()),
		zap.Int("columns", t.NumCols()),
		zap.Int("quantChannels", quantCols))
	return t, nil
}

func (rd *Reader) parse(raw []byte) ([][]string, error) {
	sep := rd.Sep
	if sep == 0 {
		sep = sniffSep(raw)
	}
	recs, err := readAll(raw, sep)
	if err != nil {
		return nil, fmt.Errorf("table: parse input: %w", err)
	}
	return recs, nil
}

// sniffSep guesses the field separator from the header line: a header that
// parses as a single comma-separated field yet contains semicolons comes
// from a semicolon-separated export. Only the header is consulted; data
// cells in such exports carry decimal commas and would derail a whole-file
// comma parse before any fallback could run.
func sniffSep(raw []byte) rune {
	head, _, _ := bytes.Cut(raw, []byte("\n"))
	recs, err := readAll(bytes.TrimSuffix(head, []byte("\r")), ',')
	if err == nil && len(recs) == 1 && len(recs[0]) == 1 && strings.Contains(recs[0][0], ";") {
		return ';'
	}
	return ','
}

func readAll(raw []byte, sep rune) ([][]string, error) {
	c := csv.NewReader(bytes.NewReader(raw))
	c.Comma = sep
	return c.ReadAll()
}

func (rd *Reader) roleOf(name string) Role {
	switch {
	case rd.Schema.SeqColumn != "" && name == rd.Schema.SeqColumn:
		return RoleSequence
	case rd.Schema.AccColumn != "" && name == rd.Schema.AccColumn:
		return RoleAccession
	case rd.Schema.QuantPattern.MatchString(name):
		return RoleQuant
	}
	return RoleMeta
}

// parseCell converts one quant cell to float64. Decimal commas are accepted
// ("1,5" means 1.5). Empty cells and unparseable text map to NaN; only the
// latter is reported as an error so the caller can count coercions.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), err
	}
	return v, nil
}
