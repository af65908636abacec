// Package table models the shared per-peptide annotation table: the quant
// matrix read from the search-engine export plus every column the analysis
// stages append to it. Columns are ordered and carry a Role that is resolved
// once, when the table is constructed; downstream stages select columns by
// role instead of re-deriving name patterns per call.
package table

import (
	"fmt"
	"math"
	"regexp"
)

// Role classifies a column. Input columns get their role when the table is
// built from the file header; analysis stages tag the columns they append.
type Role int

const (
	RoleMeta Role = iota
	RoleQuant
	RoleSequence
	RoleAccession
	RoleConditionStat
	RoleFoldChange
	RolePValue
	RoleCorrectedPValue
	RoleSignificance
	RoleExopeptidase
)

// Column is a single named column. Exactly one of Float and Str is non-nil.
// NaN marks a missing numeric cell, the empty string a missing string cell.
type Column struct {
	Name  string
	Role  Role
	Float []float64
	Str   []string
}

// Numeric reports whether the column holds float64 cells.
func (c *Column) Numeric() bool { return c.Float != nil }

// Table is the annotation table. It is mutated in place by one stage at a
// time; stages only append or insert columns, never remove them.
type Table struct {
	cols  []*Column
	index map[string]int
	nrows int
}

// New returns an empty table with the given number of rows.
func New(nrows int) *Table {
	return &Table{index: make(map[string]int), nrows: nrows}
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in table order. The slice is shared; callers
// must not modify it.
func (t *Table) Columns() []*Column { return t.cols }

// Lookup returns the column with the given name.
func (t *Table) Lookup(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	i, ok := t.index[name]
	if !ok {
		return -1
	}
	return i
}

// WithRole returns all columns with the given role, in table order.
func (t *Table) WithRole(role Role) []*Column {
	var cols []*Column
	for _, c := range t.cols {
		if c.Role == role {
			cols = append(cols, c)
		}
	}
	return cols
}

// MatchingQuant returns the quant-channel columns whose name matches pat,
// in table order.
func (t *Table) MatchingQuant(pat *regexp.Regexp) []*Column {
	var cols []*Column
	for _, c := range t.cols {
		if c.Role == RoleQuant && pat.MatchString(c.Name) {
			cols = append(cols, c)
		}
	}
	return cols
}

func (t *Table) add(at int, col *Column) error {
	if _, ok := t.index[col.Name]; ok {
		return fmt.Errorf("table: duplicate column %q", col.Name)
	}
	var n int
	if col.Numeric() {
		n = len(col.Float)
	} else {
		n = len(col.Str)
	}
	if n != t.nrows {
		return fmt.Errorf("table: column %q has %d rows, table has %d", col.Name, n, t.nrows)
	}
	if at < 0 || at > len(t.cols) {
		return fmt.Errorf("table: insert position %d out of range", at)
	}
	t.cols = append(t.cols, nil)
	copy(t.cols[at+1:], t.cols[at:])
	t.cols[at] = col
	for i := at; i < len(t.cols); i++ {
		t.index[t.cols[i].Name] = i
	}
	return nil
}

// AppendFloat appends a numeric column.
func (t *Table) AppendFloat(name string, role Role, vals []float64) error {
	return t.add(len(t.cols), &Column{Name: name, Role: role, Float: vals})
}

// AppendStr appends a string column.
func (t *Table) AppendStr(name string, role Role, vals []string) error {
	return t.add(len(t.cols), &Column{Name: name, Role: role, Str: vals})
}

// InsertFloat inserts a numeric column at position at, shifting later
// columns right. Corrected p-value columns use this to land directly after
// the p-value pair they belong to; downstream tooling depends on that
// adjacency.
func (t *Table) InsertFloat(at int, name string, role Role, vals []float64) error {
	return t.add(at, &Column{Name: name, Role: role, Float: vals})
}

// Keep retains only the listed rows, in the given order, in every column.
func (t *Table) Keep(rows []int) {
	for _, c := range t.cols {
		if c.Numeric() {
			vals := make([]float64, len(rows))
			for i, r := range rows {
				vals[i] = c.Float[r]
			}
			c.Float = vals
		} else {
			vals := make([]string, len(rows))
			for i, r := range rows {
				vals[i] = c.Str[r]
			}
			c.Str = vals
		}
	}
	t.nrows = len(rows)
}

// NaNColumn returns a fresh all-missing numeric column value slice.
func (t *Table) NaNColumn() []float64 {
	vals := make([]float64, t.nrows)
	for i := range vals {
		vals[i] = math.NaN()
	}
	return vals
}
