// Package conditions parses the experiment condition map and selects the
// quantification channels belonging to each condition.
//
// The map is plain text, one condition per line, whitespace separated:
//
//	treated  126 127 128
//	control  129 130 131
//
// The first token is the condition name, the rest are channel-identifying
// substrings. A quant column belongs to a condition when its name contains
// at least one of the condition's substrings; which columns are quant
// columns at all is decided by the table's quant marker, not here. File
// order is preserved and defines the order in which condition pairs are
// enumerated.
package conditions

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ntermtools/ragstat/internal/table"
)

var ErrNoConditions = errors.New("condition file defines no conditions")

// Condition is a named group of replicate channels.
type Condition struct {
	Name     string
	Channels []string
}

// Matches reports whether a column name contains any of the condition's
// channel substrings.
func (c Condition) Matches(colName string) bool {
	for _, ch := range c.Channels {
		if strings.Contains(colName, ch) {
			return true
		}
	}
	return false
}

// Map is an ordered set of conditions with unique names.
type Map struct {
	conds []Condition
}

// Parse reads a condition map.
func Parse(r io.Reader) (*Map, error) {
	m := &Map{}
	seen := make(map[string]bool)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("conditions: line %d: condition %q has no channels", line, fields[0])
		}
		if seen[fields[0]] {
			return nil, fmt.Errorf("conditions: line %d: duplicate condition %q", line, fields[0])
		}
		seen[fields[0]] = true
		m.conds = append(m.conds, Condition{Name: fields[0], Channels: fields[1:]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("conditions: %w", err)
	}
	if len(m.conds) == 0 {
		return nil, ErrNoConditions
	}
	return m, nil
}

// Default returns the condition map used when none is supplied: one
// condition covering the standard TMT channel names.
func Default() *Map {
	return &Map{conds: []Condition{{
		Name:     "all",
		Channels: []string{"126", "127", "128", "129", "130", "131", "132", "133", "134"},
	}}}
}

// Len returns the number of conditions.
func (m *Map) Len() int { return len(m.conds) }

// Conditions returns the conditions in definition order.
func (m *Map) Conditions() []Condition { return m.conds }

// Names returns the condition names in definition order.
func (m *Map) Names() []string {
	names := make([]string, len(m.conds))
	for i, c := range m.conds {
		names[i] = c.Name
	}
	return names
}

// Pairs returns every ordered pair of distinct conditions, in definition
// order: for conditions A, B, C it yields AB, AC, BA, BC, CA, CB. Fold
// changes and percentile labels are directional, so both orders appear.
func (m *Map) Pairs() [][2]Condition {
	var pairs [][2]Condition
	for i, a := range m.conds {
		for j, b := range m.conds {
			if i != j {
				pairs = append(pairs, [2]Condition{a, b})
			}
		}
	}
	return pairs
}

// Combinations returns every unordered pair, first-listed condition first.
// Hypothesis tests are symmetric, so one order suffices.
func (m *Map) Combinations() [][2]Condition {
	var pairs [][2]Condition
	for i := 0; i < len(m.conds); i++ {
		for j := i + 1; j < len(m.conds); j++ {
			pairs = append(pairs, [2]Condition{m.conds[i], m.conds[j]})
		}
	}
	return pairs
}

// ChannelColumns returns the quant-channel columns belonging to the
// condition, in table order.
func ChannelColumns(t *table.Table, c Condition) []*table.Column {
	var cols []*table.Column
	for _, col := range t.WithRole(table.RoleQuant) {
		if c.Matches(col.Name) {
			cols = append(cols, col)
		}
	}
	return cols
}
