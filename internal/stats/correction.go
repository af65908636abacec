package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/ntermtools/ragstat/internal/conditions"
	"github.com/ntermtools/ragstat/internal/table"
)

// Multiple-comparisons procedures.
const (
	MethodBH   = "fdr_bh" // Benjamini-Hochberg false-discovery-rate control
	MethodNone = ""
)

// MultipleTestingCorrector corrects each produced p-value column for
// multiple testing. Correction runs once per test column; missing values
// keep their positions so the corrected column is NaN-position-identical to
// its source.
type MultipleTestingCorrector struct {
	Conditions *conditions.Map
	Method     string
	Alpha      float64 // carried for downstream significance thresholds
}

// Apply inserts, for every test column, a corrected p-value column and its
// log10 sibling directly after the original pair. Downstream consumers
// locate columns by name-pattern search; the adjacency is part of the
// output contract. No-op when correction is disabled or fewer than two
// conditions are configured.
func (c MultipleTestingCorrector) Apply(t *table.Table, tests []TestColumn) error {
	if c.Method == MethodNone || c.Conditions.Len() < 2 {
		return nil
	}
	if c.Method != MethodBH {
		return fmt.Errorf("stats: unsupported multiple-testing method %q", c.Method)
	}
	for _, tc := range tests {
		col, ok := t.Lookup(tc.Name)
		if !ok {
			return fmt.Errorf("stats: p-value column %q not found", tc.Name)
		}
		corrected := correctKeepingNaN(col.Float)
		logs := make([]float64, len(corrected))
		for i, p := range corrected {
			logs[i] = math.Log10(p)
		}
		name := "Corrected " + tc.Name
		logName := "Log10_" + name
		at := t.ColumnIndex(tc.Name)
		if err := t.InsertFloat(at+2, name, table.RoleCorrectedPValue, corrected); err != nil {
			return err
		}
		if err := t.InsertFloat(at+3, logName, table.RoleCorrectedPValue, logs); err != nil {
			return err
		}
	}
	return nil
}

// correctKeepingNaN applies BH to the non-missing subset and writes the
// corrected values back at their original index positions, leaving missing
// positions missing.
func correctKeepingNaN(pvals []float64) []float64 {
	idx := make([]int, 0, len(pvals))
	sub := make([]float64, 0, len(pvals))
	for i, p := range pvals {
		if !math.IsNaN(p) {
			idx = append(idx, i)
			sub = append(sub, p)
		}
	}
	adj := benjaminiHochberg(sub)
	out := make([]float64, len(pvals))
	for i := range out {
		out[i] = math.NaN()
	}
	for j, i := range idx {
		out[i] = adj[j]
	}
	return out
}

// benjaminiHochberg returns the BH-adjusted p-values: rank-scaled p*n/rank,
// made monotone from the largest rank down and capped at 1.
func benjaminiHochberg(pvals []float64) []float64 {
	n := len(pvals)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return pvals[order[i]] < pvals[order[j]] })

	adj := make([]float64, n)
	running := math.Inf(1)
	for r := n - 1; r >= 0; r-- {
		v := pvals[order[r]] * float64(n) / float64(r+1)
		if v < running {
			running = v
		}
		if running > 1 {
			adj[order[r]] = 1
		} else {
			adj[order[r]] = running
		}
	}
	return adj
}
