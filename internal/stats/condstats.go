// Package stats implements the cross-condition statistics stages: per
// condition descriptive statistics, fold changes, hypothesis tests,
// multiple-testing correction and distribution-relative percentile
// classification. All stages write columns into the shared annotation table
// and follow IEEE semantics throughout: NaN and Inf propagate, they are
// never clamped or special-cased.
package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ntermtools/ragstat/internal/conditions"
	"github.com/ntermtools/ragstat/internal/table"
)

// ConditionStatistics computes per-condition mean, standard deviation and
// coefficient of variation per row, and fold change plus log2 fold change
// for every ordered pair of distinct conditions.
type ConditionStatistics struct {
	Conditions *conditions.Map
}

// Annotate appends the statistic columns. Missing quant cells are skipped
// within a row; a condition with no non-missing cells in a row yields NaN.
// CV is std/mean and may be Inf or NaN per IEEE division. A non-positive
// fold change yields a NaN log2 fold change; masking such rows is the
// consumer's business, no test is skipped because of it.
func (s ConditionStatistics) Annotate(t *table.Table) error {
	means := make(map[string][]float64, s.Conditions.Len())

	for _, cond := range s.Conditions.Conditions() {
		cols := conditions.ChannelColumns(t, cond)
		mean := make([]float64, t.NumRows())
		dev := make([]float64, t.NumRows())
		cv := make([]float64, t.NumRows())
		buf := make([]float64, 0, len(cols))
		for i := 0; i < t.NumRows(); i++ {
			buf = buf[:0]
			for _, c := range cols {
				if v := c.Float[i]; !math.IsNaN(v) {
					buf = append(buf, v)
				}
			}
			mean[i], dev[i] = rowMoments(buf)
			cv[i] = dev[i] / mean[i]
		}
		means[cond.Name] = mean
		if err := t.AppendFloat(cond.Name+"_mean", table.RoleConditionStat, mean); err != nil {
			return err
		}
		if err := t.AppendFloat(cond.Name+"_deviation", table.RoleConditionStat, dev); err != nil {
			return err
		}
		if err := t.AppendFloat(cond.Name+"_CV", table.RoleConditionStat, cv); err != nil {
			return err
		}
	}

	if s.Conditions.Len() < 2 {
		return nil
	}
	for _, pair := range s.Conditions.Pairs() {
		a, b := pair[0], pair[1]
		fold := make([]float64, t.NumRows())
		logFold := make([]float64, t.NumRows())
		for i := 0; i < t.NumRows(); i++ {
			fold[i] = means[a.Name][i] / means[b.Name][i]
			logFold[i] = math.Log2(fold[i])
		}
		name := fmt.Sprintf("Fold_change: %s/%s", a.Name, b.Name)
		logName := fmt.Sprintf("Log2_fold_change: %s/%s", a.Name, b.Name)
		if err := t.AppendFloat(name, table.RoleFoldChange, fold); err != nil {
			return err
		}
		if err := t.AppendFloat(logName, table.RoleFoldChange, logFold); err != nil {
			return err
		}
	}
	return nil
}

// rowMoments returns the mean and sample standard deviation of the
// non-missing values of one row. An empty row gives NaN/NaN; a single value
// gives its mean and a NaN deviation (n-1 denominator).
func rowMoments(vals []float64) (mean, dev float64) {
	if len(vals) == 0 {
		return math.NaN(), math.NaN()
	}
	mean = stat.Mean(vals, nil)
	dev = stat.StdDev(vals, nil)
	return mean, dev
}
