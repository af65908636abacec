package stats

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ntermtools/ragstat/internal/conditions"
	"github.com/ntermtools/ragstat/internal/table"
)

// SignificanceEngine runs per-row hypothesis tests across condition
// replicates. Two mutually exclusive modes exist: pairwise (a two-sample
// t-test per unordered condition pair) and omnibus (one test across all
// conditions: a t-test for exactly two, one-way ANOVA otherwise). Replicate
// values are log2-transformed before testing. Each peptide is tested
// independently across its own replicate channels, never across peptides.
type SignificanceEngine struct {
	Conditions *conditions.Map
	Pairwise   bool
}

// TestColumn identifies one produced p-value column and its log10 sibling,
// in production order. The corrector consumes this to insert corrected
// columns adjacently.
type TestColumn struct {
	Name    string
	LogName string
}

// Annotate appends p-value and log10(p-value) columns and returns the
// produced test columns. With fewer than two conditions nothing is tested.
//
// A condition that matches no quantification channels is a configuration
// failure and aborts the run. Per-row numeric failures (all-missing input,
// too few replicates for the statistic) yield NaN for that row only.
func (e SignificanceEngine) Annotate(t *table.Table) ([]TestColumn, error) {
	if e.Conditions.Len() < 2 {
		return nil, nil
	}

	chans := make(map[string][]*table.Column, e.Conditions.Len())
	for _, cond := range e.Conditions.Conditions() {
		cols := conditions.ChannelColumns(t, cond)
		if len(cols) == 0 {
			return nil, fmt.Errorf("stats: condition %q matches no quantification channels", cond.Name)
		}
		chans[cond.Name] = cols
	}

	var tests []TestColumn
	if e.Pairwise {
		for _, pair := range e.Conditions.Combinations() {
			a, b := pair[0], pair[1]
			name := fmt.Sprintf("Ttest: %s_%s", a.Name, b.Name)
			logName := fmt.Sprintf("Log10_ttest: %s_%s", a.Name, b.Name)
			pvals := make([]float64, t.NumRows())
			for i := 0; i < t.NumRows(); i++ {
				pvals[i] = tTestTwoSample(log2Row(chans[a.Name], i), log2Row(chans[b.Name], i))
			}
			if err := appendPValues(t, name, logName, pvals); err != nil {
				return nil, err
			}
			tests = append(tests, TestColumn{Name: name, LogName: logName})
		}
		return tests, nil
	}

	// Omnibus mode.
	names := e.Conditions.Names()
	joined := strings.Join(names, "_")
	var name string
	pvals := make([]float64, t.NumRows())
	if e.Conditions.Len() == 2 {
		name = "Ttest: " + joined
		for i := 0; i < t.NumRows(); i++ {
			pvals[i] = tTestTwoSample(log2Row(chans[names[0]], i), log2Row(chans[names[1]], i))
		}
	} else {
		name = "ANOVA: " + joined
		groups := make([][]float64, e.Conditions.Len())
		for i := 0; i < t.NumRows(); i++ {
			for g, n := range names {
				groups[g] = log2Row(chans[n], i)
			}
			pvals[i] = oneWayANOVA(groups)
		}
	}
	logName := "Log10_" + name
	if err := appendPValues(t, name, logName, pvals); err != nil {
		return nil, err
	}
	return append(tests, TestColumn{Name: name, LogName: logName}), nil
}

func appendPValues(t *table.Table, name, logName string, pvals []float64) error {
	logs := make([]float64, len(pvals))
	for i, p := range pvals {
		logs[i] = math.Log10(p)
	}
	if err := t.AppendFloat(name, table.RolePValue, pvals); err != nil {
		return err
	}
	return t.AppendFloat(logName, table.RolePValue, logs)
}

// log2Row collects the log2-transformed replicate values of one row.
// Missing cells stay NaN and zero/negative intensities become -Inf/NaN;
// both propagate into the test statistic, matching the policy that numeric
// failures surface as NaN rather than aborting the batch.
func log2Row(cols []*table.Column, row int) []float64 {
	vals := make([]float64, len(cols))
	for j, c := range cols {
		vals[j] = math.Log2(c.Float[row])
	}
	return vals
}

// tTestTwoSample is the two-sided pooled-variance two-sample t-test. With
// fewer than two replicates in total beyond the group count the statistic
// has no degrees of freedom and the result is NaN.
func tTestTwoSample(a, b []float64) float64 {
	n1, n2 := float64(len(a)), float64(len(b))
	df := n1 + n2 - 2
	if df <= 0 {
		return math.NaN()
	}
	m1, v1 := meanVar(a)
	m2, v2 := meanVar(b)
	sp2 := ((n1-1)*v1 + (n2-1)*v2) / df
	tstat := (m1 - m2) / math.Sqrt(sp2*(1/n1+1/n2))
	if math.IsNaN(tstat) {
		return math.NaN()
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.CDF(-math.Abs(tstat))
}

// oneWayANOVA is the one-way fixed-effects analysis of variance over k
// groups of log2 intensities.
func oneWayANOVA(groups [][]float64) float64 {
	k := len(groups)
	n := 0
	var grandSum float64
	for _, g := range groups {
		n += len(g)
		for _, v := range g {
			grandSum += v
		}
	}
	dfb, dfw := float64(k-1), float64(n-k)
	if dfb <= 0 || dfw <= 0 {
		return math.NaN()
	}
	grand := grandSum / float64(n)
	var ssb, ssw float64
	for _, g := range groups {
		m, _ := meanVar(g)
		d := m - grand
		ssb += float64(len(g)) * d * d
		for _, v := range g {
			e := v - m
			ssw += e * e
		}
	}
	f := (ssb / dfb) / (ssw / dfw)
	if math.IsNaN(f) {
		return math.NaN()
	}
	dist := distuv.F{D1: dfb, D2: dfw}
	return dist.Survival(f)
}

// meanVar computes mean and sample variance without skipping NaN: a missing
// replicate makes the whole row's test undefined, by the same propagation
// rule as everywhere else in this package.
func meanVar(vals []float64) (mean, variance float64) {
	n := float64(len(vals))
	if n == 0 {
		return math.NaN(), math.NaN()
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean = sum / n
	if n < 2 {
		return mean, math.NaN()
	}
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return mean, ss / (n - 1)
}
