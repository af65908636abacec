package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/ntermtools/ragstat/internal/conditions"
	"github.com/ntermtools/ragstat/internal/table"
)

// Percentile significance labels.
const (
	SignificantHigh = "significant high"
	SignificantLow  = "significant low"
)

const histogramBins = 10

// PercentileClassifier flags fold-change outliers relative to the empirical
// fold-change distribution, independently of the hypothesis-test p-values:
// it works even absent formal replicate structure. For each ordered
// condition pair the non-missing fold changes (optionally restricted to a
// caller-chosen row subset) are binned into a histogram, a continuous CDF is
// derived from the bins, and rows in the distribution tails get labeled.
type PercentileClassifier struct {
	Conditions *conditions.Map
	// Cutoff is the tail percentile p, 0 < p < 0.5: CDF above 1-p is
	// "significant high", below p "significant low".
	Cutoff float64
	// Subset, when non-nil, returns the row predicate restricting the
	// scope for one ordered pair (e.g. only internal peptides). Rows
	// outside the subset get no label. Nil means the whole table.
	Subset func(a, b conditions.Condition) func(row int) bool
}

// Annotate appends one label column per ordered condition pair. Nothing is
// produced for fewer than two conditions.
func (c PercentileClassifier) Annotate(t *table.Table) error {
	if c.Cutoff <= 0 || c.Cutoff >= 0.5 {
		return fmt.Errorf("stats: percentile cutoff %v outside (0, 0.5)", c.Cutoff)
	}
	if c.Conditions.Len() < 2 {
		return nil
	}
	for _, pair := range c.Conditions.Pairs() {
		a, b := pair[0], pair[1]
		foldName := fmt.Sprintf("Fold_change: %s/%s", a.Name, b.Name)
		col, ok := t.Lookup(foldName)
		if !ok {
			return fmt.Errorf("stats: fold-change column %q not found", foldName)
		}
		in := func(int) bool { return true }
		if c.Subset != nil {
			in = c.Subset(a, b)
		}

		var sample []float64
		for i := 0; i < t.NumRows(); i++ {
			if in(i) && !math.IsNaN(col.Float[i]) {
				sample = append(sample, col.Float[i])
			}
		}

		labels := make([]string, t.NumRows())
		if len(sample) > 0 {
			dist := newHistogramDist(sample)
			for i := 0; i < t.NumRows(); i++ {
				if !in(i) || math.IsNaN(col.Float[i]) {
					continue
				}
				switch cd := dist.cdf(col.Float[i]); {
				case cd > 1-c.Cutoff:
					labels[i] = SignificantHigh
				case cd < c.Cutoff:
					labels[i] = SignificantLow
				}
			}
		}
		name := fmt.Sprintf("Fold %s/%s significance", a.Name, b.Name)
		if err := t.AppendStr(name, table.RoleSignificance, labels); err != nil {
			return err
		}
	}
	return nil
}

// histogramDist is the continuous distribution induced by an equal-width
// histogram: constant density within each bin, so the CDF is piecewise
// linear through the cumulative bin fractions.
type histogramDist struct {
	edges []float64
	cum   []float64 // cum[i] is the sample fraction below edges[i]
}

func newHistogramDist(sample []float64) histogramDist {
	lo, hi := floats.Min(sample), floats.Max(sample)
	if lo == hi {
		// Degenerate sample: widen to unit range. All mass then sits in
		// the bin whose left edge is the sample value, so the CDF there
		// is 0 and every member gets the low label.
		lo, hi = lo-0.5, hi+0.5
	}
	edges := make([]float64, histogramBins+1)
	floats.Span(edges, lo, hi)

	counts := make([]float64, histogramBins)
	for _, x := range sample {
		i := int(float64(histogramBins) * (x - lo) / (hi - lo))
		// The last bin is closed on the right: the sample maximum
		// belongs to it, not past it.
		if i >= histogramBins {
			i = histogramBins - 1
		}
		if i < 0 {
			i = 0
		}
		counts[i]++
	}

	cum := make([]float64, histogramBins+1)
	total := float64(len(sample))
	for i, n := range counts {
		cum[i+1] = cum[i] + n/total
	}
	cum[histogramBins] = 1
	return histogramDist{edges: edges, cum: cum}
}

func (h histogramDist) cdf(x float64) float64 {
	last := len(h.edges) - 1
	if x <= h.edges[0] {
		return 0
	}
	if x >= h.edges[last] {
		return 1
	}
	i := sort.SearchFloat64s(h.edges, x)
	if h.edges[i] == x {
		return h.cum[i]
	}
	j := i - 1
	frac := (x - h.edges[j]) / (h.edges[j+1] - h.edges[j])
	return h.cum[j] + (h.cum[j+1]-h.cum[j])*frac
}
