package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntermtools/ragstat/internal/conditions"
	"github.com/ntermtools/ragstat/internal/table"
)

// foldTable builds a table carrying the fold-change columns for both ordered
// pairs of a two-condition map, bypassing the descriptive-statistics stage.
func foldTable(t *testing.T, fold []float64) *table.Table {
	t.Helper()
	tb := table.New(len(fold))
	inv := make([]float64, len(fold))
	for i, v := range fold {
		inv[i] = 1 / v
	}
	require.NoError(t, tb.AppendFloat("Fold_change: a/b", table.RoleFoldChange, fold))
	require.NoError(t, tb.AppendFloat("Fold_change: b/a", table.RoleFoldChange, inv))
	return tb
}

func TestPercentileLabelsTails(t *testing.T) {
	m := condMap(t, "a 1\nb 2\n")
	tb := foldTable(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	cl := PercentileClassifier{Conditions: m, Cutoff: 0.05}
	require.NoError(t, cl.Annotate(tb))

	labels := col(t, tb, "Fold a/b significance")
	assert.Equal(t, SignificantLow, labels.Str[0])
	assert.Equal(t, SignificantHigh, labels.Str[9])
	assert.Empty(t, labels.Str[4])

	// The reciprocal pair gets its own column.
	_, ok := tb.Lookup("Fold b/a significance")
	assert.True(t, ok)
}

func TestPercentileCutoffMonotone(t *testing.T) {
	m := condMap(t, "a 1\nb 2\n")
	fold := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	loose := foldTable(t, fold)
	require.NoError(t, PercentileClassifier{Conditions: m, Cutoff: 0.25}.Annotate(loose))
	strict := foldTable(t, fold)
	require.NoError(t, PercentileClassifier{Conditions: m, Cutoff: 0.05}.Annotate(strict))

	lc := col(t, loose, "Fold a/b significance")
	sc := col(t, strict, "Fold a/b significance")
	for i := range fold {
		if sc.Str[i] != "" {
			assert.Equal(t, sc.Str[i], lc.Str[i], "row %d", i)
		}
	}
	assert.Equal(t, SignificantLow, lc.Str[1])
	assert.Equal(t, SignificantHigh, lc.Str[8])
	assert.Empty(t, sc.Str[1])
}

func TestPercentileDegenerateSample(t *testing.T) {
	m := condMap(t, "a 1\nb 2\n")
	tb := foldTable(t, []float64{2, 2, 2, 2})

	require.NoError(t, PercentileClassifier{Conditions: m, Cutoff: 0.05}.Annotate(tb))

	// A constant sample is widened to unit range; the shared value sits
	// on the left edge of the only occupied bin, CDF 0, so every row is
	// in the low tail.
	labels := col(t, tb, "Fold a/b significance")
	for i := range labels.Str {
		assert.Equal(t, SignificantLow, labels.Str[i], "row %d", i)
	}
}

func TestPercentileSubset(t *testing.T) {
	m := condMap(t, "a 1\nb 2\n")
	tb := foldTable(t, []float64{1, 2, 3, 4, 5, 100})

	cl := PercentileClassifier{
		Conditions: m,
		Cutoff:     0.05,
		Subset: func(a, b conditions.Condition) func(row int) bool {
			return func(row int) bool { return row < 5 }
		},
	}
	require.NoError(t, cl.Annotate(tb))

	labels := col(t, tb, "Fold a/b significance")
	// Row 5 is outside the subset: not sampled, not labeled.
	assert.Empty(t, labels.Str[5])
	assert.Equal(t, SignificantLow, labels.Str[0])
	assert.Equal(t, SignificantHigh, labels.Str[4])
}

func TestPercentileIgnoresMissing(t *testing.T) {
	m := condMap(t, "a 1\nb 2\n")
	tb := foldTable(t, []float64{1, math.NaN(), 5, 10})

	require.NoError(t, PercentileClassifier{Conditions: m, Cutoff: 0.05}.Annotate(tb))
	labels := col(t, tb, "Fold a/b significance")
	assert.Empty(t, labels.Str[1])
}

func TestPercentileCutoffValidation(t *testing.T) {
	m := condMap(t, "a 1\nb 2\n")
	tb := foldTable(t, []float64{1, 2})

	for _, cutoff := range []float64{0, 0.5, -0.1, 0.9} {
		err := PercentileClassifier{Conditions: m, Cutoff: cutoff}.Annotate(tb)
		assert.ErrorContains(t, err, "percentile cutoff")
	}
}
