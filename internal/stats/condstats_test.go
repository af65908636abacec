package stats

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntermtools/ragstat/internal/conditions"
	"github.com/ntermtools/ragstat/internal/table"
)

func condMap(t *testing.T, text string) *conditions.Map {
	t.Helper()
	m, err := conditions.Parse(strings.NewReader(text))
	require.NoError(t, err)
	return m
}

func col(t *testing.T, tb *table.Table, name string) *table.Column {
	t.Helper()
	c, ok := tb.Lookup(name)
	require.True(t, ok, "column %q", name)
	return c
}

// quantTable builds a one-peptide table with the given channel columns.
func quantTable(t *testing.T, channels map[string][]float64, order []string) *table.Table {
	t.Helper()
	tb := table.New(len(channels[order[0]]))
	for _, name := range order {
		require.NoError(t, tb.AppendFloat(name, table.RoleQuant, channels[name]))
	}
	return tb
}

func TestConditionStatistics(t *testing.T) {
	m := condMap(t, "treated t1 t2 t3\ncontrol c1 c2 c3\n")
	tb := quantTable(t, map[string][]float64{
		"t1": {2}, "t2": {4}, "t3": {8},
		"c1": {4}, "c2": {8}, "c3": {16},
	}, []string{"t1", "t2", "t3", "c1", "c2", "c3"})

	require.NoError(t, ConditionStatistics{Conditions: m}.Annotate(tb))

	// 3 stat columns per condition, 2 fold columns per ordered pair.
	assert.Equal(t, 6+6+4, tb.NumCols())

	mean := col(t, tb, "treated_mean")
	assert.InDelta(t, 14.0/3.0, mean.Float[0], 1e-12)

	dev := col(t, tb, "treated_deviation")
	assert.InDelta(t, math.Sqrt(84.0/9.0), dev.Float[0], 1e-12)

	cv := col(t, tb, "treated_CV")
	assert.InDelta(t, dev.Float[0]/mean.Float[0], cv.Float[0], 1e-12)

	fold := col(t, tb, "Fold_change: treated/control")
	rev := col(t, tb, "Fold_change: control/treated")
	assert.InDelta(t, 1.0, fold.Float[0]*rev.Float[0], 1e-12)

	lf := col(t, tb, "Log2_fold_change: treated/control")
	lr := col(t, tb, "Log2_fold_change: control/treated")
	assert.InDelta(t, 0.0, lf.Float[0]+lr.Float[0], 1e-12)
}

func TestConditionStatisticsSkipsMissing(t *testing.T) {
	m := condMap(t, "treated t1 t2 t3\n")
	tb := quantTable(t, map[string][]float64{
		"t1": {2, math.NaN()},
		"t2": {math.NaN(), math.NaN()},
		"t3": {4, math.NaN()},
	}, []string{"t1", "t2", "t3"})

	require.NoError(t, ConditionStatistics{Conditions: m}.Annotate(tb))

	mean := col(t, tb, "treated_mean")
	assert.Equal(t, 3.0, mean.Float[0])
	assert.True(t, math.IsNaN(mean.Float[1]))
}

func TestConditionStatisticsIdenticalConditions(t *testing.T) {
	m := condMap(t, "treated t1 t2\ncontrol c1 c2\n")
	tb := quantTable(t, map[string][]float64{
		"t1": {8}, "t2": {16},
		"c1": {8}, "c2": {16},
	}, []string{"t1", "t2", "c1", "c2"})

	require.NoError(t, ConditionStatistics{Conditions: m}.Annotate(tb))

	fold := col(t, tb, "Fold_change: treated/control")
	assert.Equal(t, 1.0, fold.Float[0])

	lf := col(t, tb, "Log2_fold_change: treated/control")
	assert.Equal(t, 0.0, lf.Float[0])
}

func TestConditionStatisticsSingleCondition(t *testing.T) {
	m := condMap(t, "all t1 t2\n")
	tb := quantTable(t, map[string][]float64{"t1": {2}, "t2": {4}}, []string{"t1", "t2"})
	require.NoError(t, ConditionStatistics{Conditions: m}.Annotate(tb))
	assert.Equal(t, 2+3, tb.NumCols())
}
