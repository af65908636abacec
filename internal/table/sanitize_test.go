package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tb := New(5)
	require.NoError(t, tb.AppendStr("Accession", RoleAccession, []string{"P1", "", "P3", "P4", "P5"}))
	require.NoError(t, tb.AppendStr("Sequence", RoleSequence, []string{"PEPTIDE", "PEPTIDE", "", "PEPTIDEX", "PEPTIDE"}))
	require.NoError(t, tb.AppendFloat("Abundance: 126", RoleQuant, []float64{1, 2, 3, 4, math.NaN()}))

	rep := Sanitize(tb, false, nil)

	assert.Equal(t, []int{1}, rep.EmptyAccession)
	assert.Equal(t, []int{2}, rep.EmptySequence)
	assert.Equal(t, []int{3}, rep.InvalidResidue)
	assert.Empty(t, rep.AllMissingQuant)

	require.Equal(t, 2, tb.NumRows())
	acc, ok := tb.Lookup("Accession")
	require.True(t, ok)
	assert.Equal(t, []string{"P1", "P5"}, acc.Str)
}

func TestSanitizeDropAllMissing(t *testing.T) {
	tb := New(3)
	require.NoError(t, tb.AppendStr("Accession", RoleAccession, []string{"P1", "P2", "P3"}))
	require.NoError(t, tb.AppendStr("Sequence", RoleSequence, []string{"PEP", "TIDE", "TIDES"}))
	require.NoError(t, tb.AppendFloat("Abundance: 126", RoleQuant, []float64{1, math.NaN(), math.NaN()}))
	require.NoError(t, tb.AppendFloat("Abundance: 127", RoleQuant, []float64{2, 3, math.NaN()}))

	rep := Sanitize(tb, true, nil)

	assert.Equal(t, []int{2}, rep.AllMissingQuant)
	assert.Equal(t, 2, tb.NumRows())
}

func TestSanitizeKeepsCleanTable(t *testing.T) {
	tb := New(2)
	require.NoError(t, tb.AppendStr("Sequence", RoleSequence, []string{"PEP", "TIDE"}))
	require.NoError(t, tb.AppendFloat("Abundance: 126", RoleQuant, []float64{1, 2}))

	rep := Sanitize(tb, true, nil)
	assert.Equal(t, SanitizeReport{}, rep)
	assert.Equal(t, 2, tb.NumRows())
}
