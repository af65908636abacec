package table

import (
	"math"
	"regexp"

	"go.uber.org/zap"
)

// Residues outside the 20 standard amino acids plus Sec/Pyl ambiguity codes.
var invalidResidue = regexp.MustCompile(`[BJOUXZ]`)

// SanitizeReport lists the input row indices (0-based, pre-filter) dropped
// for each reason.
type SanitizeReport struct {
	EmptyAccession  []int
	EmptySequence   []int
	InvalidResidue  []int
	AllMissingQuant []int
}

// Sanitize drops rows the core cannot use: empty accession or sequence
// values and sequences containing non-standard residues. When dropAllMissing
// is set, rows whose quant cells are all missing go too. The detector
// downstream assumes a sequence column free of missing values; this is where
// that assumption is established.
func Sanitize(t *Table, dropAllMissing bool, logger *zap.Logger) SanitizeReport {
	if logger == nil {
		logger = zap.NewNop()
	}
	var rep SanitizeReport

	seq, hasSeq := firstWithRole(t, RoleSequence)
	acc, hasAcc := firstWithRole(t, RoleAccession)
	quant := t.WithRole(RoleQuant)

	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		switch {
		case hasAcc && acc.Str[i] == "":
			rep.EmptyAccession = append(rep.EmptyAccession, i)
		case hasSeq && seq.Str[i] == "":
			rep.EmptySequence = append(rep.EmptySequence, i)
		case hasSeq && invalidResidue.MatchString(seq.Str[i]):
			rep.InvalidResidue = append(rep.InvalidResidue, i)
		case dropAllMissing && allMissing(quant, i):
			rep.AllMissingQuant = append(rep.AllMissingQuant, i)
		default:
			keep = append(keep, i)
		}
	}
	if len(keep) < t.NumRows() {
		logger.Info("dropped rows during sanitizing",
			zap.Int("emptyAccession", len(rep.EmptyAccession)),
			zap.Int("emptySequence", len(rep.EmptySequence)),
			zap.Int("invalidResidue", len(rep.InvalidResidue)),
			zap.Int("allMissingQuant", len(rep.AllMissingQuant)))
		t.Keep(keep)
	}
	return rep
}

func firstWithRole(t *Table, role Role) (*Column, bool) {
	cols := t.WithRole(role)
	if len(cols) == 0 {
		return nil, false
	}
	return cols[0], true
}

func allMissing(cols []*Column, row int) bool {
	for _, c := range cols {
		if !math.IsNaN(c.Float[row]) {
			return false
		}
	}
	return len(cols) > 0
}
