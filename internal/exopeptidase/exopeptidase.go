// Package exopeptidase infers non-specific exopeptidase activity from
// ragged N-termini: groups of peptides sharing a C-terminal anchor but
// differing by progressive loss of one (aminopeptidase) or two
// (dipeptidase) N-terminal residues.
package exopeptidase

import (
	"errors"
	"sort"
	"strings"

	"github.com/ntermtools/ragstat/internal/table"
)

// AnchorLen is the length of the C-terminal anchor used to group candidate
// ragged-series members.
const AnchorLen = 5

// Activity is the inferred trimming label for one peptide sequence.
type Activity string

const (
	Aminopeptidase  Activity = "Aminopeptidase_activity"
	Dipeptidase     Activity = "Dipeptidase_activity"
	DipeptidaseSeed Activity = "Dipeptidase_seed_Aminopeptidase_activity"
)

// Column is the name of the label column written into the table.
const Column = "exopeptidase"

var ErrNoSequenceColumn = errors.New("exopeptidase: table has no sequence column")

// Detect classifies the given peptide sequences. The result maps each
// labeled sequence to its activity; sequences never matched into a ragged
// series are absent. Classification is a pure function of the sequence
// multiset: duplicates and row order do not change any sequence's label.
//
// Sequences are scanned longest first; ties keep their first-encountered
// order, which fixes the candidate iteration order and makes the whole
// classification deterministic. A sequence that seeds a series is cleared
// but only its truncation products receive labels.
func Detect(sequences []string) map[string]Activity {
	// Duplicates contribute nothing beyond their first occurrence: a
	// repeated candidate can never re-match the series cursor.
	seen := make(map[string]struct{}, len(sequences))
	uniq := make([]string, 0, len(sequences))
	for _, s := range sequences {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		uniq = append(uniq, s)
	}
	sort.SliceStable(uniq, func(i, j int) bool { return len(uniq[i]) > len(uniq[j]) })

	// Anchor groups are precomputed over the sorted order, so candidate
	// lists come out in scan order without re-walking the full set.
	byAnchor := make(map[string][]string)
	for _, s := range uniq {
		if len(s) >= AnchorLen {
			a := s[len(s)-AnchorLen:]
			byAnchor[a] = append(byAnchor[a], s)
		}
	}

	labels := make(map[string]Activity)
	cleared := make(map[string]bool, len(uniq))
	for _, seq := range uniq {
		if cleared[seq] {
			continue
		}
		cleared[seq] = true

		var candidates []string
		if len(seq) >= AnchorLen {
			candidates = byAnchor[seq[len(seq)-AnchorLen:]]
		} else {
			// Short sequences anchor on their whole length; any
			// longer sequence may end with them.
			for _, s := range uniq {
				if strings.HasSuffix(s, seq) {
					candidates = append(candidates, s)
				}
			}
		}
		// The group contains seq itself, so fewer than two members
		// means no ragged series exists for it.
		if len(candidates) < 2 {
			continue
		}

		compare := seq
		dipSeed := false
		lpep := len(seq)
		for _, pep := range candidates {
			switch {
			case len(compare) > 1 && pep == compare[1:]:
				cleared[pep] = true
				if dipSeed && len(pep) == lpep-1 {
					labels[pep] = DipeptidaseSeed
				} else {
					labels[pep] = Aminopeptidase
					dipSeed = false
				}
				compare = pep
			case len(compare) > 2 && pep == compare[2:]:
				cleared[pep] = true
				labels[pep] = Dipeptidase
				compare = pep
				dipSeed = true
				lpep = len(pep)
			}
			// Anything else does not continue this series; it may
			// start its own later.
		}
	}
	return labels
}

// Annotate runs Detect over the table's sequence column and appends the
// label column. All rows sharing an identical sequence receive the same
// label; unmatched sequences stay missing.
func Annotate(t *table.Table) error {
	var seqCol *table.Column
	for _, c := range t.WithRole(table.RoleSequence) {
		seqCol = c
		break
	}
	if seqCol == nil {
		return ErrNoSequenceColumn
	}

	labels := Detect(seqCol.Str)
	vals := make([]string, t.NumRows())
	for i, s := range seqCol.Str {
		vals[i] = string(labels[s])
	}
	return t.AppendStr(Column, table.RoleExopeptidase, vals)
}
