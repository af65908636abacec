// Package pipeline runs the analysis stages in order over the fully
// materialized annotation table. The table is passed by exclusive reference
// through the stages; exactly one writer exists at a time, so no locking is
// needed. No stage reads a column produced by a later stage.
package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ntermtools/ragstat/internal/conditions"
	"github.com/ntermtools/ragstat/internal/exopeptidase"
	"github.com/ntermtools/ragstat/internal/stats"
	"github.com/ntermtools/ragstat/internal/table"
)

// Percentile-classifier scope names accepted from configuration.
const (
	ScopeAll   = "all"   // whole table
	ScopeNterm = "nterm" // only peptides annotated as internal N-termini
	ScopeNone  = "none"  // skip percentile classification
)

// NtermAnnotColumn is the upstream N-terminus annotation column consulted
// by the nterm scope.
const NtermAnnotColumn = "nterm_annot"

// Options selects which stages run and with what parameters.
type Options struct {
	Stat       bool    // run hypothesis tests (and correction)
	Pairwise   bool    // pairwise t-tests instead of one omnibus test
	Method     string  // multiple-testing method, stats.MethodNone disables
	Alpha      float64 // significance level carried to the corrector
	Scope      string  // percentile-classifier scope (ScopeAll/ScopeNterm/ScopeNone)
	Percentile float64 // percentile-classifier tail cutoff
	NoExo      bool    // skip exopeptidase detection
}

// Run executes the stages: condition statistics, significance tests,
// multiple-testing correction, percentile classification, then the
// independent exopeptidase detector. The table must be fully materialized
// before this is called; stages require global knowledge of it.
func Run(t *table.Table, conds *conditions.Map, opt Options, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()
	logger.Info("starting analysis",
		zap.Int("peptides", t.NumRows()),
		zap.Strings("conditions", conds.Names()))

	cs := stats.ConditionStatistics{Conditions: conds}
	if err := cs.Annotate(t); err != nil {
		return fmt.Errorf("condition statistics: %w", err)
	}
	logger.Info("computed condition statistics",
		zap.Int("foldChangePairs", len(conds.Pairs())))

	if opt.Stat {
		engine := stats.SignificanceEngine{Conditions: conds, Pairwise: opt.Pairwise}
		tests, err := engine.Annotate(t)
		if err != nil {
			return fmt.Errorf("significance tests: %w", err)
		}
		logger.Info("ran significance tests",
			zap.Bool("pairwise", opt.Pairwise),
			zap.Int("tests", len(tests)))

		corr := stats.MultipleTestingCorrector{
			Conditions: conds,
			Method:     opt.Method,
			Alpha:      opt.Alpha,
		}
		if err := corr.Apply(t, tests); err != nil {
			return fmt.Errorf("multiple-testing correction: %w", err)
		}
		if opt.Method != stats.MethodNone && conds.Len() >= 2 {
			logger.Info("corrected p-values", zap.String("method", opt.Method))
		} else {
			logger.Info("no multiple-testing correction performed")
		}
	}

	if opt.Scope != ScopeNone && opt.Scope != "" {
		subset, err := scopeSubset(t, opt.Scope)
		if err != nil {
			return err
		}
		pc := stats.PercentileClassifier{
			Conditions: conds,
			Cutoff:     opt.Percentile,
			Subset:     subset,
		}
		if err := pc.Annotate(t); err != nil {
			return fmt.Errorf("percentile classification: %w", err)
		}
		logger.Info("classified fold-change percentiles",
			zap.String("scope", opt.Scope),
			zap.Float64("cutoff", opt.Percentile))
	}

	if !opt.NoExo {
		if err := exopeptidase.Annotate(t); err != nil {
			return fmt.Errorf("exopeptidase detection: %w", err)
		}
		logger.Info("detected exopeptidase activity")
	}

	logger.Info("analysis finished", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// scopeSubset resolves a configured scope name into the classifier's row
// predicate. An unknown scope is a configuration error, not a per-row one.
func scopeSubset(t *table.Table, scope string) (func(a, b conditions.Condition) func(int) bool, error) {
	switch scope {
	case ScopeAll:
		return nil, nil
	case ScopeNterm:
		col, ok := t.Lookup(NtermAnnotColumn)
		if !ok || col.Numeric() {
			return nil, fmt.Errorf("pipeline: scope %q requires the %q column", scope, NtermAnnotColumn)
		}
		return func(a, b conditions.Condition) func(int) bool {
			return func(row int) bool { return col.Str[row] == "Internal" }
		}, nil
	}
	return nil, fmt.Errorf("pipeline: unsupported significance scope %q", scope)
}
