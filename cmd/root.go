// Package cmd is the command line surface of ragstat.
package cmd

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ntermtools/ragstat/internal/conditions"
	"github.com/ntermtools/ragstat/internal/pipeline"
	"github.com/ntermtools/ragstat/internal/stats"
	"github.com/ntermtools/ragstat/internal/table"
)

var rootCmd = &cobra.Command{
	Use:   "ragstat -i peptides.csv [flags]",
	Short: "Cross-condition statistics and exopeptidase inference for N-terminomics data",
	Long: `ragstat reads a quantified peptide-level N-terminomics export and a
condition map, and annotates every peptide with per-condition statistics
(mean, deviation, CV), directional fold changes, hypothesis-test p-values
with Benjamini-Hochberg correction, distribution-relative percentile
significance labels, and inferred exopeptidase (ragged N-terminus) activity.

The condition map is plain text, one condition per line:

    treated  126 127 128
    control  129 130 131

where the first token names the condition and the rest are substrings
identifying its quantification channels.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return run(cfg)
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.Flags()
	f.StringP("input", "i", "", "peptide table to annotate (CSV or TSV)")
	f.StringP("output", "o", "", `annotated table destination ("-" for stdout, default <input>_annot.<format>)`)
	f.String("format", "csv", "output format: csv or tsv")
	f.StringP("conditions", "c", "", "condition map file (default: one condition over TMT channels 126-134)")
	f.String("quant-pattern", `Abundance`, "regular expression marking quantification columns")
	f.String("seq-column", "Sequence", "peptide sequence column name")
	f.String("acc-column", "", "protein accession column name (optional)")
	f.String("fillna", "", "replace missing quant cells with this value")
	f.Bool("dropna", false, "drop rows whose quant cells are all missing")
	f.Bool("stat", false, "run hypothesis tests across condition replicates")
	f.Bool("stat-pairwise", false, "test every condition pair instead of one omnibus test")
	f.String("multiple-testing", stats.MethodBH, `multiple-testing correction: "fdr_bh" or "none"`)
	f.Float64("alpha", 0.05, "significance level for the correction procedure")
	f.String("significance", pipeline.ScopeAll, `percentile-classifier scope: "all", "nterm" or "none"`)
	f.Float64("percentile", 0.05, "percentile-classifier tail cutoff (0 < p < 0.5)")
	f.Bool("noexo", false, "skip exopeptidase (ragged terminus) detection")
	f.Bool("separate", false, "write only the annotation columns, not the joined table")
	f.BoolP("verbose", "v", false, "debug-level logging")

	cobra.CheckErr(viper.BindPFlags(f))
	viper.SetEnvPrefix("RAGSTAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetConfigName("ragstat")
	viper.AddConfigPath(".")
	// A config file is optional; flags and env alone are fine.
	_ = viper.ReadInConfig()
}

func run(cfg Config) error {
	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync failure is uninteresting

	if cfg.Input == "" {
		return fmt.Errorf("no input file given (see --input)")
	}
	if cfg.Format != "csv" && cfg.Format != "tsv" {
		return fmt.Errorf("unsupported output format %q", cfg.Format)
	}

	pat, err := regexp.Compile(cfg.QuantPattern)
	if err != nil {
		return fmt.Errorf("invalid quant pattern: %w", err)
	}
	schema := table.Schema{
		QuantPattern: pat,
		SeqColumn:    cfg.SeqColumn,
		AccColumn:    cfg.AccColumn,
	}
	if cfg.FillNA != "" {
		v, err := strconv.ParseFloat(cfg.FillNA, 64)
		if err != nil {
			return fmt.Errorf("invalid fillna value %q: %w", cfg.FillNA, err)
		}
		schema.FillNA = &v
	}

	in, err := os.Open(cfg.Input)
	if err != nil {
		return err
	}
	defer in.Close()
	rd := table.Reader{Schema: schema, Log: logger}
	t, err := rd.Read(in)
	if err != nil {
		return err
	}
	table.Sanitize(t, cfg.DropNA, logger)

	conds, err := readConditions(cfg.Conditions)
	if err != nil {
		return err
	}

	opt := pipeline.Options{
		Stat:       cfg.Stat,
		Pairwise:   cfg.Pairwise,
		Method:     correctionMethod(cfg.Correction),
		Alpha:      cfg.Alpha,
		Scope:      cfg.Significance,
		Percentile: cfg.Percentile,
		NoExo:      cfg.NoExo,
	}
	if err := pipeline.Run(t, conds, opt, logger); err != nil {
		return err
	}

	return writeOutput(cfg, t, logger)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{"stderr"}
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zcfg.Build()
}

func readConditions(path string) (*conditions.Map, error) {
	if path == "" {
		return conditions.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return conditions.Parse(f)
}

func correctionMethod(s string) string {
	if s == "none" {
		return stats.MethodNone
	}
	return s
}

func writeOutput(cfg Config, t *table.Table, logger *zap.Logger) error {
	sep := ','
	if cfg.Format == "tsv" {
		sep = '\t'
	}
	out := cfg.Output
	if out == "" {
		base := strings.TrimSuffix(cfg.Input, ".csv")
		base = strings.TrimSuffix(base, ".tsv")
		base = strings.TrimSuffix(base, ".txt")
		out = base + "_annot." + cfg.Format
	}

	var w io.Writer = os.Stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	wr := table.Writer{Sep: sep, Separate: cfg.Separate}
	if err := wr.Write(w, t); err != nil {
		return err
	}
	if out != "-" {
		logger.Info("wrote annotated table", zap.String("path", out))
	}
	return nil
}
