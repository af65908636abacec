package cmd

import (
	"github.com/spf13/viper"
)

// Config is the run configuration, unmarshalled from viper (flags, an
// optional ragstat config file, and RAGSTAT_* environment variables).
type Config struct {
	// Input is the peptide table (CSV/TSV export).
	Input string `mapstructure:"input"`

	// Output is the annotated table destination; "-" means stdout.
	Output string `mapstructure:"output"`

	// Format is the output format, csv or tsv.
	Format string `mapstructure:"format"`

	// Conditions is the condition map file; empty selects the built-in
	// default (one condition over the standard TMT channels).
	Conditions string `mapstructure:"conditions"`

	// QuantPattern marks quantification columns in the input header.
	QuantPattern string `mapstructure:"quant-pattern"`

	// SeqColumn and AccColumn name the peptide sequence and protein
	// accession columns.
	SeqColumn string `mapstructure:"seq-column"`
	AccColumn string `mapstructure:"acc-column"`

	// FillNA, when set, replaces missing quant cells with this value.
	FillNA string `mapstructure:"fillna"`

	// DropNA drops rows whose quant cells are all missing.
	DropNA bool `mapstructure:"dropna"`

	// Stat enables hypothesis testing; Pairwise switches from one
	// omnibus test to per-pair t-tests.
	Stat     bool `mapstructure:"stat"`
	Pairwise bool `mapstructure:"stat-pairwise"`

	// Correction is the multiple-testing method (fdr_bh or none).
	Correction string  `mapstructure:"multiple-testing"`
	Alpha      float64 `mapstructure:"alpha"`

	// Significance is the percentile-classifier scope (all, nterm, none)
	// and Percentile its tail cutoff.
	Significance string  `mapstructure:"significance"`
	Percentile   float64 `mapstructure:"percentile"`

	// NoExo skips exopeptidase detection.
	NoExo bool `mapstructure:"noexo"`

	// Separate writes only the annotation columns instead of joining
	// them to the input table.
	Separate bool `mapstructure:"separate"`

	// Verbose enables debug-level logging.
	Verbose bool `mapstructure:"verbose"`
}

// loadConfig merges the bound flags, config file and environment into a
// Config.
func loadConfig() (Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
