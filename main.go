// ragstat annotates quantified N-terminomics peptide tables with
// cross-condition statistics, significance calls and inferred exopeptidase
// activity.
package main

import "github.com/ntermtools/ragstat/cmd"

func main() {
	cmd.Execute()
}
