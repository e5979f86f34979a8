// Package cmd implements the CLI application driving the ingestion
// pipeline.
package cmd

import (
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/impulsa/dataflow"
)

// Commands lists the subcommands a main package registers.
var Commands = []subcommands.Command{
	&ingestCmd{},
	&checkCmd{},
	&statusCmd{},
	&previewCmd{},
	&topicCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok
// to use global variables for the shared flags.

var contractFile = flag.String("contract", "configs/rentals.yaml", "Path to the client schema contract (YAML)")
var trustedDir = flag.String("trusted-dir", "data/trusted", "Directory for enriched artifacts")
var flagsDir = flag.String("flags-dir", "data/flags", "Directory for status records")

// newPipeline assembles the pipeline from the shared flags.
func newPipeline() (*dataflow.Pipeline, error) {
	contract, err := dataflow.LoadContract(*contractFile)
	if err != nil {
		return nil, fmt.Errorf("cannot load contract: %w", err)
	}
	store := dataflow.NewStore(*trustedDir, *flagsDir)
	return dataflow.New(contract, store), nil
}
