package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/impulsa/dataflow"
	"github.com/impulsa/dataflow/renderer"
)

// ingestCmd runs the full pipeline on one uploaded file.
type ingestCmd struct{}

func (*ingestCmd) Name() string     { return "ingest" }
func (*ingestCmd) Synopsis() string { return "validate, enrich and publish an uploaded file" }
func (*ingestCmd) Usage() string {
	return `idf ingest <file>

  Runs the full pipeline on the file: read, validate against the
  contract, coerce types, derive columns, and publish the artifact and
  its status record.

Usage Examples:
$ idf -contract configs/rentals.yaml ingest listings.csv

`
}

func (c *ingestCmd) SetFlags(f *flag.FlagSet) {}

func (c *ingestCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "ingest expects exactly one file argument")
		return subcommands.ExitUsageError
	}
	file := f.Arg(0)

	p, err := newPipeline()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read upload %q: %v\n", file, err)
		return subcommands.ExitFailure
	}

	ok, message, report := p.Process(dataflow.Upload{Name: file, Data: data})
	printMarkdown(renderer.RunMarkdown(&renderer.Run{
		Client:  p.Contract().Client,
		File:    file,
		OK:      ok,
		Message: message,
		Report:  report,
	}))
	if !ok {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
