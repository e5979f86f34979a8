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

// checkCmd runs the reader and the guardian without persisting.
type checkCmd struct{}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "validate an uploaded file without publishing anything" }
func (*checkCmd) Usage() string {
	return `idf check <file>

  Answers whether the file would be accepted: required columns and the
  integrity threshold. Nothing is coerced or written.

`
}

func (c *checkCmd) SetFlags(f *flag.FlagSet) {}

func (c *checkCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "check expects exactly one file argument")
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

	ok, message, report := p.Check(dataflow.Upload{Name: file, Data: data})
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
