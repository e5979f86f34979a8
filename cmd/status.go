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

// statusCmd lists recent run outcomes from the flags directory.
type statusCmd struct {
	limit int
}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "show recent run outcomes" }
func (*statusCmd) Usage() string {
	return `idf status [-n <count>]

  Lists the most recent status records, newest first.

`
}

func (c *statusCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 10, "Number of records to show.")
}

func (c *statusCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store := dataflow.NewStore(*trustedDir, *flagsDir)
	records, err := store.History(c.limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read status records: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(records) == 0 {
		fmt.Println("no runs recorded yet")
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.HistoryMarkdown(records))
	return subcommands.ExitSuccess
}
