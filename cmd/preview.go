package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/impulsa/dataflow"
	"github.com/impulsa/dataflow/renderer"
)

// previewCmd loads the latest artifact and shows its head, the same
// read path the reporting layer uses.
type previewCmd struct {
	rows int
}

func (*previewCmd) Name() string     { return "preview" }
func (*previewCmd) Synopsis() string { return "show the head of the latest published artifact" }
func (*previewCmd) Usage() string {
	return `idf preview [-n <rows>]

  Loads the most recent READY artifact through the same loader the
  dashboards use and prints its first rows.

`
}

func (c *previewCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.rows, "n", 10, "Number of rows to show.")
}

func (c *previewCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store := dataflow.NewStore(*trustedDir, *flagsDir)
	t, record, err := store.LoadLatest()
	if errors.Is(err, dataflow.ErrNoData) {
		fmt.Println("no processed data available yet")
		return subcommands.ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load latest artifact: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("artifact %s (%d rows)\n", record.FilePath, record.Rows)
	printMarkdown(renderer.PreviewMarkdown(t, c.rows))
	return subcommands.ExitSuccess
}
