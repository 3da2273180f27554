// Command covid-etl runs data sources and writes their datasets under an
// output root.
//
// Usage:
//
//	covid-etl run serbia singapore --output-dir ./output
//	covid-etl run all
//	covid-etl sources
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/couchcryptid/covid-data-etl/internal/source/chile"
	_ "github.com/couchcryptid/covid-data-etl/internal/source/serbia"
	_ "github.com/couchcryptid/covid-data-etl/internal/source/singapore"
	_ "github.com/couchcryptid/covid-data-etl/internal/source/thailand"
	_ "github.com/couchcryptid/covid-data-etl/internal/source/uknations"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// usageError marks a bad invocation rather than a failed run.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the CLI and maps the outcome to an exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	var ue usageError
	if errors.As(err, &ue) {
		return exitUsage
	}
	return exitError
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "covid-etl",
		Short:         "Collects COVID-19 statistics into normalized datasets.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	root.AddCommand(newRunCmd(), newSourcesCmd(stdout))
	return root
}
