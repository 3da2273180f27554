package main

import (
	"io"

	"github.com/couchcryptid/covid-data-etl/internal/source"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newSourcesCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Lists the registered sources.",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			t := table.NewWriter()
			t.SetOutputMirror(stdout)
			t.AppendHeader(table.Row{"Source", "Kind", "URL"})
			for _, e := range source.All() {
				t.AppendRow(table.Row{e.Name, e.Kind, e.URL})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
		},
	}
}
