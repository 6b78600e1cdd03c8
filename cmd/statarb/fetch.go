package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFetchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Load the universe and report which instruments have enough history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(flags)
			if err != nil {
				return err
			}
			opts, err := e.cfg.Options()
			if err != nil {
				return err
			}
			table, incl, err := e.store.Load(cmd.Context(), opts.Universe, opts.Start, opts.End)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tOBSERVATIONS\tSTATUS")
			for _, in := range incl {
				status := "included"
				if !in.Included {
					status = string(in.Reason)
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", in.Symbol, in.Observations, status)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if table.Len() > 0 {
				fmt.Printf("Universe after data check: %v (%d dates, %s to %s)\n", table.Symbols, table.Len(),
					table.Dates[0].Format("2006-01-02"), table.Dates[table.Len()-1].Format("2006-01-02"))
			}
			return nil
		},
	}
}
