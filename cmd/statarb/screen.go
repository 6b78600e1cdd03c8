package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/coint"
)

func newScreenCmd(flags *globalFlags) *cobra.Command {
	var showAll bool
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "List cointegrated pairs and why the others were excluded",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(flags)
			if err != nil {
				return err
			}
			opts, err := e.cfg.Options()
			if err != nil {
				return err
			}
			table, _, err := e.store.Load(cmd.Context(), opts.Universe, opts.Start, opts.End)
			if err != nil {
				return err
			}
			cands, outcomes, err := coint.NewScreener(opts.Screener, e.log).Screen(cmd.Context(), table)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PAIR\tOVERLAP\tCORR\tP-VALUE\tRESULT")
			for _, o := range outcomes {
				if !o.Included && !showAll {
					continue
				}
				result := "cointegrated"
				if !o.Included {
					result = string(o.Reason)
				}
				fmt.Fprintf(w, "%s/%s\t%d\t%.3f\t%.4f\t%s\n", o.A, o.B, o.Overlap, o.Correlation, o.PValue, result)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("%d pairs pass filters.\n", len(cands))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showAll, "all", false, "Also print excluded pairs")
	return cmd
}
