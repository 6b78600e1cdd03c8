package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/backtest"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/paper"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/report"
)

func newBacktestCmd(flags *globalFlags) *cobra.Command {
	var xlsxPath, pngPath, ledgerPath string
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run the full pairs backtest and print the portfolio summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(flags)
			if err != nil {
				return err
			}
			opts, err := e.cfg.Options()
			if err != nil {
				return err
			}
			out := e.cfg.Output
			if cmd.Flags().Changed("xlsx") {
				out.XLSXPath = xlsxPath
			}
			if cmd.Flags().Changed("png") {
				out.PNGPath = pngPath
			}
			if cmd.Flags().Changed("ledger") {
				out.LedgerPath = ledgerPath
			}

			runOpts := []backtest.RunOption{backtest.WithLogger(e.log)}
			var recorder *paper.JSONLRecorder
			if out.LedgerPath != "" {
				recorder, err = paper.NewJSONLRecorder(out.LedgerPath)
				if err != nil {
					return err
				}
				runOpts = append(runOpts, backtest.WithRecorder(recorder))
			}

			res, runErr := backtest.Run(cmd.Context(), opts, e.store, runOpts...)
			if recorder != nil {
				if err := recorder.Close(); err != nil {
					e.log.Error().Err(err).Str("path", out.LedgerPath).Msg("close ledger")
				}
			}
			if runErr != nil {
				return runErr
			}

			summary := report.Summarize(res)
			if err := report.Print(os.Stdout, summary); err != nil {
				return err
			}
			if out.XLSXPath != "" {
				if err := report.WriteXLSX(out.XLSXPath, summary); err != nil {
					return err
				}
				e.log.Info().Str("path", out.XLSXPath).Msg("workbook written")
			}
			if out.PNGPath != "" {
				if err := report.WriteEquityPNG(out.PNGPath, summary); err != nil {
					return err
				}
				e.log.Info().Str("path", out.PNGPath).Msg("equity chart written")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write the report workbook to this path")
	cmd.Flags().StringVar(&pngPath, "png", "", "Write the equity curve chart to this path")
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "Append every daily position state to this JSONL file")
	return cmd
}
