package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/config"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/market"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/metrics"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/util"
)

type globalFlags struct {
	configPath string
	provider   string
	dataDir    string
	logLevel   string
}

func main() {
	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "statarb",
		Short:         "Cointegration pairs-trading backtester",
		Long:          "Screens an ETF universe for cointegrated pairs, trades the best of them with a Kalman hedge and adaptive z-score bands, and reports the portfolio equity curve.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "configs/config.yaml", "YAML config path (defaults are used when missing)")
	pf.StringVar(&flags.provider, "provider", "", "Price provider override (yahoo|csv)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "Directory of SYMBOL.csv files for the csv provider")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level override (debug|info|warn|error)")

	root.AddCommand(newBacktestCmd(flags), newScreenCmd(flags), newFetchCmd(flags))
	return root
}

// env bundles what every subcommand needs.
type env struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *market.Store
}

func setup(flags *globalFlags) (*env, error) {
	cfg, err := config.Resolve(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.provider != "" {
		cfg.Data.Provider = strings.ToLower(flags.provider)
	}
	if flags.dataDir != "" {
		cfg.Data.DataDir = flags.dataDir
	}
	if flags.logLevel != "" {
		cfg.App.LogLevel = flags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	log := util.NewLoggerTo(os.Stderr, cfg.App.LogLevel, cfg.App.LogFormat).With().Str("app", cfg.App.Name).Logger()
	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	var provider market.Provider
	switch cfg.Data.Provider {
	case "csv":
		provider = market.NewCSVProvider(cfg.Data.DataDir, log)
	default:
		y := cfg.Data.Yahoo
		provider = market.NewYahooProvider(log,
			market.WithHosts(y.Hosts...),
			market.WithRateLimit(y.RPS, y.Burst),
			market.WithConcurrency(y.Concurrency),
		)
	}
	return &env{cfg: cfg, log: log, store: market.NewStore(provider, log)}, nil
}
