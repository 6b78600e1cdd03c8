package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	InstrumentsExcluded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "statarb_instruments_excluded_total", Help: "Instruments dropped from the universe"},
		[]string{"reason"},
	)
	PairsScreened = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "statarb_pairs_screened_total", Help: "Pairs evaluated by the cointegration screener"},
		[]string{"outcome"},
	)
	HedgeFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "statarb_hedge_fallbacks_total", Help: "Kalman hedge failures recovered with rolling beta"},
	)
	ProviderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "statarb_provider_requests_total", Help: "Market data requests issued"},
		[]string{"provider", "status"},
	)
	PairsTraded = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "statarb_pairs_traded", Help: "Pairs selected for the last backtest"},
	)
	PortfolioSharpe = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "statarb_portfolio_sharpe", Help: "Annualized Sharpe ratio of the last backtest"},
	)
)

func init() {
	prometheus.MustRegister(InstrumentsExcluded, PairsScreened, HedgeFallbacks, ProviderRequests, PairsTraded, PortfolioSharpe)
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
