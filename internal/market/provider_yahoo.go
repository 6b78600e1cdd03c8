package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/metrics"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/signal"
)

const (
	defaultYahooConcurrency = 4
	defaultYahooRPS         = 2
	yahooUserAgent          = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"
)

var defaultYahooHosts = []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"}

// errNoYahooData marks a well-formed response that carried no usable bars.
var errNoYahooData = errors.New("no data")

// yahooChartResp mirrors the v8 chart response, trimmed to daily closes.
type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// YahooProvider downloads daily adjusted closes from the Yahoo chart API.
type YahooProvider struct {
	hosts       []string
	client      *http.Client
	log         zerolog.Logger
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	backoffs    []time.Duration
	concurrency int
}

// YahooOption configures a YahooProvider.
type YahooOption func(*YahooProvider)

// WithHosts replaces the host failover list (scheme included).
func WithHosts(hosts ...string) YahooOption {
	return func(p *YahooProvider) {
		var cleaned []string
		for _, h := range hosts {
			if h = strings.TrimSuffix(strings.TrimSpace(h), "/"); h != "" {
				cleaned = append(cleaned, h)
			}
		}
		if len(cleaned) > 0 {
			p.hosts = cleaned
		}
	}
}

// WithHTTPClient injects the HTTP client.
func WithHTTPClient(c *http.Client) YahooOption {
	return func(p *YahooProvider) {
		if c != nil {
			p.client = c
		}
	}
}

// WithRateLimit caps requests per second across all workers.
func WithRateLimit(rps float64, burst int) YahooOption {
	return func(p *YahooProvider) {
		if rps > 0 {
			if burst <= 0 {
				burst = 1
			}
			p.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithConcurrency bounds the number of symbols fetched at once.
func WithConcurrency(n int) YahooOption {
	return func(p *YahooProvider) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithBackoffs sets the pauses between retry rounds.
func WithBackoffs(backoffs ...time.Duration) YahooOption {
	return func(p *YahooProvider) { p.backoffs = backoffs }
}

// NewYahooProvider builds the provider with failover hosts, pacing and a circuit breaker.
func NewYahooProvider(log zerolog.Logger, opts ...YahooOption) *YahooProvider {
	p := &YahooProvider{
		hosts:       defaultYahooHosts,
		client:      &http.Client{Timeout: 15 * time.Second},
		log:         log,
		limiter:     rate.NewLimiter(rate.Limit(defaultYahooRPS), defaultYahooRPS),
		backoffs:    []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, time.Second},
		concurrency: defaultYahooConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	st := gobreaker.Settings{Name: "yahoo", Interval: 60 * time.Second, Timeout: 30 * time.Second}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 5
	}
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, errNoYahooData) || errors.Is(err, context.Canceled)
	}
	p.breaker = gobreaker.NewCircuitBreaker(st)
	return p
}

// Name identifies the provider in logs.
func (p *YahooProvider) Name() string { return "yahoo" }

// FetchCloses downloads each symbol concurrently. A symbol that cannot be fetched is
// dropped with a warning; only context cancellation fails the whole call.
func (p *YahooProvider) FetchCloses(ctx context.Context, symbols []string, start, end time.Time) (map[string][]signal.Bar, error) {
	var mu sync.Mutex
	out := make(map[string][]signal.Bar, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, sym := range symbols {
		sym := sym
		g.Go(func() error {
			bars, err := p.fetchSymbol(gctx, sym, start, end)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.log.Warn().Err(err).Str("symbol", sym).Msg("yahoo fetch failed, dropping symbol")
				return nil
			}
			mu.Lock()
			out[sym] = bars
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *YahooProvider) fetchSymbol(ctx context.Context, sym string, start, end time.Time) ([]signal.Bar, error) {
	res, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetchWithRetry(ctx, sym, start, end)
	})
	if err != nil {
		return nil, err
	}
	return res.([]signal.Bar), nil
}

func (p *YahooProvider) fetchWithRetry(ctx context.Context, sym string, start, end time.Time) ([]signal.Bar, error) {
	var lastErr error
	for attempt := 0; attempt <= len(p.backoffs); attempt++ {
		for _, host := range p.hosts {
			bars, err := p.fetchOnce(ctx, host, sym, start, end)
			if err == nil {
				return bars, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, errNoYahooData) {
				return nil, err
			}
			lastErr = err
		}
		if attempt < len(p.backoffs) {
			select {
			case <-time.After(p.backoffs[attempt]):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

func (p *YahooProvider) fetchOnce(ctx context.Context, host, sym string, start, end time.Time) ([]signal.Bar, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("events", "div,splits")
	q.Set("includeAdjustedClose", "true")
	if start.IsZero() {
		q.Set("period1", "0")
	} else {
		q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	}
	if end.IsZero() {
		q.Set("period2", fmt.Sprintf("%d", time.Now().Unix()))
	} else {
		q.Set("period2", fmt.Sprintf("%d", end.Unix()))
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", host, url.PathEscape(sym), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(p.Name(), "error").Inc()
		return nil, err
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		metrics.ProviderRequests.WithLabelValues(p.Name(), "error").Inc()
		return nil, fmt.Errorf("read yahoo response: %w", readErr)
	}
	metrics.ProviderRequests.WithLabelValues(p.Name(), fmt.Sprintf("%d", resp.StatusCode)).Inc()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", sym, errNoYahooData)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("yahoo %s returned %d: %s", host, resp.StatusCode, preview(body))
	}
	return decodeYahooChart(sym, body)
}

func decodeYahooChart(sym string, body []byte) ([]signal.Bar, error) {
	var yc yahooChartResp
	if err := json.Unmarshal(body, &yc); err != nil {
		return nil, fmt.Errorf("parse yahoo json: %w; body: %s", err, preview(body))
	}
	if len(yc.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", sym, errNoYahooData)
	}
	res := yc.Chart.Result[0]
	var closes []*float64
	if len(res.Indicators.AdjClose) > 0 && len(res.Indicators.AdjClose[0].AdjClose) > 0 {
		closes = res.Indicators.AdjClose[0].AdjClose
	} else if len(res.Indicators.Quote) > 0 {
		closes = res.Indicators.Quote[0].Close
	}
	bars := make([]signal.Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		bars = append(bars, signal.Bar{Symbol: sym, Date: signal.NormalizeDate(time.Unix(ts, 0)), Close: *closes[i]})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", sym, errNoYahooData)
	}
	return bars, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
