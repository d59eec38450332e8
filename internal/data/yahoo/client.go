package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/pkg/httputil"
	"github.com/wonny/flashpoint/pkg/logger"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

	snapshotInterval  = "1m"
	snapshotRange     = "1d"
	historyInterval   = "5m"
	historyRange      = "5d"
	referenceInterval = "1h"
	referenceRange    = "7d"
)

// Client handles communication with the Yahoo Finance chart API and
// the key-statistics pages. All Yahoo calls go through this client.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	refSymbol  string
}

// NewClient creates a Yahoo Finance client. refSymbol names the
// reference asset used by FetchReferenceHistory.
func NewClient(baseURL, refSymbol string, httpClient *httputil.Client, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
		refSymbol:  refSymbol,
	}
}

// chartResponse mirrors the v8 chart API envelope.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol               string  `json:"symbol"`
		RegularMarketPrice   float64 `json:"regularMarketPrice"`
		RegularMarketVolume  int64   `json:"regularMarketVolume"`
		RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
		RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
		ChartPreviousClose   float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []quoteBlock `json:"quote"`
	} `json:"indicators"`
}

// quoteBlock carries intraday bars; entries are null for halted bars.
type quoteBlock struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// FetchSnapshot fetches the current intraday quote for a symbol.
func (c *Client) FetchSnapshot(ctx context.Context, symbol string) (*contracts.MarketSnapshot, error) {
	result, err := c.fetchChart(ctx, symbol, snapshotInterval, snapshotRange)
	if err != nil {
		return nil, err
	}

	md, err := buildSnapshot(symbol, result)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"price":  md.Price,
		"volume": md.Volume,
	}).Debug("Fetched snapshot")
	return md, nil
}

// FetchHistory fetches recent intraday closes, newest last. Returns
// at most periods points.
func (c *Client) FetchHistory(ctx context.Context, symbol string, periods int) ([]float64, error) {
	result, err := c.fetchChart(ctx, symbol, historyInterval, historyRange)
	if err != nil {
		return nil, err
	}

	closes := nonNilCloses(result)
	if len(closes) == 0 {
		return nil, fmt.Errorf("no price history for %s", symbol)
	}
	if len(closes) > periods {
		closes = closes[len(closes)-periods:]
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(closes),
	}).Debug("Fetched history")
	return closes, nil
}

// FetchReferenceHistory fetches hourly candles for the reference
// asset. The benchmark slices the periods each timeframe needs, so
// one hourly series serves every timeframe.
func (c *Client) FetchReferenceHistory(ctx context.Context, timeframe string) ([]contracts.Candle, error) {
	result, err := c.fetchChart(ctx, c.refSymbol, referenceInterval, referenceRange)
	if err != nil {
		return nil, err
	}

	candles := buildCandles(result)
	if len(candles) == 0 {
		return nil, fmt.Errorf("no reference history for %s", c.refSymbol)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":    c.refSymbol,
		"timeframe": timeframe,
		"candles":   len(candles),
	}).Debug("Fetched reference history")
	return candles, nil
}

// fetchChart calls the v8 chart API for one symbol.
func (c *Client) fetchChart(ctx context.Context, symbol, interval, rng string) (*chartResult, error) {
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		c.baseURL, url.PathEscape(symbol), interval, rng)

	headers := map[string]string{"User-Agent": userAgent}
	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, headers)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	return parseChartResponse(body)
}

// parseChartResponse decodes a chart API payload and surfaces API
// level errors.
func parseChartResponse(body []byte) (*chartResult, error) {
	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode chart response failed: %w", err)
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error: %s", parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart result")
	}
	return &parsed.Chart.Result[0], nil
}

// buildSnapshot assembles a market snapshot from a chart result,
// filling gaps in the meta block from the intraday bars.
func buildSnapshot(symbol string, r *chartResult) (*contracts.MarketSnapshot, error) {
	var q *quoteBlock
	if len(r.Indicators.Quote) > 0 {
		q = &r.Indicators.Quote[0]
	}

	price := r.Meta.RegularMarketPrice
	if price <= 0 && q != nil {
		price = lastValue(q.Close)
	}
	if price <= 0 {
		return nil, fmt.Errorf("no price for %s", symbol)
	}

	high := r.Meta.RegularMarketDayHigh
	low := r.Meta.RegularMarketDayLow
	if (high <= 0 || low <= 0) && q != nil {
		high, low = sessionRange(q)
	}

	var open float64
	if q != nil {
		open = firstValue(q.Open)
	}
	if open <= 0 {
		open = r.Meta.ChartPreviousClose
	}

	volume := r.Meta.RegularMarketVolume
	if volume <= 0 && q != nil {
		volume = sumVolumes(q.Volume)
	}

	vwap := 0.0
	if q != nil {
		vwap = sessionVWAP(q)
	}
	if vwap <= 0 {
		vwap = price
	}

	return &contracts.MarketSnapshot{
		Symbol:    symbol,
		Price:     price,
		Volume:    volume,
		VWAP:      vwap,
		High:      high,
		Low:       low,
		Open:      open,
		Timestamp: time.Now(),
	}, nil
}

// buildCandles zips timestamps with closes, skipping null bars.
func buildCandles(r *chartResult) []contracts.Candle {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	closes := r.Indicators.Quote[0].Close

	var candles []contracts.Candle
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		candles = append(candles, contracts.Candle{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *closes[i],
		})
	}
	return candles
}

func nonNilCloses(r *chartResult) []float64 {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	var closes []float64
	for _, c := range r.Indicators.Quote[0].Close {
		if c != nil && *c > 0 {
			closes = append(closes, *c)
		}
	}
	return closes
}

func firstValue(values []*float64) float64 {
	for _, v := range values {
		if v != nil && *v > 0 {
			return *v
		}
	}
	return 0
}

func lastValue(values []*float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != nil && *values[i] > 0 {
			return *values[i]
		}
	}
	return 0
}

func sumVolumes(values []*int64) int64 {
	var sum int64
	for _, v := range values {
		if v != nil {
			sum += *v
		}
	}
	return sum
}

// sessionRange returns the high and low across the session's bars.
func sessionRange(q *quoteBlock) (float64, float64) {
	high, low := 0.0, 0.0
	for _, h := range q.High {
		if h != nil && *h > high {
			high = *h
		}
	}
	for _, l := range q.Low {
		if l == nil || *l <= 0 {
			continue
		}
		if low == 0 || *l < low {
			low = *l
		}
	}
	return high, low
}

// sessionVWAP computes the volume weighted average price across the
// session's bars.
func sessionVWAP(q *quoteBlock) float64 {
	var notional, volume float64
	for i, c := range q.Close {
		if c == nil || i >= len(q.Volume) || q.Volume[i] == nil || *q.Volume[i] <= 0 {
			continue
		}
		notional += *c * float64(*q.Volume[i])
		volume += float64(*q.Volume[i])
	}
	if volume <= 0 {
		return 0
	}
	return notional / volume
}
