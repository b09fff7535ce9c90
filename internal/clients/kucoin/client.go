// Package kucoin provides historical candle fetching and caching from
// the KuCoin public market API.
package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/signalboard/internal/clientdata"
	"github.com/aristath/signalboard/internal/domain"
)

// candleWindow is how many bars a single request covers
const candleWindow = 100

// intervalSeconds maps supported chart intervals to bar length
var intervalSeconds = map[string]int64{
	"5min":  5 * 60,
	"15min": 15 * 60,
	"1hour": 60 * 60,
	"4hour": 4 * 60 * 60,
	"1day":  24 * 60 * 60,
}

// SupportedInterval reports whether the interval is one the proxy accepts
func SupportedInterval(interval string) bool {
	_, ok := intervalSeconds[interval]
	return ok
}

// DefaultStart returns the window start that places the last bar of a
// full window at now. Unsupported intervals return now unchanged.
func DefaultStart(interval string, now time.Time) time.Time {
	secs, ok := intervalSeconds[interval]
	if !ok {
		return now
	}
	return now.Add(-time.Duration(secs*candleWindow) * time.Second)
}

// Client for the KuCoin market data API
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new KuCoin candle client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "kucoin").Logger(),
		cacheRepo: cacheRepo,
	}
}

// kucoinResponse is the market candles API envelope. Each row is
// [time, open, close, high, low, volume, turnover] as strings, newest
// bar first.
type kucoinResponse struct {
	Code string     `json:"code"`
	Data [][]string `json:"data"`
}

// CacheKey builds the composite lookup key for one candle window
func CacheKey(symbol string, start time.Time, interval string) string {
	return fmt.Sprintf("%s-%d-%s", symbol, start.Unix(), interval)
}

// GetCandles fetches OHLC bars for a symbol starting at the signal's
// time, cache-first. If the API fails, stale cached data is returned
// when available.
func (c *Client) GetCandles(ctx context.Context, symbol string, start time.Time, interval string) ([]domain.Candle, error) {
	secs, ok := intervalSeconds[interval]
	if !ok {
		return nil, fmt.Errorf("unsupported interval: %s", interval)
	}

	cacheKey := CacheKey(symbol, start, interval)

	// Check persistent cache for fresh data
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh(clientdata.TableCandles, cacheKey)
		if err == nil && data != nil {
			var cached []domain.Candle
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().
					Str("symbol", symbol).
					Str("interval", interval).
					Msg("Cache hit")
				return cached, nil
			}
		}
	}

	endAt := start.Unix() + candleWindow*secs

	reqURL := fmt.Sprintf("%s/api/v1/market/candles?symbol=%s&type=%s&startAt=%d&endAt=%d",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(interval), start.Unix(), endAt)
	c.log.Debug().Str("url", reqURL).Msg("Fetching candles")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if stale, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("API failed, using stale cached candles")
			return stale, nil
		}
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if stale, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().Int("status", resp.StatusCode).Str("symbol", symbol).Msg("API error, using stale cached candles")
			return stale, nil
		}
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result kucoinResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if stale, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to parse API response, using stale cached candles")
			return stale, nil
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	candles, err := parseCandles(result.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse candle rows: %w", err)
	}

	// Cache persistently
	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(clientdata.TableCandles, cacheKey, candles, clientdata.TTLCandles); err != nil {
			c.log.Warn().Err(err).Str("key", cacheKey).Msg("Failed to cache candles")
		}
	}

	c.log.Info().
		Str("symbol", symbol).
		Str("interval", interval).
		Int("bars", len(candles)).
		Msg("Fetched candles")

	return candles, nil
}

// parseCandles converts API rows into candles, oldest bar first.
// The API returns newest first, so the order is reversed.
func parseCandles(rows [][]string) ([]domain.Candle, error) {
	candles := make([]domain.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 5 {
			return nil, fmt.Errorf("candle row too short: %d fields", len(row))
		}

		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid candle time %q: %w", row[0], err)
		}

		var values [4]float64
		for j := 1; j <= 4; j++ {
			v, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid candle value %q: %w", row[j], err)
			}
			values[j-1] = v
		}

		candles = append(candles, domain.Candle{
			Time:  time.Unix(ts, 0).UTC(),
			Open:  values[0],
			Close: values[1],
			High:  values[2],
			Low:   values[3],
		})
	}
	return candles, nil
}

// getStaleFromCache retrieves expired cached candles as a fallback
func (c *Client) getStaleFromCache(cacheKey string) ([]domain.Candle, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	data, err := c.cacheRepo.Get(clientdata.TableCandles, cacheKey)
	if err != nil || data == nil {
		return nil, false
	}

	var cached []domain.Candle
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	return cached, true
}
