package charts

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/signalboard/internal/clients/kucoin"
)

// candleServer serves a synthetic ascending close series
func candleServer(t *testing.T, bars int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rows := make([]string, 0, bars)
		// Newest bar first, matching the upstream API
		for i := bars - 1; i >= 0; i-- {
			ts := 1709290800 + int64(i)*3600
			px := 100 + i
			rows = append(rows, fmt.Sprintf(`["%d","%d","%d","%d","%d","1","1"]`, ts, px, px, px+1, px-1))
		}
		_, _ = fmt.Fprintf(w, `{"code":"200000","data":[%s]}`, strings.Join(rows, ","))
	}))
}

func testService(t *testing.T, server *httptest.Server) *Service {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	client := kucoin.NewClient(server.URL, nil, log)
	return NewService(client, log)
}

func TestParseOverlays(t *testing.T) {
	overlays, err := ParseOverlays("sma:20, ema:50")
	require.NoError(t, err)
	require.Len(t, overlays, 2)
	assert.Equal(t, "sma", overlays[0].Kind)
	assert.Equal(t, 20, overlays[0].Length)
	assert.Equal(t, "ema", overlays[1].Kind)
	assert.Equal(t, 50, overlays[1].Length)

	overlays, err = ParseOverlays("")
	require.NoError(t, err)
	assert.Empty(t, overlays)

	for _, spec := range []string{"sma", "macd:9", "sma:0", "sma:abc", "sma:9999"} {
		_, err := ParseOverlays(spec)
		assert.ErrorIs(t, err, ErrInvalidRequest, spec)
	}
}

func TestGetChart(t *testing.T) {
	server := candleServer(t, 10)
	defer server.Close()
	svc := testService(t, server)

	overlays, err := ParseOverlays("sma:3")
	require.NoError(t, err)

	chart, err := svc.GetChart(context.Background(), "BTC-USDT", time.Unix(1709290800, 0), "1hour", overlays)
	require.NoError(t, err)

	require.Len(t, chart.Candles, 10)
	assert.Equal(t, "BTC-USDT", chart.Symbol)
	assert.Equal(t, "1hour", chart.Interval)
	// Candles come back oldest first
	assert.InDelta(t, 100.0, chart.Candles[0].Close, 1e-9)
	assert.InDelta(t, 109.0, chart.Candles[9].Close, 1e-9)

	require.Len(t, chart.Overlays, 1)
	values := chart.Overlays[0].Values
	require.Len(t, values, 10)
	// Warm-up positions are null
	assert.Nil(t, values[0])
	assert.Nil(t, values[1])
	require.NotNil(t, values[2])
	assert.InDelta(t, 101.0, *values[2], 1e-9)
	require.NotNil(t, values[9])
	assert.InDelta(t, 108.0, *values[9], 1e-9)

	// The headline readout matches the latest series value
	require.NotNil(t, chart.Overlays[0].Current)
	assert.InDelta(t, 108.0, *chart.Overlays[0].Current, 1e-9)
}

func TestGetChart_Validation(t *testing.T) {
	server := candleServer(t, 5)
	defer server.Close()
	svc := testService(t, server)

	_, err := svc.GetChart(context.Background(), "", time.Now(), "1hour", nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.GetChart(context.Background(), "BTC-USDT", time.Now(), "7min", nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestGetChart_ShortSeriesHasNoOverlayValues(t *testing.T) {
	server := candleServer(t, 4)
	defer server.Close()
	svc := testService(t, server)

	overlays, err := ParseOverlays("ema:50")
	require.NoError(t, err)

	chart, err := svc.GetChart(context.Background(), "BTC-USDT", time.Unix(1709290800, 0), "1hour", overlays)
	require.NoError(t, err)

	require.Len(t, chart.Overlays, 1)
	require.Len(t, chart.Overlays[0].Values, 4)
	for _, v := range chart.Overlays[0].Values {
		assert.Nil(t, v)
	}

	// The EMA readout falls back to the plain average of what exists
	require.NotNil(t, chart.Overlays[0].Current)
	assert.InDelta(t, 101.5, *chart.Overlays[0].Current, 1e-9)
}
