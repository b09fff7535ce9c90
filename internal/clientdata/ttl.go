package clientdata

import "time"

// TTL constants for cached data.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Historical candles never change once the bar closes, but the most
	// recent window may still be forming.
	TTLCandles = 24 * time.Hour

	// Stats snapshots only change when the catalog reloads; the reload
	// job invalidates them explicitly, the TTL is a backstop.
	TTLStatsMemo = time.Hour
)
