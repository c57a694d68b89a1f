package domain

import "github.com/shopspring/decimal"

// Candlestick is one OHLC aggregate per (token, interval, bucket).
// Corresponds to candlesticks table in ClickHouse.
// Invariant: Low <= Open <= High and Low <= Close <= High.
type Candlestick struct {
	TokenAddress    string
	IntervalMinutes int
	Timestamp       int64 // bucket start, Unix milliseconds
	Open            decimal.Decimal
	High            decimal.Decimal
	Low             decimal.Decimal
	Close           decimal.Decimal
	UpdatedAt       int64 // last rebuild timestamp (ms)
}

// Supported candle intervals (minutes)
const (
	CandleInterval5Min  = 5
	CandleInterval10Min = 10
	CandleInterval1Hour = 60
)

// CandleIntervals lists every interval rebuilt for a token.
var CandleIntervals = []int{
	CandleInterval5Min,
	CandleInterval10Min,
	CandleInterval1Hour,
}
