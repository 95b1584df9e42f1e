package models

import "time"

// Quote is an immutable snapshot of the latest trade for one instrument.
// Change and ChangePct are derived once at construction and are zero when the
// previous close is not positive. A quote is superseded, never merged, by the
// next quote for the same symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	LTP       float64   `json:"ltp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Volume    int64     `json:"volume"`
	PrevClose float64   `json:"prev_close"`
	Timestamp time.Time `json:"timestamp"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_pct"`
}

// NewQuote builds a quote and derives the change fields.
func NewQuote(symbol string, ltp, open, high, low float64, volume int64, prevClose float64, ts time.Time) Quote {
	q := Quote{
		Symbol:    symbol,
		LTP:       ltp,
		Open:      open,
		High:      high,
		Low:       low,
		Volume:    volume,
		PrevClose: prevClose,
		Timestamp: ts,
	}
	if prevClose > 0 {
		q.Change = ltp - prevClose
		q.ChangePct = q.Change / prevClose * 100
	}
	return q
}

// Bar is one daily OHLCV candle, as returned by the historical-bar provider.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}
