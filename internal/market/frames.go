package market

import (
	"bytes"
	"encoding/json"
	"time"

	"gapwatch/internal/models"
)

// venueTick mirrors the venue's quote payload. The feed is not consistent
// about key names across frame generations, so every field carries its known
// aliases and the first present one wins.
type venueTick struct {
	Symbol string `json:"symbol"`

	LTP       *float64 `json:"ltp"`
	LastPrice *float64 `json:"last_price"`
	LP        *float64 `json:"lp"`

	OpenPrice *float64 `json:"open_price"`
	Open      *float64 `json:"open"`

	HighPrice *float64 `json:"high_price"`
	High      *float64 `json:"high"`

	LowPrice *float64 `json:"low_price"`
	Low      *float64 `json:"low"`

	Volume         *int64 `json:"volume"`
	VolTradedToday *int64 `json:"vol_traded_today"`

	PrevClosePrice *float64 `json:"prev_close_price"`
	PrevClose      *float64 `json:"prev_close"`
}

func firstFloat(candidates ...*float64) float64 {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return 0
}

func firstInt(candidates ...*int64) int64 {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return 0
}

// quote converts the tick into a Quote for the given internal symbol. It
// fails when the tick carries no last price; such frames are heartbeats or
// control acks and are dropped by the caller.
func (t venueTick) quote(symbol string, ts time.Time) (models.Quote, bool) {
	ltp := t.LTP
	if ltp == nil {
		ltp = t.LastPrice
	}
	if ltp == nil {
		ltp = t.LP
	}
	if t.Symbol == "" || ltp == nil {
		return models.Quote{}, false
	}
	return models.NewQuote(
		symbol,
		*ltp,
		firstFloat(t.OpenPrice, t.Open),
		firstFloat(t.HighPrice, t.High),
		firstFloat(t.LowPrice, t.Low),
		firstInt(t.Volume, t.VolTradedToday),
		firstFloat(t.PrevClosePrice, t.PrevClose),
		ts,
	), true
}

// decodeFrame parses an inbound push frame. Frames are either a single tick
// object or an array of them; anything that fails to decode is treated as a
// non-data frame and yields an empty slice, never an error. The upstream feed
// mixes heartbeats and control acks into the data channel, so tolerance here
// is deliberate.
func decodeFrame(raw []byte) []venueTick {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '[' {
		var ticks []venueTick
		if err := json.Unmarshal(trimmed, &ticks); err != nil {
			return nil
		}
		return ticks
	}
	var tick venueTick
	if err := json.Unmarshal(trimmed, &tick); err != nil {
		return nil
	}
	return []venueTick{tick}
}

// controlFrame is the outbound subscribe/unsubscribe directive.
type controlFrame struct {
	T       string   `json:"T"`
	Symbols []string `json:"symbols"`
	Mode    string   `json:"mode"`
}
