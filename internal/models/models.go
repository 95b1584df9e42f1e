package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sector classifies an instrument for signal-confidence weighting.
type Sector string

const (
	SectorFMCG    Sector = "FMCG"
	SectorIT      Sector = "IT"
	SectorBanking Sector = "BANKING"
	SectorAuto    Sector = "AUTO"
	SectorPharma  Sector = "PHARMA"
	SectorMetals  Sector = "METALS"
	SectorRealty  Sector = "REALTY"
)

// Signal is a single-cycle trade proposal. Signals are created fresh every
// evaluation pass and consumed at most once: either a Position is opened from
// one, or it is discarded at the end of the cycle.
type Signal struct {
	Symbol          string    `json:"symbol"`
	Sector          Sector    `json:"sector"`
	Direction       string    `json:"direction"` // only "SHORT" is produced today
	EntryPrice      float64   `json:"entry_price"`
	StopLoss        float64   `json:"stop_loss"`
	TargetPrice     float64   `json:"target_price"`
	Confidence      float64   `json:"confidence"` // [0,1]
	GapPct          float64   `json:"gap_pct"`
	SellingPressure float64   `json:"selling_pressure"`
	VolumeRatio     float64   `json:"volume_ratio"`
	Timestamp       time.Time `json:"timestamp"`
}

// Position is an open trade owned by the strategy engine. Quantity is signed:
// negative means short. Positions are never edited in place; a position is
// removed from the set when its stop, target, or an external close fires.
type Position struct {
	Symbol      string          `json:"symbol"`
	EntryPrice  decimal.Decimal `json:"entry_price"`
	Quantity    int64           `json:"quantity"`
	StopLoss    decimal.Decimal `json:"stop_loss"`
	TargetPrice decimal.Decimal `json:"target_price"`
	EntryTime   time.Time       `json:"entry_time"`
	Sector      Sector          `json:"sector"`
	OrderID     string          `json:"order_id,omitempty"`
	SLOrderID   string          `json:"sl_order_id,omitempty"`
}

// Short reports whether the position is a short.
func (p Position) Short() bool {
	return p.Quantity < 0
}

// UnrealizedPnL marks the position to the given price, sign-aware.
func (p Position) UnrealizedPnL(current decimal.Decimal) decimal.Decimal {
	qty := decimal.NewFromInt(p.Quantity).Abs()
	if p.Short() {
		return p.EntryPrice.Sub(current).Mul(qty)
	}
	return current.Sub(p.EntryPrice).Mul(qty)
}

// ClosedTrade is the record written to the trade journal when a position
// leaves the set. Audit output only; it is never read back.
type ClosedTrade struct {
	Symbol    string          `json:"symbol"`
	Sector    Sector          `json:"sector"`
	Quantity  int64           `json:"quantity"`
	Entry     decimal.Decimal `json:"entry"`
	Exit      decimal.Decimal `json:"exit"`
	PnL       decimal.Decimal `json:"pnl"`
	Reason    string          `json:"reason"` // STOP_LOSS or TARGET
	EntryTime time.Time       `json:"entry_time"`
	ExitTime  time.Time       `json:"exit_time"`
}
