package models

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewQuoteDerivesChange(t *testing.T) {
	q := NewQuote("TCS", 102.5, 101.0, 103.0, 100.5, 1000, 100.0, time.Now())

	if q.Change != 2.5 {
		t.Errorf("Expected change 2.5, got %f", q.Change)
	}
	if math.Abs(q.ChangePct-2.5) > 1e-9 {
		t.Errorf("Expected change pct 2.5, got %f", q.ChangePct)
	}
}

func TestNewQuoteZeroPrevClose(t *testing.T) {
	for _, prev := range []float64{0, -10} {
		q := NewQuote("TCS", 102.5, 101.0, 103.0, 100.5, 1000, prev, time.Now())
		if q.Change != 0 || q.ChangePct != 0 {
			t.Errorf("prev_close=%f: expected zero change, got %f / %f", prev, q.Change, q.ChangePct)
		}
	}
}

func TestUnrealizedPnLShort(t *testing.T) {
	p := Position{
		Symbol:     "INFY",
		EntryPrice: decimal.NewFromInt(100),
		Quantity:   -200,
	}

	// Price dropped: short profits.
	pnl := p.UnrealizedPnL(decimal.NewFromFloat(96.9))
	want := decimal.NewFromFloat(3.1).Mul(decimal.NewFromInt(200))
	if !pnl.Equal(want) {
		t.Errorf("Expected pnl %s, got %s", want, pnl)
	}

	// Price rose: short loses.
	pnl = p.UnrealizedPnL(decimal.NewFromFloat(101.6))
	if !pnl.IsNegative() {
		t.Errorf("Expected negative pnl, got %s", pnl)
	}
}

func TestUnrealizedPnLLong(t *testing.T) {
	p := Position{
		Symbol:     "INFY",
		EntryPrice: decimal.NewFromInt(100),
		Quantity:   50,
	}
	pnl := p.UnrealizedPnL(decimal.NewFromInt(110))
	if !pnl.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected pnl 500, got %s", pnl)
	}
}
