package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"gapwatch/internal/models"
)

// stubBars returns canned history.
type stubBars struct {
	bars      []models.Bar
	barsErr   error
	avgVolume float64
	avgErr    error
}

func (s *stubBars) GetDailyBars(symbol string, lookbackDays int) ([]models.Bar, error) {
	return s.bars, s.barsErr
}

func (s *stubBars) GetAverageVolume(symbol string, windowDays int) (float64, error) {
	return s.avgVolume, s.avgErr
}

// stubGate fixes the elapsed session fraction.
type stubGate struct{ elapsed float64 }

func (g stubGate) IsTradingTime() bool          { return true }
func (g stubGate) IsSignalWindow() bool         { return true }
func (g stubGate) SessionElapsedHours() float64 { return g.elapsed }

func declining(n int) []models.Bar {
	bars := make([]models.Bar, n)
	price := 100.0
	for i := range bars {
		bars[i] = models.Bar{
			Time:   time.Now().AddDate(0, 0, i-n),
			Open:   price,
			Close:  price - 1, // every candle red, every close lower
			High:   price + 0.5,
			Low:    price - 1.5,
			Volume: int64(1000 + 200*i), // rising volume into the decline
		}
		price -= 1
	}
	return bars
}

func flat(n int) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		bars[i] = models.Bar{Open: 100, Close: 100, High: 100, Low: 100, Volume: 1000}
	}
	return bars
}

func TestSellingPressureDecliningSeries(t *testing.T) {
	e := NewEvaluator(&stubBars{bars: declining(10)}, stubGate{elapsed: 2})

	score := e.SellingPressure("TCS.NS")
	if score <= 0 || score > 100 {
		t.Fatalf("Expected score in (0,100], got %f", score)
	}
	if math.IsNaN(score) {
		t.Fatal("Score must not be NaN")
	}
	// Sustained decline with all-red candles should read clearly bearish.
	if score < 40 {
		t.Errorf("Expected strong selling pressure, got %f", score)
	}
}

func TestSellingPressureShortHistory(t *testing.T) {
	e := NewEvaluator(&stubBars{bars: declining(3)}, stubGate{elapsed: 2})
	if score := e.SellingPressure("TCS.NS"); score != 0 {
		t.Errorf("Expected 0 for short history, got %f", score)
	}
}

func TestSellingPressureProviderError(t *testing.T) {
	e := NewEvaluator(&stubBars{barsErr: errors.New("boom")}, stubGate{elapsed: 2})
	if score := e.SellingPressure("TCS.NS"); score != 0 {
		t.Errorf("Expected 0 on provider error, got %f", score)
	}
}

func TestSellingPressureFlatSeriesNoNaN(t *testing.T) {
	// All-flat prices: zero gains and zero losses in the RSI window. The RSI
	// convention makes that 100, and the composite must stay defined.
	e := NewEvaluator(&stubBars{bars: flat(10)}, stubGate{elapsed: 2})

	score := e.SellingPressure("TCS.NS")
	if math.IsNaN(score) {
		t.Fatal("Flat series produced NaN")
	}
	if score < 0 || score > 100 {
		t.Errorf("Score out of range: %f", score)
	}
}

func TestComputeRSIConventions(t *testing.T) {
	// Monotonic rise: no losses, RSI pegged at 100.
	if got := computeRSI([]float64{1, 2, 3, 4, 5}, 14); got != 100 {
		t.Errorf("Expected RSI 100 for pure gains, got %f", got)
	}
	// Flat: zero loss average also reads 100 by convention.
	if got := computeRSI([]float64{5, 5, 5, 5, 5}, 14); got != 100 {
		t.Errorf("Expected RSI 100 for flat series, got %f", got)
	}
	// Monotonic fall: no gains, RSI 0.
	if got := computeRSI([]float64{5, 4, 3, 2, 1}, 14); got != 0 {
		t.Errorf("Expected RSI 0 for pure losses, got %f", got)
	}
	// Single price: no deltas at all.
	if got := computeRSI([]float64{5}, 14); got != 50 {
		t.Errorf("Expected RSI 50 with no deltas, got %f", got)
	}
}

func TestVolumeRatioProjection(t *testing.T) {
	// Two hours into the session, 1M traded. Projected full day:
	// 1M * 6.5/2 = 3.25M against a 1M average -> ratio 3.25.
	e := NewEvaluator(&stubBars{avgVolume: 1_000_000}, stubGate{elapsed: 2})
	q := models.Quote{Symbol: "TCS.NS", Volume: 1_000_000}

	ratio := e.VolumeRatio("TCS.NS", q)
	if math.Abs(ratio-3.25) > 1e-9 {
		t.Errorf("Expected ratio 3.25, got %f", ratio)
	}
}

func TestVolumeRatioNeutralFallbacks(t *testing.T) {
	q := models.Quote{Symbol: "TCS.NS", Volume: 1_000_000}

	e := NewEvaluator(&stubBars{avgErr: errors.New("boom")}, stubGate{elapsed: 2})
	if ratio := e.VolumeRatio("TCS.NS", q); ratio != 1.0 {
		t.Errorf("Expected neutral 1.0 on error, got %f", ratio)
	}

	e = NewEvaluator(&stubBars{avgVolume: 0}, stubGate{elapsed: 2})
	if ratio := e.VolumeRatio("TCS.NS", q); ratio != 1.0 {
		t.Errorf("Expected neutral 1.0 on zero average, got %f", ratio)
	}
}
