// Package analysis derives the short-side entry metrics from daily bars and
// the live quote.
package analysis

import (
	"log"
	"math"

	"gapwatch/internal/models"
	"gapwatch/internal/timing"
)

const (
	// pressurePeriod is the window of recent daily bars the selling-pressure
	// composite looks at; a few extra bars are requested as a buffer for
	// holidays.
	pressurePeriod = 5
	barBuffer      = 5

	rsiPeriod        = 14
	volumeWindowDays = 20
)

// BarProvider is the historical-data collaborator. Bars are returned oldest
// first. Failures degrade the evaluator to neutral defaults; they never
// surface to the strategy cycle.
type BarProvider interface {
	GetDailyBars(symbol string, lookbackDays int) ([]models.Bar, error)
	GetAverageVolume(symbol string, windowDays int) (float64, error)
}

// Evaluator computes the selling-pressure score and the session-projected
// volume ratio.
type Evaluator struct {
	bars BarProvider
	gate timing.Gate
}

func NewEvaluator(bars BarProvider, gate timing.Gate) *Evaluator {
	return &Evaluator{bars: bars, gate: gate}
}

// SellingPressure scores short-term bearish momentum in [0,100] from the most
// recent daily bars. Provider failure or a short history yields 0.
func (e *Evaluator) SellingPressure(symbol string) float64 {
	bars, err := e.bars.GetDailyBars(symbol, pressurePeriod+barBuffer)
	if err != nil {
		log.Printf("[ANALYSIS] Daily bars unavailable for %s: %v", symbol, err)
		return 0
	}
	if len(bars) < pressurePeriod {
		return 0
	}
	recent := bars[len(bars)-pressurePeriod:]
	n := float64(len(recent))

	firstClose := recent[0].Close
	if firstClose <= 0 {
		return 0
	}
	decline := (recent[len(recent)-1].Close - firstClose) / firstClose

	var red, lower float64
	for i, b := range recent {
		if b.Close < b.Open {
			red++
		}
		if i > 0 && b.Close < recent[i-1].Close {
			lower++
		}
	}
	redRatio := red / n
	lowerRatio := lower / (n - 1)

	// Volume trend: mean of the last two bars over mean of the first three.
	headMean := (float64(recent[0].Volume) + float64(recent[1].Volume) + float64(recent[2].Volume)) / 3
	tailMean := (float64(recent[len(recent)-2].Volume) + float64(recent[len(recent)-1].Volume)) / 2
	volumeTrend := 0.0
	if headMean > 0 {
		volumeTrend = tailMean / headMean
	}

	closes := make([]float64, len(recent))
	for i, b := range recent {
		closes[i] = b.Close
	}
	rsi := computeRSI(closes, rsiPeriod)

	score := (-decline * 100 * 0.3) +
		(redRatio * 100 * 0.2) +
		(volumeTrend * 20 * 0.2) +
		(lowerRatio * 100 * 0.2) +
		((100 - rsi) * 0.1)

	return clamp(score, 0, 100)
}

// VolumeRatio projects the live cumulative volume to a full-session estimate
// and compares it to the recent daily average. Unavailable history yields a
// neutral 1.0.
func (e *Evaluator) VolumeRatio(symbol string, quote models.Quote) float64 {
	avg, err := e.bars.GetAverageVolume(symbol, volumeWindowDays)
	if err != nil || avg <= 0 {
		if err != nil {
			log.Printf("[ANALYSIS] Average volume unavailable for %s: %v", symbol, err)
		}
		return 1.0
	}

	elapsed := e.gate.SessionElapsedHours()
	projected := float64(quote.Volume) * (timing.SessionLengthHours() / elapsed)
	return projected / avg
}

// computeRSI is the Wilder-style RSI over the trailing window. Degeneracy
// convention: zero average loss means RSI 100; any other non-finite
// intermediate means RSI 50.
func computeRSI(prices []float64, period int) float64 {
	window := period
	if len(prices)-1 < window {
		window = len(prices) - 1
	}
	if window <= 0 {
		return 50
	}

	var gain, loss float64
	for i := len(prices) - window; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	avgGain := gain / float64(window)
	avgLoss := loss / float64(window)

	if avgLoss == 0 {
		return 100
	}
	rsi := 100 - 100/(1+avgGain/avgLoss)
	if math.IsNaN(rsi) || math.IsInf(rsi, 0) {
		return 50
	}
	return rsi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
