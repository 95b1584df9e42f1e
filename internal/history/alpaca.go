// Package history adapts the external daily-bar vendor to the evaluator's
// provider contract.
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"gapwatch/internal/models"
)

// AlpacaProvider serves daily bars and average volume from the Alpaca market
// data API. The vendor keys instruments by bare ticker, so the internal
// exchange suffix (e.g. ".NS") is stripped before the request.
type AlpacaProvider struct {
	client *marketdata.Client
}

// NewAlpacaProvider builds a provider; credentials come from the environment
// via the SDK.
func NewAlpacaProvider() *AlpacaProvider {
	return &AlpacaProvider{client: marketdata.NewClient(marketdata.ClientOpts{})}
}

func vendorSymbol(symbol string) string {
	if i := strings.IndexByte(symbol, '.'); i > 0 {
		return symbol[:i]
	}
	return symbol
}

// GetDailyBars returns up to lookbackDays daily bars, oldest first.
func (p *AlpacaProvider) GetDailyBars(symbol string, lookbackDays int) ([]models.Bar, error) {
	// Weekends and holidays thin the calendar window out, so over-fetch.
	start := time.Now().AddDate(0, 0, -(lookbackDays*2 + 5))
	bars, err := p.client.GetBars(vendorSymbol(symbol), marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
	})
	if err != nil {
		return nil, fmt.Errorf("daily bars for %s: %w", symbol, err)
	}

	if len(bars) > lookbackDays {
		bars = bars[len(bars)-lookbackDays:]
	}

	result := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		result = append(result, models.Bar{
			Time:   b.Timestamp,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	return result, nil
}

// GetAverageVolume returns the mean daily volume over the window.
func (p *AlpacaProvider) GetAverageVolume(symbol string, windowDays int) (float64, error) {
	bars, err := p.GetDailyBars(symbol, windowDays)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, nil
	}
	var total float64
	for _, b := range bars {
		total += float64(b.Volume)
	}
	return total / float64(len(bars)), nil
}
