package strategy

import (
	"github.com/shopspring/decimal"

	"gapwatch/internal/config"
)

// exitLevels derives the protective levels for a short at the given entry.
// Stop sits above the entry, target below.
func exitLevels(entry float64, cfg config.Strategy) (stop, target float64) {
	stop = entry * (1 + cfg.StopLossPct/100)
	target = entry * (1 - cfg.TargetPct/100)
	return stop, target
}

// positionSize converts the per-trade risk budget into a share count. The
// budget is PortfolioValue * RiskPerTradePct / 100; dividing by the per-share
// distance to the stop and truncating gives the quantity. A zero stop
// distance sizes to zero, never to infinity.
func positionSize(cfg config.Strategy, entry, stop decimal.Decimal) int64 {
	riskPerShare := stop.Sub(entry).Abs()
	if riskPerShare.IsZero() {
		return 0
	}
	budget := decimal.NewFromFloat(cfg.PortfolioValue * cfg.RiskPerTradePct / 100)
	return budget.Div(riskPerShare).IntPart()
}
