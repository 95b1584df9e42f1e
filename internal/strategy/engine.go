// Package strategy runs the gap-up short engine: it scans the universe for
// overextended opens under selling pressure, opens simulated short positions
// sized off a fixed risk budget, and monitors them against stop and target.
package strategy

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"gapwatch/internal/config"
	"gapwatch/internal/market"
	"gapwatch/internal/metrics"
	"gapwatch/internal/models"
	"gapwatch/internal/timing"
)

const (
	// breadthThreshold and breadthMinChange gate new entries on market
	// breadth: more than 60% of the reference basket must be up over 0.3%.
	breadthThreshold = 0.6
	breadthMinChange = 0.3

	// significantMovePct is the quote-callback logging threshold.
	significantMovePct = 2.0

	offHoursSleep = 5 * time.Minute
)

// MarketData is the slice of the gateway the engine consumes.
type MarketData interface {
	Connect() bool
	Disconnect()
	Subscribe(symbols []string) bool
	AddCallback(cb market.Callback)
	GetQuote(symbol string) (models.Quote, bool)
	GetAllQuotes() map[string]models.Quote
	Fallback() bool
}

// SignalEvaluator scores candidates. Implemented by analysis.Evaluator.
type SignalEvaluator interface {
	SellingPressure(symbol string) float64
	VolumeRatio(symbol string, quote models.Quote) float64
}

// Executor places real orders. The engine runs without one: opens are then
// recorded with simulated order ids and closes are internal bookkeeping.
type Executor interface {
	OpenShort(sig models.Signal, qty int64) (orderID string, err error)
	Close(pos models.Position, reason string) error
}

// Journal receives every closed trade.
type Journal interface {
	Record(trade models.ClosedTrade) error
}

// Notifier receives lifecycle events. Delivery failures are ignored.
type Notifier interface {
	Send(event, text string) error
}

// Engine owns the position set and the trading cycle.
type Engine struct {
	cfg      *config.Config
	md       MarketData
	eval     SignalEvaluator
	gate     timing.Gate
	journal  Journal
	notifier Notifier
	executor Executor

	// entryDelay spaces consecutive entries; shortened in tests.
	entryDelay time.Duration

	mu        sync.Mutex
	positions map[string]models.Position
	dailyPnL  decimal.Decimal
	totalPnL  decimal.Decimal
}

func New(cfg *config.Config, md MarketData, eval SignalEvaluator, gate timing.Gate, journal Journal, notifier Notifier) *Engine {
	return &Engine{
		cfg:        cfg,
		md:         md,
		eval:       eval,
		gate:       gate,
		journal:    journal,
		notifier:   notifier,
		entryDelay: 2 * time.Second,
		positions:  make(map[string]models.Position),
	}
}

// SetExecutor installs a real order executor. Without one the engine
// simulates fills at the quoted price.
func (e *Engine) SetExecutor(ex Executor) { e.executor = ex }

// Start connects the market data gateway and subscribes the full watch set.
func (e *Engine) Start() error {
	e.md.AddCallback(e.onQuote)
	if !e.md.Connect() {
		return fmt.Errorf("market data connection failed")
	}
	if e.md.Fallback() {
		log.Println("[ENGINE] Running on REST polling fallback")
	}
	if !e.md.Subscribe(watchSymbols()) {
		return fmt.Errorf("subscription failed")
	}
	return nil
}

// onQuote runs on the gateway dispatch path, so it only logs; all decisions
// happen in RunCycle off the store snapshot.
func (e *Engine) onQuote(symbol string, quote models.Quote) {
	if math.Abs(quote.ChangePct) > significantMovePct {
		log.Printf("[ENGINE] Significant move: %s %.2f (%+.2f%%)", symbol, quote.LTP, quote.ChangePct)
	}
}

// Run is the main loop: cycle during the session, doze outside it. A context
// cancellation observed between cycles disconnects the gateway and returns.
func (e *Engine) Run(ctx context.Context) {
	log.Println("[ENGINE] Run loop started")
	for {
		sleep := e.cfg.Trading.MonitoringInterval
		if !e.gate.IsTradingTime() {
			log.Println("[ENGINE] Outside trading hours, sleeping")
			sleep = offHoursSleep
		} else {
			e.RunCycle()
		}

		select {
		case <-ctx.Done():
			log.Println("[ENGINE] Shutdown requested")
			e.md.Disconnect()
			return
		case <-time.After(sleep):
		}
	}
}

// RunCycle executes one pass: monitor open positions, then look for entries.
// Outside the trading window the cycle is a no-op.
func (e *Engine) RunCycle() {
	if !e.gate.IsTradingTime() {
		return
	}
	snapshot := e.md.GetAllQuotes()
	e.monitorPositions(snapshot)
	e.scanForEntries(snapshot)
	e.logStatus(snapshot)
}

type exit struct {
	pos    models.Position
	price  decimal.Decimal
	reason string
}

// monitorPositions checks every open position against the cycle's snapshot.
// For a short, the stop sits above the entry and the target below; a print at
// or through either level closes the position at that print.
func (e *Engine) monitorPositions(snapshot map[string]models.Quote) {
	e.mu.Lock()
	var exits []exit
	for symbol, pos := range e.positions {
		q, ok := snapshot[symbol]
		if !ok {
			continue
		}
		price := decimal.NewFromFloat(q.LTP)
		switch {
		case pos.Short() && price.GreaterThanOrEqual(pos.StopLoss):
			exits = append(exits, exit{pos, price, "STOP_LOSS"})
		case pos.Short() && price.LessThanOrEqual(pos.TargetPrice):
			exits = append(exits, exit{pos, price, "TARGET"})
		case !pos.Short() && price.LessThanOrEqual(pos.StopLoss):
			exits = append(exits, exit{pos, price, "STOP_LOSS"})
		case !pos.Short() && price.GreaterThanOrEqual(pos.TargetPrice):
			exits = append(exits, exit{pos, price, "TARGET"})
		}
	}
	e.mu.Unlock()

	for _, x := range exits {
		e.closePosition(x.pos, x.price, x.reason)
	}
}

func (e *Engine) closePosition(pos models.Position, price decimal.Decimal, reason string) {
	if e.executor != nil {
		if err := e.executor.Close(pos, reason); err != nil {
			log.Printf("[ENGINE] Close order for %s failed, keeping position: %v", pos.Symbol, err)
			return
		}
	}

	pnl := pos.UnrealizedPnL(price)
	e.mu.Lock()
	delete(e.positions, pos.Symbol)
	e.dailyPnL = e.dailyPnL.Add(pnl)
	e.totalPnL = e.totalPnL.Add(pnl)
	e.mu.Unlock()

	metrics.PositionsClosed.WithLabelValues(reason).Inc()
	metrics.OpenPositions.Dec()
	log.Printf("[ENGINE] Closed %s (%s) @ %s, P&L %s", pos.Symbol, reason, price.StringFixed(2), pnl.StringFixed(2))

	if e.journal != nil {
		trade := models.ClosedTrade{
			Symbol:    pos.Symbol,
			Sector:    pos.Sector,
			Quantity:  pos.Quantity,
			Entry:     pos.EntryPrice,
			Exit:      price,
			PnL:       pnl,
			Reason:    reason,
			EntryTime: pos.EntryTime,
			ExitTime:  time.Now(),
		}
		if err := e.journal.Record(trade); err != nil {
			log.Printf("[ENGINE] Journal write failed: %v", err)
		}
	}
	if e.notifier != nil {
		_ = e.notifier.Send("POSITION_CLOSED",
			fmt.Sprintf("%s %s @ %s, P&L %s", pos.Symbol, reason, price.StringFixed(2), pnl.StringFixed(2)))
	}
}

// scanForEntries generates, ranks, and opens signals, bounded by free slots.
func (e *Engine) scanForEntries(snapshot map[string]models.Quote) {
	if !e.gate.IsSignalWindow() {
		return
	}

	e.mu.Lock()
	free := e.cfg.Strategy.MaxPositions - len(e.positions)
	e.mu.Unlock()
	if free <= 0 {
		return
	}

	if !e.breadthOK(snapshot) {
		log.Println("[ENGINE] Market breadth weak, no entries this cycle")
		return
	}

	signals := e.generateSignals(snapshot)
	sort.Slice(signals, func(i, j int) bool { return signals[i].Confidence > signals[j].Confidence })

	opened := 0
	for _, sig := range signals {
		if opened >= free {
			break
		}
		if opened > 0 {
			time.Sleep(e.entryDelay)
		}
		if e.openPosition(sig) {
			opened++
		}
	}
}

// breadthOK requires more than 60% of the quoted basket symbols to be up over
// 0.3%. No basket quotes at all keeps the gate shut.
func (e *Engine) breadthOK(snapshot map[string]models.Quote) bool {
	quoted, advancing := 0, 0
	for _, sym := range referenceBasket {
		q, ok := snapshot[sym]
		if !ok {
			continue
		}
		quoted++
		if q.ChangePct > breadthMinChange {
			advancing++
		}
	}
	if quoted == 0 {
		return false
	}
	return float64(advancing)/float64(quoted) > breadthThreshold
}

// generateSignals evaluates every gapped-up universe symbol without an open
// position. A symbol must clear the gap, pressure, volume, and confidence
// thresholds in that order; the expensive bar lookups only run past the gap
// filter.
func (e *Engine) generateSignals(snapshot map[string]models.Quote) []models.Signal {
	cfg := e.cfg.Strategy
	var signals []models.Signal
	for symbol, sector := range universe {
		e.mu.Lock()
		_, held := e.positions[symbol]
		e.mu.Unlock()
		if held {
			continue
		}

		q, ok := snapshot[symbol]
		if !ok {
			continue
		}
		gap := q.ChangePct
		if gap < cfg.MinGapPct {
			continue
		}

		pressure := e.eval.SellingPressure(symbol)
		if pressure < cfg.MinSellingPressure {
			continue
		}
		ratio := e.eval.VolumeRatio(symbol, q)
		if ratio < cfg.MinVolumeRatio {
			continue
		}

		confidence := 0.4*(pressure/100) +
			0.3*math.Min(ratio/3, 1) +
			0.2*(gap/5) +
			0.1*sectorWeight(sector)
		if confidence < cfg.MinConfidence {
			log.Printf("[ENGINE] %s passed filters but confidence %.2f below %.2f", symbol, confidence, cfg.MinConfidence)
			continue
		}

		stop, target := exitLevels(q.LTP, cfg)
		signals = append(signals, models.Signal{
			Symbol:          symbol,
			Sector:          sector,
			Direction:       "SHORT",
			EntryPrice:      q.LTP,
			StopLoss:        stop,
			TargetPrice:     target,
			Confidence:      confidence,
			GapPct:          gap,
			SellingPressure: pressure,
			VolumeRatio:     ratio,
			Timestamp:       time.Now(),
		})
		metrics.SignalsGenerated.Inc()
		log.Printf("[ENGINE] Signal: SHORT %s @ %.2f (gap %.2f%%, pressure %.1f, vol %.2fx, conf %.2f)",
			symbol, q.LTP, gap, pressure, ratio, confidence)
	}
	return signals
}

// openPosition sizes and books one short. Capacity and the one-position-per-
// symbol rule are rechecked under the lock, since ranking happened outside it.
func (e *Engine) openPosition(sig models.Signal) bool {
	entry := decimal.NewFromFloat(sig.EntryPrice)
	stop := decimal.NewFromFloat(sig.StopLoss)
	qty := positionSize(e.cfg.Strategy, entry, stop)
	if qty <= 0 {
		log.Printf("[ENGINE] %s sized to zero, skipping", sig.Symbol)
		return false
	}

	orderID := fmt.Sprintf("SIM_%s_%d", sig.Symbol, time.Now().Unix())
	if e.executor != nil {
		id, err := e.executor.OpenShort(sig, qty)
		if err != nil {
			log.Printf("[ENGINE] Open order for %s failed: %v", sig.Symbol, err)
			return false
		}
		orderID = id
	}

	pos := models.Position{
		Symbol:      sig.Symbol,
		EntryPrice:  entry,
		Quantity:    -qty,
		StopLoss:    stop,
		TargetPrice: decimal.NewFromFloat(sig.TargetPrice),
		EntryTime:   time.Now(),
		Sector:      sig.Sector,
		OrderID:     orderID,
	}

	e.mu.Lock()
	if _, exists := e.positions[sig.Symbol]; exists || len(e.positions) >= e.cfg.Strategy.MaxPositions {
		e.mu.Unlock()
		return false
	}
	e.positions[sig.Symbol] = pos
	e.mu.Unlock()

	metrics.PositionsOpened.Inc()
	metrics.OpenPositions.Inc()
	log.Printf("[ENGINE] Opened SHORT %s x%d @ %s (stop %s, target %s, order %s)",
		sig.Symbol, qty, entry.StringFixed(2), stop.StringFixed(2), pos.TargetPrice.StringFixed(2), orderID)
	if e.notifier != nil {
		_ = e.notifier.Send("POSITION_OPENED",
			fmt.Sprintf("SHORT %s x%d @ %s", sig.Symbol, qty, entry.StringFixed(2)))
	}
	return true
}

func (e *Engine) unrealized(snapshot map[string]models.Quote) decimal.Decimal {
	total := decimal.Zero
	for symbol, pos := range e.positions {
		if q, ok := snapshot[symbol]; ok {
			total = total.Add(pos.UnrealizedPnL(decimal.NewFromFloat(q.LTP)))
		}
	}
	return total
}

func (e *Engine) logStatus(snapshot map[string]models.Quote) {
	e.mu.Lock()
	defer e.mu.Unlock()
	log.Printf("[ENGINE] Status: %d open | daily P&L %s | unrealized %s | total P&L %s",
		len(e.positions), e.dailyPnL.StringFixed(2), e.unrealized(snapshot).StringFixed(2), e.totalPnL.StringFixed(2))
}

// PerformanceSummary is the shutdown report.
type PerformanceSummary struct {
	OpenPositions []models.Position
	DailyPnL      decimal.Decimal
	TotalPnL      decimal.Decimal
	Unrealized    decimal.Decimal
	Fallback      bool
}

// Summary snapshots the engine for reporting.
func (e *Engine) Summary() PerformanceSummary {
	snapshot := e.md.GetAllQuotes()
	e.mu.Lock()
	defer e.mu.Unlock()

	open := make([]models.Position, 0, len(e.positions))
	for _, pos := range e.positions {
		open = append(open, pos)
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Symbol < open[j].Symbol })

	return PerformanceSummary{
		OpenPositions: open,
		DailyPnL:      e.dailyPnL,
		TotalPnL:      e.totalPnL,
		Unrealized:    e.unrealized(snapshot),
		Fallback:      e.md.Fallback(),
	}
}
