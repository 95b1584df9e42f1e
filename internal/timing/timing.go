// Package timing gates the strategy on the exchange session clock.
package timing

import (
	"time"

	"gapwatch/internal/config"
)

// sessionLengthHours is the full NSE cash session (09:15-15:30).
const sessionLengthHours = 6.5

// Gate answers the session-window questions the strategy asks every cycle.
type Gate interface {
	IsTradingTime() bool
	IsSignalWindow() bool
	SessionElapsedHours() float64
}

// Service implements Gate against the configured trading window. Now is
// injectable so the window math is testable.
type Service struct {
	cfg config.Trading
	now func() time.Time
}

func NewService(cfg config.Trading) *Service {
	return &Service{cfg: cfg, now: func() time.Time { return time.Now().In(config.ISTLoc) }}
}

// NewServiceAt builds a gate with a fixed clock, for tests.
func NewServiceAt(cfg config.Trading, now func() time.Time) *Service {
	return &Service{cfg: cfg, now: now}
}

func (s *Service) at(hour, minute int) time.Time {
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), hour, minute, 0, 0, n.Location())
}

// IsTradingTime reports whether now falls inside the weekday trading window.
func (s *Service) IsTradingTime() bool {
	now := s.now()
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return false
	}
	start := s.at(s.cfg.MarketStartHour, s.cfg.MarketStartMinute)
	end := s.at(s.cfg.MarketEndHour, s.cfg.MarketEndMinute)
	return !now.Before(start) && !now.After(end)
}

// IsSignalWindow reports whether new entries may still be generated. The
// window opens with the market and closes earlier than the session.
func (s *Service) IsSignalWindow() bool {
	if !s.IsTradingTime() {
		return false
	}
	now := s.now()
	end := s.at(s.cfg.SignalEndHour, s.cfg.SignalEndMinute)
	return !now.After(end)
}

// SessionElapsedHours returns hours since the session open, floored at 0.5 so
// volume projection near the open does not blow up.
func (s *Service) SessionElapsedHours() float64 {
	elapsed := s.now().Sub(s.at(s.cfg.MarketStartHour, s.cfg.MarketStartMinute)).Hours()
	if elapsed < 0.5 {
		return 0.5
	}
	if elapsed > sessionLengthHours {
		return sessionLengthHours
	}
	return elapsed
}

// SessionLengthHours exposes the full session length for volume projection.
func SessionLengthHours() float64 { return sessionLengthHours }
