package market

import (
	"sync"

	"gapwatch/internal/models"
)

// QuoteStore is a last-value cache of the most recent quote per symbol.
// The dispatch path is the single writer; the strategy cycle reads
// concurrently. Last write wins per symbol; no history is retained.
type QuoteStore struct {
	mu     sync.RWMutex
	quotes map[string]models.Quote
}

func NewQuoteStore() *QuoteStore {
	return &QuoteStore{quotes: make(map[string]models.Quote)}
}

// Update replaces the stored quote for the symbol.
func (s *QuoteStore) Update(q models.Quote) {
	s.mu.Lock()
	s.quotes[q.Symbol] = q
	s.mu.Unlock()
}

// Get returns the latest quote for the symbol, if any.
func (s *QuoteStore) Get(symbol string) (models.Quote, bool) {
	s.mu.RLock()
	q, ok := s.quotes[symbol]
	s.mu.RUnlock()
	return q, ok
}

// Snapshot copies the current state. The strategy cycle works on one snapshot
// per cycle; updates arriving afterwards are observed on the next cycle.
func (s *QuoteStore) Snapshot() map[string]models.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Quote, len(s.quotes))
	for sym, q := range s.quotes {
		out[sym] = q
	}
	return out
}
