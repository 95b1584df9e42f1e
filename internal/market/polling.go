package market

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gapwatch/internal/config"
	"gapwatch/internal/metrics"
	"gapwatch/internal/models"
)

// PollingChannel is the REST fallback: a timed loop that batch-fetches quotes
// for the subscribed set. Unlike the streaming path it dispatches only on a
// changed last price, so a quiet market does not turn into a notification
// storm at the poll interval.
type PollingChannel struct {
	cfg      config.Poll
	baseURL  string
	clientID string
	token    string

	catalog *SymbolCatalog
	store   *QuoteStore
	client  *http.Client

	connected atomic.Bool

	mu         sync.Mutex
	stop       chan struct{}
	subscribed map[string]struct{}
	lastLTP    map[string]float64
	callbacks  []Callback
}

func NewPollingChannel(cfg config.Poll, baseURL, clientID, token string, catalog *SymbolCatalog, store *QuoteStore) *PollingChannel {
	return &PollingChannel{
		cfg:        cfg,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		clientID:   clientID,
		token:      token,
		catalog:    catalog,
		store:      store,
		client:     &http.Client{Timeout: 10 * time.Second},
		subscribed: make(map[string]struct{}),
		lastLTP:    make(map[string]float64),
	}
}

// Connect issues one authenticated probe call. Success defines the channel as
// connected and starts a fresh poll loop; later fetch failures back off but
// never tear the channel down. After Disconnect a new Connect starts a new
// session with its own stop channel.
func (p *PollingChannel) Connect() bool {
	var probe struct {
		S string `json:"s"`
	}
	if err := p.getJSON("/profile", nil, &probe); err != nil {
		log.Printf("[POLL] Probe failed: %v", err)
		return false
	}
	if probe.S != "ok" {
		log.Printf("[POLL] Probe rejected: status %q", probe.S)
		return false
	}

	p.mu.Lock()
	if p.stop != nil {
		// Already connected; keep the running loop.
		p.mu.Unlock()
		return true
	}
	stop := make(chan struct{})
	p.stop = stop
	p.mu.Unlock()

	p.connected.Store(true)
	go p.loop(stop)
	log.Println("[POLL] Connected, polling started")
	return true
}

func (p *PollingChannel) loop(stop <-chan struct{}) {
	delay := p.cfg.Interval
	for {
		select {
		case <-stop:
			return
		case <-time.After(delay):
		}
		if !p.connected.Load() {
			return
		}

		if len(p.snapshotSymbols()) == 0 {
			delay = p.cfg.Interval
			continue
		}

		if err := p.fetchQuotes(); err != nil {
			log.Printf("[POLL] Fetch failed, backing off: %v", err)
			delay = p.cfg.ErrorBackoff
			continue
		}
		metrics.PollCycles.Inc()
		delay = p.cfg.Interval
	}
}

func (p *PollingChannel) snapshotSymbols() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.subscribed))
	for sym := range p.subscribed {
		out = append(out, sym)
	}
	return out
}

// fetchQuotes fans the subscribed set out into chunked batch requests, with a
// short delay between chunks to respect the venue rate limit.
func (p *PollingChannel) fetchQuotes() error {
	venueSymbols := p.catalog.VenueSymbols(p.snapshotSymbols())

	for start := 0; start < len(venueSymbols); start += p.cfg.ChunkSize {
		end := start + p.cfg.ChunkSize
		if end > len(venueSymbols) {
			end = len(venueSymbols)
		}
		if start > 0 {
			time.Sleep(p.cfg.ChunkDelay)
		}

		var resp struct {
			S string               `json:"s"`
			D map[string]venueTick `json:"d"`
		}
		params := url.Values{"symbols": {strings.Join(venueSymbols[start:end], ",")}}
		if err := p.getJSON("/quotes", params, &resp); err != nil {
			return err
		}
		if resp.S != "ok" {
			return fmt.Errorf("quotes response status %q", resp.S)
		}
		p.processQuotes(resp.D)
	}
	return nil
}

// processQuotes dispatches only quotes whose last price moved since the
// previous poll. Unmapped venue symbols are dropped.
func (p *PollingChannel) processQuotes(data map[string]venueTick) {
	now := time.Now()
	for venueSymbol, tick := range data {
		symbol, ok := p.catalog.ToInternal(venueSymbol)
		if !ok {
			continue
		}
		if tick.Symbol == "" {
			tick.Symbol = venueSymbol
		}
		q, ok := tick.quote(symbol, now)
		if !ok {
			continue
		}

		p.mu.Lock()
		prev, seen := p.lastLTP[symbol]
		p.lastLTP[symbol] = q.LTP
		p.mu.Unlock()

		if seen && prev == q.LTP {
			continue
		}
		p.dispatch(q)
	}
}

func (p *PollingChannel) dispatch(q models.Quote) {
	p.store.Update(q)

	p.mu.Lock()
	callbacks := make([]Callback, len(p.callbacks))
	copy(callbacks, p.callbacks)
	p.mu.Unlock()

	for _, cb := range callbacks {
		cb(q.Symbol, q)
	}
	metrics.QuotesDispatched.WithLabelValues(q.Symbol, "poll").Inc()
}

func (p *PollingChannel) getJSON(path string, params url.Values, out interface{}) error {
	u := p.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", p.clientID+":"+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Subscribe records the symbols; the poll loop picks them up on its next
// pass. Unlike the streaming channel this works before Connect.
func (p *PollingChannel) Subscribe(symbols []string) bool {
	p.mu.Lock()
	for _, sym := range symbols {
		p.subscribed[sym] = struct{}{}
	}
	p.mu.Unlock()
	log.Printf("[POLL] Subscribed to %d symbols: %v", len(symbols), symbols)
	return true
}

func (p *PollingChannel) Unsubscribe(symbols []string) bool {
	p.mu.Lock()
	for _, sym := range symbols {
		delete(p.subscribed, sym)
		delete(p.lastLTP, sym)
	}
	p.mu.Unlock()
	log.Printf("[POLL] Unsubscribed from %d symbols", len(symbols))
	return true
}

func (p *PollingChannel) AddCallback(cb Callback) {
	p.mu.Lock()
	p.callbacks = append(p.callbacks, cb)
	p.mu.Unlock()
}

func (p *PollingChannel) GetQuote(symbol string) (models.Quote, bool) {
	return p.store.Get(symbol)
}

func (p *PollingChannel) GetAllQuotes() map[string]models.Quote {
	return p.store.Snapshot()
}

// Disconnect stops the current loop. Idempotent; a later Connect starts a new
// session.
func (p *PollingChannel) Disconnect() {
	p.connected.Store(false)
	p.mu.Lock()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	p.mu.Unlock()
	log.Println("[POLL] Disconnected")
}
