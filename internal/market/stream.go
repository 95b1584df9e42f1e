package market

import (
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"gapwatch/internal/config"
	"gapwatch/internal/metrics"
	"gapwatch/internal/models"
)

// ChannelState tracks the streaming channel lifecycle.
type ChannelState int32

const (
	StateDisconnected ChannelState = iota
	StateConnecting
	StateConnected
	StateClosing
	StateFailed
)

func (s ChannelState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosing:
		return "CLOSING"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

const connectPollInterval = 100 * time.Millisecond

// StreamingChannel maintains one push connection to the venue feed. It
// reconnects on unexpected closure with a fixed delay, up to a bounded number
// of attempts, and re-sends the subscription set after every successful
// (re)connect. Exhausting the attempt budget parks the channel in FAILED
// until Connect is called again.
type StreamingChannel struct {
	cfg      config.Stream
	url      string
	clientID string
	token    string

	catalog *SymbolCatalog
	store   *QuoteStore

	state   atomic.Int32
	stopped atomic.Bool
	running atomic.Bool

	mu         sync.Mutex
	conn       *websocket.Conn
	subscribed map[string]struct{}
	callbacks  []Callback
}

func NewStreamingChannel(cfg config.Stream, url, clientID, token string, catalog *SymbolCatalog, store *QuoteStore) *StreamingChannel {
	return &StreamingChannel{
		cfg:        cfg,
		url:        url,
		clientID:   clientID,
		token:      token,
		catalog:    catalog,
		store:      store,
		subscribed: make(map[string]struct{}),
	}
}

// State returns the current lifecycle state.
func (s *StreamingChannel) State() ChannelState {
	return ChannelState(s.state.Load())
}

func (s *StreamingChannel) setState(st ChannelState) {
	s.state.Store(int32(st))
}

// Connect starts the connection loop and waits up to the configured timeout
// for the CONNECTED transition. The runner start is retried on every wait
// iteration: a Connect issued right after Disconnect can find the previous
// runner still unwinding and holding the running flag. On timeout it returns
// false while the dial keeps going in the background; a late success still
// brings the channel up.
func (s *StreamingChannel) Connect() bool {
	s.stopped.Store(false)
	deadline := time.Now().Add(s.cfg.ConnectTimeout)
	for {
		if s.running.CompareAndSwap(false, true) {
			s.setState(StateConnecting)
			go s.run()
		}
		if s.State() == StateConnected {
			log.Println("[STREAM] Connected")
			return true
		}
		if !time.Now().Before(deadline) {
			break
		}
		time.Sleep(connectPollInterval)
	}
	log.Println("[STREAM] Connection timeout")
	return false
}

// run owns the dial/read/reconnect loop. It exits when the channel is stopped
// or the reconnect budget is exhausted.
func (s *StreamingChannel) run() {
	defer s.running.Store(false)

	attempts := 0
	for {
		if s.stopped.Load() {
			s.setState(StateDisconnected)
			return
		}

		header := http.Header{}
		header.Set("Authorization", s.clientID+":"+s.token)
		dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
		conn, _, err := dialer.Dial(s.url, header)
		if err != nil {
			attempts++
			log.Printf("[STREAM] Dial failed (attempt %d/%d): %v", attempts, s.cfg.MaxReconnectAttempts, err)
			if attempts >= s.cfg.MaxReconnectAttempts {
				s.setState(StateFailed)
				log.Println("[STREAM] Reconnect budget exhausted, channel FAILED")
				return
			}
			metrics.StreamReconnects.Inc()
			time.Sleep(s.cfg.ReconnectInterval)
			continue
		}

		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		s.setState(StateConnected)
		attempts = 0

		// Subscription state survives reconnects.
		s.resubscribe()

		err = s.readPump(conn)
		conn.Close()
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()

		if s.stopped.Load() {
			s.setState(StateDisconnected)
			return
		}

		log.Printf("[STREAM] Connection lost: %v", err)
		s.setState(StateConnecting)
		attempts++
		if attempts >= s.cfg.MaxReconnectAttempts {
			s.setState(StateFailed)
			log.Println("[STREAM] Reconnect budget exhausted, channel FAILED")
			return
		}
		metrics.StreamReconnects.Inc()
		time.Sleep(s.cfg.ReconnectInterval)
	}
}

func (s *StreamingChannel) readPump(conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		s.handleFrame(raw)
	}
}

// handleFrame decodes an inbound frame opportunistically. Every decoded tick
// is dispatched unconditionally; the streaming path does not suppress
// unchanged prices. Unattributable or non-data frames are dropped silently.
func (s *StreamingChannel) handleFrame(raw []byte) {
	ticks := decodeFrame(raw)
	if len(ticks) == 0 {
		metrics.FramesDropped.Inc()
		return
	}
	now := time.Now()
	for _, tick := range ticks {
		symbol, ok := s.catalog.ToInternal(tick.Symbol)
		if !ok {
			metrics.FramesDropped.Inc()
			continue
		}
		q, ok := tick.quote(symbol, now)
		if !ok {
			metrics.FramesDropped.Inc()
			continue
		}
		s.dispatch(q)
	}
}

func (s *StreamingChannel) dispatch(q models.Quote) {
	s.store.Update(q)

	s.mu.Lock()
	callbacks := make([]Callback, len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(q.Symbol, q)
	}
	metrics.QuotesDispatched.WithLabelValues(q.Symbol, "stream").Inc()
}

// Subscribe sends the control frame for the given symbols and records them so
// they are re-sent on reconnect. Fails fast when not connected.
func (s *StreamingChannel) Subscribe(symbols []string) bool {
	if s.State() != StateConnected {
		log.Println("[STREAM] Subscribe rejected: not connected")
		return false
	}
	if !s.sendControl("sub", s.catalog.VenueSymbols(symbols)) {
		return false
	}
	s.mu.Lock()
	for _, sym := range symbols {
		s.subscribed[sym] = struct{}{}
	}
	s.mu.Unlock()
	log.Printf("[STREAM] Subscribed to %d symbols: %v", len(symbols), symbols)
	return true
}

// Unsubscribe sends the control frame and forgets the symbols.
func (s *StreamingChannel) Unsubscribe(symbols []string) bool {
	if s.State() != StateConnected {
		return false
	}
	if !s.sendControl("unsub", s.catalog.VenueSymbols(symbols)) {
		return false
	}
	s.mu.Lock()
	for _, sym := range symbols {
		delete(s.subscribed, sym)
	}
	s.mu.Unlock()
	log.Printf("[STREAM] Unsubscribed from %d symbols", len(symbols))
	return true
}

func (s *StreamingChannel) resubscribe() {
	s.mu.Lock()
	symbols := make([]string, 0, len(s.subscribed))
	for sym := range s.subscribed {
		symbols = append(symbols, sym)
	}
	s.mu.Unlock()

	if len(symbols) == 0 {
		return
	}
	if s.sendControl("sub", s.catalog.VenueSymbols(symbols)) {
		log.Printf("[STREAM] Resubscribed to %d symbols after reconnect", len(symbols))
	}
}

// sendControl is fire-and-forget: it does not wait for a venue ack.
func (s *StreamingChannel) sendControl(kind string, venueSymbols []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return false
	}
	frame := controlFrame{T: kind, Symbols: venueSymbols, Mode: "quotes"}
	if err := s.conn.WriteJSON(frame); err != nil {
		log.Printf("[STREAM] Control frame %q failed: %v", kind, err)
		return false
	}
	return true
}

// AddCallback registers a consumer. Callbacks run synchronously on the read
// pump in registration order and must not block.
func (s *StreamingChannel) AddCallback(cb Callback) {
	s.mu.Lock()
	s.callbacks = append(s.callbacks, cb)
	s.mu.Unlock()
}

func (s *StreamingChannel) GetQuote(symbol string) (models.Quote, bool) {
	return s.store.Get(symbol)
}

func (s *StreamingChannel) GetAllQuotes() map[string]models.Quote {
	return s.store.Snapshot()
}

// Disconnect is idempotent: it suppresses auto-reconnect and releases the
// transport.
func (s *StreamingChannel) Disconnect() {
	if s.stopped.Swap(true) {
		return
	}
	s.setState(StateClosing)
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()
	s.setState(StateDisconnected)
	log.Println("[STREAM] Disconnected")
}
