package market

import (
	"log"
	"sync"

	"gapwatch/internal/models"
)

// Callback receives every accepted quote update. Callbacks run synchronously
// on the dispatch path in registration order; a slow consumer stalls the
// feed, so hand off to a queue if real work is needed.
type Callback func(symbol string, quote models.Quote)

// DataChannel is the capability shared by the streaming and polling
// implementations. The gateway holds exactly one active channel per session.
type DataChannel interface {
	Connect() bool
	Disconnect()
	Subscribe(symbols []string) bool
	Unsubscribe(symbols []string) bool
	AddCallback(cb Callback)
	GetQuote(symbol string) (models.Quote, bool)
	GetAllQuotes() map[string]models.Quote
}

// Gateway selects between push streaming and REST polling at connect time and
// presents one uniform contract to the strategy. The choice is made once per
// session: a streaming channel that later exhausts its reconnect budget does
// not flip the gateway over to polling.
type Gateway struct {
	stream DataChannel
	poll   DataChannel

	mu        sync.Mutex
	active    DataChannel
	fallback  bool
	callbacks []Callback
}

func NewGateway(stream, poll DataChannel) *Gateway {
	return &Gateway{stream: stream, poll: poll}
}

// Connect tries the streaming channel first, then polling. Callbacks
// registered before Connect are attached to whichever channel wins.
func (g *Gateway) Connect() bool {
	log.Println("[GATEWAY] Connecting (stream -> poll fallback)")

	if g.stream.Connect() {
		g.adopt(g.stream, false)
		log.Println("[GATEWAY] Using streaming channel")
		return true
	}

	log.Println("[GATEWAY] Streaming failed, trying REST polling")
	if g.poll.Connect() {
		g.adopt(g.poll, true)
		log.Println("[GATEWAY] Using polling fallback")
		return true
	}

	log.Println("[GATEWAY] All connection methods failed")
	return false
}

func (g *Gateway) adopt(ch DataChannel, fallback bool) {
	g.mu.Lock()
	g.active = ch
	g.fallback = fallback
	callbacks := g.callbacks
	g.mu.Unlock()

	for _, cb := range callbacks {
		ch.AddCallback(cb)
	}
}

// AddCallback records the callback and, once a channel is active, attaches it
// so every update reaches every consumer exactly once.
func (g *Gateway) AddCallback(cb Callback) {
	g.mu.Lock()
	g.callbacks = append(g.callbacks, cb)
	active := g.active
	g.mu.Unlock()

	if active != nil {
		active.AddCallback(cb)
	}
}

func (g *Gateway) activeChannel() DataChannel {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

func (g *Gateway) Subscribe(symbols []string) bool {
	ch := g.activeChannel()
	if ch == nil {
		return false
	}
	return ch.Subscribe(symbols)
}

func (g *Gateway) Unsubscribe(symbols []string) bool {
	ch := g.activeChannel()
	if ch == nil {
		return false
	}
	return ch.Unsubscribe(symbols)
}

func (g *Gateway) GetQuote(symbol string) (models.Quote, bool) {
	ch := g.activeChannel()
	if ch == nil {
		return models.Quote{}, false
	}
	return ch.GetQuote(symbol)
}

func (g *Gateway) GetAllQuotes() map[string]models.Quote {
	ch := g.activeChannel()
	if ch == nil {
		return map[string]models.Quote{}
	}
	return ch.GetAllQuotes()
}

// Fallback reports whether the session runs on REST polling.
func (g *Gateway) Fallback() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fallback
}

// Connected reports whether any channel was adopted.
func (g *Gateway) Connected() bool {
	return g.activeChannel() != nil
}

// Disconnect releases both channels, not just the active one: a streaming
// dial that outlived its Connect timeout may still come up in the background
// after polling was adopted, and it must be stopped too. Channel Disconnects
// are idempotent, so this is safe when never connected.
func (g *Gateway) Disconnect() {
	g.stream.Disconnect()
	g.poll.Disconnect()
	g.mu.Lock()
	g.active = nil
	g.mu.Unlock()
	log.Println("[GATEWAY] Disconnected")
}
