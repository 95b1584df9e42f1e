package market

import (
	"testing"

	"gapwatch/internal/models"
)

// fakeChannel is a scriptable DataChannel for gateway tests.
type fakeChannel struct {
	connectOK  bool
	connects   int
	subscribed []string
	callbacks  []Callback
	closed     bool
}

func (c *fakeChannel) Connect() bool {
	c.connects++
	return c.connectOK
}
func (c *fakeChannel) Disconnect() { c.closed = true }
func (c *fakeChannel) Subscribe(symbols []string) bool {
	c.subscribed = append(c.subscribed, symbols...)
	return true
}
func (c *fakeChannel) Unsubscribe(symbols []string) bool { return true }
func (c *fakeChannel) AddCallback(cb Callback)           { c.callbacks = append(c.callbacks, cb) }
func (c *fakeChannel) GetQuote(symbol string) (models.Quote, bool) {
	return models.Quote{}, false
}
func (c *fakeChannel) GetAllQuotes() map[string]models.Quote {
	return map[string]models.Quote{}
}

func TestGatewayPrefersStreaming(t *testing.T) {
	stream := &fakeChannel{connectOK: true}
	poll := &fakeChannel{connectOK: true}
	g := NewGateway(stream, poll)

	if !g.Connect() {
		t.Fatal("expected connect to succeed")
	}
	if g.Fallback() {
		t.Error("streaming success must not report fallback")
	}
	if poll.connects != 0 {
		t.Error("polling channel should not be tried when streaming wins")
	}

	g.Subscribe([]string{"TCS.NS"})
	if len(stream.subscribed) != 1 || stream.subscribed[0] != "TCS.NS" {
		t.Errorf("subscribe went to %v, want streaming channel", stream.subscribed)
	}
	if len(poll.subscribed) != 0 {
		t.Error("subscribe leaked to the inactive channel")
	}
}

func TestGatewayFallsBackToPolling(t *testing.T) {
	stream := &fakeChannel{connectOK: false}
	poll := &fakeChannel{connectOK: true}
	g := NewGateway(stream, poll)

	if !g.Connect() {
		t.Fatal("expected fallback connect to succeed")
	}
	if !g.Fallback() {
		t.Error("polling session must report fallback")
	}

	g.Subscribe([]string{"INFY.NS"})
	if len(poll.subscribed) != 1 {
		t.Errorf("subscribe went to %v, want polling channel", poll.subscribed)
	}
}

func TestGatewayBothChannelsFail(t *testing.T) {
	g := NewGateway(&fakeChannel{}, &fakeChannel{})
	if g.Connect() {
		t.Error("connect should fail when both channels fail")
	}
	if g.Connected() {
		t.Error("no channel should be active")
	}
	if g.Subscribe([]string{"TCS.NS"}) {
		t.Error("subscribe should fail with no active channel")
	}
}

func TestGatewayAttachesEarlyCallbacks(t *testing.T) {
	stream := &fakeChannel{connectOK: true}
	g := NewGateway(stream, &fakeChannel{})

	g.AddCallback(func(symbol string, quote models.Quote) {})
	g.AddCallback(func(symbol string, quote models.Quote) {})
	if len(stream.callbacks) != 0 {
		t.Fatal("callbacks attached before any channel was adopted")
	}

	g.Connect()
	if len(stream.callbacks) != 2 {
		t.Errorf("attached callbacks = %d, want 2", len(stream.callbacks))
	}

	// Late registrations go straight to the active channel.
	g.AddCallback(func(symbol string, quote models.Quote) {})
	if len(stream.callbacks) != 3 {
		t.Errorf("attached callbacks = %d, want 3", len(stream.callbacks))
	}
}

func TestGatewayDisconnectReleasesChannel(t *testing.T) {
	stream := &fakeChannel{connectOK: true}
	g := NewGateway(stream, &fakeChannel{})
	g.Connect()
	g.Disconnect()

	if !stream.closed {
		t.Error("active channel was not disconnected")
	}
	if g.Connected() {
		t.Error("gateway still reports connected after disconnect")
	}
}

func TestGatewayDisconnectReleasesInactiveChannel(t *testing.T) {
	// A streaming dial can succeed in the background after its Connect
	// timed out and polling was adopted; Disconnect must stop it too.
	stream := &fakeChannel{connectOK: false}
	poll := &fakeChannel{connectOK: true}
	g := NewGateway(stream, poll)

	if !g.Connect() {
		t.Fatal("expected fallback connect to succeed")
	}
	g.Disconnect()

	if !poll.closed {
		t.Error("active polling channel was not disconnected")
	}
	if !stream.closed {
		t.Error("inactive streaming channel was not disconnected")
	}
}
