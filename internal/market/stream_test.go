package market

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gapwatch/internal/config"
	"gapwatch/internal/models"
)

// fakeFeed is a minimal venue push endpoint. It records decoded control
// frames and keeps handles to accepted connections so tests can force
// disconnects and inject ticks.
type fakeFeed struct {
	upgrader websocket.Upgrader
	frames   chan controlFrame

	mu    sync.Mutex
	conns []*websocket.Conn
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{frames: make(chan controlFrame, 16)}
}

func (f *fakeFeed) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	f.mu.Lock()
	f.conns = append(f.conns, conn)
	f.mu.Unlock()

	for {
		var frame controlFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		f.frames <- frame
	}
}

func (f *fakeFeed) lastConn() *websocket.Conn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.conns) == 0 {
		return nil
	}
	return f.conns[len(f.conns)-1]
}

func (f *fakeFeed) dropLastConn() {
	if c := f.lastConn(); c != nil {
		c.Close()
	}
}

func (f *fakeFeed) awaitFrame(t *testing.T) controlFrame {
	t.Helper()
	select {
	case frame := <-f.frames:
		return frame
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for control frame")
		return controlFrame{}
	}
}

func testStreamChannel(t *testing.T, wsURL string) (*StreamingChannel, *QuoteStore) {
	t.Helper()
	cfg := config.Stream{
		ConnectTimeout:       2 * time.Second,
		ReconnectInterval:    50 * time.Millisecond,
		MaxReconnectAttempts: 3,
	}
	store := NewQuoteStore()
	ch := NewStreamingChannel(cfg, wsURL, "client", "token", DefaultCatalog(), store)
	t.Cleanup(ch.Disconnect)
	return ch, store
}

func wsURLFor(srv *httptest.Server) string {
	return "ws://" + strings.TrimPrefix(srv.URL, "http://")
}

func TestStreamingResubscribesAfterReconnect(t *testing.T) {
	feed := newFakeFeed()
	srv := httptest.NewServer(http.HandlerFunc(feed.handler))
	defer srv.Close()

	ch, _ := testStreamChannel(t, wsURLFor(srv))
	if !ch.Connect() {
		t.Fatal("expected connect to succeed")
	}

	if !ch.Subscribe([]string{"TCS.NS", "INFY.NS"}) {
		t.Fatal("expected subscribe to succeed")
	}
	first := feed.awaitFrame(t)
	if first.T != "sub" {
		t.Fatalf("first frame type = %q, want sub", first.T)
	}

	// Kill the connection out from under the channel; the subscription set
	// must come back on its own after the reconnect.
	feed.dropLastConn()

	second := feed.awaitFrame(t)
	if second.T != "sub" {
		t.Fatalf("resubscribe frame type = %q, want sub", second.T)
	}
	sort.Strings(second.Symbols)
	want := []string{"NSE:INFY-EQ", "NSE:TCS-EQ"}
	if len(second.Symbols) != len(want) {
		t.Fatalf("resubscribed symbols = %v, want %v", second.Symbols, want)
	}
	for i := range want {
		if second.Symbols[i] != want[i] {
			t.Errorf("resubscribed symbols = %v, want %v", second.Symbols, want)
			break
		}
	}
}

func TestStreamingDispatchesTicks(t *testing.T) {
	feed := newFakeFeed()
	srv := httptest.NewServer(http.HandlerFunc(feed.handler))
	defer srv.Close()

	ch, store := testStreamChannel(t, wsURLFor(srv))

	received := make(chan string, 1)
	ch.AddCallback(func(symbol string, quote models.Quote) {
		received <- symbol
	})

	if !ch.Connect() {
		t.Fatal("expected connect to succeed")
	}

	conn := feed.lastConn()
	if conn == nil {
		t.Fatal("no server-side connection")
	}
	tick := `{"symbol":"NSE:TCS-EQ","ltp":3500.5,"prev_close":3400}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(tick)); err != nil {
		t.Fatalf("write tick: %v", err)
	}

	select {
	case symbol := <-received:
		if symbol != "TCS.NS" {
			t.Errorf("callback symbol = %q, want TCS.NS", symbol)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tick never reached callback")
	}

	q, ok := store.Get("TCS.NS")
	if !ok {
		t.Fatal("store missing TCS.NS after dispatch")
	}
	if q.LTP != 3500.5 {
		t.Errorf("LTP = %v, want 3500.5", q.LTP)
	}
	if q.ChangePct < 2.95 || q.ChangePct > 2.96 {
		t.Errorf("ChangePct = %v, want ~2.955", q.ChangePct)
	}
}

func TestStreamingReconnectAfterDisconnect(t *testing.T) {
	feed := newFakeFeed()
	srv := httptest.NewServer(http.HandlerFunc(feed.handler))
	defer srv.Close()

	ch, _ := testStreamChannel(t, wsURLFor(srv))
	if !ch.Connect() {
		t.Fatal("expected first connect to succeed")
	}
	ch.Disconnect()

	// Immediately reconnecting must yield a working session even while the
	// previous run goroutine is still unwinding.
	if !ch.Connect() {
		t.Fatal("expected reconnect to succeed")
	}
	if !ch.Subscribe([]string{"SBIN.NS"}) {
		t.Fatal("expected subscribe to succeed on the new session")
	}
	frame := feed.awaitFrame(t)
	if frame.T != "sub" || len(frame.Symbols) != 1 || frame.Symbols[0] != "NSE:SBIN-EQ" {
		t.Errorf("control frame = %+v, want sub for NSE:SBIN-EQ", frame)
	}
}

func TestStreamingSubscribeRequiresConnection(t *testing.T) {
	ch, _ := testStreamChannel(t, "ws://127.0.0.1:1/never")
	if ch.Subscribe([]string{"TCS.NS"}) {
		t.Error("subscribe should fail before connect")
	}
}

func TestStreamingFailsAfterReconnectBudget(t *testing.T) {
	ch, _ := testStreamChannel(t, "ws://127.0.0.1:1/never")
	if ch.Connect() {
		t.Fatal("connect to a dead endpoint should time out")
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if ch.State() == StateFailed {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("state = %v, want FAILED", ch.State())
}
