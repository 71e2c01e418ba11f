package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"binance-context-server/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type recordingSink struct {
	mu        sync.Mutex
	snapshots [][]domain.Ticker
	received  chan struct{}
}

func (s *recordingSink) StoreTickerSnapshot(ctx context.Context, tickers []domain.Ticker) error {
	s.mu.Lock()
	s.snapshots = append(s.snapshots, tickers)
	s.mu.Unlock()
	select {
	case s.received <- struct{}{}:
	default:
	}
	return nil
}

func TestTickerStreamStoresSnapshots(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != allTickerStream {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`[
			{"e":"24hrTicker","s":"BTCUSDT","c":"50000","p":"100","P":"0.2","h":"51000","l":"49000","v":"10","q":"500000"}
		]`))
		// Keep the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &recordingSink{received: make(chan struct{}, 1)}
	stream := NewTickerStream("ws"+strings.TrimPrefix(server.URL, "http"), sink, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		_ = stream.Run(ctx)
		close(done)
	}()

	select {
	case <-sink.received:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.snapshots) == 0 {
		t.Fatal("expected at least one snapshot")
	}
	first := sink.snapshots[0]
	if len(first) != 1 || first[0].Symbol != "BTCUSDT" || first[0].LastPrice != "50000" {
		t.Fatalf("unexpected snapshot: %+v", first)
	}
	if first[0].QuoteVolume != "500000" || first[0].PriceChangePercent != "0.2" {
		t.Fatalf("unexpected snapshot fields: %+v", first[0])
	}
}

func TestNewTickerStreamDefaultURL(t *testing.T) {
	stream := NewTickerStream("", nil, zerolog.Nop())
	if stream.url != defaultWSBaseURL+allTickerStream {
		t.Fatalf("unexpected default url: %s", stream.url)
	}
}
