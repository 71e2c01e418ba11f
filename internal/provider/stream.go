package provider

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"binance-context-server/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	defaultWSBaseURL = "wss://stream.binance.com:9443"
	allTickerStream  = "/ws/!ticker@arr"

	streamReadLimit    = 1 << 22 // the full ticker array runs to a few MiB
	streamReadDeadline = 30 * time.Second
	streamPingInterval = 15 * time.Second
	streamMaxBackoff   = 30 * time.Second
)

// SnapshotSink receives full ticker snapshots as the exchange publishes them.
type SnapshotSink interface {
	StoreTickerSnapshot(ctx context.Context, tickers []domain.Ticker) error
}

// wsTicker is the short-keyed 24hr ticker event on the !ticker@arr stream.
type wsTicker struct {
	Symbol             string `json:"s"`
	LastPrice          string `json:"c"`
	PriceChange        string `json:"p"`
	PriceChangePercent string `json:"P"`
	HighPrice          string `json:"h"`
	LowPrice           string `json:"l"`
	Volume             string `json:"v"`
	QuoteVolume        string `json:"q"`
}

// TickerStream keeps the snapshot cache warm by consuming the all-market
// ticker stream, reconnecting with exponential backoff on disconnect.
type TickerStream struct {
	url  string
	sink SnapshotSink
	log  zerolog.Logger
}

func NewTickerStream(wsBaseURL string, sink SnapshotSink, log zerolog.Logger) *TickerStream {
	base := strings.TrimRight(strings.TrimSpace(wsBaseURL), "/")
	if base == "" {
		base = defaultWSBaseURL
	}
	return &TickerStream{url: base + allTickerStream, sink: sink, log: log}
}

func (s *TickerStream) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn().Err(err).Msg("ticker stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(streamMaxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (s *TickerStream) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.log.Info().Str("url", s.url).Msg("connected all-market ticker stream")

	conn.SetReadLimit(streamReadLimit)
	conn.SetReadDeadline(time.Now().Add(streamReadDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(streamReadDeadline))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(streamPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					s.log.Warn().Err(err).Msg("ticker stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var events []wsTicker
		if err := json.Unmarshal(message, &events); err != nil {
			s.log.Warn().Err(err).Msg("failed to decode ticker stream message")
			continue
		}
		if len(events) == 0 {
			continue
		}

		tickers := make([]domain.Ticker, 0, len(events))
		for _, ev := range events {
			tickers = append(tickers, domain.Ticker{
				Symbol:             ev.Symbol,
				LastPrice:          ev.LastPrice,
				PriceChange:        ev.PriceChange,
				PriceChangePercent: ev.PriceChangePercent,
				HighPrice:          ev.HighPrice,
				LowPrice:           ev.LowPrice,
				Volume:             ev.Volume,
				QuoteVolume:        ev.QuoteVolume,
			})
		}
		if err := s.sink.StoreTickerSnapshot(ctx, tickers); err != nil {
			s.log.Warn().Err(err).Int("tickers", len(tickers)).Msg("failed to store ticker snapshot")
		}
	}
}
