package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"binance-context-server/internal/domain"
	"binance-context-server/internal/market"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	snapshotCacheKey   = "market:ticker-snapshot"
	defaultSnapshotTTL = 30 * time.Second
	defaultQuoteAsset  = "USDT"
)

// ExchangeClient is the upstream market-data provider. Implementations may
// fail with the domain sentinel errors; the service surfaces those verbatim
// without retrying.
type ExchangeClient interface {
	SymbolPrice(ctx context.Context, symbol string) (*domain.SymbolPrice, error)
	Ticker24h(ctx context.Context, symbol string) ([]domain.Ticker, error)
	OrderBook(ctx context.Context, symbol string, limit int) (*domain.OrderBook, error)
	Klines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error)
	ExchangeInfo(ctx context.Context, symbol string) (*domain.ExchangeInfo, error)
	AccountBalances(ctx context.Context) ([]domain.Balance, error)
}

// MarketService combines the exchange client, the Redis snapshot cache, and
// the aggregation engine. It holds no mutable state of its own; every view is
// recomputed from the snapshot on each call.
type MarketService struct {
	tracer      trace.Tracer
	client      ExchangeClient
	redis       *redis.Client
	snapshotTTL time.Duration
	now         func() time.Time
}

func NewMarketService(tracer trace.Tracer, client ExchangeClient, redisClient *redis.Client, snapshotTTL time.Duration) *MarketService {
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("market-service")
	}
	if snapshotTTL <= 0 {
		snapshotTTL = defaultSnapshotTTL
	}
	return &MarketService{
		tracer:      tracer,
		client:      client,
		redis:       redisClient,
		snapshotTTL: snapshotTTL,
		now:         time.Now,
	}
}

func (s *MarketService) GetPrice(ctx context.Context, symbol string) (*domain.SymbolPrice, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.get-price")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	return s.client.SymbolPrice(ctx, normalizeSymbol(symbol))
}

func (s *MarketService) GetMarketStats(ctx context.Context, symbol string) (*market.TickerStat, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.get-market-stats")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	tickers, err := s.client.Ticker24h(ctx, normalizeSymbol(symbol))
	if err != nil {
		return nil, err
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: no 24hr statistics for %s", domain.ErrInsufficientData, symbol)
	}
	stat, err := market.ParseTicker(tickers[0])
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

func (s *MarketService) TopByVolume(ctx context.Context, limit int, quoteAsset string) (*market.RankedView, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.top-by-volume")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", limit), attribute.String("quote_asset", quoteAsset))

	stats, err := s.quoteStats(ctx, quoteAsset)
	if err != nil {
		return nil, err
	}
	ranked := market.RankByVolume(stats, limit)
	return &market.RankedView{
		Timestamp: s.now().UTC(),
		RankedBy:  market.RankKeyQuoteVolume,
		Count:     len(ranked),
		Tickers:   ranked,
	}, nil
}

func (s *MarketService) Overview(ctx context.Context) (*market.Overview, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.overview")
	defer span.End()

	stats, err := s.quoteStats(ctx, defaultQuoteAsset)
	if err != nil {
		return nil, err
	}
	overview := market.BuildOverview(stats, s.now())
	return &overview, nil
}

func (s *MarketService) TopGainers(ctx context.Context) (*market.RankedView, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.top-gainers")
	defer span.End()

	stats, err := s.quoteStats(ctx, defaultQuoteAsset)
	if err != nil {
		return nil, err
	}
	view := market.GainersView(stats, s.now())
	return &view, nil
}

func (s *MarketService) TopLosers(ctx context.Context) (*market.RankedView, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.top-losers")
	defer span.End()

	stats, err := s.quoteStats(ctx, defaultQuoteAsset)
	if err != nil {
		return nil, err
	}
	view := market.LosersView(stats, s.now())
	return &view, nil
}

func (s *MarketService) VolumeLeaders(ctx context.Context) (*market.RankedView, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.volume-leaders")
	defer span.End()

	stats, err := s.quoteStats(ctx, defaultQuoteAsset)
	if err != nil {
		return nil, err
	}
	view := market.VolumeLeadersView(stats, s.now())
	return &view, nil
}

func (s *MarketService) OrderBook(ctx context.Context, symbol string, limit int) (*domain.OrderBook, *market.BookSummary, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.order-book")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol), attribute.Int("limit", limit))

	book, err := s.client.OrderBook(ctx, normalizeSymbol(symbol), limit)
	if err != nil {
		return nil, nil, err
	}
	summary, err := market.SummarizeBook(*book)
	if err != nil {
		return nil, nil, err
	}
	return book, &summary, nil
}

func (s *MarketService) Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, *market.TechnicalSummary, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.candles")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("interval", interval),
		attribute.Int("limit", limit),
	)

	candles, err := s.client.Klines(ctx, normalizeSymbol(symbol), interval, limit)
	if err != nil {
		return nil, nil, err
	}
	summary, err := market.Summarize(candles)
	if err != nil {
		return nil, nil, err
	}
	return candles, &summary, nil
}

func (s *MarketService) Balances(ctx context.Context) ([]domain.Balance, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.balances")
	defer span.End()

	return s.client.AccountBalances(ctx)
}

func (s *MarketService) ExchangeInfo(ctx context.Context, symbol string) (*domain.ExchangeInfo, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.exchange-info")
	defer span.End()

	return s.client.ExchangeInfo(ctx, normalizeSymbol(symbol))
}

// StoreTickerSnapshot caches a full ticker snapshot; the websocket stream
// calls this on every push so ranked views read fresh data without a REST
// round trip.
func (s *MarketService) StoreTickerSnapshot(ctx context.Context, tickers []domain.Ticker) error {
	if s.redis == nil || len(tickers) == 0 {
		return nil
	}
	payload, err := json.Marshal(tickers)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, snapshotCacheKey, payload, s.snapshotTTL).Err()
}

// tickerSnapshot returns the cached all-symbol snapshot, falling back to a
// REST fetch (and refreshing the cache) on a miss.
func (s *MarketService) tickerSnapshot(ctx context.Context) ([]domain.Ticker, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.ticker-snapshot")
	defer span.End()

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, snapshotCacheKey).Bytes()
		if err == nil {
			var tickers []domain.Ticker
			if err := json.Unmarshal(cached, &tickers); err == nil && len(tickers) > 0 {
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return tickers, nil
			}
			log.Printf("discarding unreadable ticker snapshot cache entry")
		}
	}

	span.SetAttributes(attribute.Bool("cache.hit", false))
	tickers, err := s.client.Ticker24h(ctx, "")
	if err != nil {
		return nil, err
	}
	if err := s.StoreTickerSnapshot(ctx, tickers); err != nil {
		log.Printf("failed to cache ticker snapshot: %v", err)
	}
	return tickers, nil
}

func (s *MarketService) quoteStats(ctx context.Context, quoteAsset string) ([]market.TickerStat, error) {
	tickers, err := s.tickerSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := market.ParseTickers(tickers)
	if err != nil {
		return nil, err
	}
	return market.FilterByQuoteAsset(stats, quoteAsset), nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
