package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"binance-context-server/internal/domain"
	"binance-context-server/internal/market"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubMarketService struct {
	price    *domain.SymbolPrice
	stats    *market.TickerStat
	overview *market.Overview
	gainers  *market.RankedView
	losers   *market.RankedView
	leaders  *market.RankedView
	ranking  *market.RankedView
	book     *domain.OrderBook
	bookSum  *market.BookSummary
	candles  []domain.Candle
	techSum  *market.TechnicalSummary
	balances []domain.Balance
	info     *domain.ExchangeInfo
	err      error

	lastSymbol     string
	lastInterval   string
	lastLimit      int
	lastQuoteAsset string
}

func (s *stubMarketService) GetPrice(ctx context.Context, symbol string) (*domain.SymbolPrice, error) {
	s.lastSymbol = symbol
	return s.price, s.err
}

func (s *stubMarketService) GetMarketStats(ctx context.Context, symbol string) (*market.TickerStat, error) {
	s.lastSymbol = symbol
	return s.stats, s.err
}

func (s *stubMarketService) TopByVolume(ctx context.Context, limit int, quoteAsset string) (*market.RankedView, error) {
	s.lastLimit = limit
	s.lastQuoteAsset = quoteAsset
	return s.ranking, s.err
}

func (s *stubMarketService) Overview(ctx context.Context) (*market.Overview, error) {
	return s.overview, s.err
}

func (s *stubMarketService) TopGainers(ctx context.Context) (*market.RankedView, error) {
	return s.gainers, s.err
}

func (s *stubMarketService) TopLosers(ctx context.Context) (*market.RankedView, error) {
	return s.losers, s.err
}

func (s *stubMarketService) VolumeLeaders(ctx context.Context) (*market.RankedView, error) {
	return s.leaders, s.err
}

func (s *stubMarketService) OrderBook(ctx context.Context, symbol string, limit int) (*domain.OrderBook, *market.BookSummary, error) {
	s.lastSymbol = symbol
	s.lastLimit = limit
	return s.book, s.bookSum, s.err
}

func (s *stubMarketService) Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, *market.TechnicalSummary, error) {
	s.lastSymbol = symbol
	s.lastInterval = interval
	s.lastLimit = limit
	return s.candles, s.techSum, s.err
}

func (s *stubMarketService) Balances(ctx context.Context) ([]domain.Balance, error) {
	return s.balances, s.err
}

func (s *stubMarketService) ExchangeInfo(ctx context.Context, symbol string) (*domain.ExchangeInfo, error) {
	s.lastSymbol = symbol
	return s.info, s.err
}

func testServer() (*sdkmcp.Server, *stubMarketService) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	btc := market.TickerStat{Symbol: "BTCUSDT", BaseAsset: "BTC", Price: 50000, PriceChangePct: 12.5, QuoteVolume: 1000000}
	eth := market.TickerStat{Symbol: "ETHUSDT", BaseAsset: "ETH", Price: 3000, PriceChangePct: -3.0, QuoteVolume: 500000}

	markets := &stubMarketService{
		price:    &domain.SymbolPrice{Symbol: "BTCUSDT", Price: 50000, Timestamp: now},
		stats:    &btc,
		overview: &market.Overview{
			Timestamp: now,
			Stats:     market.MarketStats{TotalSymbols: 2, PositiveCount: 1, NegativeCount: 1, Sentiment: "neutral"},
		},
		gainers:  &market.RankedView{Timestamp: now, RankedBy: market.RankKeyPercentChange, Count: 1, Tickers: []market.TickerStat{btc}},
		losers:   &market.RankedView{Timestamp: now, RankedBy: market.RankKeyPercentChange, Count: 1, Tickers: []market.TickerStat{eth}},
		leaders:  &market.RankedView{Timestamp: now, RankedBy: market.RankKeyQuoteVolume, Count: 2, Tickers: []market.TickerStat{btc, eth}},
		ranking:  &market.RankedView{Timestamp: now, RankedBy: market.RankKeyQuoteVolume, Count: 2, Tickers: []market.TickerStat{btc, eth}},
		book: &domain.OrderBook{
			Symbol: "BTCUSDT",
			Bids:   []domain.BookLevel{{Price: 100, Quantity: 2}},
			Asks:   []domain.BookLevel{{Price: 101, Quantity: 1}},
		},
		bookSum: &market.BookSummary{BestBid: 100, BestAsk: 101, Spread: 1, Pressure: market.PressureBuying, LevelCount: 1},
		candles: []domain.Candle{{Symbol: "BTCUSDT", Interval: "1h", Open: 1, High: 2, Low: 1, Close: 2, Volume: 3, OpenTime: now}},
		techSum: &market.TechnicalSummary{CurrentPrice: 2, WindowHigh: 2, WindowLow: 1, SMA: 2, CandleCount: 1},
		balances: []domain.Balance{
			{Asset: "BTC", Free: 0.5, Locked: 0.1, Total: 0.6},
		},
		info: &domain.ExchangeInfo{Timezone: "UTC", ServerTime: now, Symbols: []domain.SymbolInfo{
			{Symbol: "BTCUSDT", Status: "TRADING", BaseAsset: "BTC", QuoteAsset: "USDT"},
		}},
	}

	srv := NewServer(nil, markets, ServerConfig{RequestTimeout: time.Second})
	return srv, markets
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}
