package mcp

import (
	"context"

	"binance-context-server/internal/domain"
	"binance-context-server/internal/market"
)

// MarketReader exposes the market-data operations served over MCP.
type MarketReader interface {
	GetPrice(ctx context.Context, symbol string) (*domain.SymbolPrice, error)
	GetMarketStats(ctx context.Context, symbol string) (*market.TickerStat, error)
	TopByVolume(ctx context.Context, limit int, quoteAsset string) (*market.RankedView, error)
	Overview(ctx context.Context) (*market.Overview, error)
	TopGainers(ctx context.Context) (*market.RankedView, error)
	TopLosers(ctx context.Context) (*market.RankedView, error)
	VolumeLeaders(ctx context.Context) (*market.RankedView, error)
	OrderBook(ctx context.Context, symbol string, limit int) (*domain.OrderBook, *market.BookSummary, error)
	Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, *market.TechnicalSummary, error)
	Balances(ctx context.Context) ([]domain.Balance, error)
	ExchangeInfo(ctx context.Context, symbol string) (*domain.ExchangeInfo, error)
}
