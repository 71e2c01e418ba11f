package mcp

import (
	"fmt"
	"strings"

	"binance-context-server/internal/domain"
	"binance-context-server/internal/market"
)

const (
	defaultTopLimit    = 10
	maxTopLimit        = 50
	defaultDepthLimit  = 20
	defaultCandleLimit = 100
	maxCandleLimit     = 1000
	defaultInterval    = "1h"
	defaultQuoteAsset  = "USDT"
)

type getCryptoPriceInput struct {
	Symbol string `json:"symbol" jsonschema:"trading pair symbol (e.g. BTCUSDT, ETHUSDT)"`
}

type getCryptoPriceOutput struct {
	Price *domain.SymbolPrice `json:"price"`
}

type getMarketStatsInput struct {
	Symbol string `json:"symbol" jsonschema:"trading pair symbol (e.g. BTCUSDT, ETHUSDT)"`
}

type getMarketStatsOutput struct {
	Stats *market.TickerStat `json:"stats"`
}

type getTopCryptosInput struct {
	Limit      int    `json:"limit,omitempty" jsonschema:"number of pairs to return, 1-50, default 10"`
	QuoteAsset string `json:"quote_asset,omitempty" jsonschema:"quote asset to filter by (e.g. USDT, BTC), default USDT"`
}

type getTopCryptosOutput struct {
	QuoteAsset string             `json:"quote_asset"`
	Ranking    *market.RankedView `json:"ranking"`
}

type getOrderBookInput struct {
	Symbol string `json:"symbol" jsonschema:"trading pair symbol (e.g. BTCUSDT)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"depth per side: 5, 10, 20, 50, 100, 500, 1000 or 5000, default 20"`
}

type getOrderBookOutput struct {
	Book    *domain.OrderBook   `json:"book"`
	Summary *market.BookSummary `json:"summary"`
}

type getCandlestickDataInput struct {
	Symbol   string `json:"symbol" jsonschema:"trading pair symbol (e.g. BTCUSDT)"`
	Interval string `json:"interval,omitempty" jsonschema:"candle interval: 1m, 3m, 5m, 15m, 30m, 1h, 2h, 4h, 6h, 8h, 12h, 1d, 3d, 1w, 1M; default 1h"`
	Limit    int    `json:"limit,omitempty" jsonschema:"number of candles to return, 1-1000, default 100"`
}

type getCandlestickDataOutput struct {
	Symbol   string                   `json:"symbol"`
	Interval string                   `json:"interval"`
	Candles  []domain.Candle          `json:"candles"`
	Summary  *market.TechnicalSummary `json:"summary"`
}

type getAccountBalanceInput struct{}

type getAccountBalanceOutput struct {
	Balances []domain.Balance `json:"balances"`
	Count    int              `json:"count"`
}

type getExchangeInfoInput struct {
	Symbol string `json:"symbol,omitempty" jsonschema:"optional trading pair symbol to scope the listing"`
}

type getExchangeInfoOutput struct {
	Info *domain.ExchangeInfo `json:"info"`
}

type overviewOutput struct {
	Overview *market.Overview `json:"overview"`
}

type rankedViewOutput struct {
	View *market.RankedView `json:"view"`
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("%w: symbol is required", domain.ErrInvalidArgument)
	}
	return symbol, nil
}

func normalizeOptionalSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func normalizeInterval(interval string) (string, error) {
	interval = strings.TrimSpace(interval)
	if interval == "" {
		return defaultInterval, nil
	}
	if !domain.IsSupportedInterval(interval) {
		return "", fmt.Errorf("%w: unsupported interval: %s", domain.ErrInvalidArgument, interval)
	}
	return interval, nil
}

func normalizeQuoteAsset(quoteAsset string) string {
	quoteAsset = strings.ToUpper(strings.TrimSpace(quoteAsset))
	if quoteAsset == "" {
		return defaultQuoteAsset
	}
	return quoteAsset
}

func validateTopLimit(limit int) (int, error) {
	if limit == 0 {
		return defaultTopLimit, nil
	}
	if limit < 1 || limit > maxTopLimit {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d, got %d", domain.ErrInvalidArgument, maxTopLimit, limit)
	}
	return limit, nil
}

func validateDepthLimit(limit int) (int, error) {
	if limit == 0 {
		return defaultDepthLimit, nil
	}
	if !domain.IsSupportedDepthLimit(limit) {
		return 0, fmt.Errorf("%w: depth limit must be one of %v, got %d", domain.ErrInvalidArgument, domain.DepthLimits, limit)
	}
	return limit, nil
}

func validateCandleLimit(limit int) (int, error) {
	if limit == 0 {
		return defaultCandleLimit, nil
	}
	if limit < 1 || limit > maxCandleLimit {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d, got %d", domain.ErrInvalidArgument, maxCandleLimit, limit)
	}
	return limit, nil
}
