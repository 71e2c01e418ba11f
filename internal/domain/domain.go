package domain

import (
	"errors"
	"time"
)

// Ticker is a single symbol's 24hr rolling-window statistics exactly as
// Binance emits them: every decimal field is a string on the wire and must be
// parsed through market.ParseDecimal before any arithmetic.
type Ticker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
}

type SymbolPrice struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

type BookLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// OrderBook holds a depth snapshot. Bids are ordered by descending price,
// asks by ascending price, as returned by the exchange.
type OrderBook struct {
	Symbol       string      `json:"symbol"`
	LastUpdateID int64       `json:"last_update_id"`
	Bids         []BookLevel `json:"bids"`
	Asks         []BookLevel `json:"asks"`
}

type Candle struct {
	Symbol    string    `json:"symbol"`
	Interval  string    `json:"interval"`
	OpenTime  time.Time `json:"open_time"`
	CloseTime time.Time `json:"close_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

type Balance struct {
	Asset  string  `json:"asset"`
	Free   float64 `json:"free"`
	Locked float64 `json:"locked"`
	Total  float64 `json:"total"`
}

type RateLimit struct {
	RateLimitType string `json:"rate_limit_type"`
	Interval      string `json:"interval"`
	IntervalNum   int    `json:"interval_num"`
	Limit         int    `json:"limit"`
}

type SymbolFilter struct {
	FilterType string `json:"filter_type"`
}

type SymbolInfo struct {
	Symbol                 string         `json:"symbol"`
	Status                 string         `json:"status"`
	BaseAsset              string         `json:"base_asset"`
	QuoteAsset             string         `json:"quote_asset"`
	IsSpotTradingAllowed   bool           `json:"is_spot_trading_allowed"`
	IsMarginTradingAllowed bool           `json:"is_margin_trading_allowed"`
	Filters                []SymbolFilter `json:"filters,omitempty"`
}

type ExchangeInfo struct {
	Timezone   string       `json:"timezone"`
	ServerTime time.Time    `json:"server_time"`
	RateLimits []RateLimit  `json:"rate_limits"`
	Symbols    []SymbolInfo `json:"symbols"`
}

// SupportedIntervals are the kline interval codes Binance accepts.
var SupportedIntervals = []string{
	"1m", "3m", "5m", "15m", "30m",
	"1h", "2h", "4h", "6h", "8h", "12h",
	"1d", "3d", "1w", "1M",
}

// DepthLimits are the order-book depth sizes Binance accepts.
var DepthLimits = []int{5, 10, 20, 50, 100, 500, 1000, 5000}

func IsSupportedInterval(interval string) bool {
	for _, supported := range SupportedIntervals {
		if interval == supported {
			return true
		}
	}
	return false
}

func IsSupportedDepthLimit(limit int) bool {
	for _, supported := range DepthLimits {
		if limit == supported {
			return true
		}
	}
	return false
}

// Sentinel errors shared across the provider, engine, and dispatch layers.
// They are matched with errors.Is and wrapped with context where raised.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamRateLimited = errors.New("upstream rate limited")
	ErrInsufficientData    = errors.New("insufficient data")
	ErrEmptyOrderBook      = errors.New("empty order book")
	ErrMalformedQuote      = errors.New("malformed quote")
)
