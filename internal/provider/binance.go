package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"binance-context-server/internal/domain"
	"binance-context-server/internal/market"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBaseURL     = "https://api.binance.com"
	defaultHTTPTimeout = 10 * time.Second
)

type ClientConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// BinanceClient talks to the Binance spot REST API. It performs no retries
// and enforces no deadline beyond its HTTP client timeout; upstream failures
// surface immediately as sentinel errors.
type BinanceClient struct {
	tracer     trace.Tracer
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
	now        func() time.Time
}

func NewBinanceClient(tracer trace.Tracer, cfg ClientConfig) *BinanceClient {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("binance-client")
	}
	return &BinanceClient{
		tracer:     tracer,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		apiSecret:  strings.TrimSpace(cfg.APISecret),
		now:        time.Now,
	}
}

func (c *BinanceClient) SymbolPrice(ctx context.Context, symbol string) (*domain.SymbolPrice, error) {
	ctx, span := c.tracer.Start(ctx, "binance-client.symbol-price")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	var payload struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := c.get(ctx, "/api/v3/ticker/price", url.Values{"symbol": {symbol}}, &payload); err != nil {
		return nil, err
	}

	price, err := market.ParseDecimal("price", payload.Price)
	if err != nil {
		return nil, err
	}
	return &domain.SymbolPrice{Symbol: payload.Symbol, Price: price, Timestamp: c.now().UTC()}, nil
}

// Ticker24h returns 24hr rolling-window tickers. An empty symbol requests the
// full snapshot of all traded symbols.
func (c *BinanceClient) Ticker24h(ctx context.Context, symbol string) ([]domain.Ticker, error) {
	ctx, span := c.tracer.Start(ctx, "binance-client.ticker-24h")
	defer span.End()

	if symbol == "" {
		var tickers []domain.Ticker
		if err := c.get(ctx, "/api/v3/ticker/24hr", nil, &tickers); err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.Int("ticker.count", len(tickers)))
		return tickers, nil
	}

	span.SetAttributes(attribute.String("symbol", symbol))
	var ticker domain.Ticker
	if err := c.get(ctx, "/api/v3/ticker/24hr", url.Values{"symbol": {symbol}}, &ticker); err != nil {
		return nil, err
	}
	return []domain.Ticker{ticker}, nil
}

func (c *BinanceClient) OrderBook(ctx context.Context, symbol string, limit int) (*domain.OrderBook, error) {
	ctx, span := c.tracer.Start(ctx, "binance-client.order-book")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol), attribute.Int("limit", limit))

	var payload struct {
		LastUpdateID int64       `json:"lastUpdateId"`
		Bids         [][2]string `json:"bids"`
		Asks         [][2]string `json:"asks"`
	}
	query := url.Values{"symbol": {symbol}, "limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "/api/v3/depth", query, &payload); err != nil {
		return nil, err
	}

	book := &domain.OrderBook{Symbol: symbol, LastUpdateID: payload.LastUpdateID}
	var err error
	if book.Bids, err = parseLevels("bid", payload.Bids); err != nil {
		return nil, err
	}
	if book.Asks, err = parseLevels("ask", payload.Asks); err != nil {
		return nil, err
	}
	return book, nil
}

func (c *BinanceClient) Klines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	ctx, span := c.tracer.Start(ctx, "binance-client.klines")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("interval", interval),
		attribute.Int("limit", limit),
	)

	var raw [][]json.RawMessage
	query := url.Values{"symbol": {symbol}, "interval": {interval}, "limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "/api/v3/klines", query, &raw); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(raw))
	for _, k := range raw {
		candle, err := parseKline(symbol, interval, k)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func (c *BinanceClient) ExchangeInfo(ctx context.Context, symbol string) (*domain.ExchangeInfo, error) {
	ctx, span := c.tracer.Start(ctx, "binance-client.exchange-info")
	defer span.End()

	query := url.Values{}
	if symbol != "" {
		query.Set("symbol", symbol)
		span.SetAttributes(attribute.String("symbol", symbol))
	}

	var payload struct {
		Timezone   string `json:"timezone"`
		ServerTime int64  `json:"serverTime"`
		RateLimits []struct {
			RateLimitType string `json:"rateLimitType"`
			Interval      string `json:"interval"`
			IntervalNum   int    `json:"intervalNum"`
			Limit         int    `json:"limit"`
		} `json:"rateLimits"`
		Symbols []struct {
			Symbol                 string `json:"symbol"`
			Status                 string `json:"status"`
			BaseAsset              string `json:"baseAsset"`
			QuoteAsset             string `json:"quoteAsset"`
			IsSpotTradingAllowed   bool   `json:"isSpotTradingAllowed"`
			IsMarginTradingAllowed bool   `json:"isMarginTradingAllowed"`
			Filters                []struct {
				FilterType string `json:"filterType"`
			} `json:"filters"`
		} `json:"symbols"`
	}
	if err := c.get(ctx, "/api/v3/exchangeInfo", query, &payload); err != nil {
		return nil, err
	}

	info := &domain.ExchangeInfo{
		Timezone:   payload.Timezone,
		ServerTime: time.UnixMilli(payload.ServerTime).UTC(),
		RateLimits: make([]domain.RateLimit, 0, len(payload.RateLimits)),
		Symbols:    make([]domain.SymbolInfo, 0, len(payload.Symbols)),
	}
	for _, rl := range payload.RateLimits {
		info.RateLimits = append(info.RateLimits, domain.RateLimit{
			RateLimitType: rl.RateLimitType,
			Interval:      rl.Interval,
			IntervalNum:   rl.IntervalNum,
			Limit:         rl.Limit,
		})
	}
	for _, s := range payload.Symbols {
		symbolInfo := domain.SymbolInfo{
			Symbol:                 s.Symbol,
			Status:                 s.Status,
			BaseAsset:              s.BaseAsset,
			QuoteAsset:             s.QuoteAsset,
			IsSpotTradingAllowed:   s.IsSpotTradingAllowed,
			IsMarginTradingAllowed: s.IsMarginTradingAllowed,
		}
		for _, f := range s.Filters {
			symbolInfo.Filters = append(symbolInfo.Filters, domain.SymbolFilter{FilterType: f.FilterType})
		}
		info.Symbols = append(info.Symbols, symbolInfo)
	}
	return info, nil
}

// AccountBalances fetches spot balances over the signed account endpoint.
// Zero balances are dropped and the rest sorted by total holdings descending.
func (c *BinanceClient) AccountBalances(ctx context.Context) ([]domain.Balance, error) {
	ctx, span := c.tracer.Start(ctx, "binance-client.account-balances")
	defer span.End()

	if c.apiKey == "" || c.apiSecret == "" {
		return nil, fmt.Errorf("%w: API credentials not configured", domain.ErrUnauthorized)
	}

	query := url.Values{"timestamp": {strconv.FormatInt(c.now().UnixMilli(), 10)}}
	query.Set("signature", c.sign(query.Encode()))

	var payload struct {
		Balances []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"balances"`
	}
	if err := c.get(ctx, "/api/v3/account", query, &payload); err != nil {
		return nil, err
	}

	balances := make([]domain.Balance, 0, len(payload.Balances))
	for _, b := range payload.Balances {
		free, err := market.ParseDecimal("free", b.Free)
		if err != nil {
			return nil, err
		}
		locked, err := market.ParseDecimal("locked", b.Locked)
		if err != nil {
			return nil, err
		}
		if free+locked <= 0 {
			continue
		}
		balances = append(balances, domain.Balance{
			Asset: b.Asset, Free: free, Locked: locked, Total: free + locked,
		})
	}
	sort.SliceStable(balances, func(i, j int) bool {
		return balances[i].Total > balances[j].Total
	})
	return balances, nil
}

func (c *BinanceClient) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *BinanceClient) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, resp.Body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrUpstreamUnavailable, path, err)
	}
	return nil
}

func statusError(status int, body io.Reader) error {
	var apiErr struct {
		Code    int    `json:"code"`
		Message string `json:"msg"`
	}
	message := http.StatusText(status)
	if err := json.NewDecoder(body).Decode(&apiErr); err == nil && apiErr.Message != "" {
		message = apiErr.Message
	}

	switch status {
	case http.StatusTooManyRequests, http.StatusTeapot:
		return fmt.Errorf("%w: %s", domain.ErrUpstreamRateLimited, message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, message)
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamUnavailable, status, message)
	}
}

func parseLevels(side string, raw [][2]string) ([]domain.BookLevel, error) {
	levels := make([]domain.BookLevel, 0, len(raw))
	for _, entry := range raw {
		price, err := market.ParseDecimal(side+" price", entry[0])
		if err != nil {
			return nil, err
		}
		quantity, err := market.ParseDecimal(side+" quantity", entry[1])
		if err != nil {
			return nil, err
		}
		levels = append(levels, domain.BookLevel{Price: price, Quantity: quantity})
	}
	return levels, nil
}

// parseKline decodes one kline row: open time, OHLCV as decimal strings, then
// close time. Trailing fields are ignored.
func parseKline(symbol, interval string, raw []json.RawMessage) (domain.Candle, error) {
	if len(raw) < 7 {
		return domain.Candle{}, fmt.Errorf("%w: kline row has %d fields", domain.ErrUpstreamUnavailable, len(raw))
	}

	var openMillis, closeMillis int64
	if err := json.Unmarshal(raw[0], &openMillis); err != nil {
		return domain.Candle{}, fmt.Errorf("%w: kline open time: %v", domain.ErrUpstreamUnavailable, err)
	}
	if err := json.Unmarshal(raw[6], &closeMillis); err != nil {
		return domain.Candle{}, fmt.Errorf("%w: kline close time: %v", domain.ErrUpstreamUnavailable, err)
	}

	candle := domain.Candle{
		Symbol:    symbol,
		Interval:  interval,
		OpenTime:  time.UnixMilli(openMillis).UTC(),
		CloseTime: time.UnixMilli(closeMillis).UTC(),
	}

	fields := []struct {
		name string
		raw  json.RawMessage
		dst  *float64
	}{
		{"open", raw[1], &candle.Open},
		{"high", raw[2], &candle.High},
		{"low", raw[3], &candle.Low},
		{"close", raw[4], &candle.Close},
		{"volume", raw[5], &candle.Volume},
	}
	for _, f := range fields {
		var s string
		if err := json.Unmarshal(f.raw, &s); err != nil {
			return domain.Candle{}, fmt.Errorf("%w: kline %s: %v", domain.ErrMalformedQuote, f.name, err)
		}
		v, err := market.ParseDecimal(f.name, s)
		if err != nil {
			return domain.Candle{}, err
		}
		*f.dst = v
	}
	return candle, nil
}
