package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"binance-context-server/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg ClientConfig) *BinanceClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg.BaseURL = server.URL
	client := NewBinanceClient(nil, cfg)
	client.now = func() time.Time { return time.UnixMilli(1700000000000).UTC() }
	return client
}

func TestSymbolPrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("symbol") != "BTCUSDT" {
			t.Fatalf("unexpected symbol %s", r.URL.Query().Get("symbol"))
		}
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"50000.25"}`))
	}, ClientConfig{})

	price, err := client.SymbolPrice(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price.Symbol != "BTCUSDT" || price.Price != 50000.25 {
		t.Fatalf("unexpected price: %+v", price)
	}
	if price.Timestamp.IsZero() {
		t.Fatal("expected timestamp set")
	}
}

func TestSymbolPriceMalformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"garbage"}`))
	}, ClientConfig{})

	_, err := client.SymbolPrice(context.Background(), "BTCUSDT")
	if !errors.Is(err, domain.ErrMalformedQuote) {
		t.Fatalf("expected malformed quote, got %v", err)
	}
}

func TestTicker24hAllSymbols(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "" {
			t.Fatalf("full snapshot must not scope to a symbol")
		}
		w.Write([]byte(`[
			{"symbol":"BTCUSDT","lastPrice":"50000","priceChange":"100","priceChangePercent":"0.2","highPrice":"51000","lowPrice":"49000","volume":"10","quoteVolume":"500000"},
			{"symbol":"ETHUSDT","lastPrice":"3000","priceChange":"-30","priceChangePercent":"-1.0","highPrice":"3100","lowPrice":"2900","volume":"100","quoteVolume":"300000"}
		]`))
	}, ClientConfig{})

	tickers, err := client.Ticker24h(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tickers) != 2 || tickers[0].Symbol != "BTCUSDT" {
		t.Fatalf("unexpected tickers: %+v", tickers)
	}
}

func TestTicker24hSingleSymbol(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "ETHUSDT" {
			t.Fatalf("unexpected symbol %s", r.URL.Query().Get("symbol"))
		}
		w.Write([]byte(`{"symbol":"ETHUSDT","lastPrice":"3000","priceChange":"-30","priceChangePercent":"-1.0","highPrice":"3100","lowPrice":"2900","volume":"100","quoteVolume":"300000"}`))
	}, ClientConfig{})

	tickers, err := client.Ticker24h(context.Background(), "ETHUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tickers) != 1 || tickers[0].Symbol != "ETHUSDT" {
		t.Fatalf("unexpected tickers: %+v", tickers)
	}
}

func TestOrderBook(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "20" {
			t.Fatalf("unexpected limit %s", r.URL.Query().Get("limit"))
		}
		w.Write([]byte(`{"lastUpdateId":42,"bids":[["100.0","2.0"],["99.5","1.0"]],"asks":[["101.0","1.0"]]}`))
	}, ClientConfig{})

	book, err := client.OrderBook(context.Background(), "BTCUSDT", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if book.LastUpdateID != 42 || len(book.Bids) != 2 || len(book.Asks) != 1 {
		t.Fatalf("unexpected book: %+v", book)
	}
	if book.Bids[0].Price != 100.0 || book.Bids[0].Quantity != 2.0 {
		t.Fatalf("unexpected best bid: %+v", book.Bids[0])
	}
}

func TestKlines(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("interval") != "1h" {
			t.Fatalf("unexpected interval %s", r.URL.Query().Get("interval"))
		}
		w.Write([]byte(`[
			[1700000000000,"100","110","90","105","12.5",1700003599999,"0",0,"0","0","0"],
			[1700003600000,"105","112","104","111","8.25",1700007199999,"0",0,"0","0","0"]
		]`))
	}, ClientConfig{})

	candles, err := client.Klines(context.Background(), "BTCUSDT", "1h", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	first := candles[0]
	if first.Symbol != "BTCUSDT" || first.Interval != "1h" {
		t.Fatalf("unexpected candle: %+v", first)
	}
	if first.Open != 100 || first.High != 110 || first.Low != 90 || first.Close != 105 || first.Volume != 12.5 {
		t.Fatalf("unexpected OHLCV: %+v", first)
	}
	if !first.OpenTime.Equal(time.UnixMilli(1700000000000).UTC()) {
		t.Fatalf("unexpected open time: %v", first.OpenTime)
	}
}

func TestKlinesMalformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[1700000000000,"oops","110","90","105","12.5",1700003599999]]`))
	}, ClientConfig{})

	_, err := client.Klines(context.Background(), "BTCUSDT", "1h", 1)
	if !errors.Is(err, domain.ErrMalformedQuote) {
		t.Fatalf("expected malformed quote, got %v", err)
	}
}

func TestExchangeInfo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"timezone":"UTC","serverTime":1700000000000,
			"rateLimits":[{"rateLimitType":"REQUEST_WEIGHT","interval":"MINUTE","intervalNum":1,"limit":6000}],
			"symbols":[{"symbol":"BTCUSDT","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDT","isSpotTradingAllowed":true,"isMarginTradingAllowed":true,"filters":[{"filterType":"PRICE_FILTER"}]}]
		}`))
	}, ClientConfig{})

	info, err := client.ExchangeInfo(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Timezone != "UTC" || len(info.RateLimits) != 1 || len(info.Symbols) != 1 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.Symbols[0].BaseAsset != "BTC" || info.Symbols[0].Filters[0].FilterType != "PRICE_FILTER" {
		t.Fatalf("unexpected symbol info: %+v", info.Symbols[0])
	}
	if !info.ServerTime.Equal(time.UnixMilli(1700000000000).UTC()) {
		t.Fatalf("unexpected server time: %v", info.ServerTime)
	}
}

func TestAccountBalancesRequiresCredentials(t *testing.T) {
	client := NewBinanceClient(nil, ClientConfig{})
	_, err := client.AccountBalances(context.Background())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestAccountBalances(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-MBX-APIKEY") != "key" {
			t.Fatalf("expected API key header, got %q", r.Header.Get("X-MBX-APIKEY"))
		}
		if r.URL.Query().Get("signature") == "" || r.URL.Query().Get("timestamp") == "" {
			t.Fatal("expected signed request")
		}
		w.Write([]byte(`{"balances":[
			{"asset":"DUST","free":"0.00000000","locked":"0.00000000"},
			{"asset":"BTC","free":"0.5","locked":"0.1"},
			{"asset":"ETH","free":"10.0","locked":"0.0"}
		]}`))
	}, ClientConfig{APIKey: "key", APISecret: "secret"})

	balances, err := client.AccountBalances(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("expected zero balances dropped, got %+v", balances)
	}
	if balances[0].Asset != "ETH" || balances[1].Asset != "BTC" {
		t.Fatalf("expected sort by total descending, got %+v", balances)
	}
	if balances[1].Total != 0.6 {
		t.Fatalf("unexpected total: %f", balances[1].Total)
	}
}

func TestStatusErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, domain.ErrUpstreamRateLimited},
		{http.StatusTeapot, domain.ErrUpstreamRateLimited},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrUnauthorized},
		{http.StatusInternalServerError, domain.ErrUpstreamUnavailable},
		{http.StatusBadRequest, domain.ErrUpstreamUnavailable},
	}

	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(`{"code":-1003,"msg":"upstream says no"}`))
		}, ClientConfig{})

		_, err := client.Ticker24h(context.Background(), "")
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}
