package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, markets MarketReader) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_crypto_price",
		Description: "Get the current price for a trading pair",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in getCryptoPriceInput) (*mcp.CallToolResult, getCryptoPriceOutput, error) {
		if markets == nil {
			return nil, getCryptoPriceOutput{}, fmt.Errorf("market service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, getCryptoPriceOutput{}, err
		}
		price, err := markets.GetPrice(ctx, symbol)
		if err != nil {
			return nil, getCryptoPriceOutput{}, err
		}
		return nil, getCryptoPriceOutput{Price: price}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_market_stats",
		Description: "Get 24hr statistics for a trading pair: price change, volume, high and low",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in getMarketStatsInput) (*mcp.CallToolResult, getMarketStatsOutput, error) {
		if markets == nil {
			return nil, getMarketStatsOutput{}, fmt.Errorf("market service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, getMarketStatsOutput{}, err
		}
		stats, err := markets.GetMarketStats(ctx, symbol)
		if err != nil {
			return nil, getMarketStatsOutput{}, err
		}
		return nil, getMarketStatsOutput{Stats: stats}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_top_cryptocurrencies",
		Description: "Get top trading pairs ranked by 24hr quote volume, filtered by quote asset",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in getTopCryptosInput) (*mcp.CallToolResult, getTopCryptosOutput, error) {
		if markets == nil {
			return nil, getTopCryptosOutput{}, fmt.Errorf("market service unavailable")
		}
		limit, err := validateTopLimit(in.Limit)
		if err != nil {
			return nil, getTopCryptosOutput{}, err
		}
		quoteAsset := normalizeQuoteAsset(in.QuoteAsset)

		ranking, err := markets.TopByVolume(ctx, limit, quoteAsset)
		if err != nil {
			return nil, getTopCryptosOutput{}, err
		}
		return nil, getTopCryptosOutput{QuoteAsset: quoteAsset, Ranking: ranking}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_order_book",
		Description: "Get order book depth with spread and pressure summary for a trading pair",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in getOrderBookInput) (*mcp.CallToolResult, getOrderBookOutput, error) {
		if markets == nil {
			return nil, getOrderBookOutput{}, fmt.Errorf("market service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, getOrderBookOutput{}, err
		}
		limit, err := validateDepthLimit(in.Limit)
		if err != nil {
			return nil, getOrderBookOutput{}, err
		}
		book, summary, err := markets.OrderBook(ctx, symbol, limit)
		if err != nil {
			return nil, getOrderBookOutput{}, err
		}
		return nil, getOrderBookOutput{Book: book, Summary: summary}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_candlestick_data",
		Description: "Get OHLCV candles with a technical summary by symbol, interval, and limit",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in getCandlestickDataInput) (*mcp.CallToolResult, getCandlestickDataOutput, error) {
		if markets == nil {
			return nil, getCandlestickDataOutput{}, fmt.Errorf("market service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, getCandlestickDataOutput{}, err
		}
		interval, err := normalizeInterval(in.Interval)
		if err != nil {
			return nil, getCandlestickDataOutput{}, err
		}
		limit, err := validateCandleLimit(in.Limit)
		if err != nil {
			return nil, getCandlestickDataOutput{}, err
		}
		candles, summary, err := markets.Candles(ctx, symbol, interval, limit)
		if err != nil {
			return nil, getCandlestickDataOutput{}, err
		}
		return nil, getCandlestickDataOutput{Symbol: symbol, Interval: interval, Candles: candles, Summary: summary}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_account_balance",
		Description: "Get non-zero account balances sorted by total amount (requires API credentials)",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ getAccountBalanceInput) (*mcp.CallToolResult, getAccountBalanceOutput, error) {
		if markets == nil {
			return nil, getAccountBalanceOutput{}, fmt.Errorf("market service unavailable")
		}
		balances, err := markets.Balances(ctx)
		if err != nil {
			return nil, getAccountBalanceOutput{}, err
		}
		return nil, getAccountBalanceOutput{Balances: balances, Count: len(balances)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_exchange_info",
		Description: "Get exchange trading rules, rate limits, and symbol listings",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in getExchangeInfoInput) (*mcp.CallToolResult, getExchangeInfoOutput, error) {
		if markets == nil {
			return nil, getExchangeInfoOutput{}, fmt.Errorf("market service unavailable")
		}
		info, err := markets.ExchangeInfo(ctx, normalizeOptionalSymbol(in.Symbol))
		if err != nil {
			return nil, getExchangeInfoOutput{}, err
		}
		return nil, getExchangeInfoOutput{Info: info}, nil
	})
}
