package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResources(server *mcp.Server, markets MarketReader) {
	server.AddResource(&mcp.Resource{
		URI:         "binance://market/overview",
		Name:        "market-overview",
		Description: "Aggregate market overview: totals, gainer/loser counts, sentiment, top performers",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if markets == nil {
			return nil, fmt.Errorf("market service unavailable")
		}
		overview, err := markets.Overview(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, overviewOutput{Overview: overview})
	})

	server.AddResource(&mcp.Resource{
		URI:         "binance://market/top-gainers",
		Name:        "top-gainers",
		Description: "USDT pairs with positive 24hr change, ranked by percent change",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if markets == nil {
			return nil, fmt.Errorf("market service unavailable")
		}
		view, err := markets.TopGainers(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, rankedViewOutput{View: view})
	})

	server.AddResource(&mcp.Resource{
		URI:         "binance://market/top-losers",
		Name:        "top-losers",
		Description: "USDT pairs with negative 24hr change, ranked by percent change ascending",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if markets == nil {
			return nil, fmt.Errorf("market service unavailable")
		}
		view, err := markets.TopLosers(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, rankedViewOutput{View: view})
	})

	server.AddResource(&mcp.Resource{
		URI:         "binance://market/volume-leaders",
		Name:        "volume-leaders",
		Description: "USDT pairs ranked by 24hr quote volume",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if markets == nil {
			return nil, fmt.Errorf("market service unavailable")
		}
		view, err := markets.VolumeLeaders(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, rankedViewOutput{View: view})
	})

	server.AddResource(&mcp.Resource{
		URI:         "binance://exchange/info",
		Name:        "exchange-info",
		Description: "Exchange trading rules, rate limits, and full symbol listing",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if markets == nil {
			return nil, fmt.Errorf("market service unavailable")
		}
		info, err := markets.ExchangeInfo(ctx, "")
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, getExchangeInfoOutput{Info: info})
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
