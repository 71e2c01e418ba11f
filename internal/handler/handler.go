package handler

import (
	"binance-context-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer        trace.Tracer
	marketService *service.MarketService
}

func New(tracer trace.Tracer, marketService *service.MarketService) *Handler {
	return &Handler{
		tracer:        tracer,
		marketService: marketService,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/price/:symbol", h.GetPrice)
	r.GET("/api/stats/:symbol", h.GetMarketStats)
	r.GET("/api/market/top", h.GetTopCryptos)
	r.GET("/api/market/overview", h.GetOverview)
	r.GET("/api/market/gainers", h.GetTopGainers)
	r.GET("/api/market/losers", h.GetTopLosers)
	r.GET("/api/market/volume-leaders", h.GetVolumeLeaders)
	r.GET("/api/orderbook/:symbol", h.GetOrderBook)
	r.GET("/api/candles/:symbol", h.GetCandles)
	r.GET("/api/account/balances", h.GetBalances)
	r.GET("/api/exchange/info", h.GetExchangeInfo)
}
