package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"binance-context-server/internal/cache"
	"binance-context-server/internal/config"
	"binance-context-server/internal/handler"
	"binance-context-server/internal/provider"
	"binance-context-server/internal/service"
	"binance-context-server/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc          = godotenv.Load
	loadConfigFunc       = config.Load
	initRedisFunc        = cache.InitRedis
	initTracerFunc       = tracing.InitTracer
	newBinanceClientFunc = func(tracer trace.Tracer, cfg *config.Config) service.ExchangeClient {
		return provider.NewBinanceClient(tracer, provider.ClientConfig{
			BaseURL:   cfg.BinanceBaseURL,
			APIKey:    cfg.BinanceAPIKey,
			APISecret: cfg.BinanceAPISecret,
		})
	}
	newMarketServiceFunc = service.NewMarketService
	startTickerStream    = func(ctx context.Context, cfg *config.Config, sink provider.SnapshotSink) {
		logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		stream := provider.NewTickerStream(cfg.BinanceWSURL, sink, logger)
		go func() {
			if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("ticker stream stopped: %v", err)
			}
		}()
	}
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("REDIS_URL", cfg.RedisURL)
	initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	client := newBinanceClientFunc(tracer, cfg)
	marketService := newMarketServiceFunc(tracer, client, cache.Client, time.Duration(cfg.SnapshotTTLSecs)*time.Second)

	if cfg.TickerStreamEnabled {
		startTickerStream(ctx, cfg, marketService)
	}

	h := newHandlerFunc(tracer, marketService)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("binance-context-server"))
	r.Use(cors.Default())

	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.RESTPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
