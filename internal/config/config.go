package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	BinanceBaseURL   string
	BinanceWSURL     string
	BinanceAPIKey    string
	BinanceAPISecret string

	RedisURL            string
	SnapshotTTLSecs     int
	TickerStreamEnabled bool

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int

	RESTPort int
}

func Load() *Config {
	cfg := &Config{
		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret: os.Getenv("BINANCE_API_SECRET"),
		RedisURL:         os.Getenv("REDIS_URL"),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
	}

	cfg.BinanceBaseURL = strings.TrimSpace(os.Getenv("BINANCE_BASE_URL"))
	if cfg.BinanceBaseURL == "" {
		cfg.BinanceBaseURL = "https://api.binance.com"
	}

	cfg.BinanceWSURL = strings.TrimSpace(os.Getenv("BINANCE_WS_URL"))
	if cfg.BinanceWSURL == "" {
		cfg.BinanceWSURL = "wss://stream.binance.com:9443"
	}

	if cfg.BinanceAPIKey == "" {
		log.Println("Warning: BINANCE_API_KEY not set, account tools will be disabled")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.SnapshotTTLSecs = 30
	if v := strings.TrimSpace(os.Getenv("SNAPSHOT_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SnapshotTTLSecs = n
		}
	}

	cfg.TickerStreamEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("TICKER_STREAM_ENABLED")), "true")

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	cfg.MCPHTTPPort = 8090
	if v := strings.TrimSpace(os.Getenv("MCP_HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPHTTPPort = n
		}
	}

	cfg.MCPRequestTimeoutSecs = 5
	if v := strings.TrimSpace(os.Getenv("MCP_REQUEST_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRequestTimeoutSecs = n
		}
	}

	cfg.MCPRateLimitPerMin = 60
	if v := strings.TrimSpace(os.Getenv("MCP_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRateLimitPerMin = n
		}
	}

	cfg.RESTPort = 8080
	if v := strings.TrimSpace(os.Getenv("REST_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RESTPort = n
		}
	}

	return cfg
}
