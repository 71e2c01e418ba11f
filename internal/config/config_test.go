package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BINANCE_BASE_URL", "")
	t.Setenv("BINANCE_WS_URL", "")
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_API_SECRET", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("SNAPSHOT_TTL_SECS", "")
	t.Setenv("TICKER_STREAM_ENABLED", "")
	t.Setenv("MCP_TRANSPORT", "")
	t.Setenv("MCP_HTTP_ENABLED", "")
	t.Setenv("MCP_HTTP_BIND", "")
	t.Setenv("MCP_HTTP_PORT", "")
	t.Setenv("MCP_AUTH_TOKEN", "")
	t.Setenv("MCP_REQUEST_TIMEOUT_SECS", "")
	t.Setenv("MCP_RATE_LIMIT_PER_MIN", "")
	t.Setenv("REST_PORT", "")

	cfg := Load()
	if cfg.BinanceBaseURL != "https://api.binance.com" {
		t.Fatalf("expected default base url, got %s", cfg.BinanceBaseURL)
	}
	if cfg.BinanceWSURL != "wss://stream.binance.com:9443" {
		t.Fatalf("expected default ws url, got %s", cfg.BinanceWSURL)
	}
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.SnapshotTTLSecs != 30 {
		t.Fatalf("expected default snapshot TTL 30, got %d", cfg.SnapshotTTLSecs)
	}
	if cfg.TickerStreamEnabled {
		t.Fatal("ticker stream should default off")
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("expected default MCP transport stdio, got %s", cfg.MCPTransport)
	}
	if cfg.MCPHTTPBind != "127.0.0.1" || cfg.MCPHTTPPort != 8090 {
		t.Fatalf("unexpected MCP http defaults: %s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort)
	}
	if cfg.MCPRequestTimeoutSecs != 5 || cfg.MCPRateLimitPerMin != 60 {
		t.Fatalf("unexpected MCP defaults: timeout=%d rate=%d", cfg.MCPRequestTimeoutSecs, cfg.MCPRateLimitPerMin)
	}
	if cfg.RESTPort != 8080 {
		t.Fatalf("expected default REST port 8080, got %d", cfg.RESTPort)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("BINANCE_BASE_URL", "https://testnet.binance.vision")
	t.Setenv("BINANCE_WS_URL", "wss://testnet.binance.vision")
	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_API_SECRET", "secret")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("SNAPSHOT_TTL_SECS", "10")
	t.Setenv("TICKER_STREAM_ENABLED", "true")
	t.Setenv("MCP_TRANSPORT", "http")
	t.Setenv("MCP_HTTP_ENABLED", "true")
	t.Setenv("MCP_HTTP_BIND", "0.0.0.0")
	t.Setenv("MCP_HTTP_PORT", "9191")
	t.Setenv("MCP_AUTH_TOKEN", "token")
	t.Setenv("MCP_REQUEST_TIMEOUT_SECS", "9")
	t.Setenv("MCP_RATE_LIMIT_PER_MIN", "75")
	t.Setenv("REST_PORT", "8181")

	cfg := Load()
	if cfg.BinanceBaseURL != "https://testnet.binance.vision" || cfg.BinanceWSURL != "wss://testnet.binance.vision" {
		t.Fatalf("unexpected binance endpoints: %+v", cfg)
	}
	if cfg.BinanceAPIKey != "key" || cfg.BinanceAPISecret != "secret" {
		t.Fatalf("unexpected credentials: %+v", cfg)
	}
	if cfg.RedisURL != "redis:6379" || cfg.SnapshotTTLSecs != 10 || !cfg.TickerStreamEnabled {
		t.Fatalf("unexpected cache config: %+v", cfg)
	}
	if cfg.MCPTransport != "http" || !cfg.MCPHTTPEnabled || cfg.MCPHTTPBind != "0.0.0.0" || cfg.MCPHTTPPort != 9191 || cfg.MCPAuthToken != "token" {
		t.Fatalf("unexpected MCP config: %+v", cfg)
	}
	if cfg.MCPRequestTimeoutSecs != 9 || cfg.MCPRateLimitPerMin != 75 {
		t.Fatalf("unexpected MCP timeout/rate: %+v", cfg)
	}
	if cfg.RESTPort != 8181 {
		t.Fatalf("unexpected REST port: %d", cfg.RESTPort)
	}

	t.Setenv("SNAPSHOT_TTL_SECS", "bad")
	t.Setenv("MCP_TRANSPORT", "grpc")
	t.Setenv("MCP_HTTP_PORT", "bad")
	t.Setenv("MCP_REQUEST_TIMEOUT_SECS", "bad")
	t.Setenv("MCP_RATE_LIMIT_PER_MIN", "bad")
	t.Setenv("REST_PORT", "bad")
	cfg = Load()
	if cfg.SnapshotTTLSecs != 30 {
		t.Fatalf("invalid snapshot TTL should fall back to default, got %d", cfg.SnapshotTTLSecs)
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("unsupported transport should fall back to stdio, got %s", cfg.MCPTransport)
	}
	if cfg.MCPHTTPPort != 8090 || cfg.MCPRequestTimeoutSecs != 5 || cfg.MCPRateLimitPerMin != 60 || cfg.RESTPort != 8080 {
		t.Fatalf("invalid numeric values should fall back to defaults: %+v", cfg)
	}
}
