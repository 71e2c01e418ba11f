package market

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"binance-context-server/internal/domain"
)

const (
	overviewTopPerformers = 10
	rankedViewLimit       = 20
	pressureThreshold     = 1.2
)

// Ranking keys reported inside RankedView payloads.
const (
	RankKeyPercentChange = "price_change_percent_24h"
	RankKeyQuoteVolume   = "quote_volume_24h"
)

// TickerStat is a fully parsed ticker: the numeric form of domain.Ticker.
// All derived views are built from these so that every wire decimal is parsed
// exactly once, at one boundary.
type TickerStat struct {
	Symbol         string  `json:"symbol"`
	BaseAsset      string  `json:"base_asset,omitempty"`
	Price          float64 `json:"price"`
	PriceChange    float64 `json:"price_change_24h"`
	PriceChangePct float64 `json:"price_change_percent_24h"`
	Volume         float64 `json:"volume_24h"`
	QuoteVolume    float64 `json:"quote_volume_24h"`
	High           float64 `json:"high_24h"`
	Low            float64 `json:"low_24h"`
}

type RankedView struct {
	Timestamp time.Time    `json:"timestamp"`
	RankedBy  string       `json:"ranked_by"`
	Count     int          `json:"count"`
	Tickers   []TickerStat `json:"tickers"`
}

type MarketStats struct {
	TotalSymbols  int     `json:"total_symbols"`
	TotalVolume   float64 `json:"total_volume_24h"`
	PositiveCount int     `json:"positive_count"`
	NegativeCount int     `json:"negative_count"`
	NeutralCount  int     `json:"neutral_count"`
	Sentiment     string  `json:"market_sentiment"`
}

type Overview struct {
	Timestamp     time.Time    `json:"timestamp"`
	Stats         MarketStats  `json:"market_stats"`
	TopPerformers []TickerStat `json:"top_performers"`
}

// ParseDecimal converts one wire-format decimal string to a float64. A value
// that does not parse is reported as a malformed quote naming the field; it is
// never coerced to zero.
func ParseDecimal(field, value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %s value %q", domain.ErrMalformedQuote, field, value)
	}
	return v, nil
}

func ParseTicker(t domain.Ticker) (TickerStat, error) {
	stat := TickerStat{Symbol: t.Symbol}

	fields := []struct {
		name  string
		value string
		dst   *float64
	}{
		{"lastPrice", t.LastPrice, &stat.Price},
		{"priceChange", t.PriceChange, &stat.PriceChange},
		{"priceChangePercent", t.PriceChangePercent, &stat.PriceChangePct},
		{"volume", t.Volume, &stat.Volume},
		{"quoteVolume", t.QuoteVolume, &stat.QuoteVolume},
		{"highPrice", t.HighPrice, &stat.High},
		{"lowPrice", t.LowPrice, &stat.Low},
	}
	for _, f := range fields {
		v, err := ParseDecimal(f.name, f.value)
		if err != nil {
			return TickerStat{}, fmt.Errorf("ticker %s: %w", t.Symbol, err)
		}
		*f.dst = v
	}
	return stat, nil
}

func ParseTickers(tickers []domain.Ticker) ([]TickerStat, error) {
	stats := make([]TickerStat, 0, len(tickers))
	for _, t := range tickers {
		stat, err := ParseTicker(t)
		if err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

// FilterByQuoteAsset keeps tickers quoted in the given asset, preserving input
// order. The base asset is derived by stripping the quote suffix.
func FilterByQuoteAsset(stats []TickerStat, quoteAsset string) []TickerStat {
	out := make([]TickerStat, 0, len(stats))
	for _, s := range stats {
		if !strings.HasSuffix(s.Symbol, quoteAsset) || s.Symbol == quoteAsset {
			continue
		}
		s.BaseAsset = strings.TrimSuffix(s.Symbol, quoteAsset)
		out = append(out, s)
	}
	return out
}

// RankByVolume sorts descending by 24h quote volume and truncates to limit.
// Equal volumes keep their input order; the exchange does not define a
// tie-break, so the sort must be stable.
func RankByVolume(stats []TickerStat, limit int) []TickerStat {
	ranked := append([]TickerStat(nil), stats...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].QuoteVolume > ranked[j].QuoteVolume
	})
	return truncate(ranked, limit)
}

// RankGainers keeps tickers with a strictly positive 24h change, sorted by
// percent change descending. Flat tickers appear in neither gainers nor
// losers.
func RankGainers(stats []TickerStat, limit int) []TickerStat {
	gainers := make([]TickerStat, 0, len(stats))
	for _, s := range stats {
		if s.PriceChangePct > 0 {
			gainers = append(gainers, s)
		}
	}
	sort.SliceStable(gainers, func(i, j int) bool {
		return gainers[i].PriceChangePct > gainers[j].PriceChangePct
	})
	return truncate(gainers, limit)
}

// RankLosers keeps tickers with a strictly negative 24h change, sorted by
// percent change ascending (worst first).
func RankLosers(stats []TickerStat, limit int) []TickerStat {
	losers := make([]TickerStat, 0, len(stats))
	for _, s := range stats {
		if s.PriceChangePct < 0 {
			losers = append(losers, s)
		}
	}
	sort.SliceStable(losers, func(i, j int) bool {
		return losers[i].PriceChangePct < losers[j].PriceChangePct
	})
	return truncate(losers, limit)
}

// BuildOverview aggregates the filtered ticker set into market-wide stats.
// Sentiment is recomputed on every call; a positive/negative tie reads as
// neutral. Top performers are the top 10 by quote volume regardless of sign.
func BuildOverview(stats []TickerStat, now time.Time) Overview {
	var totalVolume float64
	var positive, negative int
	for _, s := range stats {
		totalVolume += s.QuoteVolume
		switch {
		case s.PriceChangePct > 0:
			positive++
		case s.PriceChangePct < 0:
			negative++
		}
	}
	neutral := len(stats) - positive - negative

	sentiment := "neutral"
	if positive > negative {
		sentiment = "bullish"
	} else if negative > positive {
		sentiment = "bearish"
	}

	return Overview{
		Timestamp: now.UTC(),
		Stats: MarketStats{
			TotalSymbols:  len(stats),
			TotalVolume:   totalVolume,
			PositiveCount: positive,
			NegativeCount: negative,
			NeutralCount:  neutral,
			Sentiment:     sentiment,
		},
		TopPerformers: RankByVolume(stats, overviewTopPerformers),
	}
}

func GainersView(stats []TickerStat, now time.Time) RankedView {
	ranked := RankGainers(stats, rankedViewLimit)
	return RankedView{Timestamp: now.UTC(), RankedBy: RankKeyPercentChange, Count: len(ranked), Tickers: ranked}
}

func LosersView(stats []TickerStat, now time.Time) RankedView {
	ranked := RankLosers(stats, rankedViewLimit)
	return RankedView{Timestamp: now.UTC(), RankedBy: RankKeyPercentChange, Count: len(ranked), Tickers: ranked}
}

func VolumeLeadersView(stats []TickerStat, now time.Time) RankedView {
	ranked := RankByVolume(stats, rankedViewLimit)
	return RankedView{Timestamp: now.UTC(), RankedBy: RankKeyQuoteVolume, Count: len(ranked), Tickers: ranked}
}

func truncate(stats []TickerStat, limit int) []TickerStat {
	if limit > 0 && len(stats) > limit {
		return stats[:limit]
	}
	return stats
}
