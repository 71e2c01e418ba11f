package market

import (
	"fmt"

	"binance-context-server/internal/domain"
)

// Order-book pressure labels.
const (
	PressureBuying   = "More buying pressure"
	PressureSelling  = "More selling pressure"
	PressureBalanced = "Balanced order book"
)

// TechnicalSummary describes a candle window with simple descriptive
// statistics. RangePosition is nil when the window is degenerate
// (high == low) and the position is not computable.
type TechnicalSummary struct {
	CurrentPrice   float64  `json:"current_price"`
	WindowHigh     float64  `json:"window_high"`
	WindowLow      float64  `json:"window_low"`
	SMA            float64  `json:"sma"`
	AverageVolume  float64  `json:"average_volume"`
	VolumeRatio    float64  `json:"volume_ratio"`
	RangePosition  *float64 `json:"range_position,omitempty"`
	PriceChangePct float64  `json:"price_change_percent"`
	CandleCount    int      `json:"candle_count"`
}

type BookSummary struct {
	BestBid    float64 `json:"best_bid"`
	BestAsk    float64 `json:"best_ask"`
	Spread     float64 `json:"spread"`
	SpreadPct  float64 `json:"spread_percent"`
	BidDepth   float64 `json:"bid_depth"`
	AskDepth   float64 `json:"ask_depth"`
	Pressure   string  `json:"pressure"`
	LevelCount int     `json:"level_count"`
}

// Summarize computes descriptive statistics over an ordered candle sequence.
// The window is whatever length is supplied; nothing is hard-coded to 24
// periods.
func Summarize(candles []domain.Candle) (TechnicalSummary, error) {
	if len(candles) == 0 {
		return TechnicalSummary{}, fmt.Errorf("%w: no candles in window", domain.ErrInsufficientData)
	}

	summary := TechnicalSummary{
		CandleCount:  len(candles),
		CurrentPrice: candles[len(candles)-1].Close,
		WindowHigh:   candles[0].High,
		WindowLow:    candles[0].Low,
	}

	var closeSum, volumeSum float64
	for _, c := range candles {
		if c.High > summary.WindowHigh {
			summary.WindowHigh = c.High
		}
		if c.Low < summary.WindowLow {
			summary.WindowLow = c.Low
		}
		closeSum += c.Close
		volumeSum += c.Volume
	}

	summary.SMA = closeSum / float64(len(candles))
	summary.AverageVolume = volumeSum / float64(len(candles))
	if summary.AverageVolume > 0 {
		summary.VolumeRatio = candles[len(candles)-1].Volume / summary.AverageVolume
	}

	if summary.WindowHigh > summary.WindowLow {
		pos := (summary.CurrentPrice - summary.WindowLow) / (summary.WindowHigh - summary.WindowLow) * 100
		summary.RangePosition = &pos
	}

	firstClose := candles[0].Close
	if firstClose != 0 {
		summary.PriceChangePct = (summary.CurrentPrice - firstClose) / firstClose * 100
	}

	return summary, nil
}

// SummarizeBook derives spread and depth statistics from a depth snapshot.
// The pressure label compares total depths with a 1.2x threshold in either
// direction.
func SummarizeBook(book domain.OrderBook) (BookSummary, error) {
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return BookSummary{}, fmt.Errorf("%w: %s has %d bids and %d asks",
			domain.ErrEmptyOrderBook, book.Symbol, len(book.Bids), len(book.Asks))
	}

	summary := BookSummary{
		BestBid:    book.Bids[0].Price,
		BestAsk:    book.Asks[0].Price,
		LevelCount: len(book.Bids) + len(book.Asks),
	}
	summary.Spread = summary.BestAsk - summary.BestBid
	if summary.BestBid != 0 {
		summary.SpreadPct = summary.Spread / summary.BestBid * 100
	}

	for _, b := range book.Bids {
		summary.BidDepth += b.Quantity
	}
	for _, a := range book.Asks {
		summary.AskDepth += a.Quantity
	}

	switch {
	case summary.BidDepth > summary.AskDepth*pressureThreshold:
		summary.Pressure = PressureBuying
	case summary.AskDepth > summary.BidDepth*pressureThreshold:
		summary.Pressure = PressureSelling
	default:
		summary.Pressure = PressureBalanced
	}

	return summary, nil
}
