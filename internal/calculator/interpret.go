package calculator

import "github.com/guregu/null/v6"

// RSI signal labels.
const (
	SignalOverbought = "Overbought"
	SignalOversold   = "Oversold"
	SignalBullish    = "Bullish"
	SignalBearish    = "Bearish"
	SignalNeutral    = "Neutral"
)

// Trend labels.
const (
	TrendUp       = "Uptrend"
	TrendDown     = "Downtrend"
	TrendSideways = "Sideways"
	TrendUnknown  = "Unknown"
)

// RSISignal labels an RSI reading.
func RSISignal(rsi float64) string {
	switch {
	case rsi >= 70:
		return SignalOverbought
	case rsi <= 30:
		return SignalOversold
	case rsi >= 60:
		return SignalBullish
	case rsi <= 40:
		return SignalBearish
	default:
		return SignalNeutral
	}
}

// Trend compares the short and long moving averages.
func Trend(sma20, sma50 null.Float) string {
	if !sma20.Valid || !sma50.Valid {
		return TrendUnknown
	}
	switch {
	case sma20.Float64 > sma50.Float64:
		return TrendUp
	case sma20.Float64 < sma50.Float64:
		return TrendDown
	default:
		return TrendSideways
	}
}
