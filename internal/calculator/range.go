package calculator

import (
	"errors"
	"math"

	"FinanceDesk/internal/model"
)

// TradingDaysPerYear is the bar count treated as one year of daily data.
const TradingDaysPerYear = 252

// Calculate52WeekRange scans the most recent 252 trading days and returns the high and low.
func Calculate52WeekRange(dailyBars []model.OHLCV) (high, low float64, err error) {
	if len(dailyBars) == 0 {
		return 0, 0, errors.New("no daily bars provided")
	}
	start := max(len(dailyBars)-TradingDaysPerYear, 0)
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range dailyBars[start:] {
		high = math.Max(high, b.High)
		low = math.Min(low, b.Low)
	}
	return high, low, nil
}

// Position52Week returns where price sits within [low, high], clamped to 0..1.
func Position52Week(price, high, low float64) (float64, error) {
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	if high == low {
		return 0.5, nil
	}
	return math.Min(math.Max((price-low)/(high-low), 0), 1), nil
}
