package calculator

import (
	"errors"

	"FinanceDesk/internal/model"
)

// CalculateSMA computes the simple moving average of the last period values.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), nil
}

// AverageVolume averages the volume of up to the last window bars.
func AverageVolume(bars []model.OHLCV, window int) (float64, error) {
	if len(bars) == 0 {
		return 0, errors.New("no bars provided")
	}
	if window > len(bars) {
		window = len(bars)
	}
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	return CalculateSMA(vols, window)
}

// Closes extracts closing prices in bar order.
func Closes(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
