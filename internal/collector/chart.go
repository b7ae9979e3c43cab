package collector

import (
	"context"
	"fmt"

	"github.com/guregu/null/v6"

	"FinanceDesk/internal/calculator"
	"FinanceDesk/internal/model"
)

// ChartTechnicals computes indicators locally from daily bars.
// It stands in for AlphaVantage when no key is configured.
type ChartTechnicals struct {
	Bars BarSource
}

// NewChartTechnicals creates a bar-derived technical source.
func NewChartTechnicals(bars BarSource) *ChartTechnicals {
	return &ChartTechnicals{Bars: bars}
}

func (c *ChartTechnicals) Name() string { return "chart" }

func (c *ChartTechnicals) FetchTechnicals(ctx context.Context, ticker string) model.TechnicalIndicators {
	bars, err := c.Bars.DailyBars(ctx, ticker)
	if err != nil {
		return newTechnicals(c.Name(), null.Float{}, null.Float{}, null.Float{}, fmt.Errorf("chart technicals: %w", err))
	}

	var rsi, sma20, sma50 null.Float
	closes := calculator.Closes(bars)
	if len(closes) > 14 {
		if v, err := calculator.CalculateRSI(closes, 14); err == nil {
			rsi = null.FloatFrom(v)
		}
	}
	if v, err := calculator.CalculateSMA(closes, 20); err == nil {
		sma20 = null.FloatFrom(v)
	}
	if v, err := calculator.CalculateSMA(closes, 50); err == nil {
		sma50 = null.FloatFrom(v)
	}
	return newTechnicals(c.Name(), rsi, sma20, sma50, nil)
}
