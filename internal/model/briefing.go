package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wisdom is one entry of the quote-of-the-day table.
type Wisdom struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

// PortfolioSummary is the valuation of the portfolio against cost basis.
type PortfolioSummary struct {
	TotalValue     decimal.Decimal `json:"total_value"`
	TotalChange    decimal.Decimal `json:"total_change"`
	TotalChangePct decimal.Decimal `json:"total_change_pct"`
}

// Briefing is the daily briefing payload.
type Briefing struct {
	Quote            Wisdom                  `json:"quote"`
	PortfolioSummary PortfolioSummary        `json:"portfolio_summary"`
	MarketData       map[string]*MergedQuote `json:"market_data"`
	BriefingText     string                  `json:"briefing_text"`
	GeneratedAt      time.Time               `json:"generated_at"`
	Greeting         string                  `json:"greeting"`
}
