package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// PartialQuote is the fragment of a quote that one source was able to provide.
// An invalid field means the source did not supply it. Err marks a failed fetch;
// fields may still be populated on a best-effort basis.
type PartialQuote struct {
	Source         string
	Name           null.String
	Price          null.Float
	Change         null.Float
	ChangePct      null.Float
	Volume         null.Int
	AvgVolume      null.Float
	MarketCap      null.Float
	PERatio        null.Float
	High52w        null.Float
	Low52w         null.Float
	SentimentScore null.Float
	AnalystRating  null.String
	TargetPrice    null.Float
	Err            error
}

// MergedQuote is the combined record for one ticker across all sources.
type MergedQuote struct {
	Ticker         string      `json:"ticker"`
	Name           null.String `json:"name,omitzero"`
	Price          null.Float  `json:"price,omitzero"`
	Change         null.Float  `json:"change,omitzero"`
	ChangePct      null.Float  `json:"change_pct,omitzero"`
	Volume         null.Int    `json:"volume,omitzero"`
	AvgVolume      null.Float  `json:"avg_volume,omitzero"`
	MarketCap      null.Float  `json:"market_cap,omitzero"`
	PERatio        null.Float  `json:"pe_ratio,omitzero"`
	High52w        null.Float  `json:"high_52w,omitzero"`
	Low52w         null.Float  `json:"low_52w,omitzero"`
	SentimentScore null.Float  `json:"sentiment_score,omitzero"`
	AnalystRating  null.String `json:"analyst_rating,omitzero"`
	TargetPrice    null.Float  `json:"target_price,omitzero"`
	News           []NewsItem  `json:"news,omitempty"`
	Error          string      `json:"error,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

// Resolved reports whether at least one source answered for the ticker.
func (q *MergedQuote) Resolved() bool {
	return q != nil && q.Error == ""
}

// NewsItem is a single headline from a news feed.
type NewsItem struct {
	Headline  string `json:"headline"`
	Summary   string `json:"summary"`
	Source    string `json:"source"`
	URL       string `json:"url"`
	Published string `json:"datetime"`
}

// EarningsEvent is one upcoming earnings report.
type EarningsEvent struct {
	Ticker          string     `json:"ticker"`
	Date            string     `json:"date"`
	Hour            string     `json:"hour,omitempty"`
	EPSEstimate     null.Float `json:"eps_estimate,omitzero"`
	RevenueEstimate null.Float `json:"revenue_estimate,omitzero"`
}
