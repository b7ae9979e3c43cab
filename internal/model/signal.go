package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// FactorScore represents a single factor's scoring result.
type FactorScore struct {
	Name       string
	RawScore   float64
	Weight     float64
	Weighted   float64
	Commentary string
}

// Evaluation is the output of the scoring engine before rounding.
type Evaluation struct {
	Factors    []FactorScore
	TotalScore float64
}

// Factor returns the named factor, or a zero FactorScore.
func (e *Evaluation) Factor(name string) FactorScore {
	for _, f := range e.Factors {
		if f.Name == name {
			return f
		}
	}
	return FactorScore{}
}

// ScoreBreakdown holds the rounded sub-scores.
type ScoreBreakdown struct {
	Momentum  float64 `json:"momentum"`
	Volume    float64 `json:"volume"`
	Sentiment float64 `json:"sentiment"`
	Value     float64 `json:"value"`
}

// ScoreData echoes the inputs the score was derived from.
type ScoreData struct {
	Price       null.Float `json:"price"`
	ChangePct   float64    `json:"change_pct"`
	VolumeRatio float64    `json:"volume_ratio"`
	RSI         float64    `json:"rsi"`
	PERatio     null.Float `json:"pe_ratio"`
}

// OpportunityScore is the 0-100 heuristic composite for one ticker.
type OpportunityScore struct {
	Ticker       string          `json:"ticker"`
	OverallScore int             `json:"overall_score"`
	Breakdown    *ScoreBreakdown `json:"breakdown,omitempty"`
	Data         *ScoreData      `json:"data,omitempty"`
	Error        string          `json:"error,omitempty"`
	Timestamp    time.Time       `json:"timestamp,omitzero"`
}
