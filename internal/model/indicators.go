package model

import "github.com/guregu/null/v6"

// NeutralRSI is used whenever RSI cannot be obtained.
const NeutralRSI = 50.0

// TechnicalIndicators holds the technical readings for one ticker.
type TechnicalIndicators struct {
	RSI       float64    `json:"rsi"`
	SMA20     null.Float `json:"sma_20,omitzero"`
	SMA50     null.Float `json:"sma_50,omitzero"`
	RSISignal string     `json:"rsi_signal"`
	Trend     string     `json:"trend"`
	Source    string     `json:"-"`
	Err       error      `json:"-"`
}
