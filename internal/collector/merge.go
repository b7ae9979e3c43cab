package collector

import (
	"time"

	"github.com/guregu/null/v6"

	"FinanceDesk/internal/model"
)

// MergeQuotes combines two partial quotes for ticker.
//
// Precedence:
//   - price and fundamental fields: primary, then secondary when primary lacks the field
//   - sentiment, analyst rating and target price: secondary, then primary
//
// Fields are taken from errored partials too; an invalid field never overwrites a valid one.
func MergeQuotes(ticker string, primary, secondary model.PartialQuote, at time.Time) *model.MergedQuote {
	p, s := &primary, &secondary
	return &model.MergedQuote{
		Ticker:    ticker,
		Name:      firstString(p.Name, s.Name),
		Price:     firstFloat(p.Price, s.Price),
		Change:    firstFloat(p.Change, s.Change),
		ChangePct: firstFloat(p.ChangePct, s.ChangePct),
		Volume:    firstInt(p.Volume, s.Volume),
		AvgVolume: firstFloat(p.AvgVolume, s.AvgVolume),
		MarketCap: firstFloat(p.MarketCap, s.MarketCap),
		PERatio:   firstFloat(p.PERatio, s.PERatio),
		High52w:   firstFloat(p.High52w, s.High52w),
		Low52w:    firstFloat(p.Low52w, s.Low52w),

		SentimentScore: firstFloat(s.SentimentScore, p.SentimentScore),
		AnalystRating:  firstString(s.AnalystRating, p.AnalystRating),
		TargetPrice:    firstFloat(s.TargetPrice, p.TargetPrice),

		Timestamp: at,
	}
}

func firstFloat(a, b null.Float) null.Float {
	if a.Valid {
		return a
	}
	return b
}

func firstInt(a, b null.Int) null.Int {
	if a.Valid {
		return a
	}
	return b
}

func firstString(a, b null.String) null.String {
	if a.Valid {
		return a
	}
	return b
}
