package strategy

import (
	"math"

	"FinanceDesk/internal/model"
)

// VolumeRatio returns volume/avgVolume when both are known and the average is positive.
func VolumeRatio(q *model.MergedQuote) (float64, bool) {
	if !q.Volume.Valid || !q.AvgVolume.Valid || q.AvgVolume.Float64 <= 0 {
		return 0, false
	}
	return float64(q.Volume.Int64) / q.AvgVolume.Float64, true
}

// Evaluate scores a merged quote against its technical indicators.
// A nil ind is treated as neutral RSI.
func Evaluate(q *model.MergedQuote, ind *model.TechnicalIndicators) *model.Evaluation {
	rsi := model.NeutralRSI
	if ind != nil {
		rsi = ind.RSI
	}
	ratio, hasRatio := VolumeRatio(q)

	factors := []model.FactorScore{
		scoreMomentum(q.ChangePct.ValueOrZero(), rsi),
		scoreVolume(ratio, hasRatio),
		scoreSentiment(q.SentimentScore.Float64, q.SentimentScore.Valid, len(q.News)),
		scoreValue(q.PERatio.Float64, q.PERatio.Valid),
	}

	total := 0.0
	for _, f := range factors {
		total += f.Weighted
	}
	return &model.Evaluation{Factors: factors, TotalScore: total}
}

// Round matches the half-to-even rounding used for all reported scores.
func Round(v float64) float64 {
	return math.RoundToEven(v)
}

// Overall returns the rounded overall score.
func Overall(e *model.Evaluation) int {
	return int(Round(e.TotalScore))
}

// Breakdown returns the individually rounded sub-scores.
func Breakdown(e *model.Evaluation) *model.ScoreBreakdown {
	return &model.ScoreBreakdown{
		Momentum:  Round(e.Factor(FactorMomentum).RawScore),
		Volume:    Round(e.Factor(FactorVolume).RawScore),
		Sentiment: Round(e.Factor(FactorSentiment).RawScore),
		Value:     Round(e.Factor(FactorValue).RawScore),
	}
}
