package strategy

import (
	"fmt"
	"math"

	"FinanceDesk/internal/model"
)

// Factor names.
const (
	FactorMomentum  = "momentum"
	FactorVolume    = "volume"
	FactorSentiment = "sentiment"
	FactorValue     = "value"
)

// FactorWeight is applied to every factor; the overall score is their mean.
const FactorWeight = 0.25

const neutral = 50.0

func factor(name string, score float64, commentary string) model.FactorScore {
	return model.FactorScore{
		Name:       name,
		RawScore:   score,
		Weight:     FactorWeight,
		Weighted:   score * FactorWeight,
		Commentary: commentary,
	}
}

// scoreMomentum rewards rising prices that are not overbought and
// penalises falling prices that are not oversold.
func scoreMomentum(changePct, rsi float64) model.FactorScore {
	score := neutral
	switch {
	case changePct > 0 && rsi < 70:
		score = math.Min(neutral+changePct*5+(70-rsi)/2, 100)
	case changePct < 0 && rsi > 30:
		score = math.Max(neutral+changePct*5-(rsi-30)/2, 0)
	}
	return factor(FactorMomentum, score, fmt.Sprintf("change %+.2f%%, RSI %.0f", changePct, rsi))
}

// scoreVolume looks at today's volume against the average. Unusual activity scores high.
func scoreVolume(ratio float64, ok bool) model.FactorScore {
	if !ok {
		return factor(FactorVolume, neutral, "average volume unavailable")
	}
	var score float64
	switch {
	case ratio > 2:
		score = math.Min(70+ratio*5, 100)
	case ratio > 1:
		score = neutral + ratio*10
	default:
		score = ratio * 50
	}
	return factor(FactorVolume, score, fmt.Sprintf("%.2fx average", ratio))
}

// scoreSentiment scales the 0-1 social sentiment to 0-100 and adds
// two points per attached headline.
func scoreSentiment(sentiment float64, ok bool, newsCount int) model.FactorScore {
	score := neutral
	commentary := "no sentiment data"
	if ok {
		score = math.Max(math.Min(sentiment*100, 100), 0)
		commentary = fmt.Sprintf("sentiment %.2f", sentiment)
	}
	if newsCount > 0 {
		score = math.Min(score+float64(newsCount)*2, 100)
		commentary += fmt.Sprintf(", %d headlines", newsCount)
	}
	return factor(FactorSentiment, score, commentary)
}

// scoreValue buckets the P/E ratio. A zero or missing P/E is left neutral.
func scoreValue(pe float64, ok bool) model.FactorScore {
	if !ok || pe == 0 {
		return factor(FactorValue, neutral, "P/E unavailable")
	}
	var score float64
	switch {
	case pe < 15:
		score = 80
	case pe < 25:
		score = 60
	case pe < 40:
		score = 40
	default:
		score = 20
	}
	return factor(FactorValue, score, fmt.Sprintf("P/E %.1f", pe))
}
