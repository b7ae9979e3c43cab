package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/guregu/null/v6"
	"golang.org/x/sync/errgroup"

	"FinanceDesk/internal/model"
)

// DefaultFinnhubURL is the Finnhub REST API root.
const DefaultFinnhubURL = "https://finnhub.io/api/v1"

// Analyst rating labels.
const (
	RatingStrongBuy = "Strong Buy"
	RatingBuy       = "Buy"
	RatingHold      = "Hold"
	RatingSell      = "Sell"
)

var errNoAPIKey = errors.New("api key not configured")

// Finnhub is the sentiment, analyst and calendar source.
type Finnhub struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

// NewFinnhub creates a Finnhub source.
func NewFinnhub(apiKey string, client *http.Client, timeout time.Duration) *Finnhub {
	return &Finnhub{APIKey: apiKey, BaseURL: DefaultFinnhubURL, Client: client, Timeout: timeout}
}

func (f *Finnhub) Name() string { return "finnhub" }

func (f *Finnhub) get(ctx context.Context, path string, q url.Values, out any) error {
	if f.APIKey == "" {
		return errNoAPIKey
	}
	h := http.Header{}
	h.Set("X-Finnhub-Token", f.APIKey)
	return getJSON(ctx, f.Client, f.BaseURL+path+"?"+q.Encode(), h, out)
}

type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
}

type finnhubSocialPoint struct {
	PositiveScore float64 `json:"positiveScore"`
	NegativeScore float64 `json:"negativeScore"`
}

type finnhubSocial struct {
	Reddit  []finnhubSocialPoint `json:"reddit"`
	Twitter []finnhubSocialPoint `json:"twitter"`
}

type finnhubRecommendation struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

type finnhubPriceTarget struct {
	TargetMean float64 `json:"targetMean"`
}

type finnhubEarnings struct {
	EarningsCalendar []struct {
		Symbol          string   `json:"symbol"`
		Date            string   `json:"date"`
		Hour            string   `json:"hour"`
		EPSEstimate     *float64 `json:"epsEstimate"`
		RevenueEstimate *float64 `json:"revenueEstimate"`
	} `json:"earningsCalendar"`
}

// FetchQuote issues the quote, social sentiment, recommendation and price target
// calls concurrently. Each is isolated; Err is set only when all of them fail.
func (f *Finnhub) FetchQuote(ctx context.Context, ticker string) model.PartialQuote {
	pq := model.PartialQuote{Source: f.Name()}
	if f.APIKey == "" {
		pq.Err = fmt.Errorf("finnhub: %w", errNoAPIKey)
		return pq
	}
	ctx, cancel := withTimeout(ctx, f.Timeout)
	defer cancel()

	sym := url.Values{"symbol": {ticker}}
	var (
		quote                                  finnhubQuote
		social                                 finnhubSocial
		recs                                   []finnhubRecommendation
		target                                 finnhubPriceTarget
		quoteErr, socialErr, recErr, targetErr error
	)
	var g errgroup.Group
	g.Go(func() error { quoteErr = f.get(ctx, "/quote", sym, &quote); return nil })
	g.Go(func() error { socialErr = f.get(ctx, "/stock/social-sentiment", sym, &social); return nil })
	g.Go(func() error { recErr = f.get(ctx, "/stock/recommendation", sym, &recs); return nil })
	g.Go(func() error { targetErr = f.get(ctx, "/stock/price-target", sym, &target); return nil })
	_ = g.Wait()

	if quoteErr == nil && quote.Current == 0 {
		quoteErr = fmt.Errorf("no quote for %s", ticker)
	}
	if quoteErr == nil {
		pq.Price = null.FloatFrom(quote.Current)
		pq.Change = null.FloatFrom(quote.Change)
		pq.ChangePct = null.FloatFrom(quote.ChangePercent)
	}
	if socialErr == nil {
		pq.SentimentScore = null.FloatFrom(sentimentScore(social))
	}
	if recErr == nil {
		if len(recs) == 0 {
			recErr = fmt.Errorf("no recommendations for %s", ticker)
		} else if rating := analystRating(recs[0]); rating != "" {
			pq.AnalystRating = null.StringFrom(rating)
		}
	}
	if targetErr == nil {
		pq.TargetPrice = positive(target.TargetMean)
	}

	if quoteErr != nil && socialErr != nil && recErr != nil && targetErr != nil {
		pq.Err = fmt.Errorf("finnhub: %w", errors.Join(quoteErr, socialErr, recErr, targetErr))
	}
	return pq
}

// sentimentScore is the positive share of the summed reddit and twitter scores.
// With no scores at all it is neutral.
func sentimentScore(s finnhubSocial) float64 {
	var pos, neg float64
	for _, p := range append(s.Reddit, s.Twitter...) {
		pos += p.PositiveScore
		neg += p.NegativeScore
	}
	if pos+neg <= 0 {
		return 0.5
	}
	return round2(pos / (pos + neg))
}

// analystRating condenses the latest recommendation period into one label.
func analystRating(r finnhubRecommendation) string {
	buy := r.StrongBuy + r.Buy
	sell := r.StrongSell + r.Sell
	total := buy + r.Hold + sell
	if total == 0 {
		return ""
	}
	switch {
	case float64(buy)/float64(total) > 0.6:
		return RatingStrongBuy
	case float64(buy)/float64(total) > 0.4:
		return RatingBuy
	case float64(sell)/float64(total) > 0.4:
		return RatingSell
	default:
		return RatingHold
	}
}

// EarningsCalendar lists earnings reports between from and to, inclusive.
func (f *Finnhub) EarningsCalendar(ctx context.Context, from, to time.Time) ([]model.EarningsEvent, error) {
	ctx, cancel := withTimeout(ctx, f.Timeout)
	defer cancel()

	q := url.Values{"from": {from.Format(time.DateOnly)}, "to": {to.Format(time.DateOnly)}}
	var resp finnhubEarnings
	if err := f.get(ctx, "/calendar/earnings", q, &resp); err != nil {
		return nil, fmt.Errorf("finnhub earnings: %w", err)
	}
	events := make([]model.EarningsEvent, 0, len(resp.EarningsCalendar))
	for _, e := range resp.EarningsCalendar {
		events = append(events, model.EarningsEvent{
			Ticker:          e.Symbol,
			Date:            e.Date,
			Hour:            e.Hour,
			EPSEstimate:     null.FloatFromPtr(e.EPSEstimate),
			RevenueEstimate: null.FloatFromPtr(e.RevenueEstimate),
		})
	}
	return events, nil
}
