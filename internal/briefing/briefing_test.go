package briefing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinanceDesk/internal/llm"
	"FinanceDesk/internal/model"
)

type stubStocks struct {
	quotes map[string]*model.MergedQuote
	asked  [][]string
}

func (s *stubStocks) GetStockData(_ context.Context, tickers []string) map[string]*model.MergedQuote {
	s.asked = append(s.asked, tickers)
	out := make(map[string]*model.MergedQuote, len(tickers))
	for _, t := range tickers {
		if q, ok := s.quotes[t]; ok {
			out[t] = q
		} else {
			out[t] = &model.MergedQuote{Ticker: t, Error: "no source returned data"}
		}
	}
	return out
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestDailyWisdom_SameDateSameQuote(t *testing.T) {
	morning := time.Date(2026, 5, 4, 6, 0, 0, 0, time.Local)
	night := time.Date(2026, 5, 4, 23, 59, 0, 0, time.Local)
	assert.Equal(t, DailyWisdom(morning), DailyWisdom(night))

	seen := map[string]bool{}
	for d := 0; d < 60; d++ {
		seen[DailyWisdom(morning.AddDate(0, 0, d)).Quote] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestGreeting_Boundaries(t *testing.T) {
	day := func(h, m int) time.Time { return time.Date(2026, 1, 1, h, m, 0, 0, time.Local) }
	assert.Equal(t, "Good morning, Ada!", Greeting("Ada", day(11, 59)))
	assert.Equal(t, "Good afternoon, Ada!", Greeting("Ada", day(12, 0)))
	assert.Equal(t, "Good afternoon, Ada!", Greeting("Ada", day(16, 59)))
	assert.Equal(t, "Good evening, Ada!", Greeting("Ada", day(17, 0)))
	assert.Equal(t, "Good morning, Friend!", Greeting("", day(8, 0)))
}

func TestValuate(t *testing.T) {
	market := map[string]*model.MergedQuote{
		"AAPL": {Ticker: "AAPL", Price: null.FloatFrom(110)},
		"MSFT": {Ticker: "MSFT", Error: "no source returned data"},
		"NOPX": {Ticker: "NOPX"},
	}
	portfolio := []model.Holding{
		{Ticker: "AAPL", Shares: 10, AvgPrice: 100},
		{Ticker: "MSFT", Shares: 5, AvgPrice: 300},
		{Ticker: "NOPX", Shares: 1, AvgPrice: 1},
		{Ticker: "GONE", Shares: 1, AvgPrice: 1},
	}
	ps := Valuate(portfolio, market)
	assert.Equal(t, "1100.00", ps.TotalValue.StringFixed(2))
	assert.Equal(t, "100.00", ps.TotalChange.StringFixed(2))
	assert.Equal(t, "10.00", ps.TotalChangePct.StringFixed(2))
}

func TestValuate_RoundsAndDefaultsCostBasis(t *testing.T) {
	market := map[string]*model.MergedQuote{
		"AMD":  {Ticker: "AMD", Price: null.FloatFrom(31)},
		"NVDA": {Ticker: "NVDA", Price: null.FloatFrom(50)},
	}
	ps := Valuate([]model.Holding{
		{Ticker: "AMD", Shares: 3, AvgPrice: 30},
		{Ticker: "NVDA", Shares: 2}, // no cost basis: counted at market
	}, market)
	assert.Equal(t, "193.00", ps.TotalValue.StringFixed(2))
	assert.Equal(t, "3.00", ps.TotalChange.StringFixed(2))
	assert.Equal(t, "1.58", ps.TotalChangePct.StringFixed(2))
}

func TestValuate_ZeroCostBasis(t *testing.T) {
	ps := Valuate(nil, nil)
	assert.True(t, ps.TotalValue.IsZero())
	assert.True(t, ps.TotalChangePct.IsZero())
}

func TestGenerate_EmptySkipsModel(t *testing.T) {
	fake := &llm.Fake{Reply: "unused"}
	stocks := &stubStocks{}
	now := time.Date(2026, 2, 3, 9, 0, 0, 0, time.Local)
	g := New(stocks, fake, WithClock(fixedClock(now)))

	b, err := g.Generate(context.Background(), &model.UserContext{Profile: model.Profile{Name: "Ada"}})
	require.NoError(t, err)
	assert.Equal(t, EmptyText, b.BriefingText)
	assert.Equal(t, "Good morning, Ada!", b.Greeting)
	assert.Equal(t, DailyWisdom(now), b.Quote)
	assert.Empty(t, fake.Requests())
	assert.Empty(t, stocks.asked)
}

func TestGenerate_WithHoldings(t *testing.T) {
	fake := &llm.Fake{Reply: "Your portfolio is up 10% today."}
	stocks := &stubStocks{quotes: map[string]*model.MergedQuote{
		"AAPL": {Ticker: "AAPL", Price: null.FloatFrom(110), ChangePct: null.FloatFrom(4.2)},
	}}
	now := time.Date(2026, 2, 3, 18, 30, 0, 0, time.Local)
	g := New(stocks, fake, WithClock(fixedClock(now)), WithMaxTokens(250))

	uc := &model.UserContext{
		Profile:   model.Profile{Name: "Ada"},
		Portfolio: []model.Holding{{Ticker: "AAPL", Shares: 10, AvgPrice: 100}},
		Watchlist: []model.WatchlistEntry{{Ticker: "TSLA"}},
	}
	b, err := g.Generate(context.Background(), uc)
	require.NoError(t, err)

	assert.Equal(t, "Your portfolio is up 10% today.", b.BriefingText)
	assert.Equal(t, "Good evening, Ada!", b.Greeting)
	assert.Equal(t, now, b.GeneratedAt)
	assert.Equal(t, "1100.00", b.PortfolioSummary.TotalValue.StringFixed(2))
	assert.Len(t, b.MarketData, 2)
	require.Len(t, stocks.asked, 1)
	assert.Equal(t, []string{"AAPL", "TSLA"}, stocks.asked[0])

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, 250, reqs[0].MaxTokens)
	prompt := reqs[0].Messages[0].Content
	assert.Contains(t, prompt, "Total Value: $1100.00")
	assert.Contains(t, prompt, "Change: $100.00 (10%)")
	assert.Contains(t, prompt, `"TSLA"`)
}

func TestGenerate_ModelFailure(t *testing.T) {
	fake := &llm.Fake{Err: errors.New("overloaded")}
	stocks := &stubStocks{}
	g := New(stocks, fake)
	_, err := g.Generate(context.Background(), &model.UserContext{
		Watchlist: []model.WatchlistEntry{{Ticker: "TSLA"}},
	})
	assert.ErrorContains(t, err, "overloaded")
}

func TestMorningWisdom(t *testing.T) {
	now := time.Date(2026, 7, 1, 7, 0, 0, 0, time.Local)
	g := New(&stubStocks{}, &llm.Fake{}, WithClock(fixedClock(now)))
	w, date := g.MorningWisdom()
	assert.Equal(t, DailyWisdom(now), w)
	assert.Equal(t, now, date)
	assert.Len(t, Quotes(), 30)
}
