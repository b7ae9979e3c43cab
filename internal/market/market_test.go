package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinanceDesk/internal/model"
)

type stubQuotes map[string]float64

func (s stubQuotes) GetQuotes(_ context.Context, tickers []string) map[string]*model.MergedQuote {
	out := make(map[string]*model.MergedQuote, len(tickers))
	for _, t := range tickers {
		pct, ok := s[t]
		if !ok {
			out[t] = &model.MergedQuote{Ticker: t, Error: "no source returned data"}
			continue
		}
		out[t] = &model.MergedQuote{Ticker: t, Price: null.FloatFrom(100), ChangePct: null.FloatFrom(pct)}
	}
	return out
}

type stubNews []model.NewsItem

func (s stubNews) GetMarketNews(_ context.Context, limit int) []model.NewsItem {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

type stubEarnings struct {
	events   []model.EarningsEvent
	err      error
	from, to time.Time
}

func (s *stubEarnings) EarningsCalendar(_ context.Context, from, to time.Time) ([]model.EarningsEvent, error) {
	s.from, s.to = from, to
	return append([]model.EarningsEvent(nil), s.events...), s.err
}

func TestIndices_FixedOrder(t *testing.T) {
	svc := NewService(stubQuotes{"^GSPC": 0.5, "^VIX": -3}, nil, nil, nil)
	got := svc.Indices(context.Background())
	require.Len(t, got, 5)
	assert.Equal(t, "^GSPC", got[0].Symbol)
	assert.Equal(t, "S&P 500", got[0].Name)
	assert.Equal(t, 0.5, got[0].ChangePct.Float64)
	assert.NotEmpty(t, got[1].Error)
	assert.Equal(t, "VIX", got[4].Name)
}

func TestSectors_SortedByChange(t *testing.T) {
	svc := NewService(stubQuotes{"XLK": 1.2, "XLE": -0.8, "XLF": 2.5, "XLV": 0.1}, nil, nil, nil)
	got := svc.Sectors(context.Background())
	require.Len(t, got, len(Sectors))
	assert.Equal(t, "XLF", got[0].Symbol)
	assert.Equal(t, "XLK", got[1].Symbol)
	assert.Equal(t, "XLV", got[2].Symbol)
	assert.Equal(t, "XLE", got[3].Symbol)
	for _, p := range got[4:] {
		assert.False(t, p.ChangePct.Valid)
	}
}

func TestMovers_SplitAndLimit(t *testing.T) {
	quotes := stubQuotes{
		"A": 1, "B": 2, "C": 3, "D": 4, "E": 5, "F": 6,
		"L1": -1, "L2": -7,
		"FLAT": 0,
	}
	svc := NewService(quotes, nil, nil, nil)
	m := svc.Movers(context.Background(), []string{"A", "B", "C", "D", "E", "F", "L1", "L2", "FLAT", "MISSING"})

	require.Len(t, m.Gainers, MoversLimit)
	assert.Equal(t, "F", m.Gainers[0].Symbol)
	assert.Equal(t, "B", m.Gainers[4].Symbol)
	require.Len(t, m.Losers, 2)
	assert.Equal(t, "L2", m.Losers[0].Symbol)
	assert.Equal(t, "L1", m.Losers[1].Symbol)
}

func TestMovers_TiesOrderedBySymbol(t *testing.T) {
	quotes := stubQuotes{"MSFT": 2, "AAPL": 2, "NVDA": 2, "XOM": -1, "CVX": -1}
	svc := NewService(quotes, nil, nil, nil)
	for i := 0; i < 20; i++ {
		m := svc.Movers(context.Background(), []string{"NVDA", "MSFT", "AAPL", "XOM", "CVX"})
		require.Len(t, m.Gainers, 3)
		assert.Equal(t, "AAPL", m.Gainers[0].Symbol)
		assert.Equal(t, "MSFT", m.Gainers[1].Symbol)
		assert.Equal(t, "NVDA", m.Gainers[2].Symbol)
		require.Len(t, m.Losers, 2)
		assert.Equal(t, "CVX", m.Losers[0].Symbol)
		assert.Equal(t, "XOM", m.Losers[1].Symbol)
	}
}

func TestMovers_NoTickers(t *testing.T) {
	m := NewService(stubQuotes{}, nil, nil, nil).Movers(context.Background(), nil)
	assert.NotNil(t, m.Gainers)
	assert.Empty(t, m.Gainers)
	assert.Empty(t, m.Losers)
}

func TestEarnings_FilteredAndSorted(t *testing.T) {
	src := &stubEarnings{events: []model.EarningsEvent{
		{Ticker: "MSFT", Date: "2026-04-28"},
		{Ticker: "AAPL", Date: "2026-04-30"},
		{Ticker: "XOM", Date: "2026-04-20"},
		{Ticker: "AMZN", Date: "2026-04-28"},
	}}
	svc := NewService(nil, nil, src, nil)
	now := time.Date(2026, 4, 18, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	got, err := svc.Earnings(context.Background(), []string{"AAPL", "MSFT", "AMZN"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "AMZN", got[0].Ticker)
	assert.Equal(t, "MSFT", got[1].Ticker)
	assert.Equal(t, "AAPL", got[2].Ticker)
	assert.Equal(t, now, src.from)
	assert.Equal(t, now.Add(EarningsWindow), src.to)

	all, err := svc.Earnings(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "XOM", all[0].Ticker)
}

func TestEarnings_SourceError(t *testing.T) {
	svc := NewService(nil, nil, &stubEarnings{err: errors.New("api key not configured")}, nil)
	_, err := svc.Earnings(context.Background(), nil)
	assert.Error(t, err)
}

func TestNews_DefaultLimit(t *testing.T) {
	items := make(stubNews, 15)
	svc := NewService(nil, items, nil, nil)
	assert.Len(t, svc.News(context.Background(), 0), DefaultNewsSize)
	assert.Len(t, svc.News(context.Background(), 3), 3)
	assert.NotNil(t, NewService(nil, stubNews(nil), nil, nil).News(context.Background(), 5))
}
