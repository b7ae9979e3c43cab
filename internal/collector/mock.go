package collector

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/guregu/null/v6"

	"FinanceDesk/internal/model"
)

// MockSource returns controllable fixed quotes for development and testing.
type MockSource struct {
	SourceName string
	Quotes     map[string]model.PartialQuote
	Err        error
	Delay      time.Duration
	Panic      bool
	calls      atomic.Int64
}

func (m *MockSource) Name() string {
	if m.SourceName == "" {
		return "mock"
	}
	return m.SourceName
}

// Calls reports how many times FetchQuote ran.
func (m *MockSource) Calls() int64 { return m.calls.Load() }

func (m *MockSource) FetchQuote(ctx context.Context, ticker string) model.PartialQuote {
	m.calls.Add(1)
	if m.Panic {
		panic("mock source exploded")
	}
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return model.PartialQuote{Source: m.Name(), Err: ctx.Err()}
		}
	}
	if m.Err != nil {
		return model.PartialQuote{Source: m.Name(), Err: m.Err}
	}
	q, ok := m.Quotes[ticker]
	if !ok {
		return model.PartialQuote{Source: m.Name(), Err: fmt.Errorf("%s: unknown ticker %s", m.Name(), ticker)}
	}
	q.Source = m.Name()
	return q
}

// MockTechnicals returns fixed indicators; unknown tickers get the neutral default.
type MockTechnicals struct {
	Values map[string]model.TechnicalIndicators
}

func (m *MockTechnicals) Name() string { return "mock" }

func (m *MockTechnicals) FetchTechnicals(_ context.Context, ticker string) model.TechnicalIndicators {
	if v, ok := m.Values[ticker]; ok {
		return v
	}
	return newTechnicals(m.Name(), null.Float{}, null.Float{}, null.Float{}, fmt.Errorf("mock: unknown ticker %s", ticker))
}

// MockNews returns fixed headlines per ticker.
type MockNews struct {
	Items map[string][]model.NewsItem
}

func (m *MockNews) GetNews(_ context.Context, ticker string, limit int) []model.NewsItem {
	return newest(append([]model.NewsItem(nil), m.Items[ticker]...), limit)
}

// MockBars serves generated daily bars around Price.
type MockBars struct {
	Price float64
	Count int
	Err   error
}

func (m *MockBars) DailyBars(_ context.Context, _ string) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return generateMockBars(m.Price, m.Count), nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   time.Now().AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
