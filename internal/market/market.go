// Package market builds the read-only market overview: indices, sector ETFs,
// movers within the user's tickers, upcoming earnings and general news.
package market

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"

	"FinanceDesk/internal/model"
)

// Limits and windows for the market overview.
const (
	MoversLimit     = 5
	EarningsWindow  = 14 * 24 * time.Hour
	DefaultNewsSize = 10
)

// Instrument is a symbol with a display name.
type Instrument struct {
	Symbol string
	Name   string
}

// Indices are the benchmark indices, in display order.
var Indices = []Instrument{
	{"^GSPC", "S&P 500"},
	{"^DJI", "Dow Jones"},
	{"^IXIC", "Nasdaq"},
	{"^RUT", "Russell 2000"},
	{"^VIX", "VIX"},
}

// Sectors are the SPDR sector ETFs used as sector proxies.
var Sectors = []Instrument{
	{"XLK", "Technology"},
	{"XLF", "Financials"},
	{"XLV", "Health Care"},
	{"XLE", "Energy"},
	{"XLY", "Consumer Discretionary"},
	{"XLP", "Consumer Staples"},
	{"XLI", "Industrials"},
	{"XLU", "Utilities"},
	{"XLB", "Materials"},
	{"XLRE", "Real Estate"},
	{"XLC", "Communication Services"},
}

// QuoteFetcher returns merged quotes without news.
type QuoteFetcher interface {
	GetQuotes(ctx context.Context, tickers []string) map[string]*model.MergedQuote
}

// NewsFetcher returns general market headlines.
type NewsFetcher interface {
	GetMarketNews(ctx context.Context, limit int) []model.NewsItem
}

// EarningsSource lists earnings reports in a date range.
type EarningsSource interface {
	EarningsCalendar(ctx context.Context, from, to time.Time) ([]model.EarningsEvent, error)
}

// Performance is the price move of one instrument.
type Performance struct {
	Symbol    string     `json:"symbol"`
	Name      string     `json:"name,omitempty"`
	Price     null.Float `json:"price,omitzero"`
	Change    null.Float `json:"change,omitzero"`
	ChangePct null.Float `json:"change_pct,omitzero"`
	Error     string     `json:"error,omitempty"`
}

// Movers splits tracked tickers by direction.
type Movers struct {
	Gainers []Performance `json:"gainers"`
	Losers  []Performance `json:"losers"`
}

// Service assembles the market overview from quotes, news and earnings.
type Service struct {
	quotes   QuoteFetcher
	news     NewsFetcher
	earnings EarningsSource
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates a Service. A nil logger is replaced by a no-op one.
func NewService(quotes QuoteFetcher, news NewsFetcher, earnings EarningsSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		quotes:   quotes,
		news:     news,
		earnings: earnings,
		now:      time.Now,
		logger:   logger.With(zap.String("component", "market")),
	}
}

func performance(sym, name string, q *model.MergedQuote) Performance {
	p := Performance{Symbol: sym, Name: name}
	if q == nil {
		p.Error = "no data"
		return p
	}
	if p.Name == "" {
		p.Name = q.Name.String
	}
	p.Price, p.Change, p.ChangePct, p.Error = q.Price, q.Change, q.ChangePct, q.Error
	return p
}

func (s *Service) instruments(ctx context.Context, list []Instrument) []Performance {
	symbols := make([]string, len(list))
	for i, in := range list {
		symbols[i] = in.Symbol
	}
	quotes := s.quotes.GetQuotes(ctx, symbols)
	out := make([]Performance, len(list))
	for i, in := range list {
		out[i] = performance(in.Symbol, in.Name, quotes[in.Symbol])
	}
	return out
}

// Indices returns the major indices in fixed order.
func (s *Service) Indices(ctx context.Context) []Performance {
	return s.instruments(ctx, Indices)
}

// Sectors returns the sector ETFs sorted by change percent, best first.
// Instruments without a change percent sort last.
func (s *Service) Sectors(ctx context.Context) []Performance {
	out := s.instruments(ctx, Sectors)
	sort.SliceStable(out, func(i, j int) bool { return pct(out[i]) > pct(out[j]) })
	return out
}

func pct(p Performance) float64 {
	if !p.ChangePct.Valid {
		return math.Inf(-1)
	}
	return p.ChangePct.Float64
}

// Movers ranks the given tickers: gainers by largest rise, losers by largest
// fall, at most MoversLimit each. Flat and unresolved tickers are left out.
func (s *Service) Movers(ctx context.Context, tickers []string) Movers {
	m := Movers{Gainers: []Performance{}, Losers: []Performance{}}
	if len(tickers) == 0 {
		return m
	}
	for sym, q := range s.quotes.GetQuotes(ctx, tickers) {
		if !q.Resolved() || !q.ChangePct.Valid {
			continue
		}
		p := performance(sym, "", q)
		switch {
		case p.ChangePct.Float64 > 0:
			m.Gainers = append(m.Gainers, p)
		case p.ChangePct.Float64 < 0:
			m.Losers = append(m.Losers, p)
		}
	}
	sort.Slice(m.Gainers, func(i, j int) bool {
		a, b := m.Gainers[i], m.Gainers[j]
		if a.ChangePct.Float64 != b.ChangePct.Float64 {
			return a.ChangePct.Float64 > b.ChangePct.Float64
		}
		return a.Symbol < b.Symbol
	})
	sort.Slice(m.Losers, func(i, j int) bool {
		a, b := m.Losers[i], m.Losers[j]
		if a.ChangePct.Float64 != b.ChangePct.Float64 {
			return a.ChangePct.Float64 < b.ChangePct.Float64
		}
		return a.Symbol < b.Symbol
	})
	if len(m.Gainers) > MoversLimit {
		m.Gainers = m.Gainers[:MoversLimit]
	}
	if len(m.Losers) > MoversLimit {
		m.Losers = m.Losers[:MoversLimit]
	}
	return m
}

// Earnings lists reports over the next two weeks, limited to tickers when
// any are given.
func (s *Service) Earnings(ctx context.Context, tickers []string) ([]model.EarningsEvent, error) {
	from := s.now()
	events, err := s.earnings.EarningsCalendar(ctx, from, from.Add(EarningsWindow))
	if err != nil {
		return nil, err
	}
	if len(tickers) > 0 {
		want := make(map[string]bool, len(tickers))
		for _, t := range tickers {
			want[t] = true
		}
		kept := events[:0]
		for _, e := range events {
			if want[e.Ticker] {
				kept = append(kept, e)
			}
		}
		events = kept
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].Ticker < events[j].Ticker
	})
	if events == nil {
		events = []model.EarningsEvent{}
	}
	return events, nil
}

// News returns general market headlines.
func (s *Service) News(ctx context.Context, limit int) []model.NewsItem {
	if limit <= 0 {
		limit = DefaultNewsSize
	}
	items := s.news.GetMarketNews(ctx, limit)
	if items == nil {
		items = []model.NewsItem{}
	}
	return items
}
