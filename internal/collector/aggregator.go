package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"FinanceDesk/internal/model"
	"FinanceDesk/internal/strategy"
)

// Defaults for the aggregator.
const (
	DefaultConcurrency   = 4
	DefaultNewsPerTicker = 5
)

var errNoSource = errors.New("no source configured")

// Aggregator fans out to the quote, technical and news sources and merges the results.
type Aggregator struct {
	primary    QuoteSource
	secondary  QuoteSource
	technicals TechnicalSource
	news       NewsSource

	concurrency   int
	newsPerTicker int
	now           func() time.Time
	logger        *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithConcurrency bounds how many tickers are fetched at once.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator wires the sources. secondary, technicals and news may be nil.
func NewAggregator(primary, secondary QuoteSource, technicals TechnicalSource, news NewsSource, opts ...Option) *Aggregator {
	a := &Aggregator{
		primary:       primary,
		secondary:     secondary,
		technicals:    technicals,
		news:          news,
		concurrency:   DefaultConcurrency,
		newsPerTicker: DefaultNewsPerTicker,
		now:           time.Now,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(zap.String("component", "aggregator"))
	return a
}

// GetStockData returns one merged record per distinct ticker, news attached.
// It never fails as a whole; unresolved tickers carry an error string.
func (a *Aggregator) GetStockData(ctx context.Context, tickers []string) map[string]*model.MergedQuote {
	return a.collect(ctx, tickers, true)
}

// GetQuotes is GetStockData without news.
func (a *Aggregator) GetQuotes(ctx context.Context, tickers []string) map[string]*model.MergedQuote {
	return a.collect(ctx, tickers, false)
}

func (a *Aggregator) collect(ctx context.Context, tickers []string, withNews bool) map[string]*model.MergedQuote {
	tickers = normalizeTickers(tickers)
	out := make(map[string]*model.MergedQuote, len(tickers))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for _, t := range tickers {
		g.Go(func() error {
			q := a.fetchOne(ctx, t, withNews)
			mu.Lock()
			out[t] = q
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// fetchOne queries every source for one ticker concurrently and merges.
func (a *Aggregator) fetchOne(ctx context.Context, ticker string, withNews bool) *model.MergedQuote {
	primary := model.PartialQuote{Err: errNoSource}
	secondary := model.PartialQuote{Err: errNoSource}
	var news []model.NewsItem

	var g errgroup.Group
	if a.primary != nil {
		g.Go(func() error { primary = a.quote(ctx, a.primary, ticker); return nil })
	}
	if a.secondary != nil {
		g.Go(func() error { secondary = a.quote(ctx, a.secondary, ticker); return nil })
	}
	if withNews && a.news != nil {
		g.Go(func() error { news = a.headlines(ctx, ticker); return nil })
	}
	_ = g.Wait()

	if primary.Err != nil && secondary.Err != nil {
		return &model.MergedQuote{
			Ticker:    ticker,
			Error:     errors.Join(primary.Err, secondary.Err).Error(),
			Timestamp: a.now(),
		}
	}

	q := MergeQuotes(ticker, primary, secondary, a.now())
	if len(news) > a.newsPerTicker {
		news = news[:a.newsPerTicker]
	}
	q.News = news
	return q
}

// quote calls one source, converting panics into an error marker.
func (a *Aggregator) quote(ctx context.Context, src QuoteSource, ticker string) (pq model.PartialQuote) {
	defer func() {
		if r := recover(); r != nil {
			pq = model.PartialQuote{Source: src.Name(), Err: fmt.Errorf("%s: panic: %v", src.Name(), r)}
		}
		if pq.Err != nil {
			a.logger.Warn("quote source failed",
				zap.String("source", src.Name()), zap.String("ticker", ticker), zap.Error(pq.Err))
		}
	}()
	return src.FetchQuote(ctx, ticker)
}

func (a *Aggregator) headlines(ctx context.Context, ticker string) (items []model.NewsItem) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("news source panicked", zap.String("ticker", ticker), zap.Any("panic", r))
			items = nil
		}
	}()
	return a.news.GetNews(ctx, ticker, DefaultNewsMax)
}

// Technicals returns indicators for ticker, neutral when the source fails.
func (a *Aggregator) Technicals(ctx context.Context, ticker string) (ind model.TechnicalIndicators) {
	neutral := newTechnicals("", null.Float{}, null.Float{}, null.Float{}, errNoSource)
	if a.technicals == nil {
		return neutral
	}
	defer func() {
		if r := recover(); r != nil {
			neutral.Err = fmt.Errorf("%s: panic: %v", a.technicals.Name(), r)
			ind = neutral
		}
		if ind.Err != nil {
			a.logger.Warn("technical source degraded",
				zap.String("source", a.technicals.Name()), zap.String("ticker", ticker), zap.Error(ind.Err))
		}
	}()
	return a.technicals.FetchTechnicals(ctx, NormalizeTicker(ticker))
}

// CalculateOpportunityScore scores one ticker. Any failure, including an
// unresolved ticker, yields a record with an error and an overall score of 0.
func (a *Aggregator) CalculateOpportunityScore(ctx context.Context, ticker string) (score *model.OpportunityScore) {
	ticker = NormalizeTicker(ticker)
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("opportunity score panicked", zap.String("ticker", ticker), zap.Any("panic", r))
			score = &model.OpportunityScore{Ticker: ticker, Error: fmt.Sprint(r)}
		}
	}()

	var (
		q   *model.MergedQuote
		ind model.TechnicalIndicators
	)
	var g errgroup.Group
	g.Go(func() error { q = a.fetchOne(ctx, ticker, true); return nil })
	g.Go(func() error { ind = a.Technicals(ctx, ticker); return nil })
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return &model.OpportunityScore{Ticker: ticker, Error: err.Error()}
	}
	if !q.Resolved() {
		return &model.OpportunityScore{Ticker: ticker, Error: q.Error}
	}

	eval := strategy.Evaluate(q, &ind)
	data := &model.ScoreData{
		Price:     q.Price,
		ChangePct: q.ChangePct.ValueOrZero(),
		RSI:       ind.RSI,
		PERatio:   q.PERatio,
	}
	if ratio, ok := strategy.VolumeRatio(q); ok {
		data.VolumeRatio = round2(ratio)
	}
	return &model.OpportunityScore{
		Ticker:       ticker,
		OverallScore: strategy.Overall(eval),
		Breakdown:    strategy.Breakdown(eval),
		Data:         data,
		Timestamp:    a.now(),
	}
}
