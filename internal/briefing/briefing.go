// Package briefing assembles the daily briefing: quote of the day, portfolio
// valuation, greeting and a short narrative from the language model.
package briefing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"FinanceDesk/internal/llm"
	"FinanceDesk/internal/model"
)

// EmptyText is returned instead of a narrative when nothing is tracked.
const EmptyText = "Add some stocks to your portfolio or watchlist to get personalized briefings!"

// DefaultMaxTokens bounds the narrative length.
const DefaultMaxTokens = 300

// StockFetcher returns merged quotes keyed by ticker.
type StockFetcher interface {
	GetStockData(ctx context.Context, tickers []string) map[string]*model.MergedQuote
}

// Generator builds briefings.
type Generator struct {
	stocks    StockFetcher
	llm       llm.Generator
	maxTokens int
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces the wall clock used for the quote and greeting.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithMaxTokens sets the narrative token budget.
func WithMaxTokens(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New creates a briefing Generator.
func New(stocks StockFetcher, gen llm.Generator, opts ...Option) *Generator {
	g := &Generator{
		stocks:    stocks,
		llm:       gen,
		maxTokens: DefaultMaxTokens,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(g)
	}
	g.logger = g.logger.With(zap.String("component", "briefing"))
	return g
}

// MorningWisdom returns today's quote.
func (g *Generator) MorningWisdom() (model.Wisdom, time.Time) {
	now := g.now()
	return DailyWisdom(now), now
}

// Generate builds the briefing for the given user context. A language model
// failure fails the whole briefing.
func (g *Generator) Generate(ctx context.Context, uc *model.UserContext) (*model.Briefing, error) {
	now := g.now()
	b := &model.Briefing{
		Quote:      DailyWisdom(now),
		MarketData: map[string]*model.MergedQuote{},
		Greeting:   Greeting(uc.Profile.Name, now),
	}

	tickers := uc.Tickers()
	if len(tickers) == 0 {
		b.BriefingText = EmptyText
		b.GeneratedAt = g.now()
		return b, nil
	}

	b.MarketData = g.stocks.GetStockData(ctx, tickers)
	b.PortfolioSummary = Valuate(uc.Portfolio, b.MarketData)

	text, err := g.llm.Generate(ctx, llm.Prompt("", g.prompt(uc, b), g.maxTokens))
	if err != nil {
		return nil, fmt.Errorf("generate briefing: %w", err)
	}
	b.BriefingText = text
	b.GeneratedAt = g.now()
	g.logger.Info("briefing generated", zap.Int("tickers", len(tickers)))
	return b, nil
}

// Valuate sums current value against cost basis for holdings whose ticker
// resolved with a price. A zero average price counts at the current price.
// All totals stay zero when the cost basis is zero.
func Valuate(portfolio []model.Holding, market map[string]*model.MergedQuote) model.PortfolioSummary {
	value, cost := decimal.Zero, decimal.Zero
	for _, h := range portfolio {
		q := market[h.Ticker]
		if !q.Resolved() || !q.Price.Valid {
			continue
		}
		price := decimal.NewFromFloat(q.Price.Float64)
		shares := decimal.NewFromFloat(h.Shares)
		avg := decimal.NewFromFloat(h.AvgPrice)
		if avg.IsZero() {
			avg = price
		}
		value = value.Add(price.Mul(shares))
		cost = cost.Add(avg.Mul(shares))
	}

	if !cost.IsPositive() {
		return model.PortfolioSummary{}
	}
	change := value.Sub(cost)
	return model.PortfolioSummary{
		TotalValue:     value.Round(2),
		TotalChange:    change.Round(2),
		TotalChangePct: change.Div(cost).Mul(decimal.NewFromInt(100)).Round(2),
	}
}

// Greeting picks morning before 12:00, afternoon before 17:00, else evening.
func Greeting(name string, t time.Time) string {
	if name == "" {
		name = "Friend"
	}
	switch h := t.Hour(); {
	case h < 12:
		return fmt.Sprintf("Good morning, %s!", name)
	case h < 17:
		return fmt.Sprintf("Good afternoon, %s!", name)
	default:
		return fmt.Sprintf("Good evening, %s!", name)
	}
}

func indent(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(out)
}

func (g *Generator) prompt(uc *model.UserContext, b *model.Briefing) string {
	ps := b.PortfolioSummary
	var sb strings.Builder
	sb.WriteString("Generate a brief, friendly morning stock briefing. Keep it concise (3-4 sentences max).\n\n")
	sb.WriteString("Portfolio Summary:\n")
	fmt.Fprintf(&sb, "- Total Value: $%s\n", ps.TotalValue.StringFixed(2))
	fmt.Fprintf(&sb, "- Change: $%s (%s%%)\n\n", ps.TotalChange.StringFixed(2), ps.TotalChangePct.String())
	fmt.Fprintf(&sb, "Portfolio Holdings:\n%s\n\n", indent(uc.Portfolio))
	fmt.Fprintf(&sb, "Watchlist:\n%s\n\n", indent(uc.Watchlist))
	fmt.Fprintf(&sb, "Current Market Data:\n%s\n\n", indent(b.MarketData))
	sb.WriteString("Write a natural, conversational summary highlighting:\n")
	sb.WriteString("1. Overall portfolio performance (if they have holdings)\n")
	sb.WriteString("2. Any notable movers (up or down more than 3%)\n")
	sb.WriteString("3. One brief insight or thing to watch\n\n")
	sb.WriteString("Keep it warm and encouraging. No stock advice, just observations.")
	return sb.String()
}
