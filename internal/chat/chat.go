// Package chat answers user messages with the full user context and keeps the
// weekly conversation digests.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"FinanceDesk/internal/llm"
	"FinanceDesk/internal/model"
	"FinanceDesk/internal/store"
)

// Reply and weekly summary length caps.
const (
	DefaultMaxTokens        = 1024
	DefaultSummaryMaxTokens = 500
)

// StockFetcher returns merged quotes keyed by ticker.
type StockFetcher interface {
	GetStockData(ctx context.Context, tickers []string) map[string]*model.MergedQuote
}

// Reply is the answer to one chat message.
type Reply struct {
	Reply     string    `json:"reply"`
	Timestamp time.Time `json:"timestamp"`
}

// Service is the conversational assistant.
type Service struct {
	store     store.Store
	stocks    StockFetcher
	llm       llm.Generator
	maxTokens int
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMaxTokens caps the reply length. Non-positive values are ignored.
func WithMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a chat Service over the store, market data and language model.
func New(st store.Store, stocks StockFetcher, gen llm.Generator, opts ...Option) *Service {
	s := &Service{
		store:     st,
		stocks:    stocks,
		llm:       gen,
		maxTokens: DefaultMaxTokens,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With(zap.String("component", "chat"))
	return s
}

// Reply answers message. The exchange is stored only when the model answers.
func (s *Service) Reply(ctx context.Context, message string, isVoice bool) (*Reply, error) {
	exchange := uuid.NewString()
	log := s.logger.With(zap.String("exchange_id", exchange))

	uc, err := store.LoadContext(ctx, s.store)
	if err != nil {
		return nil, err
	}
	market := map[string]*model.MergedQuote{}
	if tickers := uc.Tickers(); len(tickers) > 0 {
		market = s.stocks.GetStockData(ctx, tickers)
	}

	text, err := s.llm.Generate(ctx, llm.Prompt(SystemPrompt(uc, market, isVoice), message, s.maxTokens))
	if err != nil {
		log.Error("chat generation failed", zap.Error(err))
		return nil, fmt.Errorf("chat: %w", err)
	}

	if _, err := s.store.AddMessage(ctx, model.RoleUser, message); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}
	if _, err := s.store.AddMessage(ctx, model.RoleAssistant, text); err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}
	log.Info("chat reply", zap.Int("tickers", len(market)), zap.Bool("voice", isVoice))
	return &Reply{Reply: text, Timestamp: s.now()}, nil
}

// SummarizeWeek condenses the last seven days of conversation into a stored
// summary. It returns nil when there was nothing to summarise.
func (s *Service) SummarizeWeek(ctx context.Context) (*model.WeeklySummary, error) {
	since := s.now().AddDate(0, 0, -7)
	msgs, err := s.store.MessagesSince(ctx, since)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		s.logger.Info("no messages to summarise", zap.Time("since", since))
		return nil, nil
	}

	var transcript strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&transcript, "%s: %s\n", m.Role, m.Content)
	}
	text, err := s.llm.Generate(ctx, llm.Prompt(summaryPrompt, transcript.String(), DefaultSummaryMaxTokens))
	if err != nil {
		return nil, fmt.Errorf("summarise week: %w", err)
	}

	ws, err := s.store.AddWeeklySummary(ctx, since.Format(time.DateOnly), text)
	if err != nil {
		return nil, fmt.Errorf("save summary: %w", err)
	}
	s.logger.Info("weekly summary stored", zap.String("week_of", ws.WeekOf), zap.Int("messages", len(msgs)))
	return &ws, nil
}

const summaryPrompt = `Summarise this week of conversation between a user and their stock research assistant.
Capture the stocks discussed, decisions or trades mentioned, concerns raised and anything the
assistant should remember about the user. Write 4-6 plain sentences.`

func indent(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}

// SystemPrompt renders the assistant persona with everything known about the user.
func SystemPrompt(uc *model.UserContext, market map[string]*model.MergedQuote, isVoice bool) string {
	var b strings.Builder
	b.WriteString("You are Stockman, a personal stock research assistant. You've been working with this user and know them well.\n\n")
	fmt.Fprintf(&b, "== USER PROFILE ==\n%s\n\n", indent(uc.Profile))
	fmt.Fprintf(&b, "== THEIR PORTFOLIO ==\n%s\n\n", indent(uc.Portfolio))
	fmt.Fprintf(&b, "== THEIR WATCHLIST ==\n%s\n\n", indent(uc.Watchlist))
	fmt.Fprintf(&b, "== CURRENT MARKET DATA ==\n%s\n\n", indent(market))
	fmt.Fprintf(&b, "== RECENT CONVERSATION HISTORY ==\n%s\n\n", indent(uc.RecentMessages))
	fmt.Fprintf(&b, "== WHAT YOU KNOW ABOUT THEM ==\n%s\n\n", indent(uc.Profile.Preferences))
	if len(uc.Summaries) > 0 {
		fmt.Fprintf(&b, "== PAST WEEKS ==\n%s\n\n", indent(uc.Summaries))
	}
	if len(uc.Trades) > 0 {
		fmt.Fprintf(&b, "== TRADE HISTORY ==\n%s\n\n", indent(uc.Trades))
	}
	b.WriteString("Be helpful, knowledgeable, and personable. You're their trusted stock research assistant.\n")
	b.WriteString("Keep responses concise but informative. If they ask about a stock, provide real data and insights.\n")
	b.WriteString("Remember past conversations and build on them.")
	if isVoice {
		b.WriteString("\n\nThis reply will be spoken aloud. Answer in two or three short sentences with no markdown, lists or symbols.")
	}
	return b.String()
}
