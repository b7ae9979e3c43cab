package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"FinanceDesk/internal/model"
	"FinanceDesk/internal/notifier"
	"FinanceDesk/internal/store"
)

// Sender delivers a formatted message to the push channel.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Briefer produces briefings and the quote of the day.
type Briefer interface {
	Generate(ctx context.Context, uc *model.UserContext) (*model.Briefing, error)
	MorningWisdom() (model.Wisdom, time.Time)
}

// Summarizer condenses the past week of conversation.
type Summarizer interface {
	SummarizeWeek(ctx context.Context) (*model.WeeklySummary, error)
}

// Stocks scores tickers and fetches quotes.
type Stocks interface {
	CalculateOpportunityScore(ctx context.Context, ticker string) *model.OpportunityScore
	GetQuotes(ctx context.Context, tickers []string) map[string]*model.MergedQuote
}

// Scheduler manages all cron tasks and answers bot commands.
type Scheduler struct {
	Cron       *cron.Cron
	Store      store.Store
	Briefing   Briefer
	Summarizer Summarizer
	Stocks     Stocks
	Notifier   Sender // nil disables pushes
	Ctx        context.Context
	logger     *zap.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, st store.Store, b Briefer, sum Summarizer, stocks Stocks, n Sender, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Store:      st,
		Briefing:   b,
		Summarizer: sum,
		Stocks:     stocks,
		Notifier:   n,
		Ctx:        ctx,
		logger:     logger.With(zap.String("component", "scheduler")),
	}
}

// RegisterAll registers the briefing push and the weekly summary. The
// briefing job is skipped when no push channel is configured.
func (s *Scheduler) RegisterAll(briefingCron, summaryCron string) error {
	if s.Notifier != nil {
		if _, err := s.Cron.AddFunc(briefingCron, s.briefingTask); err != nil {
			return fmt.Errorf("register briefing task: %w", err)
		}
	}
	if _, err := s.Cron.AddFunc(summaryCron, s.summaryTask); err != nil {
		return fmt.Errorf("register summary task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunBriefingNow pushes a briefing immediately.
func (s *Scheduler) RunBriefingNow() {
	s.briefingTask()
}

func (s *Scheduler) briefingTask() {
	log := s.logger.With(zap.String("run_id", uuid.NewString()), zap.String("task", "briefing"))
	log.Info("running briefing task")
	text, err := s.briefingText(s.Ctx)
	if err != nil {
		log.Error("briefing failed", zap.Error(err))
		return
	}
	s.trySend(log, text)
}

func (s *Scheduler) summaryTask() {
	log := s.logger.With(zap.String("run_id", uuid.NewString()), zap.String("task", "summary"))
	log.Info("running weekly summary task")
	ws, err := s.Summarizer.SummarizeWeek(s.Ctx)
	if err != nil {
		log.Error("weekly summary failed", zap.Error(err))
		return
	}
	if ws != nil {
		log.Info("weekly summary stored", zap.Int64("id", ws.ID))
	}
}

func (s *Scheduler) briefingText(ctx context.Context) (string, error) {
	uc, err := store.LoadContext(ctx, s.Store)
	if err != nil {
		return "", err
	}
	b, err := s.Briefing.Generate(ctx, uc)
	if err != nil {
		return "", err
	}
	return notifier.FormatBriefing(b), nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	// strip a @botname suffix
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch cmd {
	case "/briefing":
		text, err := s.briefingText(ctx)
		if err != nil {
			s.logger.Error("briefing command failed", zap.Error(err))
			return "❌ Briefing failed: " + err.Error()
		}
		return text
	case "/wisdom":
		w, _ := s.Briefing.MorningWisdom()
		return notifier.FormatWisdom(w)
	case "/score":
		if len(fields) < 2 {
			return "Usage: /score TICKER"
		}
		return notifier.FormatScore(s.Stocks.CalculateOpportunityScore(ctx, fields[1]))
	case "/portfolio":
		holdings, err := s.Store.Portfolio(ctx)
		if err != nil {
			s.logger.Error("portfolio command failed", zap.Error(err))
			return "❌ Could not load portfolio"
		}
		tickers := make([]string, len(holdings))
		for i, h := range holdings {
			tickers[i] = h.Ticker
		}
		var quotes map[string]*model.MergedQuote
		if len(tickers) > 0 {
			quotes = s.Stocks.GetQuotes(ctx, tickers)
		}
		return notifier.FormatPortfolio(holdings, quotes)
	default:
		return notifier.HelpText
	}
}

func (s *Scheduler) trySend(log *zap.Logger, text string) {
	if s.Notifier == nil {
		log.Warn("no push channel configured, dropping message")
		return
	}
	if err := s.Notifier.Send(s.Ctx, text); err != nil {
		log.Error("send notification", zap.Error(err))
	}
}
