// Package api exposes the assistant over JSON HTTP.
package api

import (
	"context"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"FinanceDesk/internal/chat"
	"FinanceDesk/internal/market"
	"FinanceDesk/internal/model"
	"FinanceDesk/internal/store"
)

// RequestTimeout bounds every request, model calls included.
const RequestTimeout = 90 * time.Second

// StockService fetches merged quotes and opportunity scores.
type StockService interface {
	GetStockData(ctx context.Context, tickers []string) map[string]*model.MergedQuote
	CalculateOpportunityScore(ctx context.Context, ticker string) *model.OpportunityScore
}

// ChatService answers chat messages.
type ChatService interface {
	Reply(ctx context.Context, message string, isVoice bool) (*chat.Reply, error)
}

// Briefer produces briefings and the quote of the day.
type Briefer interface {
	Generate(ctx context.Context, uc *model.UserContext) (*model.Briefing, error)
	MorningWisdom() (model.Wisdom, time.Time)
}

// MarketService builds the market overview.
type MarketService interface {
	Indices(ctx context.Context) []market.Performance
	Sectors(ctx context.Context) []market.Performance
	Movers(ctx context.Context, tickers []string) market.Movers
	Earnings(ctx context.Context, tickers []string) ([]model.EarningsEvent, error)
	News(ctx context.Context, limit int) []model.NewsItem
}

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// Synthesizer turns text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Config holds router dependencies.
type Config struct {
	Store          store.Store
	Stocks         StockService
	Chat           ChatService
	Briefing       Briefer
	Market         MarketService
	Transcriber    Transcriber
	Synthesizer    Synthesizer
	Logger         *zap.Logger
	AllowedOrigins []string
	Now            func() time.Time
}

type handler struct {
	store       store.Store
	stocks      StockService
	chat        ChatService
	briefing    Briefer
	market      MarketService
	transcriber Transcriber
	synthesizer Synthesizer
	validate    *validator.Validate
	now         func() time.Time
	logger      *zap.Logger
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewRouter creates a new HTTP router
func NewRouter(cfg *Config) http.Handler {
	h := &handler{
		store:       cfg.Store,
		stocks:      cfg.Stocks,
		chat:        cfg.Chat,
		briefing:    cfg.Briefing,
		market:      cfg.Market,
		transcriber: cfg.Transcriber,
		synthesizer: cfg.Synthesizer,
		validate:    newValidator(),
		now:         cfg.Now,
		logger:      cfg.Logger,
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	h.logger = h.logger.With(zap.String("component", "api"))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)
		r.Post("/chat", h.chatReply)
		r.Get("/messages", h.messages)

		r.Get("/portfolio", h.portfolio)
		r.Post("/portfolio/add", h.addHolding)
		r.Delete("/portfolio/{ticker}", h.removeHolding)

		r.Get("/watchlist", h.watchlist)
		r.Post("/watchlist/add", h.addWatch)
		r.Delete("/watchlist/{ticker}", h.removeWatch)

		r.Get("/trades", h.trades)
		r.Post("/trades", h.logTrade)
		r.Get("/summaries", h.summaries)

		r.Get("/settings", h.settings)
		r.Post("/settings", h.updateSettings)

		r.Get("/briefing", h.dailyBriefing)
		r.Get("/morning-wisdom", h.morningWisdom)

		r.Get("/stock/{ticker}", h.stock)
		r.Get("/stock/{ticker}/score", h.stockScore)

		r.Route("/market", func(r chi.Router) {
			r.Get("/indices", h.indices)
			r.Get("/sectors", h.sectors)
			r.Get("/movers", h.movers)
			r.Get("/news", h.marketNews)
		})
		r.Get("/earnings", h.earnings)

		r.Post("/voice/transcribe", h.transcribe)
		r.Post("/voice/synthesize", h.synthesize)
	})

	return r
}
