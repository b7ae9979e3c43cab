package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"FinanceDesk/internal/briefing"
	"FinanceDesk/internal/chat"
	"FinanceDesk/internal/collector"
	"FinanceDesk/internal/config"
	"FinanceDesk/internal/llm"
	"FinanceDesk/internal/market"
	"FinanceDesk/internal/store"
	"FinanceDesk/internal/voice"
)

// voiceTimeout covers uploading a recording and waiting for its transcript.
const voiceTimeout = 60 * time.Second

// app holds the wired components shared by every command.
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	store       store.Store
	stocks      *collector.Aggregator
	briefing    *briefing.Generator
	chat        *chat.Service
	market      *market.Service
	transcriber *voice.Transcriber
	synthesizer *voice.Synthesizer
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	timeout := cfg.Sources.Timeout
	client := collector.NewHTTPClient(timeout, cfg.Proxy)

	yahoo := collector.NewYahoo(client, timeout)
	finnhub := collector.NewFinnhub(cfg.Sources.FinnhubKey, client, timeout)
	alpha := collector.NewAlphaVantage(cfg.Sources.AlphaVantageKey, client, timeout, cfg.Sources.AlphaVantageRPM)

	var primary collector.QuoteSource = yahoo
	if cfg.Sources.Primary == "alphavantage" {
		primary = alpha
	}
	var technicals collector.TechnicalSource = alpha
	if cfg.Sources.Technicals == "chart" {
		technicals = collector.NewChartTechnicals(yahoo)
	}

	news := collector.NewNewsAggregator(logger,
		collector.NewRSSFeed("google-market", collector.MarketNewsURL, client),
		collector.NewRSSFeed("google", collector.GoogleNewsURL, client),
		collector.NewRSSFeed("yahoo", collector.YahooNewsURL, client),
	)
	agg := collector.NewAggregator(primary, finnhub, technicals, news, collector.WithLogger(logger))
	logger.Info("data sources configured",
		zap.String("primary", primary.Name()),
		zap.String("secondary", finnhub.Name()),
		zap.String("technicals", technicals.Name()))

	gen, err := llm.New(ctx, cfg, logger)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init llm: %w", err)
	}

	brief := briefing.New(agg, gen,
		briefing.WithMaxTokens(cfg.LLM.BriefingMaxTokens),
		briefing.WithLogger(logger))
	assistant := chat.New(st, agg, gen,
		chat.WithMaxTokens(cfg.LLM.ChatMaxTokens),
		chat.WithLogger(logger))
	voiceClient := collector.NewHTTPClient(voiceTimeout, cfg.Proxy)

	return &app{
		cfg:         cfg,
		logger:      logger,
		store:       st,
		stocks:      agg,
		briefing:    brief,
		chat:        assistant,
		market:      market.NewService(agg, news, finnhub, logger),
		transcriber: voice.NewTranscriber(cfg.Voice.OpenAIKey, "", voiceClient),
		synthesizer: voice.NewSynthesizer(cfg.Voice.ElevenLabsKey, cfg.Voice.VoiceID, voiceClient),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}
