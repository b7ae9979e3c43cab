package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"FinanceDesk/internal/api"
	"FinanceDesk/internal/notifier"
	"FinanceDesk/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, scheduled jobs and the Telegram bot",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	defer a.close()

	// an untyped nil keeps the scheduler's push channel disabled
	var sender scheduler.Sender
	var bot *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		bot = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sender = bot
	} else {
		log.Info("telegram not configured, push channel disabled")
	}

	sched := scheduler.NewScheduler(ctx, a.store, a.briefing, a.chat, a.stocks, sender, log)
	if err := sched.RegisterAll(cfg.Schedule.BriefingCron, cfg.Schedule.SummaryCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if bot != nil {
		go bot.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
		if os.Getenv("RUN_ON_START") == "true" {
			log.Info("RUN_ON_START enabled, pushing briefing now")
			go sched.RunBriefingNow()
		}
	}

	server := &http.Server{
		Addr: cfg.Server.Listen,
		Handler: api.NewRouter(&api.Config{
			Store:       a.store,
			Stocks:      a.stocks,
			Chat:        a.chat,
			Briefing:    a.briefing,
			Market:      a.market,
			Transcriber: a.transcriber,
			Synthesizer: a.synthesizer,
			Logger:      log,
		}),
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      api.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("FinanceDesk listening", zap.String("address", cfg.Server.Listen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	log.Info("FinanceDesk stopped")
	return nil
}
