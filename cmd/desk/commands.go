package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"FinanceDesk/internal/model"
	"FinanceDesk/internal/store"
)

var scoreCmd = &cobra.Command{
	Use:   "score TICKER...",
	Short: "Print opportunity scores as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.close()

		scores := make([]*model.OpportunityScore, 0, len(args))
		for _, t := range args {
			scores = append(scores, a.stocks.CalculateOpportunityScore(cmd.Context(), t))
		}
		return printJSON(cmd, scores)
	},
}

var briefingCmd = &cobra.Command{
	Use:   "briefing",
	Short: "Print today's briefing as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.close()

		uc, err := store.LoadContext(cmd.Context(), a.store)
		if err != nil {
			return fmt.Errorf("load user context: %w", err)
		}
		b, err := a.briefing.Generate(cmd.Context(), uc)
		if err != nil {
			return err
		}
		return printJSON(cmd, b)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		st, err := store.Open(cmd.Context(), cfg.Database.Driver, cfg.Database.DSN, log)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		log.Info("database ready", zap.String("driver", cfg.Database.Driver))
		return st.Close()
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
