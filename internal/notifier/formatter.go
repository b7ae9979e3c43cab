package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"FinanceDesk/internal/model"
)

// HelpText lists the supported bot commands.
const HelpText = `<b>FinanceDesk commands</b>
/briefing - today's briefing
/wisdom - quote of the day
/score TICKER - opportunity score
/portfolio - current holdings`

// FormatBriefing formats the daily briefing into a Telegram message.
func FormatBriefing(b *model.Briefing) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("☀️ <b>%s</b> | %s\n\n", html.EscapeString(b.Greeting), b.GeneratedAt.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("<i>“%s”</i>\n— %s\n\n", html.EscapeString(b.Quote.Quote), html.EscapeString(b.Quote.Author)))

	ps := b.PortfolioSummary
	if !ps.TotalValue.IsZero() {
		sb.WriteString("💼 <b>Portfolio</b>\n")
		sb.WriteString(fmt.Sprintf("Value: $%s\n", ps.TotalValue.StringFixed(2)))
		sb.WriteString(fmt.Sprintf("Change: $%s (%s%%)\n\n", ps.TotalChange.StringFixed(2), ps.TotalChangePct.StringFixed(2)))
	}

	if len(b.MarketData) > 0 {
		tickers := make([]string, 0, len(b.MarketData))
		for t := range b.MarketData {
			tickers = append(tickers, t)
		}
		sort.Strings(tickers)

		sb.WriteString("📈 <b>Tracked</b>\n")
		for _, t := range tickers {
			q := b.MarketData[t]
			if !q.Resolved() || !q.Price.Valid {
				sb.WriteString(fmt.Sprintf("  %s: n/a\n", t))
				continue
			}
			sb.WriteString(fmt.Sprintf("  %s: %.2f (%+.2f%%)\n", t, q.Price.Float64, q.ChangePct.Float64))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(html.EscapeString(b.BriefingText))
	return sb.String()
}

// FormatWisdom formats a quote of the day.
func FormatWisdom(w model.Wisdom) string {
	return fmt.Sprintf("💡 <i>“%s”</i>\n— %s", html.EscapeString(w.Quote), html.EscapeString(w.Author))
}

// FormatScore formats an opportunity score.
func FormatScore(s *model.OpportunityScore) string {
	if s.Error != "" {
		return fmt.Sprintf("⚠️ <b>%s</b>: %s", s.Ticker, html.EscapeString(s.Error))
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎯 <b>%s opportunity score: %d/100</b>\n\n", s.Ticker, s.OverallScore))
	if bd := s.Breakdown; bd != nil {
		sb.WriteString(fmt.Sprintf("  Momentum: %.0f\n", bd.Momentum))
		sb.WriteString(fmt.Sprintf("  Volume: %.0f\n", bd.Volume))
		sb.WriteString(fmt.Sprintf("  Sentiment: %.0f\n", bd.Sentiment))
		sb.WriteString(fmt.Sprintf("  Value: %.0f\n", bd.Value))
	}
	if d := s.Data; d != nil {
		sb.WriteString(fmt.Sprintf("\nRSI %.1f | volume ×%.2f", d.RSI, d.VolumeRatio))
		if d.PERatio.Valid {
			sb.WriteString(fmt.Sprintf(" | P/E %.1f", d.PERatio.Float64))
		}
	}
	return sb.String()
}

// FormatPortfolio formats holdings with their latest prices when known.
func FormatPortfolio(holdings []model.Holding, quotes map[string]*model.MergedQuote) string {
	if len(holdings) == 0 {
		return "📦 Your portfolio is empty."
	}
	var sb strings.Builder
	sb.WriteString("📦 <b>Portfolio</b>\n\n")
	for _, h := range holdings {
		line := fmt.Sprintf("%s: %g @ $%.2f", h.Ticker, h.Shares, h.AvgPrice)
		if q := quotes[h.Ticker]; q.Resolved() && q.Price.Valid {
			line += fmt.Sprintf(" → $%.2f", q.Price.Float64)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}
