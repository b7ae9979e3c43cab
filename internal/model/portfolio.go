package model

import "time"

// Holding is one portfolio position.
type Holding struct {
	Ticker   string    `json:"ticker"`
	Shares   float64   `json:"shares"`
	AvgPrice float64   `json:"avg_price"`
	AddedAt  time.Time `json:"added_at"`
	Notes    string    `json:"notes,omitempty"`
}

// WatchlistEntry is one watched ticker.
type WatchlistEntry struct {
	Ticker  string    `json:"ticker"`
	AddedAt time.Time `json:"added_at"`
	Notes   string    `json:"notes,omitempty"`
}

// Role of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TradeAction classifies a trade history record.
type TradeAction string

const (
	TradeBuy  TradeAction = "buy"
	TradeSell TradeAction = "sell"
	TradeNote TradeAction = "note"
)

// TradeRecord is one append-only trade history entry.
type TradeRecord struct {
	ID        int64       `json:"id"`
	Ticker    string      `json:"ticker"`
	Action    TradeAction `json:"action"`
	Shares    float64     `json:"shares"`
	Price     float64     `json:"price"`
	Reason    string      `json:"reason,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Profile is the singleton user profile.
type Profile struct {
	Name        string         `json:"name"`
	CreatedAt   time.Time      `json:"created_at"`
	Preferences map[string]any `json:"preferences"`
}

// WeeklySummary is a condensed digest of one week of conversation.
type WeeklySummary struct {
	ID        int64     `json:"id"`
	WeekOf    string    `json:"week_of"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// UserContext is everything the assistant knows about the user.
type UserContext struct {
	Profile        Profile          `json:"profile"`
	RecentMessages []Message        `json:"recent_messages"`
	Portfolio      []Holding        `json:"portfolio"`
	Watchlist      []WatchlistEntry `json:"watchlist"`
	Summaries      []WeeklySummary  `json:"summaries"`
	Trades         []TradeRecord    `json:"trades"`
}

// Tickers returns the distinct portfolio and watchlist tickers, portfolio first.
func (c *UserContext) Tickers() []string {
	seen := make(map[string]bool, len(c.Portfolio)+len(c.Watchlist))
	out := make([]string, 0, len(c.Portfolio)+len(c.Watchlist))
	for _, h := range c.Portfolio {
		if !seen[h.Ticker] {
			seen[h.Ticker] = true
			out = append(out, h.Ticker)
		}
	}
	for _, w := range c.Watchlist {
		if !seen[w.Ticker] {
			seen[w.Ticker] = true
			out = append(out, w.Ticker)
		}
	}
	return out
}
