package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"FinanceDesk/internal/model"
)

// Context sizes used when assembling a UserContext.
const (
	RecentMessageLimit = 30
	SummaryLimit       = 5
	TradeLimit         = 20
)

// DefaultName is the profile name until the user sets one.
const DefaultName = "Friend"

var (
	// ErrNoDSN is returned when a SQL driver is selected without a connection string.
	ErrNoDSN = errors.New("database connection string is required")
	// ErrNotFound is returned when a required row is missing.
	ErrNotFound = errors.New("not found")
)

// Store persists the user's profile, conversation, portfolio, watchlist,
// trade history and weekly summaries.
type Store interface {
	Profile(ctx context.Context) (model.Profile, error)
	UpdateProfileName(ctx context.Context, name string) error
	// MergePreferences shallow-merges prefs into the stored preferences.
	MergePreferences(ctx context.Context, prefs map[string]any) (model.Profile, error)

	AddMessage(ctx context.Context, role model.Role, content string) (model.Message, error)
	// RecentMessages returns up to limit of the newest messages, oldest first.
	RecentMessages(ctx context.Context, limit int) ([]model.Message, error)
	MessagesSince(ctx context.Context, since time.Time) ([]model.Message, error)
	MessageCount(ctx context.Context) (int, error)

	Portfolio(ctx context.Context) ([]model.Holding, error)
	// AddHolding sums shares into an existing row and overwrites its average price.
	AddHolding(ctx context.Context, ticker string, shares, price float64, notes string) (model.Holding, error)
	RemoveHolding(ctx context.Context, ticker string) (bool, error)

	Watchlist(ctx context.Context) ([]model.WatchlistEntry, error)
	// AddWatch is a no-op for a ticker already on the list.
	AddWatch(ctx context.Context, ticker, notes string) (model.WatchlistEntry, error)
	RemoveWatch(ctx context.Context, ticker string) (bool, error)

	LogTrade(ctx context.Context, rec model.TradeRecord) (model.TradeRecord, error)
	// TradeHistory returns up to limit trades, newest first.
	TradeHistory(ctx context.Context, limit int) ([]model.TradeRecord, error)

	AddWeeklySummary(ctx context.Context, weekOf, summary string) (model.WeeklySummary, error)
	// Summaries returns up to limit summaries, newest first.
	Summaries(ctx context.Context, limit int) ([]model.WeeklySummary, error)

	Close() error
}

// Open connects to the named driver: sqlite, postgres or memory.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "postgres":
		if dsn == "" {
			return nil, ErrNoDSN
		}
		return NewSQLStore(ctx, driver, dsn, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

// LoadContext gathers everything the assistant needs about the user.
func LoadContext(ctx context.Context, st Store) (*model.UserContext, error) {
	uc := &model.UserContext{}
	var err error
	if uc.Profile, err = st.Profile(ctx); err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if uc.RecentMessages, err = st.RecentMessages(ctx, RecentMessageLimit); err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	if uc.Portfolio, err = st.Portfolio(ctx); err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}
	if uc.Watchlist, err = st.Watchlist(ctx); err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	if uc.Summaries, err = st.Summaries(ctx, SummaryLimit); err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	if uc.Trades, err = st.TradeHistory(ctx, TradeLimit); err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	return uc, nil
}

func normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

func mergePrefs(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
