package store

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"FinanceDesk/internal/model"
)

// MemoryStore keeps everything in process memory. It is used when no database
// is configured and in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	now       func() time.Time
	profile   model.Profile
	messages  []model.Message
	portfolio map[string]model.Holding
	watchlist map[string]model.WatchlistEntry
	trades    []model.TradeRecord
	summaries []model.WeeklySummary
	nextID    int64
}

// NewMemoryStore creates an empty store with the default profile.
func NewMemoryStore() *MemoryStore {
	now := time.Now
	return &MemoryStore{
		now:       now,
		profile:   model.Profile{Name: DefaultName, CreatedAt: now(), Preferences: map[string]any{}},
		portfolio: make(map[string]model.Holding),
		watchlist: make(map[string]model.WatchlistEntry),
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) Profile(_ context.Context) (model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := m.profile
	p.Preferences = maps.Clone(m.profile.Preferences)
	return p, nil
}

func (m *MemoryStore) UpdateProfileName(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile.Name = name
	return nil
}

func (m *MemoryStore) MergePreferences(ctx context.Context, prefs map[string]any) (model.Profile, error) {
	m.mu.Lock()
	m.profile.Preferences = mergePrefs(m.profile.Preferences, prefs)
	m.mu.Unlock()
	return m.Profile(ctx)
}

func (m *MemoryStore) AddMessage(_ context.Context, role model.Role, content string) (model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := model.Message{ID: m.id(), Role: role, Content: content, Timestamp: m.now()}
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *MemoryStore) RecentMessages(_ context.Context, limit int) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := max(len(m.messages)-limit, 0)
	return append([]model.Message(nil), m.messages[start:]...), nil
}

func (m *MemoryStore) MessagesSince(_ context.Context, since time.Time) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Message
	for _, msg := range m.messages {
		if !msg.Timestamp.Before(since) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *MemoryStore) MessageCount(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages), nil
}

func (m *MemoryStore) Portfolio(_ context.Context) ([]model.Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Holding, 0, len(m.portfolio))
	for _, h := range m.portfolio {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (m *MemoryStore) AddHolding(_ context.Context, ticker string, shares, price float64, notes string) (model.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticker = normalize(ticker)
	h, ok := m.portfolio[ticker]
	if !ok {
		h = model.Holding{Ticker: ticker, AddedAt: m.now()}
	}
	h.Shares += shares
	h.AvgPrice = price
	if notes != "" {
		h.Notes = notes
	}
	m.portfolio[ticker] = h
	return h, nil
}

func (m *MemoryStore) RemoveHolding(_ context.Context, ticker string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticker = normalize(ticker)
	_, ok := m.portfolio[ticker]
	delete(m.portfolio, ticker)
	return ok, nil
}

func (m *MemoryStore) Watchlist(_ context.Context) ([]model.WatchlistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.WatchlistEntry, 0, len(m.watchlist))
	for _, w := range m.watchlist {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (m *MemoryStore) AddWatch(_ context.Context, ticker, notes string) (model.WatchlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticker = normalize(ticker)
	if w, ok := m.watchlist[ticker]; ok {
		return w, nil
	}
	w := model.WatchlistEntry{Ticker: ticker, AddedAt: m.now(), Notes: notes}
	m.watchlist[ticker] = w
	return w, nil
}

func (m *MemoryStore) RemoveWatch(_ context.Context, ticker string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticker = normalize(ticker)
	_, ok := m.watchlist[ticker]
	delete(m.watchlist, ticker)
	return ok, nil
}

func (m *MemoryStore) LogTrade(_ context.Context, rec model.TradeRecord) (model.TradeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = m.id()
	rec.Ticker = normalize(rec.Ticker)
	if rec.Timestamp.IsZero() {
		rec.Timestamp = m.now()
	}
	m.trades = append(m.trades, rec)
	return rec, nil
}

func (m *MemoryStore) TradeHistory(_ context.Context, limit int) ([]model.TradeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]model.TradeRecord(nil), m.trades...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) AddWeeklySummary(_ context.Context, weekOf, summary string) (model.WeeklySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws := model.WeeklySummary{ID: m.id(), WeekOf: weekOf, Summary: summary, CreatedAt: m.now()}
	m.summaries = append(m.summaries, ws)
	return ws, nil
}

func (m *MemoryStore) Summaries(_ context.Context, limit int) ([]model.WeeklySummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.WeeklySummary, 0, min(limit, len(m.summaries)))
	for i := len(m.summaries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.summaries[i])
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
