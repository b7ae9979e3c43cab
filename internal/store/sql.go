package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"FinanceDesk/internal/model"
)

type dialect struct {
	driver string
	autoID string
	real   string
}

var dialects = map[string]dialect{
	"sqlite":   {driver: "sqlite", autoID: "INTEGER PRIMARY KEY AUTOINCREMENT", real: "REAL"},
	"postgres": {driver: "pgx", autoID: "BIGSERIAL PRIMARY KEY", real: "DOUBLE PRECISION"},
}

// rebind rewrites ? placeholders to $n for postgres.
func (d dialect) rebind(q string) string {
	if d.driver != "pgx" {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore persists to SQLite or PostgreSQL through database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	mu      sync.Mutex
	now     func() time.Time
	logger  *zap.Logger
}

// NewSQLStore opens (or creates) the database and runs migrations.
func NewSQLStore(ctx context.Context, driver, dsn string, logger *zap.Logger) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	if driver == "sqlite" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &SQLStore{db: db, dialect: d, now: time.Now, logger: logger.With(zap.String("component", "store"))}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.logger.Info("store opened", zap.String("driver", driver))
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	id, real := s.dialect.autoID, s.dialect.real
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profile (
			id          INTEGER PRIMARY KEY,
			name        TEXT NOT NULL DEFAULT 'Friend',
			created_at  BIGINT NOT NULL,
			preferences TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id         ` + id + `,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at)`,

		`CREATE TABLE IF NOT EXISTS portfolio (
			id        ` + id + `,
			ticker    TEXT NOT NULL UNIQUE,
			shares    ` + real + ` NOT NULL,
			avg_price ` + real + ` NOT NULL,
			added_at  BIGINT NOT NULL,
			notes     TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS watchlist (
			id       ` + id + `,
			ticker   TEXT NOT NULL UNIQUE,
			added_at BIGINT NOT NULL,
			notes    TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			id         ` + id + `,
			week_of    TEXT NOT NULL,
			summary    TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trade_history (
			id         ` + id + `,
			ticker     TEXT NOT NULL,
			action     TEXT NOT NULL,
			shares     ` + real + ` NOT NULL DEFAULT 0,
			price      ` + real + ` NOT NULL DEFAULT 0,
			reason     TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_history_created ON trade_history(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", abbreviate(stmt), err)
		}
	}
	_, err := s.exec(ctx, `INSERT INTO profile (id, name, created_at, preferences) VALUES (1, ?, ?, '{}')
		ON CONFLICT (id) DO NOTHING`, DefaultName, s.now().Unix())
	return err
}

func abbreviate(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) > 40 {
		return stmt[:40]
	}
	return stmt
}

func (s *SQLStore) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(q), args...)
}

func (s *SQLStore) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(q), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(q), args...)
}

func (s *SQLStore) Profile(ctx context.Context) (model.Profile, error) {
	var (
		p       model.Profile
		created int64
		prefs   string
	)
	err := s.queryRow(ctx, `SELECT name, created_at, preferences FROM profile WHERE id = 1`).
		Scan(&p.Name, &created, &prefs)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("profile: %w", ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("select profile: %w", err)
	}
	p.CreatedAt = time.Unix(created, 0)
	if err := json.Unmarshal([]byte(prefs), &p.Preferences); err != nil {
		s.logger.Warn("stored preferences are not valid JSON", zap.Error(err))
	}
	if p.Preferences == nil {
		p.Preferences = map[string]any{}
	}
	return p, nil
}

func (s *SQLStore) UpdateProfileName(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.exec(ctx, `UPDATE profile SET name = ? WHERE id = 1`, name)
	return err
}

func (s *SQLStore) MergePreferences(ctx context.Context, prefs map[string]any) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Profile{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var raw string
	if err := tx.QueryRowContext(ctx, `SELECT preferences FROM profile WHERE id = 1`).Scan(&raw); err != nil {
		return model.Profile{}, fmt.Errorf("select preferences: %w", err)
	}
	var current map[string]any
	if err := json.Unmarshal([]byte(raw), &current); err != nil {
		// merging over a corrupt row would silently drop the stored keys
		return model.Profile{}, fmt.Errorf("decode stored preferences: %w", err)
	}
	merged, err := json.Marshal(mergePrefs(current, prefs))
	if err != nil {
		return model.Profile{}, fmt.Errorf("marshal preferences: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`UPDATE profile SET preferences = ? WHERE id = 1`), string(merged)); err != nil {
		return model.Profile{}, fmt.Errorf("update preferences: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Profile{}, fmt.Errorf("commit: %w", err)
	}
	return s.Profile(ctx)
}

func (s *SQLStore) AddMessage(ctx context.Context, role model.Role, content string) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := model.Message{Role: role, Content: content, Timestamp: time.Unix(s.now().Unix(), 0)}
	err := s.queryRow(ctx, `INSERT INTO messages (role, content, created_at) VALUES (?, ?, ?) RETURNING id`,
		string(role), content, m.Timestamp.Unix()).Scan(&m.ID)
	if err != nil {
		return m, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

func (s *SQLStore) scanMessages(rows *sql.Rows) ([]model.Message, error) {
	defer rows.Close()
	var out []model.Message
	for rows.Next() {
		var (
			m    model.Message
			role string
			ts   int64
		)
		if err := rows.Scan(&m.ID, &role, &m.Content, &ts); err != nil {
			return nil, err
		}
		m.Role = model.Role(role)
		m.Timestamp = time.Unix(ts, 0)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) RecentMessages(ctx context.Context, limit int) ([]model.Message, error) {
	rows, err := s.query(ctx, `SELECT id, role, content, created_at FROM messages ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	out, err := s.scanMessages(rows)
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *SQLStore) MessagesSince(ctx context.Context, since time.Time) ([]model.Message, error) {
	rows, err := s.query(ctx, `SELECT id, role, content, created_at FROM messages WHERE created_at >= ? ORDER BY id`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	out, err := s.scanMessages(rows)
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}
	return out, nil
}

func (s *SQLStore) MessageCount(ctx context.Context) (int, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

func scanHolding(sc interface{ Scan(...any) error }) (model.Holding, error) {
	var (
		h     model.Holding
		added int64
	)
	if err := sc.Scan(&h.Ticker, &h.Shares, &h.AvgPrice, &added, &h.Notes); err != nil {
		return h, err
	}
	h.AddedAt = time.Unix(added, 0)
	return h, nil
}

func (s *SQLStore) Portfolio(ctx context.Context) ([]model.Holding, error) {
	rows, err := s.query(ctx, `SELECT ticker, shares, avg_price, added_at, notes FROM portfolio ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("select portfolio: %w", err)
	}
	defer rows.Close()
	var out []model.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddHolding(ctx context.Context, ticker string, shares, price float64, notes string) (model.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.queryRow(ctx, `INSERT INTO portfolio (ticker, shares, avg_price, added_at, notes) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (ticker) DO UPDATE SET
			shares = portfolio.shares + excluded.shares,
			avg_price = excluded.avg_price,
			notes = CASE WHEN excluded.notes <> '' THEN excluded.notes ELSE portfolio.notes END
		RETURNING ticker, shares, avg_price, added_at, notes`,
		normalize(ticker), shares, price, s.now().Unix(), notes)
	h, err := scanHolding(row)
	if err != nil {
		return h, fmt.Errorf("upsert holding: %w", err)
	}
	return h, nil
}

func (s *SQLStore) remove(ctx context.Context, table, ticker string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.exec(ctx, `DELETE FROM `+table+` WHERE ticker = ?`, normalize(ticker))
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) RemoveHolding(ctx context.Context, ticker string) (bool, error) {
	return s.remove(ctx, "portfolio", ticker)
}

func (s *SQLStore) Watchlist(ctx context.Context) ([]model.WatchlistEntry, error) {
	rows, err := s.query(ctx, `SELECT ticker, added_at, notes FROM watchlist ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("select watchlist: %w", err)
	}
	defer rows.Close()
	var out []model.WatchlistEntry
	for rows.Next() {
		var (
			w     model.WatchlistEntry
			added int64
		)
		if err := rows.Scan(&w.Ticker, &added, &w.Notes); err != nil {
			return nil, fmt.Errorf("scan watchlist: %w", err)
		}
		w.AddedAt = time.Unix(added, 0)
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddWatch(ctx context.Context, ticker, notes string) (model.WatchlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticker = normalize(ticker)
	if _, err := s.exec(ctx, `INSERT INTO watchlist (ticker, added_at, notes) VALUES (?, ?, ?)
		ON CONFLICT (ticker) DO NOTHING`, ticker, s.now().Unix(), notes); err != nil {
		return model.WatchlistEntry{}, fmt.Errorf("insert watch: %w", err)
	}
	var (
		w     model.WatchlistEntry
		added int64
	)
	err := s.queryRow(ctx, `SELECT ticker, added_at, notes FROM watchlist WHERE ticker = ?`, ticker).
		Scan(&w.Ticker, &added, &w.Notes)
	if err != nil {
		return w, fmt.Errorf("select watch: %w", err)
	}
	w.AddedAt = time.Unix(added, 0)
	return w, nil
}

func (s *SQLStore) RemoveWatch(ctx context.Context, ticker string) (bool, error) {
	return s.remove(ctx, "watchlist", ticker)
}

func (s *SQLStore) LogTrade(ctx context.Context, rec model.TradeRecord) (model.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Ticker = normalize(rec.Ticker)
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now()
	}
	rec.Timestamp = time.Unix(rec.Timestamp.Unix(), 0)
	err := s.queryRow(ctx, `INSERT INTO trade_history (ticker, action, shares, price, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		rec.Ticker, string(rec.Action), rec.Shares, rec.Price, rec.Reason, rec.Timestamp.Unix()).Scan(&rec.ID)
	if err != nil {
		return rec, fmt.Errorf("insert trade: %w", err)
	}
	return rec, nil
}

func (s *SQLStore) TradeHistory(ctx context.Context, limit int) ([]model.TradeRecord, error) {
	rows, err := s.query(ctx, `SELECT id, ticker, action, shares, price, reason, created_at
		FROM trade_history ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select trades: %w", err)
	}
	defer rows.Close()
	var out []model.TradeRecord
	for rows.Next() {
		var (
			r      model.TradeRecord
			action string
			ts     int64
		)
		if err := rows.Scan(&r.ID, &r.Ticker, &action, &r.Shares, &r.Price, &r.Reason, &ts); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		r.Action = model.TradeAction(action)
		r.Timestamp = time.Unix(ts, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddWeeklySummary(ctx context.Context, weekOf, summary string) (model.WeeklySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws := model.WeeklySummary{WeekOf: weekOf, Summary: summary, CreatedAt: time.Unix(s.now().Unix(), 0)}
	err := s.queryRow(ctx, `INSERT INTO summaries (week_of, summary, created_at) VALUES (?, ?, ?) RETURNING id`,
		weekOf, summary, ws.CreatedAt.Unix()).Scan(&ws.ID)
	if err != nil {
		return ws, fmt.Errorf("insert summary: %w", err)
	}
	return ws, nil
}

func (s *SQLStore) Summaries(ctx context.Context, limit int) ([]model.WeeklySummary, error) {
	rows, err := s.query(ctx, `SELECT id, week_of, summary, created_at FROM summaries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select summaries: %w", err)
	}
	defer rows.Close()
	var out []model.WeeklySummary
	for rows.Next() {
		var (
			ws model.WeeklySummary
			ts int64
		)
		if err := rows.Scan(&ws.ID, &ws.WeekOf, &ws.Summary, &ts); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		ws.CreatedAt = time.Unix(ts, 0)
		out = append(out, ws)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error {
	s.logger.Info("closing store")
	return s.db.Close()
}
