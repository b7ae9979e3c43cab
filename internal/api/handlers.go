package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"FinanceDesk/internal/collector"
	"FinanceDesk/internal/model"
	"FinanceDesk/internal/store"
)

// MaxListLimit caps the limit query parameter.
const MaxListLimit = 200

type chatRequest struct {
	Message string `json:"message" validate:"required"`
	IsVoice bool   `json:"is_voice"`
}

type holdingRequest struct {
	Ticker string  `json:"ticker" validate:"required,max=16"`
	Shares float64 `json:"shares" validate:"gte=0"`
	Price  float64 `json:"price" validate:"gte=0"`
	Notes  string  `json:"notes" validate:"max=500"`
}

type watchRequest struct {
	Ticker string `json:"ticker" validate:"required,max=16"`
	Notes  string `json:"notes" validate:"max=500"`
}

type tradeRequest struct {
	Ticker string  `json:"ticker" validate:"required,max=16"`
	Action string  `json:"action" validate:"required,oneof=buy sell note"`
	Shares float64 `json:"shares" validate:"gte=0"`
	Price  float64 `json:"price" validate:"gte=0"`
	Reason string  `json:"reason" validate:"max=2000"`
}

type settingsRequest struct {
	Name        string         `json:"name" validate:"max=100"`
	Preferences map[string]any `json:"preferences"`
}

// queryLimit reads ?limit=, falling back to def.
func queryLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	return min(n, MaxListLimit), nil
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]any{"status": "healthy", "timestamp": h.now()})
}

func (h *handler) chatReply(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !h.decode(w, r, &req) {
		return
	}
	reply, err := h.chat.Reply(r.Context(), req.Message, req.IsVoice)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, reply)
}

func (h *handler) messages(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, store.RecentMessageLimit)
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	msgs, err := h.store.RecentMessages(r.Context(), limit)
	if err != nil {
		h.databaseError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{"messages": msgs})
}

func (h *handler) portfolio(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.store.Portfolio(r.Context())
	if err != nil {
		h.databaseError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{"portfolio": holdings})
}

func (h *handler) addHolding(w http.ResponseWriter, r *http.Request) {
	var req holdingRequest
	if !h.decode(w, r, &req) {
		return
	}
	ticker := collector.NormalizeTicker(req.Ticker)
	if ticker == "" {
		h.badRequest(w, r, "ticker is required")
		return
	}
	holding, err := h.store.AddHolding(r.Context(), ticker, req.Shares, req.Price, req.Notes)
	if err != nil {
		h.databaseError(w, r, err)
		return
	}
	h.logger.Info("holding added", zap.String("ticker", ticker), zap.Float64("shares", holding.Shares))
	h.writeJSON(w, r, http.StatusOK, statusResponse{
		Success: true,
		Message: fmt.Sprintf("Added %s to portfolio", ticker),
		Data:    holding,
	})
}

func (h *handler) removeHolding(w http.ResponseWriter, r *http.Request) {
	ticker := collector.NormalizeTicker(chi.URLParam(r, "ticker"))
	removed, err := h.store.RemoveHolding(r.Context(), ticker)
	if err != nil {
		h.databaseError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, statusResponse{
		Success: true,
		Message: fmt.Sprintf("Removed %s from portfolio", ticker),
		Data:    map[string]bool{"removed": removed},
	})
}

func (h *handler) watchlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Watchlist(r.Context())
	if err != nil {
		h.databaseError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{"watchlist": entries})
}

func (h *handler) addWatch(w http.ResponseWriter, r *http.Request) {
	var req watchRequest
	if !h.decode(w, r, &req) {
		return
	}
	ticker := collector.NormalizeTicker(req.Ticker)
	if ticker == "" {
		h.badRequest(w, r, "ticker is required")
		return
	}
	entry, err := h.store.AddWatch(r.Context(), ticker, req.Notes)
	if err != nil {
		h.databaseError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, statusResponse{
		Success: true,
		Message: fmt.Sprintf("Added %s to watchlist", ticker),
		Data:    entry,
	})
}

func (h *handler) removeWatch(w http.ResponseWriter, r *http.Request) {
	ticker := collector.NormalizeTicker(chi.URLParam(r, "ticker"))
	removed, err := h.store.RemoveWatch(r.Context(), ticker)
	if err != nil {
		h.databaseError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, statusResponse{
		Success: true,
		Message: fmt.Sprintf("Removed %s from watchlist", ticker),
		Data:    map[string]bool{"removed": removed},
	})
}

func (h *handler) trades(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, store.TradeLimit)
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	trades, err := h.store.TradeHistory(r.Context(), limit)
	if err != nil {
		h.databaseError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{"trades": trades})
}

func (h *handler) logTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.store.LogTrade(r.Context(), model.TradeRecord{
		Ticker: collector.NormalizeTicker(req.Ticker),
		Action: model.TradeAction(req.Action),
		Shares: req.Shares,
		Price:  req.Price,
		Reason: req.Reason,
	})
	if err != nil {
		h.databaseError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, rec)
}

func (h *handler) summaries(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, store.SummaryLimit)
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	sums, err := h.store.Summaries(r.Context(), limit)
	if err != nil {
		h.databaseError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{"summaries": sums})
}

func (h *handler) settings(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Profile(r.Context())
	if err != nil {
		h.databaseError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, p)
}

// updateSettings sets the name when given and merges preferences.
func (h *handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	if name := strings.TrimSpace(req.Name); name != "" {
		if err := h.store.UpdateProfileName(ctx, name); err != nil {
			h.databaseError(w, r, err)
			return
		}
	}
	if len(req.Preferences) > 0 {
		if _, err := h.store.MergePreferences(ctx, req.Preferences); err != nil {
			h.databaseError(w, r, err)
			return
		}
	}
	p, err := h.store.Profile(ctx)
	if err != nil {
		h.databaseError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, statusResponse{Success: true, Data: p})
}

func (h *handler) dailyBriefing(w http.ResponseWriter, r *http.Request) {
	uc, err := store.LoadContext(r.Context(), h.store)
	if err != nil {
		h.databaseError(w, r, err)
		return
	}
	b, err := h.briefing.Generate(r.Context(), uc)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, b)
}

func (h *handler) morningWisdom(w http.ResponseWriter, r *http.Request) {
	wisdom, day := h.briefing.MorningWisdom()
	h.writeJSON(w, r, http.StatusOK, map[string]any{"wisdom": wisdom, "date": day.Format(time.DateOnly)})
}
