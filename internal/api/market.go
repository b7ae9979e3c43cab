package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"FinanceDesk/internal/collector"
	"FinanceDesk/internal/market"
	"FinanceDesk/internal/model"
)

func (h *handler) stock(w http.ResponseWriter, r *http.Request) {
	ticker := collector.NormalizeTicker(chi.URLParam(r, "ticker"))
	data := h.stocks.GetStockData(r.Context(), []string{ticker})
	q := data[ticker]
	if !q.Resolved() {
		details := ""
		if q != nil {
			details = q.Error
		}
		h.notFound(w, r, "Stock not found", details)
		return
	}
	h.writeJSON(w, r, http.StatusOK, q)
}

func (h *handler) stockScore(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, h.stocks.CalculateOpportunityScore(r.Context(), chi.URLParam(r, "ticker")))
}

// trackedTickers is the portfolio followed by the watchlist, deduplicated.
func (h *handler) trackedTickers(r *http.Request) ([]string, error) {
	holdings, err := h.store.Portfolio(r.Context())
	if err != nil {
		return nil, err
	}
	watch, err := h.store.Watchlist(r.Context())
	if err != nil {
		return nil, err
	}
	uc := model.UserContext{Portfolio: holdings, Watchlist: watch}
	return uc.Tickers(), nil
}

func (h *handler) indices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string][]market.Performance{"indices": h.market.Indices(r.Context())})
}

func (h *handler) sectors(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string][]market.Performance{"sectors": h.market.Sectors(r.Context())})
}

func (h *handler) movers(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.trackedTickers(r)
	if err != nil {
		h.databaseError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, h.market.Movers(r.Context(), tickers))
}

func (h *handler) earnings(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.trackedTickers(r)
	if err != nil {
		h.databaseError(w, r, err)
		return
	}
	events, err := h.market.Earnings(r.Context(), tickers)
	if err != nil {
		h.externalAPIError(w, r, "Earnings calendar", err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string][]model.EarningsEvent{"earnings": events})
}

func (h *handler) marketNews(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, market.DefaultNewsSize)
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string][]model.NewsItem{"news": h.market.News(r.Context(), limit)})
}
