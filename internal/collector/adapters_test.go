package collector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"FinanceDesk/internal/calculator"
	"FinanceDesk/internal/model"
)

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 1.2345, parseNumber("1.2345%").Float64)
	assert.Equal(t, -0.42, parseNumber(" -0.42% ").Float64)
	assert.Equal(t, 1234.5, parseNumber("1,234.5").Float64)
	assert.False(t, parseNumber("").Valid)
	assert.False(t, parseNumber("None").Valid)
	assert.False(t, parseNumber("n/a").Valid)
	assert.False(t, parseNumber("NaN").Valid)
	assert.False(t, parseNumber("Inf%").Valid)
	assert.False(t, parseNumber("-Infinity").Valid)
	assert.Equal(t, int64(1200), parseInteger("1200").Int64)
}

func yahooServer(t *testing.T, quoteStatus int) *httptest.Server {
	closes := []any{100.0, nil, 102.0, 101.0, 105.0}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/AAPL"):
			writeJSON(t, w, map[string]any{"chart": map[string]any{
				"result": []any{map[string]any{
					"meta": map[string]any{
						"longName":           "Apple Inc.",
						"regularMarketPrice": 106.0,
					},
					"timestamp": []int64{1, 2, 3, 4, 5},
					"indicators": map[string]any{"quote": []any{map[string]any{
						"open":   closes,
						"high":   []any{101.0, nil, 103.0, 102.0, 110.0},
						"low":    []any{99.0, nil, 90.0, 100.0, 104.0},
						"close":  closes,
						"volume": []any{1000, nil, 2000, 3000, 4000},
					}}},
				}},
			}})
		case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/"):
			writeJSON(t, w, map[string]any{"chart": map[string]any{
				"result": nil,
				"error":  map[string]any{"code": "Not Found", "description": "No data found"},
			}})
		case r.URL.Path == "/v7/finance/quote":
			if quoteStatus != http.StatusOK {
				w.WriteHeader(quoteStatus)
				return
			}
			writeJSON(t, w, map[string]any{"quoteResponse": map[string]any{
				"result": []any{map[string]any{"trailingPE": 29.5, "marketCap": 3.1e12}},
			}})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestYahoo_FetchQuote(t *testing.T) {
	srv := yahooServer(t, http.StatusOK)
	defer srv.Close()
	y := NewYahoo(srv.Client(), time.Second)
	y.BaseURL = srv.URL

	q := y.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, q.Err)
	assert.Equal(t, "yahoo", q.Source)
	assert.Equal(t, "Apple Inc.", q.Name.String)
	assert.Equal(t, 106.0, q.Price.Float64)
	assert.Equal(t, 5.0, q.Change.Float64)
	assert.Equal(t, 4.95, q.ChangePct.Float64)
	assert.Equal(t, int64(4000), q.Volume.Int64)
	assert.Equal(t, 2500.0, q.AvgVolume.Float64)
	assert.Equal(t, 110.0, q.High52w.Float64)
	assert.Equal(t, 90.0, q.Low52w.Float64)
	assert.Equal(t, 29.5, q.PERatio.Float64)
	assert.Equal(t, 3.1e12, q.MarketCap.Float64)
}

func TestYahoo_FundamentalsAreBestEffort(t *testing.T) {
	srv := yahooServer(t, http.StatusUnauthorized)
	defer srv.Close()
	y := NewYahoo(srv.Client(), time.Second)
	y.BaseURL = srv.URL

	q := y.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, q.Err)
	assert.Equal(t, 106.0, q.Price.Float64)
	assert.False(t, q.PERatio.Valid)
	assert.False(t, q.MarketCap.Valid)
}

func TestYahoo_UnknownTicker(t *testing.T) {
	srv := yahooServer(t, http.StatusOK)
	defer srv.Close()
	y := NewYahoo(srv.Client(), time.Second)
	y.BaseURL = srv.URL

	q := y.FetchQuote(context.Background(), "NOPE")
	require.Error(t, q.Err)
	assert.Contains(t, q.Err.Error(), "No data found")
	assert.False(t, q.Price.Valid)
}

func TestYahoo_DailyBarsSkipsNullBars(t *testing.T) {
	srv := yahooServer(t, http.StatusOK)
	defer srv.Close()
	y := NewYahoo(srv.Client(), time.Second)
	y.BaseURL = srv.URL

	bars, err := y.DailyBars(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, bars, 4)
	assert.Equal(t, []float64{100, 102, 101, 105}, calculator.Closes(bars))
}

func finnhubServer(t *testing.T, failing map[string]bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Finnhub-Token") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if failing[r.URL.Path] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		switch r.URL.Path {
		case "/quote":
			writeJSON(t, w, map[string]any{"c": 190.5, "d": 2.5, "dp": 1.33})
		case "/stock/social-sentiment":
			writeJSON(t, w, map[string]any{
				"reddit":  []any{map[string]any{"positiveScore": 30, "negativeScore": 10}},
				"twitter": []any{map[string]any{"positiveScore": 10, "negativeScore": 0}},
			})
		case "/stock/recommendation":
			writeJSON(t, w, []any{
				map[string]any{"period": "2025-03-01", "strongBuy": 10, "buy": 5, "hold": 4, "sell": 1, "strongSell": 0},
				map[string]any{"period": "2025-02-01", "strongBuy": 0, "buy": 0, "hold": 0, "sell": 9, "strongSell": 9},
			})
		case "/stock/price-target":
			writeJSON(t, w, map[string]any{"targetMean": 225.0})
		case "/calendar/earnings":
			assert.Equal(t, "2025-03-14", r.URL.Query().Get("from"))
			writeJSON(t, w, map[string]any{"earningsCalendar": []any{
				map[string]any{"symbol": "AAPL", "date": "2025-03-20", "hour": "amc", "epsEstimate": 1.5, "revenueEstimate": nil},
			}})
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestFinnhub(srv *httptest.Server) *Finnhub {
	f := NewFinnhub("key", srv.Client(), time.Second)
	f.BaseURL = srv.URL
	return f
}

func TestFinnhub_FetchQuote(t *testing.T) {
	srv := finnhubServer(t, nil)
	defer srv.Close()

	q := newTestFinnhub(srv).FetchQuote(context.Background(), "AAPL")
	require.NoError(t, q.Err)
	assert.Equal(t, 190.5, q.Price.Float64)
	assert.Equal(t, 1.33, q.ChangePct.Float64)
	assert.Equal(t, 0.8, q.SentimentScore.Float64)
	assert.Equal(t, RatingStrongBuy, q.AnalystRating.String)
	assert.Equal(t, 225.0, q.TargetPrice.Float64)
}

func TestFinnhub_PartialFailureIsNotAnError(t *testing.T) {
	srv := finnhubServer(t, map[string]bool{"/quote": true, "/stock/price-target": true})
	defer srv.Close()

	q := newTestFinnhub(srv).FetchQuote(context.Background(), "AAPL")
	require.NoError(t, q.Err)
	assert.False(t, q.Price.Valid)
	assert.False(t, q.TargetPrice.Valid)
	assert.Equal(t, 0.8, q.SentimentScore.Float64)
}

func TestFinnhub_AllFailing(t *testing.T) {
	srv := finnhubServer(t, map[string]bool{
		"/quote": true, "/stock/social-sentiment": true, "/stock/recommendation": true, "/stock/price-target": true,
	})
	defer srv.Close()

	q := newTestFinnhub(srv).FetchQuote(context.Background(), "AAPL")
	assert.Error(t, q.Err)

	q = NewFinnhub("", http.DefaultClient, time.Second).FetchQuote(context.Background(), "AAPL")
	assert.ErrorIs(t, q.Err, errNoAPIKey)
}

func TestFinnhub_EarningsCalendar(t *testing.T) {
	srv := finnhubServer(t, nil)
	defer srv.Close()

	from := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	events, err := newTestFinnhub(srv).EarningsCalendar(context.Background(), from, from.AddDate(0, 0, 14))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "AAPL", events[0].Ticker)
	assert.Equal(t, 1.5, events[0].EPSEstimate.Float64)
	assert.False(t, events[0].RevenueEstimate.Valid)
}

func TestAnalystRating(t *testing.T) {
	tests := []struct {
		rec  finnhubRecommendation
		want string
	}{
		{finnhubRecommendation{StrongBuy: 7, Hold: 3}, RatingStrongBuy},
		{finnhubRecommendation{Buy: 6, Hold: 4}, RatingBuy},
		{finnhubRecommendation{Buy: 4, Hold: 6}, RatingHold},
		{finnhubRecommendation{Buy: 1, Hold: 4, Sell: 3, StrongSell: 2}, RatingSell},
		{finnhubRecommendation{}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, analystRating(tt.rec))
	}
}

func alphaVantageServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") == "BROKEN" && q.Get("function") == "GLOBAL_QUOTE" {
			writeJSON(t, w, map[string]any{"Global Quote": map[string]string{
				"05. price": "12.00", "09. change": "Inf", "10. change percent": "NaN%",
			}})
			return
		}
		if q.Get("symbol") == "THROTTLED" {
			writeJSON(t, w, map[string]any{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."})
			return
		}
		switch q.Get("function") {
		case "RSI":
			if q.Get("symbol") == "BROKEN" {
				writeJSON(t, w, map[string]any{"Technical Analysis: RSI": map[string]any{
					"2025-03-13": map[string]string{"RSI": "NaN"},
				}})
				return
			}
			writeJSON(t, w, map[string]any{"Technical Analysis: RSI": map[string]any{
				"2025-03-12": map[string]string{"RSI": "41.0000"},
				"2025-03-13": map[string]string{"RSI": "72.5000"},
			}})
		case "SMA":
			v := "180.0"
			if q.Get("time_period") == "50" {
				v = "175.0"
			}
			writeJSON(t, w, map[string]any{"Technical Analysis: SMA": map[string]any{
				"2025-03-13": map[string]string{"SMA": v},
			}})
		case "GLOBAL_QUOTE":
			writeJSON(t, w, map[string]any{"Global Quote": map[string]string{
				"05. price": "190.10", "06. volume": "5000000", "09. change": "1.10", "10. change percent": "0.5820%",
			}})
		}
	}))
}

func newTestAlphaVantage(srv *httptest.Server, rpm int) *AlphaVantage {
	a := NewAlphaVantage("key", srv.Client(), time.Second, rpm)
	a.BaseURL = srv.URL
	return a
}

func TestAlphaVantage_FetchTechnicals(t *testing.T) {
	srv := alphaVantageServer(t)
	defer srv.Close()

	ind := newTestAlphaVantage(srv, 0).FetchTechnicals(context.Background(), "AAPL")
	require.NoError(t, ind.Err)
	assert.Equal(t, 72.5, ind.RSI)
	assert.Equal(t, calculator.SignalOverbought, ind.RSISignal)
	assert.Equal(t, 180.0, ind.SMA20.Float64)
	assert.Equal(t, 175.0, ind.SMA50.Float64)
	assert.Equal(t, calculator.TrendUp, ind.Trend)
}

func TestAlphaVantage_NonFiniteRSIIsNeutral(t *testing.T) {
	srv := alphaVantageServer(t)
	defer srv.Close()

	ind := newTestAlphaVantage(srv, 0).FetchTechnicals(context.Background(), "BROKEN")
	assert.Equal(t, model.NeutralRSI, ind.RSI)
	assert.Equal(t, calculator.SignalNeutral, ind.RSISignal)
	assert.Equal(t, 180.0, ind.SMA20.Float64)
}

func TestAlphaVantage_ThrottledDefaultsToNeutral(t *testing.T) {
	srv := alphaVantageServer(t)
	defer srv.Close()

	ind := newTestAlphaVantage(srv, 0).FetchTechnicals(context.Background(), "THROTTLED")
	require.Error(t, ind.Err)
	assert.Equal(t, model.NeutralRSI, ind.RSI)
	assert.Equal(t, calculator.SignalNeutral, ind.RSISignal)
	assert.Equal(t, calculator.TrendUnknown, ind.Trend)
}

func TestAlphaVantage_RateLimitWaitIsBoundedByTimeout(t *testing.T) {
	srv := alphaVantageServer(t)
	defer srv.Close()

	a := newTestAlphaVantage(srv, 0)
	a.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	a.Limiter.Allow()
	a.Timeout = 100 * time.Millisecond

	start := time.Now()
	ind := a.FetchTechnicals(context.Background(), "AAPL")
	assert.Less(t, time.Since(start), time.Second)
	assert.Error(t, ind.Err)
	assert.Equal(t, model.NeutralRSI, ind.RSI)
}

func TestAlphaVantage_FetchQuote(t *testing.T) {
	srv := alphaVantageServer(t)
	defer srv.Close()

	q := newTestAlphaVantage(srv, 5).FetchQuote(context.Background(), "AAPL")
	require.NoError(t, q.Err)
	assert.Equal(t, 190.10, q.Price.Float64)
	assert.Equal(t, 0.582, q.ChangePct.Float64)
	assert.Equal(t, int64(5000000), q.Volume.Int64)

	q = newTestAlphaVantage(srv, 5).FetchQuote(context.Background(), "THROTTLED")
	assert.Error(t, q.Err)
}

func TestAlphaVantage_FetchQuoteDropsNonFiniteFields(t *testing.T) {
	srv := alphaVantageServer(t)
	defer srv.Close()

	q := newTestAlphaVantage(srv, 5).FetchQuote(context.Background(), "BROKEN")
	require.NoError(t, q.Err)
	assert.Equal(t, 12.0, q.Price.Float64)
	assert.False(t, q.Change.Valid)
	assert.False(t, q.ChangePct.Valid)

	merged := MergeQuotes("BROKEN", q, model.PartialQuote{}, time.Now())
	_, err := json.Marshal(merged)
	assert.NoError(t, err)
}

func TestChartTechnicals(t *testing.T) {
	ind := NewChartTechnicals(&MockBars{Price: 100, Count: 120}).FetchTechnicals(context.Background(), "AAPL")
	require.NoError(t, ind.Err)
	assert.Equal(t, 100.0, ind.RSI, "steadily rising bars have no losses")
	assert.True(t, ind.SMA20.Valid)
	assert.True(t, ind.SMA50.Valid)
	assert.Equal(t, calculator.TrendUp, ind.Trend)

	ind = NewChartTechnicals(&MockBars{Count: 30, Price: 10}).FetchTechnicals(context.Background(), "AAPL")
	assert.False(t, ind.SMA50.Valid)
	assert.Equal(t, calculator.TrendUnknown, ind.Trend)

	ind = NewChartTechnicals(&MockBars{Err: errors.New("down")}).FetchTechnicals(context.Background(), "AAPL")
	assert.Error(t, ind.Err)
	assert.Equal(t, model.NeutralRSI, ind.RSI)
}
