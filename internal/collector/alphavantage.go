package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/guregu/null/v6"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"FinanceDesk/internal/calculator"
	"FinanceDesk/internal/model"
)

// DefaultAlphaVantageURL is the Alpha Vantage query endpoint.
const DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

// AlphaVantage is the technical-indicator source. It can also serve quotes.
type AlphaVantage struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
	Limiter *rate.Limiter // nil means unlimited
}

// NewAlphaVantage creates an Alpha Vantage source limited to requestsPerMinute
// (zero disables limiting).
func NewAlphaVantage(apiKey string, client *http.Client, timeout time.Duration, requestsPerMinute int) *AlphaVantage {
	av := &AlphaVantage{APIKey: apiKey, BaseURL: DefaultAlphaVantageURL, Client: client, Timeout: timeout}
	if requestsPerMinute > 0 {
		av.Limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60), requestsPerMinute)
	}
	return av
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

// query returns the top-level members of the response. Alpha Vantage answers
// throttling and bad symbols with 200 and a "Note", "Information" or "Error Message" member.
func (a *AlphaVantage) query(ctx context.Context, params url.Values) (map[string]json.RawMessage, error) {
	if a.APIKey == "" {
		return nil, errNoAPIKey
	}
	if a.Limiter != nil {
		if err := a.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	params.Set("apikey", a.APIKey)

	var body map[string]json.RawMessage
	if err := getJSON(ctx, a.Client, a.BaseURL+"?"+params.Encode(), nil, &body); err != nil {
		return nil, err
	}
	for _, k := range []string{"Error Message", "Note", "Information"} {
		if raw, ok := body[k]; ok {
			var msg string
			_ = json.Unmarshal(raw, &msg)
			return nil, fmt.Errorf("alphavantage: %s", abbreviate(msg, 160))
		}
	}
	return body, nil
}

// indicator returns the most recent value of a daily technical indicator series.
func (a *AlphaVantage) indicator(ctx context.Context, function, ticker string, period int) (null.Float, error) {
	body, err := a.query(ctx, url.Values{
		"function":    {function},
		"symbol":      {ticker},
		"interval":    {"daily"},
		"time_period": {strconv.Itoa(period)},
		"series_type": {"close"},
	})
	if err != nil {
		return null.Float{}, err
	}
	raw, ok := body["Technical Analysis: "+function]
	if !ok {
		return null.Float{}, fmt.Errorf("%s: missing series", function)
	}
	var series map[string]map[string]string
	if err := json.Unmarshal(raw, &series); err != nil {
		return null.Float{}, fmt.Errorf("%s: decode series: %w", function, err)
	}
	var latest string
	for date := range series {
		if date > latest {
			latest = date
		}
	}
	if latest == "" {
		return null.Float{}, fmt.Errorf("%s: empty series", function)
	}
	v := parseNumber(series[latest][function])
	if !v.Valid {
		return v, fmt.Errorf("%s: unparseable value %q", function, series[latest][function])
	}
	return v, nil
}

// FetchTechnicals fetches RSI(14), SMA(20) and SMA(50) concurrently.
func (a *AlphaVantage) FetchTechnicals(ctx context.Context, ticker string) model.TechnicalIndicators {
	ctx, cancel := withTimeout(ctx, a.Timeout)
	defer cancel()

	var (
		rsi, sma20, sma50          null.Float
		rsiErr, sma20Err, sma50Err error
	)
	var g errgroup.Group
	g.Go(func() error { rsi, rsiErr = a.indicator(ctx, "RSI", ticker, 14); return nil })
	g.Go(func() error { sma20, sma20Err = a.indicator(ctx, "SMA", ticker, 20); return nil })
	g.Go(func() error { sma50, sma50Err = a.indicator(ctx, "SMA", ticker, 50); return nil })
	_ = g.Wait()

	var err error
	if rsiErr != nil || sma20Err != nil || sma50Err != nil {
		err = fmt.Errorf("alphavantage: %w", errors.Join(rsiErr, sma20Err, sma50Err))
	}
	return newTechnicals(a.Name(), rsi, sma20, sma50, err)
}

// FetchQuote reads the GLOBAL_QUOTE endpoint.
func (a *AlphaVantage) FetchQuote(ctx context.Context, ticker string) model.PartialQuote {
	ctx, cancel := withTimeout(ctx, a.Timeout)
	defer cancel()

	pq := model.PartialQuote{Source: a.Name()}
	body, err := a.query(ctx, url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {ticker}})
	if err != nil {
		pq.Err = fmt.Errorf("alphavantage quote: %w", err)
		return pq
	}
	var gq map[string]string
	if raw, ok := body["Global Quote"]; ok {
		_ = json.Unmarshal(raw, &gq)
	}
	pq.Price = parseNumber(gq["05. price"])
	if !pq.Price.Valid || pq.Price.Float64 <= 0 {
		pq.Price = null.Float{}
		pq.Err = fmt.Errorf("alphavantage quote: no price for %s", ticker)
		return pq
	}
	pq.Change = parseNumber(gq["09. change"])
	pq.ChangePct = parseNumber(gq["10. change percent"])
	pq.Volume = parseInteger(gq["06. volume"])
	return pq
}

// newTechnicals fills in the neutral RSI default and the derived labels.
func newTechnicals(source string, rsi, sma20, sma50 null.Float, err error) model.TechnicalIndicators {
	ind := model.TechnicalIndicators{
		RSI:    model.NeutralRSI,
		SMA20:  sma20,
		SMA50:  sma50,
		Source: source,
		Err:    err,
	}
	if rsi.Valid {
		ind.RSI = rsi.Float64
	}
	ind.RSISignal = calculator.RSISignal(ind.RSI)
	ind.Trend = calculator.Trend(sma20, sma50)
	return ind
}
