package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/guregu/null/v6"

	"FinanceDesk/internal/calculator"
	"FinanceDesk/internal/model"
)

// DefaultYahooURL is the public Yahoo Finance API host.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// avgVolumeWindow is roughly three months of trading days.
const avgVolumeWindow = 63

// Yahoo is the primary price and fundamentals source.
type Yahoo struct {
	BaseURL   string
	Client    *http.Client
	Timeout   time.Duration
	SymbolMap map[string]string // maps user-facing aliases to Yahoo tickers
}

// NewYahoo creates a Yahoo Finance source.
func NewYahoo(client *http.Client, timeout time.Duration) *Yahoo {
	return &Yahoo{
		BaseURL: DefaultYahooURL,
		Client:  client,
		Timeout: timeout,
		SymbolMap: map[string]string{
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"DJI":    "^DJI",
			"NASDAQ": "^IXIC",
			"VIX":    "^VIX",
		},
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

func (y *Yahoo) symbol(ticker string) string {
	if mapped, ok := y.SymbolMap[ticker]; ok {
		return mapped
	}
	return ticker
}

// yahooChart is the response structure from the chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				LongName            string  `json:"longName"`
				ShortName           string  `json:"shortName"`
				RegularMarketPrice  float64 `json:"regularMarketPrice"`
				RegularMarketVolume int64   `json:"regularMarketVolume"`
				PreviousClose       float64 `json:"previousClose"`
				FiftyTwoWeekHigh    float64 `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow     float64 `json:"fiftyTwoWeekLow"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			TrailingPE *float64 `json:"trailingPE"`
			MarketCap  *float64 `json:"marketCap"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func (y *Yahoo) fetchChart(ctx context.Context, ticker, rng string) (*yahooChart, []model.OHLCV, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		y.BaseURL, url.PathEscape(y.symbol(ticker)), rng)

	var chart yahooChart
	if err := getJSON(ctx, y.Client, u, nil, &chart); err != nil {
		return nil, nil, fmt.Errorf("yahoo chart: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil, fmt.Errorf("yahoo: no data returned for %s", ticker)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c := at(quote.Close, i)
		if c == 0 {
			continue // null bar (holiday or halted)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}
	if len(bars) == 0 {
		return nil, nil, fmt.Errorf("yahoo: only empty bars for %s", ticker)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return &chart, bars, nil
}

// DailyBars returns roughly six months of daily bars.
func (y *Yahoo) DailyBars(ctx context.Context, ticker string) ([]model.OHLCV, error) {
	ctx, cancel := withTimeout(ctx, y.Timeout)
	defer cancel()
	_, bars, err := y.fetchChart(ctx, ticker, "6mo")
	return bars, err
}

// FetchQuote derives price, change, volume and the 52-week range from one year of
// daily bars, then adds P/E and market cap from the quote endpoint when it answers.
func (y *Yahoo) FetchQuote(ctx context.Context, ticker string) model.PartialQuote {
	ctx, cancel := withTimeout(ctx, y.Timeout)
	defer cancel()

	pq := model.PartialQuote{Source: y.Name()}
	chart, bars, err := y.fetchChart(ctx, ticker, "1y")
	if err != nil {
		pq.Err = err
		return pq
	}
	meta := chart.Chart.Result[0].Meta
	last := bars[len(bars)-1]

	price := meta.RegularMarketPrice
	if price <= 0 {
		price = last.Close
	}
	pq.Price = null.FloatFrom(price)

	prev := meta.PreviousClose
	if len(bars) >= 2 {
		prev = bars[len(bars)-2].Close
	}
	if prev > 0 {
		change := price - prev
		pq.Change = null.FloatFrom(round2(change))
		pq.ChangePct = null.FloatFrom(round2(change / prev * 100))
	}

	if meta.RegularMarketVolume > 0 {
		pq.Volume = null.IntFrom(meta.RegularMarketVolume)
	} else {
		pq.Volume = null.IntFrom(int64(last.Volume))
	}
	if avg, err := calculator.AverageVolume(bars, avgVolumeWindow); err == nil {
		pq.AvgVolume = positive(avg)
	}

	if meta.FiftyTwoWeekHigh > 0 && meta.FiftyTwoWeekLow > 0 {
		pq.High52w = null.FloatFrom(meta.FiftyTwoWeekHigh)
		pq.Low52w = null.FloatFrom(meta.FiftyTwoWeekLow)
	} else if h, l, err := calculator.Calculate52WeekRange(bars); err == nil {
		pq.High52w = null.FloatFrom(h)
		pq.Low52w = null.FloatFrom(l)
	}

	switch {
	case meta.LongName != "":
		pq.Name = null.StringFrom(meta.LongName)
	case meta.ShortName != "":
		pq.Name = null.StringFrom(meta.ShortName)
	}

	y.addFundamentals(ctx, ticker, &pq)
	return pq
}

// addFundamentals is best effort; a failure leaves P/E and market cap absent.
func (y *Yahoo) addFundamentals(ctx context.Context, ticker string, pq *model.PartialQuote) {
	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", y.BaseURL, url.QueryEscape(y.symbol(ticker)))
	var resp yahooQuoteResponse
	if err := getJSON(ctx, y.Client, u, nil, &resp); err != nil || len(resp.QuoteResponse.Result) == 0 {
		return
	}
	r := resp.QuoteResponse.Result[0]
	pq.PERatio = null.FloatFromPtr(r.TrailingPE)
	if r.MarketCap != nil {
		pq.MarketCap = positive(*r.MarketCap)
	}
}
