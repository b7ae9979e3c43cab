package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"FinanceDesk/internal/model"
)

// DefaultTimeout bounds every outbound adapter call.
const DefaultTimeout = 10 * time.Second

const userAgent = "Mozilla/5.0"

// QuoteSource fetches a partial quote. Failures are reported in PartialQuote.Err, never returned.
type QuoteSource interface {
	Name() string
	FetchQuote(ctx context.Context, ticker string) model.PartialQuote
}

// TechnicalSource fetches technical indicators. On failure RSI is neutral.
type TechnicalSource interface {
	Name() string
	FetchTechnicals(ctx context.Context, ticker string) model.TechnicalIndicators
}

// NewsSource returns recent headlines for a ticker. Failures yield fewer items.
type NewsSource interface {
	GetNews(ctx context.Context, ticker string, limit int) []model.NewsItem
}

// BarSource returns daily OHLCV bars, oldest first.
type BarSource interface {
	DailyBars(ctx context.Context, ticker string) ([]model.OHLCV, error)
}

// NewHTTPClient builds an outbound client with an optional proxy.
func NewHTTPClient(timeout time.Duration, proxyURL string) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// NormalizeTicker upper-cases and trims a symbol.
func NormalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

func normalizeTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = NormalizeTicker(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		// url.Error carries the full URL, which may include an API key.
		var ue *url.Error
		if errors.As(err, &ue) {
			return fmt.Errorf("%s: %w", ue.Op, ue.Err)
		}
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, abbreviate(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// parseNumber reads numeric strings like "12.5", " 1,234 " or "-0.42%".
// Anything unparseable or non-finite is absent.
func parseNumber(s string) null.Float {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "None" || s == "-" {
		return null.Float{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

func parseInteger(s string) null.Int {
	f := parseNumber(s)
	if !f.Valid {
		return null.Int{}
	}
	return null.IntFrom(int64(f.Float64))
}

// positive treats zero and negative values as absent.
func positive(v float64) null.Float {
	if v <= 0 {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}
