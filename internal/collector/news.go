package collector

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"FinanceDesk/internal/model"
)

// Feed URL templates. {ticker} is replaced with the escaped symbol.
const (
	GoogleNewsURL  = "https://news.google.com/rss/search?q={ticker}+stock&hl=en-US&gl=US&ceid=US:en"
	YahooNewsURL   = "https://feeds.finance.yahoo.com/rss/2.0/headline?s={ticker}&region=US&lang=en-US"
	MarketNewsURL  = "https://news.google.com/rss/search?q=stock+market&hl=en-US&gl=US&ceid=US:en"
	DefaultNewsMax = 10
)

const (
	feedItemLimit = 10
	summaryLimit  = 200
)

// Feed fetches headlines from one provider.
type Feed interface {
	Name() string
	Fetch(ctx context.Context, ticker string) ([]model.NewsItem, error)
}

// RSSFeed reads an RSS or Atom feed.
type RSSFeed struct {
	Label   string
	URL     string
	Client  *http.Client
	MaxItem int
}

// NewRSSFeed creates a feed for the given URL template.
func NewRSSFeed(label, urlTemplate string, client *http.Client) *RSSFeed {
	return &RSSFeed{Label: label, URL: urlTemplate, Client: client, MaxItem: feedItemLimit}
}

func (f *RSSFeed) Name() string { return f.Label }

func (f *RSSFeed) Fetch(ctx context.Context, ticker string) ([]model.NewsItem, error) {
	u := strings.ReplaceAll(f.URL, "{ticker}", url.QueryEscape(ticker))
	fp := gofeed.NewParser()
	fp.Client = f.Client
	fp.UserAgent = userAgent
	feed, err := fp.ParseURLWithContext(u, ctx)
	if err != nil {
		return nil, err
	}

	n := min(len(feed.Items), f.MaxItem)
	items := make([]model.NewsItem, 0, n)
	for _, it := range feed.Items[:n] {
		items = append(items, model.NewsItem{
			Headline:  strings.TrimSpace(it.Title),
			Summary:   truncate(plainText(it.Description), summaryLimit),
			Source:    f.Label,
			URL:       it.Link,
			Published: it.Published,
		})
	}
	return items, nil
}

// plainText strips markup from a feed description and collapses whitespace.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// NewsAggregator merges headlines from several feeds.
type NewsAggregator struct {
	Feeds  []Feed
	Market Feed
	logger *zap.Logger
}

// NewNewsAggregator creates an aggregator over feeds. market serves GetMarketNews and may be nil.
func NewNewsAggregator(logger *zap.Logger, market Feed, feeds ...Feed) *NewsAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsAggregator{Feeds: feeds, Market: market, logger: logger.With(zap.String("component", "news"))}
}

// GetNews fetches every feed concurrently, merges the results and returns the
// newest limit items. A failed feed contributes nothing.
func (n *NewsAggregator) GetNews(ctx context.Context, ticker string, limit int) []model.NewsItem {
	results := make([][]model.NewsItem, len(n.Feeds))
	var wg sync.WaitGroup
	for i, f := range n.Feeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = n.fetch(ctx, f, ticker)
		}()
	}
	wg.Wait()

	var merged []model.NewsItem
	for _, r := range results {
		merged = append(merged, r...)
	}
	return newest(merged, limit)
}

// GetMarketNews returns general market headlines.
func (n *NewsAggregator) GetMarketNews(ctx context.Context, limit int) []model.NewsItem {
	if n.Market == nil {
		return nil
	}
	return newest(n.fetch(ctx, n.Market, ""), limit)
}

func (n *NewsAggregator) fetch(ctx context.Context, f Feed, ticker string) (items []model.NewsItem) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Warn("news feed panicked", zap.String("feed", f.Name()), zap.Any("panic", r))
			items = nil
		}
	}()
	items, err := f.Fetch(ctx, ticker)
	if err != nil {
		n.logger.Warn("news feed failed",
			zap.String("feed", f.Name()), zap.String("ticker", ticker), zap.Error(err))
		return nil
	}
	return items
}

// newest orders by the raw published string, descending, and keeps limit items.
// Feeds format timestamps differently so the order is only approximately chronological.
func newest(items []model.NewsItem, limit int) []model.NewsItem {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Published > items[j].Published })
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
