package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinanceDesk/internal/model"
)

type staticFeed struct {
	name  string
	items []model.NewsItem
	err   error
}

func (f *staticFeed) Name() string { return f.name }

func (f *staticFeed) Fetch(context.Context, string) ([]model.NewsItem, error) {
	return f.items, f.err
}

func feedItems(label string, days ...int) []model.NewsItem {
	out := make([]model.NewsItem, len(days))
	for i, d := range days {
		out[i] = model.NewsItem{Headline: fmt.Sprintf("%s-%d", label, d), Source: label, Published: fmt.Sprintf("2025-01-%02dT10:00:00Z", d)}
	}
	return out
}

func TestGetNews_MergesSortsAndLimits(t *testing.T) {
	a := &staticFeed{name: "a", items: feedItems("a", 1, 3, 5, 7, 9, 11, 13, 15)}
	b := &staticFeed{name: "b", items: feedItems("b", 2, 4, 6, 8, 10, 12, 14, 16)}
	n := NewNewsAggregator(nil, nil, a, b)

	got := n.GetNews(context.Background(), "AAPL", 10)
	require.Len(t, got, 10)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Published, got[i].Published)
	}
	assert.Equal(t, "b-16", got[0].Headline)
	assert.Equal(t, "a-7", got[9].Headline)
}

func TestGetNews_FailedFeedContributesNothing(t *testing.T) {
	a := &staticFeed{name: "a", err: errors.New("timeout")}
	b := &staticFeed{name: "b", items: feedItems("b", 1, 2)}
	n := NewNewsAggregator(nil, nil, a, b)

	got := n.GetNews(context.Background(), "AAPL", 10)
	require.Len(t, got, 2)
	assert.Equal(t, "b-2", got[0].Headline)

	assert.Empty(t, NewNewsAggregator(nil, nil, a).GetNews(context.Background(), "AAPL", 10))
}

func TestGetMarketNews(t *testing.T) {
	market := &staticFeed{name: "m", items: feedItems("m", 1, 2, 3)}
	n := NewNewsAggregator(nil, market)
	got := n.GetMarketNews(context.Background(), 2)
	require.Len(t, got, 2)
	assert.Equal(t, "m-3", got[0].Headline)

	assert.Nil(t, NewNewsAggregator(nil, nil).GetMarketNews(context.Background(), 2))
}

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>t</title>
<item><title> Apple beats estimates </title><link>https://example.com/1</link>
<description>&lt;p&gt;Shares &lt;b&gt;rose&lt;/b&gt;
 after the report.&lt;/p&gt;</description>
<pubDate>Tue, 14 Jan 2025 10:00:00 GMT</pubDate></item>
<item><title>Second</title><link>https://example.com/2</link><description>%s</description>
<pubDate>Mon, 13 Jan 2025 10:00:00 GMT</pubDate></item>
</channel></rss>`

func TestRSSFeed_Fetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("s")
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, rssBody, strings.Repeat("x", 250))
	}))
	defer srv.Close()

	f := NewRSSFeed("Yahoo Finance", srv.URL+"/rss?s={ticker}", srv.Client())
	items, err := f.Fetch(context.Background(), "BRK.B")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "BRK.B", gotQuery)

	assert.Equal(t, "Apple beats estimates", items[0].Headline)
	assert.Equal(t, "Shares rose after the report.", items[0].Summary)
	assert.Equal(t, "Yahoo Finance", items[0].Source)
	assert.Equal(t, "https://example.com/1", items[0].URL)
	assert.Equal(t, "Tue, 14 Jan 2025 10:00:00 GMT", items[0].Published)
	assert.Len(t, items[1].Summary, 200)
}

func TestRSSFeed_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewRSSFeed("Google News", srv.URL, srv.Client()).Fetch(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestTruncate_CountsRunes(t *testing.T) {
	assert.Equal(t, "héllo", truncate("héllo wörld", 5))
	assert.Equal(t, "short", truncate("short", 200))
}
