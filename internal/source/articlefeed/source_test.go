package articlefeed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_aggregator/internal/config"
	"content_aggregator/internal/domain"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Tech Weekly</title>
    <link>https://blog.example.com</link>
    <item>
      <title>AI 编译器的现状</title>
      <link>https://blog.example.com/posts/ai-compilers</link>
      <description>&lt;p&gt;一篇关于 AI 编译器的长文&lt;/p&gt;</description>
      <pubDate>Mon, 09 Jun 2025 10:00:00 +0000</pubDate>
    </item>
    <item>
      <title>周末随笔</title>
      <link>https://blog.example.com/posts/weekend</link>
      <description>生活琐事</description>
    </item>
    <item>
      <title>no link, dropped</title>
      <link></link>
    </item>
  </channel>
</rss>`

func newTestSource(t *testing.T, feeds map[string]string) *Source {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(config.ArticleFeedConfig{Feeds: feeds}, 5*time.Second, logger)
}

func newFeedServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchForCreator_MappedFeed(t *testing.T) {
	srv := newFeedServer(t, feedXML, http.StatusOK)
	s := newTestSource(t, map[string]string{"tech-weekly": srv.URL})

	items, err := s.FetchForCreator(context.Background(), "tech-weekly", 10)

	require.NoError(t, err)
	require.Len(t, items, 2)

	item := items[0]
	assert.Equal(t, "https://blog.example.com/posts/ai-compilers", item.SourceURL)
	assert.Equal(t, "AI 编译器的现状", item.Title)
	assert.Equal(t, "一篇关于 AI 编译器的长文", item.Description)
	assert.Equal(t, "Tech Weekly", item.CreatorDisplayName)
	assert.Equal(t, domain.ContentTypeArticle, item.ContentType)
	assert.Equal(t, time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC), item.PublishedAt.UTC())
	assert.Contains(t, item.Tags, "AI")
}

func TestFetchForCreator_UnmappedIDTreatedAsURL(t *testing.T) {
	srv := newFeedServer(t, feedXML, http.StatusOK)
	s := newTestSource(t, nil)

	items, err := s.FetchForCreator(context.Background(), srv.URL, 10)

	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestFetchForCreator_NoFeedConfigured(t *testing.T) {
	s := newTestSource(t, nil)

	_, err := s.FetchForCreator(context.Background(), "nobody", 10)

	require.Error(t, err)
	assert.Equal(t, domain.ErrNotFound, domain.ErrorKindOf(err))
}

func TestFetchForCreator_HTTPStatusClassified(t *testing.T) {
	srv := newFeedServer(t, "", http.StatusNotFound)
	s := newTestSource(t, map[string]string{"gone": srv.URL})

	_, err := s.FetchForCreator(context.Background(), "gone", 10)

	require.Error(t, err)
	assert.Equal(t, domain.ErrNotFound, domain.ErrorKindOf(err))
}

func TestFetchForCreator_MalformedFeed(t *testing.T) {
	srv := newFeedServer(t, "this is not a feed", http.StatusOK)
	s := newTestSource(t, map[string]string{"broken": srv.URL})

	_, err := s.FetchForCreator(context.Background(), "broken", 10)

	require.Error(t, err)
	assert.Equal(t, domain.ErrMalformed, domain.ErrorKindOf(err))
}

func TestSearch_FiltersClientSide(t *testing.T) {
	srv := newFeedServer(t, feedXML, http.StatusOK)
	s := newTestSource(t, map[string]string{"tech-weekly": srv.URL})

	items, err := s.Search(context.Background(), "编译器", 10)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "AI 编译器的现状", items[0].Title)
}

func TestSearch_BrokenFeedSkipped(t *testing.T) {
	good := newFeedServer(t, feedXML, http.StatusOK)
	bad := newFeedServer(t, "", http.StatusInternalServerError)
	s := newTestSource(t, map[string]string{
		"good": good.URL,
		"bad":  bad.URL,
	})

	items, err := s.Search(context.Background(), "编译器", 10)

	require.NoError(t, err)
	assert.Len(t, items, 1)
}
