package microblog

import (
	"context"
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

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(config.EndpointConfig{BaseURL: srv.URL}, 5*time.Second, logger)
}

func TestFetchForCreator(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/container/getIndex", r.URL.Path)
		assert.Equal(t, "uid", r.URL.Query().Get("type"))
		assert.Equal(t, "999", r.URL.Query().Get("value"))
		assert.Equal(t, "107603999", r.URL.Query().Get("containerid"))

		w.Write([]byte(`{
			"ok": 1,
			"data": {"cards": [
				{"card_type": 9, "mblog": {
					"id": "5001",
					"text": "今天聊聊<a href=\"/t\">人工智能</a>的新进展",
					"created_at": "5分钟前",
					"reposts_count": 1200,
					"comments_count": 300,
					"attitudes_count": 4000,
					"user": {"id": 999, "screen_name": "tech_blogger"},
					"pic_urls": [{"thumbnail_pic": "https://img.example/t.jpg"}]
				}},
				{"card_type": 1}
			]}
		}`))
	})

	items, err := s.FetchForCreator(context.Background(), "999", 10)

	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "https://m.weibo.cn/status/5001", item.SourceURL)
	assert.Equal(t, "今天聊聊人工智能的新进展", item.Title)
	assert.Equal(t, domain.ContentTypePost, item.ContentType)
	assert.Equal(t, "tech_blogger", item.CreatorDisplayName)
	assert.Equal(t, "https://img.example/t.jpg", item.ThumbnailURL)
	assert.Equal(t, int64(1200), item.ViewCount)
	assert.Contains(t, item.Tags, "AI")
	// Engagement over 1000 plus an AI mention on a base of five.
	assert.Equal(t, 8, item.Priority)
	assert.WithinDuration(t, time.Now().Add(-5*time.Minute), item.PublishedAt, 10*time.Second)
}

func TestFetchForCreator_NotOkYieldsEmpty(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": 0}`))
	})

	items, err := s.FetchForCreator(context.Background(), "999", 10)

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchForCreator_RespectsLimit(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"ok": 1,
			"data": {"cards": [
				{"mblog": {"id": "1", "text": "第一条内容"}},
				{"mblog": {"id": "2", "text": "第二条内容"}},
				{"mblog": {"id": "3", "text": "第三条内容"}}
			]}
		}`))
	})

	items, err := s.FetchForCreator(context.Background(), "999", 2)

	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSearch_FlattensCardGroups(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("containerid"), "100103type=1&q=AI")
		assert.Equal(t, "searchall", r.URL.Query().Get("page_type"))

		w.Write([]byte(`{
			"ok": 1,
			"data": {"cards": [
				{"card_type": 11, "card_group": [
					{"mblog": {"id": "6001", "text": "AI 领域新动态"}},
					{"mblog": {"id": "6002", "text": "再来一条分享"}}
				]},
				{"card_type": 9, "mblog": {"id": "6003", "text": "顶层卡片内容"}}
			]}
		}`))
	})

	items, err := s.Search(context.Background(), "AI", 10)

	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "https://m.weibo.cn/status/6001", items[0].SourceURL)
	assert.Equal(t, "https://m.weibo.cn/status/6003", items[2].SourceURL)
}

func TestFetchForCreator_HTTPError(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := s.FetchForCreator(context.Background(), "999", 10)

	require.Error(t, err)
	assert.Equal(t, domain.ErrTransient, domain.ErrorKindOf(err))
}

func TestReadMinutes(t *testing.T) {
	assert.Equal(t, 1, readMinutes("短文本"))
	assert.Equal(t, 2, readMinutes(string(make([]rune, 501))))
}
