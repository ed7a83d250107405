package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"rssreader/internal/application"
	"rssreader/internal/domain/entity"
	"rssreader/internal/infrastructure/rss"
	"rssreader/internal/infrastructure/storage"
	"rssreader/internal/interfaces/config"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<title>Test Feed</title>
		<description>A test RSS feed</description>
		<item>
			<title>Article 1</title>
			<link>https://example.com/article1</link>
			<description>&lt;p&gt;Description 1&lt;/p&gt;</description>
			<guid>guid-1</guid>
		</item>
		<item>
			<title>Article 2</title>
			<link>https://example.com/article2</link>
			<guid>guid-2</guid>
		</item>
	</channel>
</rss>`

func newFeedServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Path != "/feed" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(ctx context.Context, args ...string) (string, error) {
	app := RootApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.RunContext(ctx, append([]string{"rssreader"}, args...))
	return out.String(), err
}

func TestCommands_SubscribeListRead(t *testing.T) {
	t.Setenv("STORE_PATH", filepath.Join(t.TempDir(), "reader.db"))
	feedURL := newFeedServer(t, nil).URL + "/feed"
	ctx := context.Background()

	out, err := run(ctx, "add", feedURL)
	require.NoError(t, err)
	assert.Contains(t, out, "Added Test Feed (2 posts)")

	_, err = run(ctx, "add", feedURL)
	assert.ErrorContains(t, err, application.ErrDuplicate.Error())

	out, err = run(ctx, "feeds")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Feed")
	assert.Contains(t, out, feedURL)

	id := entity.PostID(feedURL, "guid-1")

	out, err = run(ctx, "posts", "--feed", feedURL)
	require.NoError(t, err)
	assert.Contains(t, out, "  "+id+"  Article 1")
	assert.Contains(t, out, "Article 2")

	out, err = run(ctx, "read", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Article 1\nhttps://example.com/article1")
	assert.Contains(t, out, "Description 1")

	out, err = run(ctx, "posts")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+id)

	_, err = run(ctx, "read", "missing")
	assert.ErrorContains(t, err, entity.ErrPostNotFound.Error())
}

func TestCommands_Usage(t *testing.T) {
	ctx := context.Background()

	for _, args := range [][]string{{"add"}, {"check"}, {"read"}, {"add", "a", "b"}} {
		_, err := run(ctx, args...)
		var exit cli.ExitCoder
		require.ErrorAs(t, err, &exit, "%v", args)
		assert.Equal(t, 2, exit.ExitCode())
	}
}

func TestCheckCommand(t *testing.T) {
	srv := newFeedServer(t, nil)
	ctx := context.Background()

	out, err := run(ctx, "check", srv.URL+"/feed")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Feed\nA test RSS feed")
	assert.Contains(t, out, "Article 2")

	_, err = run(ctx, "check", srv.URL+"/missing")
	assert.ErrorContains(t, err, entity.ErrUnknown.Error())
}

func TestSubscribeConfigured(t *testing.T) {
	feedURL := newFeedServer(t, nil).URL + "/feed"
	broken := "http://127.0.0.1:1/feed"

	store := storage.NewMemoryStore()
	source := rss.NewFeedSource(rss.Config{Timeout: time.Second})
	d := &deps{
		cfg:     &config.Config{FeedURLs: []string{feedURL, broken}},
		store:   store,
		source:  source,
		service: application.NewReaderService(source, store, store),
	}
	ctx := context.Background()

	tracked, err := subscribeConfigured(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, []entity.TrackedFeed{{URL: feedURL}, {URL: broken}}, tracked)

	feeds, err := store.Feeds(ctx)
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, feedURL, feeds[0].URL)

	tracked, err = subscribeConfigured(ctx, d)
	require.NoError(t, err)
	assert.Len(t, tracked, 2)
}

func TestSubscribeConfigured_FeedRecoversLater(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(testFeed))
	}))
	t.Cleanup(srv.Close)

	store := storage.NewMemoryStore()
	source := rss.NewFeedSource(rss.Config{Timeout: time.Second})
	d := &deps{
		cfg:     &config.Config{FeedURLs: []string{srv.URL}},
		store:   store,
		source:  source,
		service: application.NewReaderService(source, store, store),
	}
	ctx := context.Background()

	tracked, err := subscribeConfigured(ctx, d)
	require.NoError(t, err)

	updater := application.NewFeedUpdater(d.service, application.UpdaterConfig{})
	updater.SetFeeds(tracked)
	failing.Store(false)

	results, ran := updater.ForceUpdate(ctx)
	require.True(t, ran)
	require.Len(t, results, 1)
	assert.Len(t, results[0].NewPosts, 2)

	out, err := d.service.Feeds(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Test Feed", out[0].Title)

	all, err := d.service.Posts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNewDeps_WarnsWithoutStorePath(t *testing.T) {
	hook := test.NewGlobal()
	t.Cleanup(hook.Reset)

	d, err := newDeps()
	require.NoError(t, err)
	d.Close()

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == log.WarnLevel && strings.Contains(e.Message, "STORE_PATH") {
			warned = true
		}
	}
	assert.True(t, warned)

	hook.Reset()
	t.Setenv("STORE_PATH", filepath.Join(t.TempDir(), "reader.db"))
	d, err = newDeps()
	require.NoError(t, err)
	d.Close()
	for _, e := range hook.AllEntries() {
		assert.NotContains(t, e.Message, "STORE_PATH")
	}
}

func TestWatchCommand_PollsUntilCancelled(t *testing.T) {
	var hits atomic.Int32
	srv := newFeedServer(t, &hits)
	t.Setenv("FEED_URL_1", srv.URL+"/feed")
	t.Setenv("UPDATE_INTERVAL_MS", "20")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := run(ctx, "watch")
	require.NoError(t, err)

	// one fetch to subscribe plus at least one tick
	assert.GreaterOrEqual(t, hits.Load(), int32(2))
}
