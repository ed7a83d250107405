package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rssreader/internal/domain/entity"
)

type fakeFeedSource struct {
	mu      sync.Mutex
	results map[string]*entity.FeedResult
	errs    map[string]error
	calls   map[string]int
}

func newFakeFeedSource() *fakeFeedSource {
	return &fakeFeedSource{
		results: make(map[string]*entity.FeedResult),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (f *fakeFeedSource) setPosts(feedURL string, posts ...*entity.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[feedURL] = &entity.FeedResult{
		Feed:  entity.NewFeed(feedURL, "Feed "+feedURL, "Description", time.Time{}),
		Posts: posts,
	}
	delete(f.errs, feedURL)
}

func (f *fakeFeedSource) setError(feedURL string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[feedURL] = err
}

func (f *fakeFeedSource) callCount(feedURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[feedURL]
}

func (f *fakeFeedSource) Fetch(ctx context.Context, url string) (*entity.FeedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	res, ok := f.results[url]
	if !ok {
		return nil, fmt.Errorf("%w: no such feed", entity.ErrUnknown)
	}
	return res, nil
}

func post(feedURL, guid string) *entity.Post {
	return entity.NewPost(feedURL, guid, "Post "+guid, "https://example.tld/"+guid, "", time.Time{})
}

// fakeClock hands out timers that only fire when the test says so.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) pending() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire runs the oldest pending timer synchronously.
func (c *fakeClock) fire(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	var next *fakeTimer
	for _, tm := range c.timers {
		if !tm.stopped && !tm.fired {
			next = tm
			break
		}
	}
	require.NotNil(t, next, "no pending timer")
	next.fired = true
	c.mu.Unlock()

	next.f()
}

func newTestUpdater(handler UpdateHandler, cfg UpdaterConfig) (*FeedUpdater, *fakeClock) {
	clock := &fakeClock{}
	u := NewFeedUpdater(handler, cfg)
	u.afterFunc = clock.AfterFunc
	return u, clock
}

type recordingReporter struct {
	mu        sync.Mutex
	skipped   int
	completed int
	updated   map[string]int
	failed    map[string]error
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{updated: map[string]int{}, failed: map[string]error{}}
}

func (r *recordingReporter) TickSkipped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped++
}

func (r *recordingReporter) TickCompleted(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

func (r *recordingReporter) FeedUpdated(feedURL string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated[feedURL] += n
}

func (r *recordingReporter) FeedFailed(feedURL string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[feedURL] = err
}
