package application

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"rssreader/internal/domain/entity"
)

const DefaultUpdateInterval = 5 * time.Second

// UpdateHandler is called once per tracked feed on every tick. It is
// expected to persist whatever it finds; a returned error only marks that
// feed as failed for the tick.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, feedURL string) (entity.UpdateResult, error)
}

type UpdateHandlerFunc func(ctx context.Context, feedURL string) (entity.UpdateResult, error)

func (f UpdateHandlerFunc) HandleUpdate(ctx context.Context, feedURL string) (entity.UpdateResult, error) {
	return f(ctx, feedURL)
}

type UpdateReporter interface {
	TickSkipped()
	TickCompleted(d time.Duration)
	FeedUpdated(feedURL string, newPosts int)
	FeedFailed(feedURL string, err error)
}

type nopReporter struct{}

func (nopReporter) TickSkipped()                {}
func (nopReporter) TickCompleted(time.Duration) {}
func (nopReporter) FeedUpdated(string, int)     {}
func (nopReporter) FeedFailed(string, error)    {}

type UpdaterConfig struct {
	Interval time.Duration
	// Concurrency caps simultaneous handler calls within a tick. 0 means no cap.
	Concurrency int
	Reporter    UpdateReporter
}

type timer interface {
	Stop() bool
}

// FeedUpdater polls every tracked feed on a fixed interval. At most one tick
// runs at a time and at most one timer is pending.
type FeedUpdater struct {
	handler     UpdateHandler
	interval    time.Duration
	concurrency int
	reporter    UpdateReporter
	afterFunc   func(time.Duration, func()) timer

	mu       sync.Mutex
	ctx      context.Context
	feeds    []entity.TrackedFeed
	timer    timer
	updating bool
	stopped  bool
}

func NewFeedUpdater(handler UpdateHandler, cfg UpdaterConfig) *FeedUpdater {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultUpdateInterval
	}
	var reporter UpdateReporter = nopReporter{}
	if cfg.Reporter != nil {
		reporter = cfg.Reporter
	}

	return &FeedUpdater{
		handler:     handler,
		interval:    interval,
		concurrency: cfg.Concurrency,
		reporter:    reporter,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
		ctx:     context.Background(),
		stopped: true,
	}
}

func (u *FeedUpdater) Interval() time.Duration {
	return u.interval
}

// SetFeeds replaces the tracked feeds. The change is picked up by the next tick.
func (u *FeedUpdater) SetFeeds(feeds []entity.TrackedFeed) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.feeds = slices.Clone(feeds)
}

func (u *FeedUpdater) AddFeed(feed entity.TrackedFeed) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.feeds = append(u.feeds, feed)
}

func (u *FeedUpdater) Feeds() []entity.TrackedFeed {
	u.mu.Lock()
	defer u.mu.Unlock()
	return slices.Clone(u.feeds)
}

// Start (re)arms the timer so the first tick fires after one interval.
// Ticks stop being scheduled once ctx is done.
func (u *FeedUpdater) Start(ctx context.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.cancelTimerLocked()
	u.ctx = ctx
	u.stopped = false
	u.scheduleLocked()
}

// Stop cancels the pending timer. A tick already in flight completes but
// does not schedule another one.
func (u *FeedUpdater) Stop() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.stopped = true
	u.cancelTimerLocked()
}

// ForceUpdate runs a tick now. It reports false without doing anything if a
// tick is already in flight.
func (u *FeedUpdater) ForceUpdate(ctx context.Context) ([]entity.UpdateResult, bool) {
	u.mu.Lock()
	busy := u.updating
	u.mu.Unlock()
	if busy {
		return nil, false
	}

	return u.performUpdate(ctx, false)
}

func (u *FeedUpdater) scheduleLocked() {
	if u.stopped || u.ctx.Err() != nil {
		return
	}
	u.cancelTimerLocked()

	ctx := u.ctx
	u.timer = u.afterFunc(u.interval, func() {
		u.performUpdate(ctx, true)
	})
}

func (u *FeedUpdater) cancelTimerLocked() {
	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}
}

// performUpdate runs one tick. A scheduled tick whose timer fired while Stop
// was running does nothing.
func (u *FeedUpdater) performUpdate(ctx context.Context, scheduled bool) ([]entity.UpdateResult, bool) {
	if ctx.Err() != nil {
		return nil, false
	}

	u.mu.Lock()
	if scheduled && u.stopped {
		u.mu.Unlock()
		return nil, false
	}
	if u.updating || len(u.feeds) == 0 {
		busy := u.updating
		u.scheduleLocked()
		u.mu.Unlock()

		u.reporter.TickSkipped()
		log.WithField("busy", busy).Debug("Skipping feed update")
		return nil, false
	}
	u.updating = true
	feeds := slices.Clone(u.feeds)
	u.mu.Unlock()

	defer func() {
		u.mu.Lock()
		u.updating = false
		u.scheduleLocked()
		u.mu.Unlock()
	}()

	start := time.Now()
	results := u.checkAll(ctx, feeds)
	u.reporter.TickCompleted(time.Since(start))

	return results, true
}

type outcome struct {
	result   entity.UpdateResult
	rejected error
}

func (u *FeedUpdater) checkAll(ctx context.Context, feeds []entity.TrackedFeed) []entity.UpdateResult {
	outcomes := make([]outcome, len(feeds))

	var g errgroup.Group
	if u.concurrency > 0 {
		g.SetLimit(u.concurrency)
	}
	for i, feed := range feeds {
		i, feed := i, feed
		g.Go(func() error {
			outcomes[i] = u.checkOne(ctx, feed.URL)
			return nil
		})
	}
	_ = g.Wait()

	results := make([]entity.UpdateResult, len(feeds))
	for i, o := range outcomes {
		feedURL := feeds[i].URL
		logger := log.WithField("feed", feedURL)

		switch {
		case o.rejected != nil:
			logger.WithError(o.rejected).Error("Feed update failed")
			u.reporter.FeedFailed(feedURL, o.rejected)
			results[i] = entity.NewFailedUpdate(feedURL, o.rejected)
			continue
		case o.result.Err != nil:
			logger.WithError(o.result.Err).WithField("kind", o.result.ErrorKind()).Warn("Feed check failed")
			u.reporter.FeedFailed(feedURL, o.result.Err)
		case len(o.result.NewPosts) > 0:
			logger.WithField("new_posts", len(o.result.NewPosts)).Info("New posts found")
			u.reporter.FeedUpdated(feedURL, len(o.result.NewPosts))
		}
		results[i] = o.result
	}

	return results
}

func (u *FeedUpdater) checkOne(ctx context.Context, feedURL string) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{rejected: fmt.Errorf("update handler panicked: %v", r)}
		}
	}()

	res, err := u.handler.HandleUpdate(ctx, feedURL)
	if err != nil {
		return outcome{rejected: err}
	}
	if res.FeedURL == "" {
		res.FeedURL = feedURL
	}
	return outcome{result: res}
}
