package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rssreader/internal/domain/entity"
)

// Reporter records scheduler activity as Prometheus metrics.
type Reporter struct {
	ticks        *prometheus.CounterVec
	tickDuration prometheus.Histogram
	newPosts     *prometheus.CounterVec
	feedErrors   *prometheus.CounterVec
}

func NewReporter(reg prometheus.Registerer) *Reporter {
	factory := promauto.With(reg)
	return &Reporter{
		ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rssreader_ticks_total",
			Help: "Scheduler ticks by outcome (run or skipped)",
		}, []string{"outcome"}),
		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rssreader_tick_duration_seconds",
			Help:    "Time taken to check every tracked feed in one tick",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		newPosts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rssreader_new_posts_total",
			Help: "New posts discovered per feed",
		}, []string{"feed"}),
		feedErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rssreader_feed_errors_total",
			Help: "Failed feed checks by error kind",
		}, []string{"kind"}),
	}
}

func (r *Reporter) TickSkipped() {
	r.ticks.WithLabelValues("skipped").Inc()
}

func (r *Reporter) TickCompleted(d time.Duration) {
	r.ticks.WithLabelValues("run").Inc()
	r.tickDuration.Observe(d.Seconds())
}

func (r *Reporter) FeedUpdated(feedURL string, newPosts int) {
	r.newPosts.WithLabelValues(feedURL).Add(float64(newPosts))
}

func (r *Reporter) FeedFailed(feedURL string, err error) {
	r.feedErrors.WithLabelValues(entity.ErrorKind(err)).Inc()
}
