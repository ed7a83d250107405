package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"rssreader/internal/application"
	"rssreader/internal/domain/entity"
	"rssreader/internal/infrastructure/metrics"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Poll every configured and subscribed feed for new posts until interrupted",
		Action: func(ctx *cli.Context) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			defer d.Close()

			runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			updater := application.NewFeedUpdater(d.service, application.UpdaterConfig{
				Interval:    d.cfg.GetUpdateInterval(),
				Concurrency: d.cfg.UpdateConcurrency,
				Reporter:    metrics.NewReporter(reg),
			})

			d.service.OnNewPosts(func(feedURL string, posts []*entity.Post) {
				for _, p := range posts {
					fmt.Fprintf(ctx.App.Writer, "[%s] %s\n    %s\n", feedURL, p.Title, p.Link)
				}
			})

			feeds, err := subscribeConfigured(runCtx, d)
			if err != nil {
				return err
			}
			updater.SetFeeds(feeds)
			d.service.AttachUpdater(updater)

			if d.cfg.MetricsAddr != "" {
				srv := serveMetrics(d.cfg.MetricsAddr, reg)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			log.WithFields(log.Fields{
				"feeds":    len(feeds),
				"interval": updater.Interval(),
			}).Info("Watching feeds")

			updater.Start(runCtx)
			<-runCtx.Done()
			updater.Stop()

			log.Info("Shutting down...")
			return nil
		},
	}
}

// subscribeConfigured stores configured feeds that are not subscribed yet and
// returns the full tracked set. A configured feed that fails to load is still
// tracked so later ticks can pick it up.
func subscribeConfigured(ctx context.Context, d *deps) ([]entity.TrackedFeed, error) {
	stored, err := d.service.TrackedFeeds(ctx)
	if err != nil {
		return nil, err
	}
	known := lo.Map(stored, func(f entity.TrackedFeed, _ int) string { return f.URL })

	for _, url := range d.cfg.FeedURLs {
		if lo.Contains(known, url) {
			continue
		}
		if _, _, err := d.service.AddFeed(ctx, url); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"feed": url,
				"kind": entity.ErrorKind(err),
			}).Warn("Failed to subscribe to configured feed")
		}
	}

	urls := lo.Uniq(append(known, d.cfg.FeedURLs...))
	return lo.Map(urls, func(url string, _ int) entity.TrackedFeed {
		return entity.TrackedFeed{URL: url}
	}), nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.WithField("addr", addr).Info("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server failed")
		}
	}()
	return srv
}
