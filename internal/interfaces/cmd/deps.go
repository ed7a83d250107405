package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"

	"rssreader/internal/application"
	"rssreader/internal/domain/repository"
	"rssreader/internal/infrastructure/logging"
	"rssreader/internal/infrastructure/rss"
	"rssreader/internal/infrastructure/storage"
	"rssreader/internal/interfaces/config"
)

// deps is everything a command needs, built from the configuration.
type deps struct {
	cfg     *config.Config
	store   repository.Store
	source  repository.FeedSource
	service *application.ReaderService
}

func newDeps() (*deps, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if err := logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}

	var store repository.Store
	if cfg.StorePath != "" {
		store, err = storage.NewSQLiteStore(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		log.WithField("path", cfg.StorePath).Debug("Using SQLite store")
	} else {
		store = storage.NewMemoryStore()
		log.Warn("STORE_PATH is not set, feeds and read state are lost when the process exits")
	}

	source := rss.NewFeedSource(rss.Config{
		ProxyURL:  cfg.ProxyURL,
		Timeout:   cfg.GetFetchTimeout(),
		RateLimit: cfg.FetchRate,
		Burst:     cfg.FetchBurst,
	})

	return &deps{
		cfg:     cfg,
		store:   store,
		source:  source,
		service: application.NewReaderService(source, store, store),
	}, nil
}

func (d *deps) Close() {
	if err := d.store.Close(); err != nil {
		log.WithError(err).Warn("Failed to close store")
	}
}
