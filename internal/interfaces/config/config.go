package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/samber/lo"
)

type Config struct {
	FeedURLs  []string `envconfig:"FEED_URLS"`
	FeedsFile string   `envconfig:"FEEDS_FILE"`

	UpdateIntervalMS  int `envconfig:"UPDATE_INTERVAL_MS" default:"5000"`
	UpdateConcurrency int `envconfig:"UPDATE_CONCURRENCY" default:"0"`

	ProxyURL     string  `envconfig:"PROXY_URL"`
	FetchTimeout int     `envconfig:"FETCH_TIMEOUT" default:"10"`
	FetchRate    float64 `envconfig:"FETCH_RATE" default:"0"`
	FetchBurst   int     `envconfig:"FETCH_BURST" default:"1"`

	StorePath   string `envconfig:"STORE_PATH"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// feedsFile is the layout of FEEDS_FILE:
//
//	[[feeds]]
//	url = "https://example.com/rss"
type feedsFile struct {
	Feeds []feedEntry `toml:"feeds"`
}

type feedEntry struct {
	URL string `toml:"url"`
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if numbered := loadFeedURLs(); len(numbered) > 0 {
		cfg.FeedURLs = numbered
	}

	if cfg.FeedsFile != "" {
		fromFile, err := loadFeedsFile(cfg.FeedsFile)
		if err != nil {
			return nil, err
		}
		cfg.FeedURLs = append(cfg.FeedURLs, fromFile...)
	}

	cfg.FeedURLs = lo.Uniq(lo.Compact(lo.Map(cfg.FeedURLs, func(u string, _ int) string {
		return strings.TrimSpace(u)
	})))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadFeedURLs reads FEED_URL_1, FEED_URL_2, ... up to the first gap.
func loadFeedURLs() []string {
	var urls []string

	for i := 1; ; i++ {
		url := os.Getenv(fmt.Sprintf("FEED_URL_%d", i))
		if url == "" {
			break
		}
		urls = append(urls, url)
	}

	return urls
}

func loadFeedsFile(path string) ([]string, error) {
	var f feedsFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("failed to read feeds file %s: %w", path, err)
	}
	return lo.Map(f.Feeds, func(feed feedEntry, _ int) string { return feed.URL }), nil
}

func (c *Config) validate() error {
	if c.UpdateIntervalMS <= 0 {
		return fmt.Errorf("UPDATE_INTERVAL_MS must be positive, got %d", c.UpdateIntervalMS)
	}
	if c.UpdateConcurrency < 0 {
		return fmt.Errorf("UPDATE_CONCURRENCY must not be negative, got %d", c.UpdateConcurrency)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %d", c.FetchTimeout)
	}
	if c.FetchRate < 0 {
		return fmt.Errorf("FETCH_RATE must not be negative, got %v", c.FetchRate)
	}
	return nil
}

func (c *Config) GetUpdateInterval() time.Duration {
	return time.Duration(c.UpdateIntervalMS) * time.Millisecond
}

func (c *Config) GetFetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}
