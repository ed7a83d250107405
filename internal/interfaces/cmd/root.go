package cmd

import (
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "rssreader",
		Usage: "Subscribe to RSS and Atom feeds and watch them for new posts",
		Description: `Feeds are fetched directly or through an allorigins-style proxy
(PROXY_URL). Subscriptions, posts and read state live in memory unless
STORE_PATH points at an SQLite database.

Settings are read from the environment and from a .env file, e.g.:

FEED_URL_1=https://example.com/rss    feeds watched in addition to stored ones
UPDATE_INTERVAL_MS=5000               polling interval
METRICS_ADDR=:9090                    serve Prometheus metrics while watching
`,
		Commands: []*cli.Command{
			addCmd(),
			feedsCmd(),
			checkCmd(),
			postsCmd(),
			readCmd(),
			watchCmd(),
		},
		Action: func(ctx *cli.Context) error {
			return cli.ShowAppHelp(ctx)
		},
	}
}
