package cmd

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"rssreader/internal/domain/entity"
)

func addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Subscribe to a feed",
		ArgsUsage: "URL",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return cli.Exit("add expects exactly one feed URL", 2)
			}

			d, err := newDeps()
			if err != nil {
				return err
			}
			defer d.Close()

			feed, posts, err := d.service.AddFeed(ctx.Context, ctx.Args().First())
			if err != nil {
				return cli.Exit(err, 1)
			}

			fmt.Fprintf(ctx.App.Writer, "Added %s (%d posts)\n", feed.Title, len(posts))
			return nil
		},
	}
}

func feedsCmd() *cli.Command {
	return &cli.Command{
		Name:  "feeds",
		Usage: "List subscribed feeds",
		Action: func(ctx *cli.Context) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			defer d.Close()

			feeds, err := d.service.Feeds(ctx.Context)
			if err != nil {
				return err
			}

			if len(feeds) == 0 {
				fmt.Fprintln(ctx.App.Writer, "No feeds")
				return nil
			}
			for _, f := range feeds {
				fmt.Fprintf(ctx.App.Writer, "%s\n  %s\n  %s\n", f.Title, f.Description, f.URL)
			}
			return nil
		},
	}
}

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Fetch a feed once and print its posts without subscribing",
		ArgsUsage: "URL",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return cli.Exit("check expects exactly one feed URL", 2)
			}

			d, err := newDeps()
			if err != nil {
				return err
			}
			defer d.Close()

			res, err := d.source.Fetch(ctx.Context, ctx.Args().First())
			if err != nil {
				return cli.Exit(err, 1)
			}

			fmt.Fprintf(ctx.App.Writer, "%s\n%s\n\n", res.Feed.Title, res.Feed.Description)
			printPosts(ctx.App.Writer, res.Posts, nil)
			return nil
		},
	}
}

func printPosts(w io.Writer, posts []*entity.Post, isRead func(*entity.Post) bool) {
	for _, p := range posts {
		marker := " "
		if isRead != nil && isRead(p) {
			marker = "✓"
		}
		fmt.Fprintf(w, "%s %s  %s\n    %s\n", marker, p.ID, p.Title, p.Link)
	}
}
