package cmd

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"rssreader/internal/domain/entity"
	"rssreader/internal/infrastructure/html"
)

const previewChars = 280

func postsCmd() *cli.Command {
	return &cli.Command{
		Name:  "posts",
		Usage: "List stored posts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "feed",
				Usage: "Only list posts of this feed URL",
			},
		},
		Action: func(ctx *cli.Context) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			defer d.Close()

			posts, err := d.service.Posts(ctx.Context, ctx.String("feed"))
			if err != nil {
				return err
			}

			printPosts(ctx.App.Writer, posts, func(p *entity.Post) bool {
				read, err := d.service.IsRead(ctx.Context, p.ID)
				if err != nil {
					log.WithError(err).WithField("post", p.ID).Warn("Failed to load read state")
				}
				return read
			})
			return nil
		},
	}
}

func readCmd() *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "Show a post and mark it as read",
		ArgsUsage: "ID",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "full",
				Usage: "Fetch the linked article and print its text",
			},
		},
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return cli.Exit("read expects exactly one post ID", 2)
			}

			d, err := newDeps()
			if err != nil {
				return err
			}
			defer d.Close()

			post, err := d.service.ReadPost(ctx.Context, ctx.Args().First())
			if errors.Is(err, entity.ErrPostNotFound) {
				return cli.Exit(err, 1)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(ctx.App.Writer, "%s\n%s\n\n", post.Title, post.Link)

			if !ctx.Bool("full") {
				fmt.Fprintln(ctx.App.Writer, html.PreviewText(post.Description, previewChars))
				return nil
			}

			text, err := html.FetchArticleText(ctx.Context, post.Link, d.cfg.GetFetchTimeout())
			if err != nil {
				log.WithError(err).WithField("link", post.Link).Warn("Failed to fetch article, showing description")
				text = html.PreviewText(post.Description, 0)
			}
			fmt.Fprintln(ctx.App.Writer, text)
			return nil
		},
	}
}
