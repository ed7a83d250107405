package rss

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"rssreader/internal/domain/entity"
)

const (
	DefaultFeedTitle       = "Untitled feed"
	DefaultFeedDescription = "No description"
	DefaultPostTitle       = "Untitled"
	DefaultPostLink        = "#"
)

var (
	stripPolicy = bluemonday.StrictPolicy()
	ugcPolicy   = bluemonday.UGCPolicy()
)

func parseFeed(feedURL, content string) (*entity.FeedResult, error) {
	// gofeed parsers keep per-document state, so each fetch gets its own.
	feed, err := gofeed.NewParser().ParseString(content)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse feed: %w", entity.ErrRSS, err)
	}

	title := plainText(feed.Title)
	if title == "" {
		title = DefaultFeedTitle
	}
	description := plainText(feed.Description)
	if description == "" {
		description = DefaultFeedDescription
	}

	posts := make([]*entity.Post, 0, len(feed.Items))
	for i, item := range feed.Items {
		posts = append(posts, newPost(feedURL, i, item))
	}

	return &entity.FeedResult{
		Feed:  entity.NewFeed(feedURL, title, description, time.Now()),
		Posts: posts,
	}, nil
}

func newPost(feedURL string, index int, item *gofeed.Item) *entity.Post {
	link := strings.TrimSpace(item.Link)
	key := entity.ItemKey(strings.TrimSpace(item.GUID), link, item.Title, index)

	title := plainText(item.Title)
	if title == "" {
		title = DefaultPostTitle
	}
	if link == "" {
		link = DefaultPostLink
	}

	description := item.Description
	if description == "" {
		description = item.Content
	}

	var published time.Time
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	}

	return entity.NewPost(feedURL, key, title, link, strings.TrimSpace(ugcPolicy.Sanitize(description)), published)
}

// plainText strips markup and entities from a short field such as a title.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}
