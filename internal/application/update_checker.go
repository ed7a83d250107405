package application

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"rssreader/internal/domain/entity"
	"rssreader/internal/domain/repository"
)

// UpdateChecker computes which posts of a feed are not known yet. It never
// writes to a store; persisting the result is up to the caller.
type UpdateChecker struct {
	source repository.FeedSource
}

func NewUpdateChecker(source repository.FeedSource) *UpdateChecker {
	return &UpdateChecker{source: source}
}

// Check fetches feedURL and returns the posts whose IDs are absent from
// knownPosts. Fetch failures are reported in the result, never returned.
func (c *UpdateChecker) Check(ctx context.Context, feedURL string, knownPosts []*entity.Post) entity.UpdateResult {
	res, err := c.source.Fetch(ctx, feedURL)
	if err != nil {
		return entity.NewFailedUpdate(feedURL, err)
	}
	if res == nil {
		return entity.NewFailedUpdate(feedURL, fmt.Errorf("%w: empty fetch result", entity.ErrUnknown))
	}

	known := lo.Associate(knownPosts, func(p *entity.Post) (string, struct{}) {
		return p.ID, struct{}{}
	})

	newPosts := lo.FilterMap(res.Posts, func(p *entity.Post, _ int) (*entity.Post, bool) {
		if _, ok := known[p.ID]; ok {
			return nil, false
		}
		known[p.ID] = struct{}{}
		return p.WithFeed(feedURL), true
	})

	return entity.UpdateResult{
		FeedURL:  feedURL,
		Feed:     res.Feed,
		NewPosts: newPosts,
	}
}
