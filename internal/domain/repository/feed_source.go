package repository

import (
	"context"

	"rssreader/internal/domain/entity"
)

// FeedSource fetches and parses a feed. Failures wrap one of the entity error kinds.
type FeedSource interface {
	Fetch(ctx context.Context, url string) (*entity.FeedResult, error)
}
