package repository

import (
	"context"

	"rssreader/internal/domain/entity"
)

type PostStore interface {
	PostsForFeed(ctx context.Context, feedURL string) ([]*entity.Post, error)
	// AppendPosts stores posts whose IDs are not stored yet and ignores the rest.
	AppendPosts(ctx context.Context, posts []*entity.Post) error
	Post(ctx context.Context, id string) (*entity.Post, error)
	MarkRead(ctx context.Context, id string) error
	IsRead(ctx context.Context, id string) (bool, error)
}

type FeedStore interface {
	AddFeed(ctx context.Context, feed *entity.Feed) error
	Feeds(ctx context.Context) ([]*entity.Feed, error)
}

// Store is implemented by every storage backend.
type Store interface {
	PostStore
	FeedStore
	Close() error
}
