package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"rssreader/internal/domain/entity"
	"rssreader/internal/domain/repository"
)

// ReaderService ties feed subscription, update handling and read state
// together over the stores.
type ReaderService struct {
	source    repository.FeedSource
	postStore repository.PostStore
	feedStore repository.FeedStore
	checker   *UpdateChecker
	updater   *FeedUpdater
	notify    func(feedURL string, posts []*entity.Post)
	now       func() time.Time
}

func NewReaderService(
	source repository.FeedSource,
	postStore repository.PostStore,
	feedStore repository.FeedStore,
) *ReaderService {
	return &ReaderService{
		source:    source,
		postStore: postStore,
		feedStore: feedStore,
		checker:   NewUpdateChecker(source),
		now:       time.Now,
	}
}

// AttachUpdater makes AddFeed register new feeds with u.
func (s *ReaderService) AttachUpdater(u *FeedUpdater) {
	s.updater = u
}

// OnNewPosts sets a callback invoked after new posts of a feed are stored.
func (s *ReaderService) OnNewPosts(fn func(feedURL string, posts []*entity.Post)) {
	s.notify = fn
}

func (s *ReaderService) AddFeed(ctx context.Context, rawURL string) (*entity.Feed, []*entity.Post, error) {
	feedURL := strings.TrimSpace(rawURL)

	feeds, err := s.feedStore.Feeds(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	existing := lo.Map(feeds, func(f *entity.Feed, _ int) string { return f.URL })
	if err := ValidateURL(feedURL, existing); err != nil {
		return nil, nil, err
	}

	res, err := s.source.Fetch(ctx, feedURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load feed [%s]: %w", feedURL, err)
	}

	feed := entity.NewFeed(feedURL, res.Feed.Title, res.Feed.Description, s.now())
	posts := lo.Map(res.Posts, func(p *entity.Post, _ int) *entity.Post { return p.WithFeed(feedURL) })

	// Posts first: a feed row without its posts would block a retry as a duplicate.
	if err := s.postStore.AppendPosts(ctx, posts); err != nil {
		return nil, nil, fmt.Errorf("failed to save posts: %w", err)
	}
	if err := s.feedStore.AddFeed(ctx, feed); err != nil {
		if errors.Is(err, entity.ErrFeedExists) {
			return nil, nil, ErrDuplicate
		}
		return nil, nil, fmt.Errorf("failed to save feed: %w", err)
	}

	if s.updater != nil {
		s.updater.AddFeed(entity.TrackedFeed{URL: feedURL})
	}

	log.WithFields(log.Fields{"feed": feedURL, "posts": len(posts)}).Info("Feed added")
	return feed, posts, nil
}

// HandleUpdate checks one feed for new posts and stores them. It is the
// UpdateHandler used by FeedUpdater.
func (s *ReaderService) HandleUpdate(ctx context.Context, feedURL string) (entity.UpdateResult, error) {
	known, err := s.postStore.PostsForFeed(ctx, feedURL)
	if err != nil {
		return entity.UpdateResult{}, fmt.Errorf("failed to load known posts [%s]: %w", feedURL, err)
	}

	res := s.checker.Check(ctx, feedURL, known)
	if res.Feed != nil {
		if err := s.ensureFeed(ctx, feedURL, res.Feed); err != nil {
			return res, err
		}
	}
	if len(res.NewPosts) == 0 {
		return res, nil
	}

	if err := s.postStore.AppendPosts(ctx, res.NewPosts); err != nil {
		return res, fmt.Errorf("failed to store new posts [%s]: %w", feedURL, err)
	}

	if s.notify != nil {
		s.notify(feedURL, res.NewPosts)
	}
	return res, nil
}

// ensureFeed stores a polled feed that was never subscribed, e.g. a configured
// feed whose first load failed.
func (s *ReaderService) ensureFeed(ctx context.Context, feedURL string, fetched *entity.Feed) error {
	feeds, err := s.feedStore.Feeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list feeds: %w", err)
	}
	if lo.ContainsBy(feeds, func(f *entity.Feed) bool { return f.URL == feedURL }) {
		return nil
	}

	feed := entity.NewFeed(feedURL, fetched.Title, fetched.Description, s.now())
	if err := s.feedStore.AddFeed(ctx, feed); err != nil && !errors.Is(err, entity.ErrFeedExists) {
		return fmt.Errorf("failed to save feed [%s]: %w", feedURL, err)
	}

	log.WithField("feed", feedURL).Info("Feed subscribed after first successful update")
	return nil
}

func (s *ReaderService) Feeds(ctx context.Context) ([]*entity.Feed, error) {
	return s.feedStore.Feeds(ctx)
}

func (s *ReaderService) TrackedFeeds(ctx context.Context) ([]entity.TrackedFeed, error) {
	feeds, err := s.feedStore.Feeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	return entity.TrackedFeedsFrom(feeds), nil
}

// Posts lists the posts of feedURL, or of every stored feed when feedURL is empty.
func (s *ReaderService) Posts(ctx context.Context, feedURL string) ([]*entity.Post, error) {
	if feedURL != "" {
		return s.postStore.PostsForFeed(ctx, feedURL)
	}

	feeds, err := s.feedStore.Feeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}

	var all []*entity.Post
	for _, f := range feeds {
		posts, err := s.postStore.PostsForFeed(ctx, f.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to list posts [%s]: %w", f.URL, err)
		}
		all = append(all, posts...)
	}
	return all, nil
}

// ReadPost marks a post as read and returns it.
func (s *ReaderService) ReadPost(ctx context.Context, id string) (*entity.Post, error) {
	post, err := s.postStore.Post(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.postStore.MarkRead(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to mark post as read: %w", err)
	}
	return post, nil
}

func (s *ReaderService) IsRead(ctx context.Context, id string) (bool, error) {
	return s.postStore.IsRead(ctx, id)
}
