package storage

import (
	"context"
	"sync"

	"rssreader/internal/domain/entity"
	"rssreader/internal/domain/repository"
)

type memoryStore struct {
	mu        sync.RWMutex
	feeds     []*entity.Feed
	feedIndex map[string]struct{}
	posts     map[string][]*entity.Post
	postIndex map[string]*entity.Post
	readPosts map[string]bool
}

func NewMemoryStore() repository.Store {
	return &memoryStore{
		feedIndex: make(map[string]struct{}),
		posts:     make(map[string][]*entity.Post),
		postIndex: make(map[string]*entity.Post),
		readPosts: make(map[string]bool),
	}
}

func (s *memoryStore) AddFeed(ctx context.Context, feed *entity.Feed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.feedIndex[feed.URL]; ok {
		return entity.ErrFeedExists
	}
	cp := *feed
	s.feeds = append(s.feeds, &cp)
	s.feedIndex[feed.URL] = struct{}{}
	return nil
}

func (s *memoryStore) Feeds(ctx context.Context) ([]*entity.Feed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	feeds := make([]*entity.Feed, 0, len(s.feeds))
	for _, f := range s.feeds {
		cp := *f
		feeds = append(feeds, &cp)
	}
	return feeds, nil
}

func (s *memoryStore) PostsForFeed(ctx context.Context, feedURL string) ([]*entity.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.posts[feedURL]
	posts := make([]*entity.Post, len(stored))
	copy(posts, stored)
	return posts, nil
}

func (s *memoryStore) AppendPosts(ctx context.Context, posts []*entity.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range posts {
		if _, ok := s.postIndex[p.ID]; ok {
			continue
		}
		cp := *p
		s.postIndex[p.ID] = &cp
		s.posts[p.FeedID] = append(s.posts[p.FeedID], &cp)
	}
	return nil
}

func (s *memoryStore) Post(ctx context.Context, id string) (*entity.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.postIndex[id]
	if !ok {
		return nil, entity.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memoryStore) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.postIndex[id]; !ok {
		return entity.ErrPostNotFound
	}
	s.readPosts[id] = true
	return nil
}

func (s *memoryStore) IsRead(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readPosts[id], nil
}

func (s *memoryStore) Close() error {
	return nil
}
