package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"rssreader/internal/domain/entity"
	"rssreader/internal/domain/repository"

	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sqlx.DB
}

type feedRow struct {
	URL         string `db:"url"`
	Title       string `db:"title"`
	Description string `db:"description"`
	AddedAt     int64  `db:"added_at"`
}

type postRow struct {
	ID          string `db:"id"`
	FeedURL     string `db:"feed_url"`
	Title       string `db:"title"`
	Link        string `db:"link"`
	Description string `db:"description"`
	PublishedAt int64  `db:"published_at"`
}

func NewSQLiteStore(dbPath string) (repository.Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	store := &sqliteStore{db: db}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *sqliteStore) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS feeds (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			added_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			feed_url TEXT NOT NULL,
			title TEXT NOT NULL,
			link TEXT NOT NULL,
			description TEXT NOT NULL,
			published_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_feed_url ON posts(feed_url)`,
		`CREATE TABLE IF NOT EXISTS read_posts (
			post_id TEXT PRIMARY KEY,
			read_at INTEGER NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

func (s *sqliteStore) AddFeed(ctx context.Context, feed *entity.Feed) error {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO feeds (url, title, description, added_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING`,
		feed.URL,
		feed.Title,
		feed.Description,
		feed.AddedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to add feed: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return entity.ErrFeedExists
	}

	return nil
}

func (s *sqliteStore) Feeds(ctx context.Context) ([]*entity.Feed, error) {
	var rows []feedRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT url, title, description, added_at FROM feeds ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}

	feeds := make([]*entity.Feed, 0, len(rows))
	for _, r := range rows {
		feeds = append(feeds, entity.NewFeed(r.URL, r.Title, r.Description, time.Unix(r.AddedAt, 0)))
	}
	return feeds, nil
}

func (s *sqliteStore) PostsForFeed(ctx context.Context, feedURL string) ([]*entity.Post, error) {
	var rows []postRow
	err := s.db.SelectContext(
		ctx,
		&rows,
		"SELECT id, feed_url, title, link, description, published_at FROM posts WHERE feed_url = ? ORDER BY seq",
		feedURL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	posts := make([]*entity.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.toEntity())
	}
	return posts, nil
}

func (s *sqliteStore) AppendPosts(ctx context.Context, posts []*entity.Post) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range posts {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO posts (id, feed_url, title, link, description, published_at) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			p.ID,
			p.FeedID,
			p.Title,
			p.Link,
			p.Description,
			unixOrZero(p.Published),
		)
		if err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit posts: %w", err)
	}
	return nil
}

func (s *sqliteStore) Post(ctx context.Context, id string) (*entity.Post, error) {
	var row postRow
	err := s.db.GetContext(
		ctx,
		&row,
		"SELECT id, feed_url, title, link, description, published_at FROM posts WHERE id = ?",
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return row.toEntity(), nil
}

func (s *sqliteStore) MarkRead(ctx context.Context, id string) error {
	if _, err := s.Post(ctx, id); err != nil {
		return err
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO read_posts (post_id, read_at) VALUES (?, ?)
		ON CONFLICT(post_id) DO NOTHING`,
		id,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark as read: %w", err)
	}

	return nil
}

func (s *sqliteStore) IsRead(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.GetContext(ctx, &exists, "SELECT 1 FROM read_posts WHERE post_id = ?", id)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check if read: %w", err)
	}

	return true, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (r postRow) toEntity() *entity.Post {
	var published time.Time
	if r.PublishedAt != 0 {
		published = time.Unix(r.PublishedAt, 0)
	}
	return &entity.Post{
		ID:          r.ID,
		FeedID:      r.FeedURL,
		Title:       r.Title,
		Link:        r.Link,
		Description: r.Description,
		Published:   published,
	}
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
