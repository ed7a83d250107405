package entity

import "time"

type Feed struct {
	URL         string
	Title       string
	Description string
	AddedAt     time.Time
}

func NewFeed(url, title, description string, addedAt time.Time) *Feed {
	return &Feed{
		URL:         url,
		Title:       title,
		Description: description,
		AddedAt:     addedAt,
	}
}

// FeedResult is what a FeedSource returns for a single fetch.
type FeedResult struct {
	Feed  *Feed
	Posts []*Post
}

// TrackedFeed is a feed registered for periodic polling.
type TrackedFeed struct {
	URL string
}

func TrackedFeedsFrom(feeds []*Feed) []TrackedFeed {
	tracked := make([]TrackedFeed, 0, len(feeds))
	for _, f := range feeds {
		tracked = append(tracked, TrackedFeed{URL: f.URL})
	}
	return tracked
}
