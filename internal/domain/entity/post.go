package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID          string
	FeedID      string
	Title       string
	Link        string
	Description string
	Published   time.Time
}

func NewPost(feedURL, key, title, link, description string, published time.Time) *Post {
	return &Post{
		ID:          PostID(feedURL, key),
		FeedID:      feedURL,
		Title:       title,
		Link:        link,
		Description: description,
		Published:   published,
	}
}

// PostID derives a stable identifier for an item of a feed. The same feed URL
// and item key always produce the same ID.
func PostID(feedURL, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(feedURL+"#"+key)).String()
}

// ItemKey picks the most stable identifying field of a feed item.
func ItemKey(guid, link, title string, index int) string {
	switch {
	case guid != "":
		return guid
	case link != "":
		return link
	case title != "":
		return title
	default:
		return fmt.Sprintf("item-%d", index)
	}
}

// WithFeed returns a copy of the post owned by feedURL.
func (p *Post) WithFeed(feedURL string) *Post {
	cp := *p
	cp.FeedID = feedURL
	return &cp
}
