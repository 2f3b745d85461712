package collector

import (
	"context"
	"time"

	"igcollector/pkg/auth"
)

// MediaType identifies the kind of a collected media item
type MediaType string

const (
	MediaTypePhoto MediaType = "photo"
	MediaTypeVideo MediaType = "video"
	MediaTypeStory MediaType = "story"
)

// MediaItem is one collected piece of media
type MediaItem struct {
	ID      string    `json:"id"`
	Type    MediaType `json:"type"`
	URL     string    `json:"url"`
	Caption string    `json:"caption,omitempty"`
	TakenAt time.Time `json:"taken_at"`
}

// Request describes one collection task for a target profile
type Request struct {
	// Username is the target profile to collect from
	Username string

	IncludeStories bool
	IncludeFeed    bool

	// MaxFeedPosts caps the feed items collected (0 means no cap)
	MaxFeedPosts int
}

// Result is the output of one completed collection task
type Result struct {
	Username string `json:"username"`

	// AccountID is the pool account that performed the collection
	AccountID string `json:"account_id"`

	Stories   []MediaItem `json:"stories,omitempty"`
	FeedPosts []MediaItem `json:"feed_posts,omitempty"`

	CollectedAt time.Time     `json:"collected_at"`
	Elapsed     time.Duration `json:"elapsed"`
}

// ItemCount returns the total number of collected media items
func (r *Result) ItemCount() int {
	return len(r.Stories) + len(r.FeedPosts)
}

// Collector performs one collection against the target platform using the
// given credentials. Implementations return typed errors from pkg/errors so
// the service can report an accurate outcome to the pool.
type Collector interface {
	Collect(ctx context.Context, creds *auth.Credentials, req Request) (*Result, error)
}
