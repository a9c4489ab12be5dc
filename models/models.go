package models

import (
	"time"
)

// ConnectionEntry is one row of the Connection registry
type ConnectionEntry struct {
	Keywords string `json:"keywords"` // subreddit identifier
	Name     string `json:"name"`     // display/collection label
	IsActive bool   `json:"is_active"`
	IsReddit bool   `json:"is_reddit"`
}

// Stat holds the per-post counters copied from the listing item
type Stat struct {
	PostID       string `json:"post_id" bson:"post_id"`
	SubredditID  any    `json:"subreddit_Id" bson:"subreddit_Id"`
	LikeCount    any    `json:"likeCount" bson:"likeCount"`
	Downs        any    `json:"downs" bson:"downs"`
	CommentCount any    `json:"commentCount" bson:"commentCount"`
}

// SubredditStat holds subreddit level counters copied from the listing item
type SubredditStat struct {
	SubscriberCount any `json:"subscriberCount" bson:"subscriberCount"`
	FollowerGain    any `json:"followerGain" bson:"followerGain"`
	ViewCount       any `json:"viewCount" bson:"viewCount"`
}

// Document is the normalized feed item persisted to the document store.
// Content, Description, Language and Country are reserved and always stored as null.
type Document struct {
	SourceID string   `json:"source_id" bson:"source_id"`
	Title    string   `json:"title" bson:"title"`
	Link     string   `json:"link" bson:"link"`
	LinkHash string   `json:"link_hash" bson:"link_hash"`
	Keywords []string `json:"keywords" bson:"keywords"`
	Creator  []string `json:"creator" bson:"creator"`

	Content     *string `json:"content" bson:"content"`
	Description *string `json:"description" bson:"description"`
	Language    *string `json:"language" bson:"language"`
	Country     *string `json:"country" bson:"country"`

	Category string `json:"category" bson:"category"`
	CollList string `json:"coll_list" bson:"coll_list"`

	ImageURL *string `json:"image_url" bson:"image_url"`
	HasImage bool    `json:"has_image" bson:"has_image"`
	VideoURL *string `json:"video_url" bson:"video_url"`
	HasVideo bool    `json:"has_video" bson:"has_video"`

	PubDate   string `json:"pubDate" bson:"pubDate"`
	CreatedAt string `json:"created_at" bson:"created_at"`
	UpdatedAt string `json:"updated_at" bson:"updated_at"`

	FullDescription       *string `json:"full_description,omitempty" bson:"full_description,omitempty"`
	FullDescriptionStatus int     `json:"full_description_status" bson:"full_description_status"`

	Stat          *Stat          `json:"stat,omitempty" bson:"stat,omitempty"`
	SubredditStat *SubredditStat `json:"subreddit_stat,omitempty" bson:"subreddit_stat,omitempty"`
}

// Persistable reports whether the document carries every field required for a write
func (d Document) Persistable() bool {
	return d.Title != "" && d.Link != "" && d.PubDate != ""
}

// TargetStatistics holds the outcome counters for one subreddit target
type TargetStatistics struct {
	Keywords        string `json:"keywords"`
	Name            string `json:"name"`
	ListingsFetched int    `json:"listings_fetched"`
	ItemsSeen       int    `json:"items_seen"`
	Inserted        int    `json:"inserted"`
	Duplicates      int    `json:"duplicates"`
	Skipped         int    `json:"skipped"`
	FailedWrites    int    `json:"failed_writes"`
	Failed          bool   `json:"failed"`
}

// RunStatistics holds statistics about one full pass over the active connections
type RunStatistics struct {
	RunID         string             `json:"run_id"`
	Targets       int                `json:"targets"`
	FailedTargets int                `json:"failed_targets"`
	Inserted      int                `json:"inserted"`
	Duplicates    int                `json:"duplicates"`
	Skipped       int                `json:"skipped"`
	FailedWrites  int                `json:"failed_writes"`
	PerTarget     []TargetStatistics `json:"per_target"`
	StartTime     time.Time          `json:"start_time"`
	FinishTime    time.Time          `json:"finish_time"`
}

// Add folds one target's counters into the run totals
func (s *RunStatistics) Add(t TargetStatistics) {
	s.Targets++
	if t.Failed {
		s.FailedTargets++
	}
	s.Inserted += t.Inserted
	s.Duplicates += t.Duplicates
	s.Skipped += t.Skipped
	s.FailedWrites += t.FailedWrites
	s.PerTarget = append(s.PerTarget, t)
}
