// Package normalizer maps one raw listing item onto the document shape stored in the feeds collection.
package normalizer

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/brettboylen/reddit-feeds/models"
)

const (
	SourceID        = "reddit"
	LinkPrefix      = "https://www.reddit.com"
	DefaultCategory = "top"
	TimeLayout      = "2006-01-02 15:04:05"
)

// creation times must render with a four digit year (0001 through 9999)
const (
	minCreated = -62135596800
	maxCreated = 253402300800
)

// source fields that must all be present for the embedded stat mappings
var (
	statFields          = []string{"id", "subreddit_id", "ups", "downs", "num_comments"}
	subredditStatFields = []string{"subreddit_subscribers", "no_follow", "view_count"}
)

// Normalizer converts raw listing items into documents
type Normalizer struct {
	now func() time.Time
}

// New creates a normalizer; now defaults to time.Now
func New(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Normalize derives a document from one raw item. collList is the display label of the
// connection the item was fetched for. A missing title, permalink or creation time fails the
// item with models.ErrItemNormalization.
//
// keywords and creator are single-element sequences, but empty when the source field
// (subreddit or author) is absent; the item is still stored. Other defaults for absent
// sources: category is DefaultCategory, image and video URLs are null with their flags
// false, full_description and both stat mappings are omitted. content, description,
// language and country are always null. A created_utc outside years 0001 to 9999 fails
// the item.
func (n *Normalizer) Normalize(item models.RawItem, collList string) (models.Document, error) {
	title, err := requiredText(item, "title")
	if err != nil {
		return models.Document{}, err
	}

	permalink, err := requiredText(item, "permalink")
	if err != nil {
		return models.Document{}, err
	}

	pubDate, err := publishedAt(item)
	if err != nil {
		return models.Document{}, err
	}

	stamp := n.now().UTC().Truncate(time.Second).Format(TimeLayout)
	link := LinkPrefix + permalink

	doc := models.Document{
		SourceID:  SourceID,
		Title:     title,
		Link:      link,
		LinkHash:  LinkHash(link),
		Keywords:  single(item, "subreddit"),
		Creator:   single(item, "author"),
		Category:  category(item),
		CollList:  collList,
		PubDate:   pubDate,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}

	doc.ImageURL, doc.HasImage = imageURL(item)
	doc.VideoURL, doc.HasVideo = videoURL(item)

	if text := fullDescription(item); text != "" {
		doc.FullDescription = &text
		doc.FullDescriptionStatus = 1
	}

	doc.Stat, err = stat(item)
	if err != nil {
		return models.Document{}, err
	}
	doc.SubredditStat = subredditStat(item)

	return doc, nil
}

// CollapseWhitespace splits on runs of whitespace and rejoins with single spaces
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// LinkHash returns the hex MD5 of the link; it is the dedup key of the collection
func LinkHash(link string) string {
	sum := md5.Sum([]byte(link))
	return hex.EncodeToString(sum[:])
}

func requiredText(item models.RawItem, key string) (string, error) {
	raw, ok := item.String(key)
	if !ok {
		return "", fmt.Errorf("%w: %s missing", models.ErrItemNormalization, key)
	}
	text := CollapseWhitespace(raw)
	if text == "" {
		return "", fmt.Errorf("%w: %s empty", models.ErrItemNormalization, key)
	}
	return text, nil
}

func publishedAt(item models.RawItem) (string, error) {
	created, ok := item.Float("created_utc")
	if !ok || math.IsNaN(created) || math.IsInf(created, 0) {
		return "", fmt.Errorf("%w: created_utc missing", models.ErrItemNormalization)
	}
	if created < minCreated || created >= maxCreated {
		return "", fmt.Errorf("%w: created_utc %v out of range", models.ErrItemNormalization, created)
	}
	sec, frac := math.Modf(created)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC().Format(TimeLayout), nil
}

func single(item models.RawItem, key string) []string {
	raw, ok := item.String(key)
	if !ok {
		return []string{}
	}
	return []string{CollapseWhitespace(raw)}
}

func category(item models.RawItem) string {
	if raw, ok := item.String("category"); ok {
		return CollapseWhitespace(raw)
	}
	return DefaultCategory
}

// imageURL keeps the thumbnail only when it is an http(s) URL; Reddit uses
// placeholders such as "self" and "default" for posts without one
func imageURL(item models.RawItem) (*string, bool) {
	thumb, ok := item.String("thumbnail")
	if !ok || !strings.HasPrefix(thumb, "http") {
		return nil, false
	}
	return &thumb, true
}

func videoURL(item models.RawItem) (*string, bool) {
	embed, ok := item.Object("secure_media_embed")
	if !ok {
		return nil, false
	}
	u, ok := embed.String("media_domain_url")
	if !ok || u == "" {
		return nil, false
	}
	return &u, true
}

func fullDescription(item models.RawItem) string {
	raw, ok := item.String("selftext")
	if !ok {
		return ""
	}
	return CollapseWhitespace(html.UnescapeString(raw))
}

func stat(item models.RawItem) (*models.Stat, error) {
	if !item.HasAll(statFields...) {
		return nil, nil
	}

	postID, ok := item.String("id")
	if !ok {
		return nil, fmt.Errorf("%w: id is not a string", models.ErrItemNormalization)
	}

	return &models.Stat{
		PostID:       CollapseWhitespace(postID),
		SubredditID:  item.Value("subreddit_id"),
		LikeCount:    item.Value("ups"),
		Downs:        item.Value("downs"),
		CommentCount: item.Value("num_comments"),
	}, nil
}

func subredditStat(item models.RawItem) *models.SubredditStat {
	if !item.HasAll(subredditStatFields...) {
		return nil
	}
	return &models.SubredditStat{
		SubscriberCount: item.Value("subreddit_subscribers"),
		FollowerGain:    item.Value("no_follow"),
		ViewCount:       item.Value("view_count"),
	}
}
