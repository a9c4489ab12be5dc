package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/brettboylen/reddit-feeds/api"
	"github.com/brettboylen/reddit-feeds/db"
	"github.com/brettboylen/reddit-feeds/models"
	"github.com/brettboylen/reddit-feeds/normalizer"
)

// ConnectionSource lists the subreddit targets to poll
type ConnectionSource interface {
	ActiveRedditConnections(ctx context.Context) ([]models.ConnectionEntry, error)
}

// RedditClient is the subset of the Reddit API the collector needs
type RedditClient interface {
	AcquireToken(ctx context.Context) (string, error)
	FetchListing(ctx context.Context, token, subreddit, listing string) ([]models.RawItem, error)
}

// DocumentWriter persists normalized documents
type DocumentWriter interface {
	Write(ctx context.Context, doc models.Document) (db.WriteOutcome, error)
}

// Collector runs one sequential pass over every active connection
type Collector struct {
	connections ConnectionSource
	reddit      RedditClient
	normalizer  *normalizer.Normalizer
	writer      DocumentWriter
	listings    []string
	log         *logrus.Logger
}

// NewCollector creates a new collector
func NewCollector(
	connections ConnectionSource,
	reddit RedditClient,
	norm *normalizer.Normalizer,
	writer DocumentWriter,
	log *logrus.Logger,
) *Collector {
	return &Collector{
		connections: connections,
		reddit:      reddit,
		normalizer:  norm,
		writer:      writer,
		listings:    api.Listings,
		log:         log,
	}
}

// Run performs one full pass. It only returns an error when the connection registry
// cannot be read; failures of single targets or items are logged and counted.
func (c *Collector) Run(ctx context.Context) (models.RunStatistics, error) {
	stats := models.RunStatistics{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	log := c.log.WithField("run_id", stats.RunID)

	entries, err := c.connections.ActiveRedditConnections(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to read connection registry")
		stats.FinishTime = time.Now()
		return stats, err
	}

	log.WithField("targets", len(entries)).Info("Starting reddit pass")

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			log.WithError(err).Warn("Run cancelled")
			break
		}
		stats.Add(c.processTarget(ctx, log, entry))
	}

	stats.FinishTime = time.Now()
	c.logStatistics(log, stats)

	return stats, nil
}

// processTarget fetches hot, new and top for one connection. An auth or fetch failure
// abandons the remaining listings of this target only.
func (c *Collector) processTarget(ctx context.Context, log *logrus.Entry, entry models.ConnectionEntry) models.TargetStatistics {
	ts := models.TargetStatistics{
		Keywords: entry.Keywords,
		Name:     entry.Name,
	}
	log = log.WithFields(logrus.Fields{
		"subreddit": entry.Keywords,
		"coll_list": entry.Name,
	})

	token, err := c.reddit.AcquireToken(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to acquire token")
		ts.Failed = true
		return ts
	}

	for _, listing := range c.listings {
		items, err := c.reddit.FetchListing(ctx, token, entry.Keywords, listing)
		if err != nil {
			log.WithError(err).WithField("listing", listing).Error("Failed to fetch listing")
			ts.Failed = true
			return ts
		}
		ts.ListingsFetched++

		c.processItems(ctx, log.WithField("listing", listing), entry, items, &ts)
	}

	log.WithFields(logrus.Fields{
		"items":      ts.ItemsSeen,
		"inserted":   ts.Inserted,
		"duplicates": ts.Duplicates,
	}).Info("Finished subreddit")

	return ts
}

// processItems normalizes and writes each item; one item's failure never affects its siblings
func (c *Collector) processItems(ctx context.Context, log *logrus.Entry, entry models.ConnectionEntry, items []models.RawItem, ts *models.TargetStatistics) {
	for _, item := range items {
		ts.ItemsSeen++

		outcome, err := c.processItem(ctx, entry, item)
		switch outcome {
		case db.OutcomeInserted:
			ts.Inserted++
		case db.OutcomeDuplicate:
			ts.Duplicates++
		case db.OutcomeSkipped:
			ts.Skipped++
		default:
			ts.FailedWrites++
		}

		if err != nil {
			log.WithError(err).WithField("item", item.Describe()).Error("Error processing item")
		}
	}
}

func (c *Collector) processItem(ctx context.Context, entry models.ConnectionEntry, item models.RawItem) (outcome db.WriteOutcome, err error) {
	// a panic while shaping one item must not take down the rest of the listing
	defer func() {
		if r := recover(); r != nil {
			outcome = db.OutcomeSkipped
			err = fmt.Errorf("%w: %v", models.ErrItemNormalization, r)
		}
	}()

	doc, err := c.normalizer.Normalize(item, entry.Name)
	if err != nil {
		return db.OutcomeSkipped, err
	}

	return c.writer.Write(ctx, doc)
}

// logStatistics logs the totals of the run
func (c *Collector) logStatistics(log *logrus.Entry, stats models.RunStatistics) {
	log.WithFields(logrus.Fields{
		"targets":        stats.Targets,
		"failed_targets": stats.FailedTargets,
		"inserted":       stats.Inserted,
		"duplicates":     stats.Duplicates,
		"skipped":        stats.Skipped,
		"failed_writes":  stats.FailedWrites,
		"duration":       stats.FinishTime.Sub(stats.StartTime).String(),
	}).Info("Reddit pass finished")
}
