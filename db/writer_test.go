package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettboylen/reddit-feeds/models"
)

type failingStore struct {
	err error
}

func (s *failingStore) EnsureIndexes(ctx context.Context) error { return nil }

func (s *failingStore) Insert(ctx context.Context, doc models.Document) error { return s.err }

func (s *failingStore) Close(ctx context.Context) error { return nil }

func TestWriterOutcomes(t *testing.T) {
	ctx := context.Background()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "feeds.db"), "elasticfeeds")
	require.NoError(t, err)
	defer store.Close(ctx)

	writer := NewWriter(store, quietLogger())
	require.NoError(t, writer.Prepare(ctx))

	outcome, err := writer.Write(ctx, testDocument("https://www.reddit.com/r/test/abc"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)

	outcome, err = writer.Write(ctx, testDocument("https://www.reddit.com/r/test/abc"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWriterSkipsIncompleteDocuments(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Document)
	}{
		{"no title", func(d *models.Document) { d.Title = "" }},
		{"no link", func(d *models.Document) { d.Link = "" }},
		{"no pubDate", func(d *models.Document) { d.PubDate = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &failingStore{err: errors.New("insert must not be called")}
			writer := NewWriter(store, quietLogger())

			doc := testDocument("https://www.reddit.com/r/test/abc")
			tc.mutate(&doc)

			outcome, err := writer.Write(context.Background(), doc)
			assert.Equal(t, OutcomeSkipped, outcome)
			assert.ErrorIs(t, err, models.ErrItemNormalization)
		})
	}
}

func TestWriterStorageFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"wrapped storage error", fmt.Errorf("%w: connection reset", models.ErrStorageWrite)},
		{"bare driver error", errors.New("server selection timeout")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			writer := NewWriter(&failingStore{err: tc.err}, quietLogger())

			outcome, err := writer.Write(context.Background(), testDocument("https://www.reddit.com/r/test/abc"))
			assert.Equal(t, OutcomeFailed, outcome)
			assert.ErrorIs(t, err, models.ErrStorageWrite)
		})
	}
}

func TestWriteOutcomeString(t *testing.T) {
	assert.Equal(t, "inserted", OutcomeInserted.String())
	assert.Equal(t, "duplicate", OutcomeDuplicate.String())
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}
