package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/brettboylen/reddit-feeds/models"
)

// WriteOutcome is the result of one write attempt
type WriteOutcome int

const (
	OutcomeInserted WriteOutcome = iota
	OutcomeDuplicate
	OutcomeSkipped
	OutcomeFailed
)

func (o WriteOutcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Writer performs the conditional insert of normalized documents
type Writer struct {
	store DocumentStore
	log   *logrus.Logger
}

// NewWriter creates a writer over the given store
func NewWriter(store DocumentStore, log *logrus.Logger) *Writer {
	return &Writer{store: store, log: log}
}

// Prepare ensures the uniqueness constraint exists; call once per run
func (w *Writer) Prepare(ctx context.Context) error {
	return w.store.EnsureIndexes(ctx)
}

// Write inserts the document when it carries title, link and pubDate.
// A duplicate link_hash is reported as OutcomeDuplicate with a nil error.
func (w *Writer) Write(ctx context.Context, doc models.Document) (WriteOutcome, error) {
	if !doc.Persistable() {
		return OutcomeSkipped, fmt.Errorf("%w: title, link and pubDate are required", models.ErrItemNormalization)
	}

	err := w.store.Insert(ctx, doc)
	switch {
	case err == nil:
		return OutcomeInserted, nil
	case errors.Is(err, models.ErrDuplicate):
		w.log.WithFields(logrus.Fields{
			"link_hash": doc.LinkHash,
			"link":      doc.Link,
		}).Debug("Document already stored")
		return OutcomeDuplicate, nil
	case errors.Is(err, models.ErrStorageWrite):
		return OutcomeFailed, err
	default:
		return OutcomeFailed, fmt.Errorf("%w: %v", models.ErrStorageWrite, err)
	}
}
