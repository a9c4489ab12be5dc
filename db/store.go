package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/brettboylen/reddit-feeds/models"
)

// DocumentStore persists normalized documents under a unique link_hash constraint
type DocumentStore interface {
	// EnsureIndexes creates the link_hash uniqueness constraint; safe to repeat.
	EnsureIndexes(ctx context.Context) error
	// Insert writes one document. A link_hash collision returns an error wrapping
	// models.ErrDuplicate; any other failure wraps models.ErrStorageWrite.
	Insert(ctx context.Context, doc models.Document) error
	Close(ctx context.Context) error
}

// OpenDocumentStore opens the backend selected by the URI scheme:
// mongodb:// and mongodb+srv:// use MongoDB, sqlite:// a local sqlite file,
// redis:// and rediss:// a Redis server.
func OpenDocumentStore(ctx context.Context, uri, database, collection string) (DocumentStore, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid store uri: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "mongodb", "mongodb+srv":
		return NewMongoStore(ctx, uri, database, collection)
	case "sqlite", "sqlite3":
		return NewSQLiteStore(sqlitePath(uri), collection)
	case "redis", "rediss":
		return NewRedisStore(ctx, uri, database, collection)
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}

// sqlitePath strips the scheme from sqlite://path and sqlite:///abs/path
func sqlitePath(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		return uri[i+3:]
	}
	return uri
}
