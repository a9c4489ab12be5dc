package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/brettboylen/reddit-feeds/models"
)

// Registry reads the Connection table maintained by the admin tooling.
// It never writes to the database.
type Registry struct {
	db  *sql.DB
	log *logrus.Logger
}

// OpenRegistry opens the sqlite database holding the Connection table
func OpenRegistry(dbPath string, log *logrus.Logger) (*Registry, error) {
	// mode=ro keeps the registry read-only and fails if the file does not exist
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", models.ErrConfigStore, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %v", models.ErrConfigStore, err)
	}

	return &Registry{
		db:  db,
		log: log,
	}, nil
}

// Close closes the database connection
func (r *Registry) Close() error {
	return r.db.Close()
}

// ActiveRedditConnections returns the connections flagged both active and reddit, in table order
func (r *Registry) ActiveRedditConnections(ctx context.Context) ([]models.ConnectionEntry, error) {
	query := `
	SELECT keywords, name
	FROM Connection
	WHERE is_active = 1 AND is_reddit = 1
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query connections: %v", models.ErrConfigStore, err)
	}
	defer rows.Close()

	entries := make([]models.ConnectionEntry, 0)
	for rows.Next() {
		var keywords, name sql.NullString
		if err := rows.Scan(&keywords, &name); err != nil {
			return nil, fmt.Errorf("%w: failed to scan connection: %v", models.ErrConfigStore, err)
		}

		entries = append(entries, models.ConnectionEntry{
			Keywords: keywords.String,
			Name:     name.String,
			IsActive: true,
			IsReddit: true,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", models.ErrConfigStore, err)
	}

	r.log.WithField("count", len(entries)).Debug("Loaded active reddit connections")
	return entries, nil
}
