package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/brettboylen/reddit-feeds/models"
)

var collectionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteStore keeps each document as a JSON row keyed by its link_hash
type SQLiteStore struct {
	db         *sql.DB
	collection string
	mutex      sync.Mutex
}

// NewSQLiteStore opens (creating if needed) a sqlite file for documents
func NewSQLiteStore(dbPath, collection string) (*SQLiteStore, error) {
	if !collectionName.MatchString(collection) {
		return nil, fmt.Errorf("invalid collection name %q", collection)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{
		db:         db,
		collection: collection,
	}

	if err := store.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return store, nil
}

// initTables creates the document table if it doesn't exist
func (s *SQLiteStore) initTables() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		link_hash TEXT NOT NULL,
		document TEXT NOT NULL,
		inserted_at TIMESTAMP NOT NULL
	);
	`, s.collection)

	_, err := s.db.Exec(query)
	return err
}

// EnsureIndexes creates the unique index on link_hash
func (s *SQLiteStore) EnsureIndexes(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_link_hash ON %[1]s(link_hash);`, s.collection)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create link_hash index: %w", err)
	}
	return nil
}

// Insert writes one document
func (s *SQLiteStore) Insert(ctx context.Context, doc models.Document) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: failed to encode document: %v", models.ErrStorageWrite, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (link_hash, document, inserted_at) VALUES (?, ?, ?)`, s.collection)
	_, err = s.db.ExecContext(ctx, query, doc.LinkHash, string(payload), time.Now().UTC())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: link_hash %s", models.ErrDuplicate, doc.LinkHash)
		}
		return fmt.Errorf("%w: %v", models.ErrStorageWrite, err)
	}

	return nil
}

// Count returns the number of stored documents
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var count int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.collection)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.db.Close()
}
