package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/staprolab/interpret-server/internal/domain"
)

// Snippet is one keyword-addressable knowledge entry in the local store.
type Snippet struct {
	ID      int64
	Keyword string
	Source  string
	Content string
}

// Store is the SQLite-backed fallback knowledge base. It serves keyword
// lookups when the vector backend is unavailable and mirrors uploaded
// chunks during offline index builds so the fallback grows with the index.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens the snippet store, creating the database file and schema
// if they don't exist.
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// NewStoreWithDB wraps an existing database handle. Used by tests.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snippets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		keyword TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(keyword, source)
	);

	CREATE INDEX IF NOT EXISTS idx_snippets_keyword ON snippets(keyword);
	`

	_, err := db.Exec(schema)
	return err
}

// Lookup implements domain.SnippetSearcher: it returns snippets whose
// keyword occurs in the query, case-insensitively, in insertion order.
// Scores are fixed; the fallback has no ranking model.
func (s *Store) Lookup(ctx context.Context, query string, topK int) ([]domain.RetrievalHit, error) {
	if topK <= 0 {
		topK = 3
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT keyword, source, content FROM snippets ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query snippets: %w", err)
	}
	defer rows.Close()

	q := strings.ToLower(query)

	var hits []domain.RetrievalHit
	for rows.Next() {
		var keyword, source, content string
		if err := rows.Scan(&keyword, &source, &content); err != nil {
			return nil, fmt.Errorf("failed to scan snippet: %w", err)
		}
		if !strings.Contains(q, strings.ToLower(keyword)) {
			continue
		}
		if source == "" {
			source = "local-knowledge"
		}
		hits = append(hits, domain.RetrievalHit{
			Source:  source,
			Content: content,
			Score:   1.0,
		})
		if len(hits) >= topK {
			break
		}
	}
	return hits, rows.Err()
}

// Add inserts or updates a snippet keyed by (keyword, source).
func (s *Store) Add(ctx context.Context, snippet Snippet) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snippets (keyword, source, content)
		VALUES (?, ?, ?)
		ON CONFLICT(keyword, source) DO UPDATE SET content = excluded.content
	`, snippet.Keyword, snippet.Source, snippet.Content)
	if err != nil {
		return fmt.Errorf("failed to upsert snippet: %w", err)
	}
	return nil
}

// AddAll inserts a batch of snippets.
func (s *Store) AddAll(ctx context.Context, snippets []Snippet) error {
	for _, sn := range snippets {
		if err := s.Add(ctx, sn); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of stored snippets.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snippets").Scan(&count)
	return count, err
}

// Seed loads the built-in snippet table. Existing entries are updated in
// place so reseeding is idempotent.
func (s *Store) Seed(ctx context.Context) error {
	return s.AddAll(ctx, builtinSnippets)
}

// Close closes the store and releases resources.
func (s *Store) Close() error {
	return s.db.Close()
}
