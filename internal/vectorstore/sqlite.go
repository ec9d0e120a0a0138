package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/factcheck/internal/embed"
	"github.com/ppiankov/factcheck/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS facts (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	text       TEXT NOT NULL,
	source     TEXT,
	date       TEXT,
	category   TEXT,
	embedding  BLOB NOT NULL,
	UNIQUE (collection, id)
);

CREATE TABLE IF NOT EXISTS store_meta (
	collection      TEXT PRIMARY KEY,
	embedding_model TEXT NOT NULL,
	dimensions      INTEGER NOT NULL
);
`

// SQLiteStore persists facts and their embeddings in a SQLite file
type SQLiteStore struct {
	db         *sql.DB
	collection string
}

// NewSQLiteStore opens a SQLite database and runs migrations
func NewSQLiteStore(path, collection string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// each pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db, collection: collection}, nil
}

// Add implements FactStore
func (s *SQLiteStore) Add(ctx context.Context, facts []model.ReferenceFact) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO facts (collection, id, text, source, date, category, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	added := 0
	for _, f := range facts {
		res, err := stmt.ExecContext(ctx, s.collection, f.ID, f.Text, f.Source, f.Date, f.Category, embed.EncodeVector(f.Embedding))
		if err != nil {
			return 0, fmt.Errorf("insert fact %s: %w", f.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return added, nil
}

// Count implements FactStore
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM facts WHERE collection = ?`, s.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count facts: %w", err)
	}
	return n, nil
}

// All implements FactStore
func (s *SQLiteStore) All(ctx context.Context) ([]model.ReferenceFact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, source, date, category, embedding FROM facts
		 WHERE collection = ? ORDER BY seq`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var facts []model.ReferenceFact
	for rows.Next() {
		var (
			f                      model.ReferenceFact
			source, date, category sql.NullString
			blob                   []byte
		)
		if err := rows.Scan(&f.ID, &f.Text, &source, &date, &category, &blob); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		f.Source, f.Date, f.Category = source.String, date.String, category.String
		if f.Embedding, err = embed.DecodeVector(blob); err != nil {
			return nil, fmt.Errorf("decode embedding for %s: %w", f.ID, err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// Meta implements FactStore
func (s *SQLiteStore) Meta(ctx context.Context) (model.StoreMeta, bool, error) {
	var m model.StoreMeta
	err := s.db.QueryRowContext(ctx,
		`SELECT embedding_model, dimensions FROM store_meta WHERE collection = ?`, s.collection,
	).Scan(&m.EmbeddingModel, &m.Dimensions)
	if err == sql.ErrNoRows {
		return model.StoreMeta{}, false, nil
	}
	if err != nil {
		return model.StoreMeta{}, false, fmt.Errorf("read store meta: %w", err)
	}
	return m, true, nil
}

// SetMeta implements FactStore
func (s *SQLiteStore) SetMeta(ctx context.Context, meta model.StoreMeta) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO store_meta (collection, embedding_model, dimensions) VALUES (?, ?, ?)
		 ON CONFLICT(collection) DO UPDATE SET embedding_model = excluded.embedding_model, dimensions = excluded.dimensions`,
		s.collection, meta.EmbeddingModel, meta.Dimensions)
	if err != nil {
		return fmt.Errorf("write store meta: %w", err)
	}
	return nil
}

// Close closes the underlying database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
