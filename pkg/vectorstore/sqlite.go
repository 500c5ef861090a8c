// Package vectorstore keeps embedded chunks in a SQLite database and answers
// nearest-neighbour queries by exact cosine similarity.
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/interfaces"
	"github.com/nodewee/docrag/pkg/types"
	"github.com/nodewee/docrag/pkg/utils"
)

// Keys stored in index_meta
const (
	MetaSourceHash     = "source_hash"
	MetaEmbeddingModel = "embedding_model"
	MetaDimensions     = "embedding_dimensions"
)

// MemoryDSN opens a private in-memory database
const MemoryDSN = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS docs (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    meta TEXT,
    embedding BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS index_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

var _ interfaces.VectorStore = (*SQLiteStore)(nil)

// SQLiteStore is a VectorStore backed by a single SQLite file
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Open opens or creates the index at path. Use MemoryDSN for a throwaway index.
func Open(path string) (*SQLiteStore, error) {
	if path != MemoryDSN {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, constants.DefaultDirPermission); err != nil {
				return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to create index directory")
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, fmt.Sprintf("failed to open index: %s", path))
	}
	// one connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to create index schema")
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// OpenExisting opens an index that must already exist on disk
func OpenExisting(path string) (*SQLiteStore, error) {
	if !utils.FileExists(path) {
		return nil, utils.NewNotFoundError(fmt.Sprintf("index not found at %s", path), nil)
	}
	return Open(path)
}

// Path returns the location of the index
func (s *SQLiteStore) Path() string {
	return s.path
}

// AddDocuments inserts docs with their embeddings in a single transaction.
// Every document needs an ID and a non-empty embedding.
func (s *SQLiteStore) AddDocuments(ctx context.Context, docs []types.Document, embeddings [][]float64) error {
	if len(docs) != len(embeddings) {
		return utils.NewValidationError(fmt.Sprintf("got %d documents but %d embeddings", len(docs), len(embeddings)), nil)
	}
	if len(docs) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return insertDocuments(ctx, tx, docs, embeddings)
	})
}

// ReplaceAll swaps the whole index for docs and meta in one transaction. On
// any failure the previous contents are left untouched.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, docs []types.Document, embeddings [][]float64, meta map[string]string) error {
	if len(docs) != len(embeddings) {
		return utils.NewValidationError(fmt.Sprintf("got %d documents but %d embeddings", len(docs), len(embeddings)), nil)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"docs", "index_meta"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return utils.WrapError(err, utils.ErrorTypeIO, "failed to clear index")
			}
		}
		if err := insertDocuments(ctx, tx, docs, embeddings); err != nil {
			return err
		}
		keys := make([]string, 0, len(meta))
		for k := range meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := setMeta(ctx, tx, k, meta[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return utils.WrapError(err, utils.ErrorTypeIO, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return utils.WrapError(err, utils.ErrorTypeIO, "failed to commit index changes")
	}
	return nil
}

func insertDocuments(ctx context.Context, tx *sql.Tx, docs []types.Document, embeddings [][]float64) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO docs(id, content, meta, embedding) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return utils.WrapError(err, utils.ErrorTypeIO, "failed to prepare insert")
	}
	defer stmt.Close()

	for i, d := range docs {
		if d.ID == "" {
			return utils.NewValidationError(fmt.Sprintf("document %d has no ID", i), nil)
		}
		if len(embeddings[i]) == 0 {
			return utils.NewValidationError(fmt.Sprintf("document %s has no embedding", d.ID), nil)
		}
		meta, err := json.Marshal(d.Metadata)
		if err != nil {
			return utils.WrapError(err, utils.ErrorTypeConversion, "failed to encode metadata")
		}
		if _, err := stmt.ExecContext(ctx, d.ID, d.Content, string(meta), EncodeEmbedding(embeddings[i])); err != nil {
			return utils.WrapError(err, utils.ErrorTypeIO, fmt.Sprintf("failed to insert document %s", d.ID))
		}
	}
	return nil
}

// SimilaritySearch scores every stored document against query and returns
// the k best, highest score first. Ties keep insertion order.
func (s *SQLiteStore) SimilaritySearch(ctx context.Context, query []float64, k int) ([]types.ScoredDocument, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, content, meta, embedding FROM docs ORDER BY rowid`)
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to read index")
	}
	defer rows.Close()

	var hits []types.ScoredDocument
	for rows.Next() {
		var (
			d    types.Document
			meta sql.NullString
			blob []byte
		)
		if err := rows.Scan(&d.ID, &d.Content, &meta, &blob); err != nil {
			return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to scan document")
		}
		if meta.Valid && meta.String != "" && meta.String != "null" {
			if err := json.Unmarshal([]byte(meta.String), &d.Metadata); err != nil {
				return nil, utils.WrapError(err, utils.ErrorTypeConversion, fmt.Sprintf("bad metadata for %s", d.ID))
			}
		}
		vec, err := DecodeEmbedding(blob)
		if err != nil {
			return nil, utils.WrapError(err, utils.ErrorTypeConversion, fmt.Sprintf("bad embedding for %s", d.ID))
		}
		score, err := CosineSimilarity(query, vec)
		if err != nil {
			return nil, utils.NewValidationError(fmt.Sprintf("cannot score document %s", d.ID), err)
		}
		hits = append(hits, types.ScoredDocument{Document: d, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to read index")
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of stored documents
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM docs`).Scan(&n); err != nil {
		return 0, utils.WrapError(err, utils.ErrorTypeIO, "failed to count documents")
	}
	return n, nil
}

// Reset deletes all documents and metadata
func (s *SQLiteStore) Reset(ctx context.Context) error {
	for _, table := range []string{"docs", "index_meta"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return utils.WrapError(err, utils.ErrorTypeIO, "failed to reset index")
		}
	}
	return nil
}

// SetMeta stores value under key, replacing any previous value
func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	return setMeta(ctx, s.db, key, value)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setMeta(ctx context.Context, db execer, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO index_meta(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return utils.WrapError(err, utils.ErrorTypeIO, fmt.Sprintf("failed to set index metadata %s", key))
	}
	return nil
}

// GetMeta returns the value stored under key, or "" when there is none
func (s *SQLiteStore) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", utils.WrapError(err, utils.ErrorTypeIO, fmt.Sprintf("failed to read index metadata %s", key))
	}
	return value, nil
}

// Close releases the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
