package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/phuslu/log"

	"github.com/itish2003/assistant/models"
	"github.com/itish2003/assistant/services"
)

const indexFileName = "index.db"

// SQLiteIndexStore persists the current index snapshot in a single SQLite file.
// If the file disappears, the next Save recreates it.
type SQLiteIndexStore struct {
	mu   sync.Mutex
	db   *sql.DB
	dir  string
	path string
}

// NewSQLiteIndexStore opens (creating if needed) <dir>/index.db.
func NewSQLiteIndexStore(dir string) (*SQLiteIndexStore, error) {
	s := &SQLiteIndexStore{dir: dir, path: filepath.Join(dir, indexFileName)}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteIndexStore) open() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	db, err := sql.Open("sqlite3", s.path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("opening index database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s.db = db
	if err := s.initSchema(); err != nil {
		db.Close()
		s.db = nil
		return fmt.Errorf("initializing index schema: %w", err)
	}
	return nil
}

// reopen swaps the handle for a fresh one when the file was removed underneath it.
func (s *SQLiteIndexStore) reopen() error {
	if s.db != nil && s.Exists() {
		return nil
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(s.path + suffix)
	}
	log.Warn().Str("component", "index_store").Str("path", s.path).Msg("index database missing, recreating")
	return s.open()
}

func (s *SQLiteIndexStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshot (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		generation INTEGER NOT NULL,
		source TEXT NOT NULL,
		model TEXT NOT NULL,
		dimension INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS chunks (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL,
		source TEXT NOT NULL,
		page INTEGER NOT NULL,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path is the database file location.
func (s *SQLiteIndexStore) Path() string { return s.path }

// Exists reports whether the database file is still on disk.
func (s *SQLiteIndexStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Save replaces the stored snapshot in one transaction.
func (s *SQLiteIndexStore) Save(ctx context.Context, snap *services.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reopen(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshot (id, generation, source, model, dimension, created_at)
		VALUES (1, ?, ?, ?, ?, ?)
	`, int64(snap.Generation), snap.Source, snap.Model, snap.Dimension(), snap.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("writing snapshot header: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (position, id, source, page, chunk_index, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range snap.Chunks {
		_, err := stmt.ExecContext(ctx, i, chunk.ID, chunk.Source, chunk.Page, chunk.Index, chunk.Text, encodeVector(snap.Vectors[i]))
		if err != nil {
			return fmt.Errorf("inserting chunk %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Load reads the stored snapshot, or returns nil when nothing was saved.
func (s *SQLiteIndexStore) Load(ctx context.Context) (*services.Snapshot, error) {
	var (
		snap      services.Snapshot
		gen       int64
		dimension int
		created   string
	)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, errors.New("index database is closed")
	}
	err := s.db.QueryRowContext(ctx,
		"SELECT generation, source, model, dimension, created_at FROM snapshot WHERE id = 1",
	).Scan(&gen, &snap.Source, &snap.Model, &dimension, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot header: %w", err)
	}
	snap.Generation = uint64(gen)
	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, page, chunk_index, content, embedding
		FROM chunks ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chunk models.DocumentChunk
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.Source, &chunk.Page, &chunk.Index, &chunk.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding chunk %s: %w", chunk.ID, err)
		}
		if len(vec) != dimension {
			return nil, fmt.Errorf("chunk %s has dimension %d, header says %d", chunk.ID, len(vec), dimension)
		}
		snap.Chunks = append(snap.Chunks, chunk)
		snap.Vectors = append(snap.Vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SQLiteIndexStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// encodeVector stores float32 values little-endian, four bytes each.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
