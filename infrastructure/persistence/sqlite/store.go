// Package sqlite keeps flat documents as rows of a single SQLite table.
// It backs the knowledge config and member attributes when
// STORE_BACKEND=sqlite; the knowledge tree itself always stays on disk
// because its layout is the directory structure.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"famorg/application/ports"
	"famorg/infrastructure/persistence/jsonfs"
	pkgerrors "famorg/pkg/errors"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const backendName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// Store implements ports.DocumentStore on SQLite
type Store struct {
	conn     *sql.DB
	locker   *jsonfs.Locker
	logger   *zap.Logger
	observer ports.StoreObserver
	Path     string
}

var _ ports.DocumentStore = (*Store)(nil)

// Open opens (or creates) the database at path with WAL mode enabled
func Open(path string, logger *zap.Logger) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{
		conn:   conn,
		locker: jsonfs.NewLocker(),
		logger: logger,
		Path:   path,
	}, nil
}

// WithObserver attaches an operation observer (metrics)
func (s *Store) WithObserver(observer ports.StoreObserver) *Store {
	s.observer = observer
	return s
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// Load decodes the document body into `into`
func (s *Store) Load(ctx context.Context, docID string, into any) (found bool, err error) {
	start := time.Now()
	defer func() { s.observe("load", start, err) }()

	return s.load(ctx, docID, into)
}

func (s *Store) load(ctx context.Context, docID string, into any) (bool, error) {
	var body string
	err := s.conn.QueryRowContext(ctx, "SELECT body FROM documents WHERE id = ?", docID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, pkgerrors.NewIOError("read "+docID, err)
	}
	if err := json.Unmarshal([]byte(body), into); err != nil {
		return false, pkgerrors.NewCorruptDocumentError(docID, err)
	}
	return true, nil
}

// Save replaces the whole document row
func (s *Store) Save(ctx context.Context, docID string, doc any) (err error) {
	start := time.Now()
	defer func() { s.observe("save", start, err) }()

	unlock, err := s.locker.Lock(ctx, docID)
	if err != nil {
		return err
	}
	defer unlock()

	return s.save(ctx, docID, doc)
}

func (s *Store) save(ctx context.Context, docID string, doc any) error {
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return pkgerrors.NewInternalError(fmt.Sprintf("encode document '%s'", docID)).WithCause(err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO documents (id, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		docID, string(body), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return pkgerrors.NewIOError("write "+docID, err)
	}
	return nil
}

// Update runs a read-modify-write cycle under the document's lock
func (s *Store) Update(ctx context.Context, docID string, into any, mutate func() error) (err error) {
	start := time.Now()
	defer func() { s.observe("update", start, err) }()

	unlock, err := s.locker.Lock(ctx, docID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := s.load(ctx, docID, into); err != nil {
		return err
	}
	if err := mutate(); err != nil {
		if errors.Is(err, ports.ErrNoChange) {
			return nil
		}
		return err
	}
	return s.save(ctx, docID, into)
}

func (s *Store) observe(op string, start time.Time, err error) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveStoreOperation(backendName, op, time.Since(start).Seconds(), err)
}
