package jsonfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"famorg/application/ports"
	pkgerrors "famorg/pkg/errors"

	"github.com/google/uuid"
	"github.com/hack-pad/hackpadfs"
	"go.uber.org/zap"
)

const (
	backendName  = "file"
	documentExt  = ".json"
	documentPerm = 0o644
	dirPerm      = 0o755
)

// Store keeps each document as one pretty-printed JSON file on a hackpadfs.FS.
// Document ids are slash-separated paths relative to the FS root, without
// the .json extension.
type Store struct {
	fs       hackpadfs.FS
	locker   *Locker
	logger   *zap.Logger
	observer ports.StoreObserver
}

var _ ports.DocumentStore = (*Store)(nil)

// NewStore creates a document store over fs
func NewStore(fs hackpadfs.FS, locker *Locker, logger *zap.Logger) *Store {
	if locker == nil {
		locker = NewLocker()
	}
	return &Store{
		fs:     fs,
		locker: locker,
		logger: logger,
	}
}

// WithObserver attaches an operation observer (metrics)
func (s *Store) WithObserver(observer ports.StoreObserver) *Store {
	s.observer = observer
	return s
}

// FS exposes the underlying filesystem to sibling repositories
func (s *Store) FS() hackpadfs.FS {
	return s.fs
}

// Locker exposes the per-document lock table
func (s *Store) Locker() *Locker {
	return s.locker
}

func fileName(docID string) string {
	return docID + documentExt
}

// Load reads and decodes a document
func (s *Store) Load(ctx context.Context, docID string, into any) (found bool, err error) {
	start := time.Now()
	defer func() { s.observe("load", start, err) }()

	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.load(docID, into)
}

func (s *Store) load(docID string, into any) (bool, error) {
	data, err := hackpadfs.ReadFile(s.fs, fileName(docID))
	if err != nil {
		if errors.Is(err, hackpadfs.ErrNotExist) {
			return false, nil
		}
		return false, pkgerrors.NewIOError("read "+docID, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return false, pkgerrors.NewCorruptDocumentError(docID, err)
	}
	return true, nil
}

// Save rewrites the whole document
func (s *Store) Save(ctx context.Context, docID string, doc any) (err error) {
	start := time.Now()
	defer func() { s.observe("save", start, err) }()

	unlock, err := s.locker.Lock(ctx, docID)
	if err != nil {
		return err
	}
	defer unlock()

	return s.save(docID, doc)
}

// save writes to a temporary sibling and renames it over the target, so a
// reader never observes a half-written document.
func (s *Store) save(docID string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return pkgerrors.NewInternalError(fmt.Sprintf("encode document '%s'", docID)).WithCause(err)
	}

	target := fileName(docID)
	tmp := path.Join(path.Dir(target), "."+path.Base(target)+".tmp-"+uuid.NewString()[:8])

	if err := hackpadfs.WriteFullFile(s.fs, tmp, data, documentPerm); err != nil {
		if errors.Is(err, hackpadfs.ErrNotExist) {
			return pkgerrors.NewNotFoundError(fmt.Sprintf("parent category of '%s'", docID))
		}
		return pkgerrors.NewIOError("write "+docID, err)
	}
	if err := hackpadfs.Rename(s.fs, tmp, target); err != nil {
		_ = hackpadfs.Remove(s.fs, tmp)
		return pkgerrors.NewIOError("write "+docID, err)
	}

	s.logger.Debug("Document saved",
		zap.String("doc", docID),
		zap.Int("bytes", len(data)),
	)
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

	if _, err := s.load(docID, into); err != nil {
		return err
	}
	if err := mutate(); err != nil {
		if errors.Is(err, ports.ErrNoChange) {
			return nil
		}
		return err
	}
	return s.save(docID, into)
}

// MkdirAll creates a directory and any missing parents
func (s *Store) MkdirAll(dir string) error {
	if err := hackpadfs.MkdirAll(s.fs, dir, dirPerm); err != nil {
		return pkgerrors.NewIOError("mkdir "+dir, err)
	}
	return nil
}

func (s *Store) observe(op string, start time.Time, err error) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveStoreOperation(backendName, op, time.Since(start).Seconds(), err)
}
