package jsonfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"famorg/application/ports"
	"famorg/domain/core/entities"
	"famorg/domain/core/valueobjects"
	pkgerrors "famorg/pkg/errors"

	"github.com/hack-pad/hackpadfs"
)

// CategoryRepository maps categories to directories and leaves to
// `<name>.json` files on the knowledge-root filesystem.
type CategoryRepository struct {
	store *Store
}

var _ ports.CategoryRepository = (*CategoryRepository)(nil)

// NewCategoryRepository creates a category repository
func NewCategoryRepository(store *Store) *CategoryRepository {
	return &CategoryRepository{store: store}
}

func (r *CategoryRepository) stat(name string) (fs.FileInfo, error) {
	info, err := hackpadfs.Stat(r.store.FS(), name)
	if err != nil {
		if errors.Is(err, hackpadfs.ErrNotExist) {
			return nil, nil
		}
		return nil, pkgerrors.NewIOError("stat "+name, err)
	}
	return info, nil
}

// DirExists reports whether path is an existing directory
func (r *CategoryRepository) DirExists(ctx context.Context, path valueobjects.ResourcePath) (bool, error) {
	info, err := r.stat(path.String())
	if err != nil || info == nil {
		return false, err
	}
	return info.IsDir(), nil
}

// LeafExists reports whether `<path>.json` exists as a regular file. Any
// other entry at that name is a conflict, since writing the leaf would
// replace it.
func (r *CategoryRepository) LeafExists(ctx context.Context, path valueobjects.ResourcePath) (bool, error) {
	name := fileName(path.String())
	info, err := r.stat(name)
	if err != nil || info == nil {
		return false, err
	}
	if info.IsDir() {
		return false, pkgerrors.NewConflictError(fmt.Sprintf("'%s' is occupied by a directory", name))
	}
	return true, nil
}

// CreateDir creates the directory and any missing parents
func (r *CategoryRepository) CreateDir(ctx context.Context, path valueobjects.ResourcePath) error {
	return r.store.MkdirAll(path.String())
}

// CreateLeaf writes an empty leaf document
func (r *CategoryRepository) CreateLeaf(ctx context.Context, path valueobjects.ResourcePath) error {
	doc := &entities.LeafDocument{}
	doc.Normalize()
	return r.store.Save(ctx, path.String(), doc)
}

// RemoveDir removes the directory tree. There is no trash; this is final.
func (r *CategoryRepository) RemoveDir(ctx context.Context, path valueobjects.ResourcePath) error {
	unlock, err := r.store.Locker().Lock(ctx, path.String())
	if err != nil {
		return err
	}
	defer unlock()

	if err := hackpadfs.RemoveAll(r.store.FS(), path.String()); err != nil {
		return pkgerrors.NewIOError("remove "+path.String(), err)
	}
	return nil
}

// RemoveLeaf removes a single leaf file
func (r *CategoryRepository) RemoveLeaf(ctx context.Context, path valueobjects.ResourcePath) error {
	unlock, err := r.store.Locker().Lock(ctx, path.String())
	if err != nil {
		return err
	}
	defer unlock()

	if err := hackpadfs.Remove(r.store.FS(), fileName(path.String())); err != nil {
		if errors.Is(err, hackpadfs.ErrNotExist) {
			return pkgerrors.NewNotFoundError("knowledge file " + path.String())
		}
		return pkgerrors.NewIOError("remove "+path.String(), err)
	}
	return nil
}
