package jsonfs

import (
	"context"

	"famorg/application/ports"
	"famorg/domain/core/aggregates"
	"famorg/domain/core/entities"
	"famorg/domain/core/valueobjects"
)

// LeafRepository stores each leaf as `<path>.json` holding {"items": [...]}
type LeafRepository struct {
	store *Store
}

var _ ports.LeafRepository = (*LeafRepository)(nil)

// NewLeafRepository creates a leaf repository over a knowledge-root store
func NewLeafRepository(store *Store) *LeafRepository {
	return &LeafRepository{store: store}
}

// Get loads the leaf; a missing file is an empty leaf
func (r *LeafRepository) Get(ctx context.Context, path valueobjects.ResourcePath) (*aggregates.Leaf, error) {
	var doc entities.LeafDocument
	if _, err := r.store.Load(ctx, path.String(), &doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return aggregates.NewLeaf(path, doc.Items), nil
}

// Modify runs fn against a freshly loaded leaf under the leaf's lock and
// persists the result. When fn fails nothing is written.
func (r *LeafRepository) Modify(ctx context.Context, path valueobjects.ResourcePath, fn func(leaf *aggregates.Leaf) error) error {
	var doc entities.LeafDocument
	var leaf *aggregates.Leaf

	return r.store.Update(ctx, path.String(), &doc, func() error {
		doc.Normalize()
		leaf = aggregates.NewLeaf(path, doc.Items)
		if err := fn(leaf); err != nil {
			return err
		}
		doc = *leaf.Document()
		return nil
	})
}
