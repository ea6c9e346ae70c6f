package ports

import (
	"context"
	"errors"

	"famorg/domain/core/aggregates"
	"famorg/domain/core/entities"
	"famorg/domain/core/valueobjects"
	"famorg/domain/events"
)

// DocumentStore loads and saves named JSON documents.
// This is a port in hexagonal architecture - callers don't know whether
// documents live in files or in a database.
//
// Isolation is "last writer wins at document granularity": Save rewrites the
// whole document. Update serializes read-modify-write cycles on one document
// inside this process, so two in-process writers never lose each other's
// change; writers in other processes can still race.
type DocumentStore interface {
	// Load decodes the document into `into`. A missing document returns
	// found=false and leaves `into` untouched (the caller's default).
	Load(ctx context.Context, docID string, into any) (found bool, err error)

	// Save rewrites the whole document
	Save(ctx context.Context, docID string, doc any) error

	// Update loads the document into `into` (leaving the default when
	// missing), calls mutate and saves `into` if mutate returns nil.
	// Returning ErrNoChange from mutate skips the write and yields nil.
	Update(ctx context.Context, docID string, into any, mutate func() error) error
}

// ErrNoChange may be returned by an Update/Modify callback to skip the write
var ErrNoChange = errors.New("no change")

// LeafRepository persists leaf aggregates
type LeafRepository interface {
	// Get loads the leaf; a missing file yields an empty leaf
	Get(ctx context.Context, path valueobjects.ResourcePath) (*aggregates.Leaf, error)

	// Modify loads the leaf, applies fn and saves it atomically with respect
	// to other Modify calls on the same path. Nothing is written if fn fails.
	Modify(ctx context.Context, path valueobjects.ResourcePath, fn func(leaf *aggregates.Leaf) error) error
}

// CategoryRepository manages the directory layout of the knowledge tree
type CategoryRepository interface {
	// DirExists reports whether path names a category directory
	DirExists(ctx context.Context, path valueobjects.ResourcePath) (bool, error)

	// LeafExists reports whether path names a leaf file
	LeafExists(ctx context.Context, path valueobjects.ResourcePath) (bool, error)

	// CreateDir creates the directory and any missing parents
	CreateDir(ctx context.Context, path valueobjects.ResourcePath) error

	// CreateLeaf creates an empty leaf document
	CreateLeaf(ctx context.Context, path valueobjects.ResourcePath) error

	// RemoveDir removes a directory and everything below it
	RemoveDir(ctx context.Context, path valueobjects.ResourcePath) error

	// RemoveLeaf removes a leaf file
	RemoveLeaf(ctx context.Context, path valueobjects.ResourcePath) error
}

// TreeScanner builds the category tree from the knowledge root
type TreeScanner interface {
	Scan(ctx context.Context) ([]*entities.TreeNode, error)
}

// MemberAttributeStore is the external member-attribute collaborator
type MemberAttributeStore interface {
	// Get returns the integer value for (memberID, attrID), 0 when absent or non-numeric
	Get(ctx context.Context, memberID, attrID string) (int, error)

	// Set stores the value for (memberID, attrID)
	Set(ctx context.Context, memberID, attrID string, value any) error

	// Increment adds delta to the counter and returns the new value
	Increment(ctx context.Context, memberID, attrID string, delta int) (int, error)

	// All returns every member's attributes
	All(ctx context.Context) (map[string]map[string]any, error)
}

// EventPublisher fans domain events out to in-process subscribers
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.DomainEvent)
}

// StoreObserver receives timings of document store operations
type StoreObserver interface {
	ObserveStoreOperation(backend, operation string, seconds float64, err error)
}
