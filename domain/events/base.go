package events

import "time"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// Event types
const (
	TypeCategoryCreated = "category.created"
	TypeCategoryDeleted = "category.deleted"
	TypeLeafCreated     = "leaf.created"
	TypeItemSaved       = "item.saved"
	TypeItemDeleted     = "item.deleted"
	TypeItemLearned     = "item.learned"
	TypeItemForgotten   = "item.forgotten"
	TypeItemsImported   = "items.imported"
)

// BaseEvent provides common event fields.
// AggregateID is the resource path the event concerns.
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(path, eventType string, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: path,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     1,
	}
}

// ChangesTree reports whether the event alters the scanned knowledge tree.
// Learn/forget do too, since file nodes embed their items.
func ChangesTree(e DomainEvent) bool {
	switch e.GetEventType() {
	case TypeCategoryCreated, TypeCategoryDeleted, TypeLeafCreated,
		TypeItemSaved, TypeItemDeleted, TypeItemLearned, TypeItemForgotten, TypeItemsImported:
		return true
	}
	return false
}

// Category events

// CategoryCreated is raised when a directory is created under the knowledge root
type CategoryCreated struct {
	BaseEvent
	Path string `json:"path"`
}

// NewCategoryCreated creates a CategoryCreated event
func NewCategoryCreated(path string, timestamp time.Time) CategoryCreated {
	return CategoryCreated{BaseEvent: newBase(path, TypeCategoryCreated, timestamp), Path: path}
}

// CategoryDeleted is raised when a category (or leaf) is removed recursively
type CategoryDeleted struct {
	BaseEvent
	Path string `json:"path"`
}

// NewCategoryDeleted creates a CategoryDeleted event
func NewCategoryDeleted(path string, timestamp time.Time) CategoryDeleted {
	return CategoryDeleted{BaseEvent: newBase(path, TypeCategoryDeleted, timestamp), Path: path}
}

// LeafCreated is raised when an empty leaf file is created
type LeafCreated struct {
	BaseEvent
	Path string `json:"path"`
}

// NewLeafCreated creates a LeafCreated event
func NewLeafCreated(path string, timestamp time.Time) LeafCreated {
	return LeafCreated{BaseEvent: newBase(path, TypeLeafCreated, timestamp), Path: path}
}

// Item events

// ItemSaved is raised by an upsert
type ItemSaved struct {
	BaseEvent
	ItemID  string `json:"item_id"`
	Created bool   `json:"created"`
}

// NewItemSaved creates an ItemSaved event
func NewItemSaved(path, itemID string, created bool, timestamp time.Time) ItemSaved {
	return ItemSaved{BaseEvent: newBase(path, TypeItemSaved, timestamp), ItemID: itemID, Created: created}
}

// ItemDeleted is raised when an item is removed from its leaf
type ItemDeleted struct {
	BaseEvent
	ItemID string `json:"item_id"`
}

// NewItemDeleted creates an ItemDeleted event
func NewItemDeleted(path, itemID string, timestamp time.Time) ItemDeleted {
	return ItemDeleted{BaseEvent: newBase(path, TypeItemDeleted, timestamp), ItemID: itemID}
}

// ItemLearned is raised when a review marks an item as learned
type ItemLearned struct {
	BaseEvent
	ItemID     string `json:"item_id"`
	LearnCount int    `json:"learn_count"`
}

// NewItemLearned creates an ItemLearned event
func NewItemLearned(path, itemID string, learnCount int, timestamp time.Time) ItemLearned {
	return ItemLearned{BaseEvent: newBase(path, TypeItemLearned, timestamp), ItemID: itemID, LearnCount: learnCount}
}

// ItemForgotten is raised when a review marks an item as forgotten
type ItemForgotten struct {
	BaseEvent
	ItemID      string `json:"item_id"`
	ForgetCount int    `json:"forget_count"`
}

// NewItemForgotten creates an ItemForgotten event
func NewItemForgotten(path, itemID string, forgetCount int, timestamp time.Time) ItemForgotten {
	return ItemForgotten{BaseEvent: newBase(path, TypeItemForgotten, timestamp), ItemID: itemID, ForgetCount: forgetCount}
}

// ItemsImported is raised once per bulk import
type ItemsImported struct {
	BaseEvent
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Leaves   []string `json:"leaves"`
}

// NewItemsImported creates an ItemsImported event
func NewItemsImported(imported, skipped int, leaves []string, timestamp time.Time) ItemsImported {
	return ItemsImported{
		BaseEvent: newBase("", TypeItemsImported, timestamp),
		Imported:  imported,
		Skipped:   skipped,
		Leaves:    leaves,
	}
}
