package aggregates

import (
	"time"

	"famorg/domain/core/entities"
	"famorg/domain/core/valueobjects"
	"famorg/domain/events"
	pkgerrors "famorg/pkg/errors"
	"famorg/pkg/utils"
)

// Leaf is the aggregate root for one leaf file: its path and its ordered items.
// It is loaded, mutated and saved as a whole; the repository owns persistence.
type Leaf struct {
	path  valueobjects.ResourcePath
	items []*entities.KnowledgeItem

	clock  func() time.Time
	events []events.DomainEvent
}

// NewLeaf wraps the items read from a leaf document
func NewLeaf(path valueobjects.ResourcePath, items []*entities.KnowledgeItem) *Leaf {
	if items == nil {
		items = []*entities.KnowledgeItem{}
	}
	return &Leaf{path: path, items: items, clock: time.Now}
}

// WithClock overrides the time source; used by tests
func (l *Leaf) WithClock(clock func() time.Time) *Leaf {
	l.clock = clock
	return l
}

// Path returns the leaf path
func (l *Leaf) Path() valueobjects.ResourcePath { return l.path }

// Items returns the items in file order
func (l *Leaf) Items() []*entities.KnowledgeItem { return l.items }

// Document returns the on-disk representation
func (l *Leaf) Document() *entities.LeafDocument {
	doc := &entities.LeafDocument{Items: l.items}
	doc.Normalize()
	return doc
}

// Find returns the index and item with the given id, or -1 and nil
func (l *Leaf) Find(id string) (int, *entities.KnowledgeItem) {
	for i, item := range l.items {
		if item.ID == id {
			return i, item
		}
	}
	return -1, nil
}

func (l *Leaf) now() string {
	return utils.FormatISO(l.clock())
}

// Upsert replaces the item with the same id in place, or appends it with a
// fresh id and createdAt when the id is missing or unknown.
func (l *Leaf) Upsert(item *entities.KnowledgeItem) *entities.KnowledgeItem {
	if item.ID != "" {
		if idx, _ := l.Find(item.ID); idx >= 0 {
			l.items[idx] = item
			l.addEvent(events.NewItemSaved(l.path.String(), item.ID, false, l.clock()))
			return item
		}
	}
	return l.Append(item)
}

// Append adds a new item with a freshly generated id
func (l *Leaf) Append(item *entities.KnowledgeItem) *entities.KnowledgeItem {
	item.ID = valueobjects.NewItemID().String()
	item.CreatedAt = l.now()
	if item.LearnCount < 0 {
		item.LearnCount = 0
	}
	if item.ForgetCount < 0 {
		item.ForgetCount = 0
	}
	l.items = append(l.items, item)
	l.addEvent(events.NewItemSaved(l.path.String(), item.ID, true, l.clock()))
	return item
}

// Delete removes the item if present and reports whether anything changed
func (l *Leaf) Delete(id string) bool {
	idx, _ := l.Find(id)
	if idx < 0 {
		return false
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	l.addEvent(events.NewItemDeleted(l.path.String(), id, l.clock()))
	return true
}

// Learn increments learnCount and stamps lastLearnTime
func (l *Leaf) Learn(id string) (*entities.KnowledgeItem, error) {
	_, item := l.Find(id)
	if item == nil {
		return nil, pkgerrors.NewNotFoundError("knowledge item " + id)
	}
	item.Learned(l.now())
	l.addEvent(events.NewItemLearned(l.path.String(), id, item.LearnCount, l.clock()))
	return item, nil
}

// Forget increments forgetCount
func (l *Leaf) Forget(id string) (*entities.KnowledgeItem, error) {
	_, item := l.Find(id)
	if item == nil {
		return nil, pkgerrors.NewNotFoundError("knowledge item " + id)
	}
	item.Forgotten()
	l.addEvent(events.NewItemForgotten(l.path.String(), id, item.ForgetCount, l.clock()))
	return item, nil
}

func (l *Leaf) addEvent(e events.DomainEvent) {
	l.events = append(l.events, e)
}

// GetUncommittedEvents returns the events raised since load
func (l *Leaf) GetUncommittedEvents() []events.DomainEvent {
	return l.events
}

// MarkEventsAsCommitted clears the raised events
func (l *Leaf) MarkEventsAsCommitted() {
	l.events = nil
}
