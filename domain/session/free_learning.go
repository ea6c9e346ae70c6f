// Package session models the free-learning review as an explicit state
// machine whose whole state fits in a serializable Snapshot.
package session

import (
	"context"
	"errors"
	"math/rand/v2"

	"famorg/domain/core/entities"
)

// State of a free-learning session
type State string

const (
	SelectingScope State = "selecting_scope"
	Reviewing      State = "reviewing"
	Finished       State = "finished"
)

var (
	// ErrNoItems is returned by Start when the leaf has nothing to review
	ErrNoItems = errors.New("no items to review")
	// ErrSessionFinished is returned by review actions once every item was shown
	ErrSessionFinished = errors.New("session finished")
	// ErrNotReviewing is returned by review actions before Start
	ErrNotReviewing = errors.New("no active session")
	// ErrSessionActive is returned by Start while a review is in progress
	ErrSessionActive = errors.New("session already in progress")
)

// ItemSource loads the items of a leaf
type ItemSource interface {
	ListItems(ctx context.Context, filePath string) ([]*entities.KnowledgeItem, error)
}

// Reviewer records review outcomes
type Reviewer interface {
	MarkLearned(ctx context.Context, filePath, itemID string) (*entities.KnowledgeItem, error)
	MarkForgotten(ctx context.Context, filePath, itemID string) (*entities.KnowledgeItem, error)
}

// Shuffler permutes n elements through swap. rand.Shuffle fits.
type Shuffler func(n int, swap func(i, j int))

// Snapshot is the complete session state
type Snapshot struct {
	State      State                     `json:"state"`
	FilePath   string                    `json:"filePath,omitempty"`
	Items      []*entities.KnowledgeItem `json:"items,omitempty"`
	Index      int                       `json:"index"`
	ShowDetail bool                      `json:"showDetail"`
}

// FreeLearning walks one leaf's items in random order, one at a time
type FreeLearning struct {
	source   ItemSource
	reviewer Reviewer
	shuffle  Shuffler
	snap     Snapshot
}

// NewFreeLearning creates a session in SelectingScope
func NewFreeLearning(source ItemSource, reviewer Reviewer) *FreeLearning {
	return &FreeLearning{
		source:   source,
		reviewer: reviewer,
		shuffle:  rand.Shuffle,
		snap:     Snapshot{State: SelectingScope},
	}
}

// WithShuffler replaces the random permutation; used by tests
func (f *FreeLearning) WithShuffler(shuffle Shuffler) *FreeLearning {
	f.shuffle = shuffle
	return f
}

// Start loads and shuffles the leaf's items and shows the first front
func (f *FreeLearning) Start(ctx context.Context, filePath string) error {
	if f.snap.State == Reviewing {
		return ErrSessionActive
	}

	items, err := f.source.ListItems(ctx, filePath)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return ErrNoItems
	}

	deck := make([]*entities.KnowledgeItem, len(items))
	for i, item := range items {
		deck[i] = item.Clone()
	}
	f.shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	f.snap = Snapshot{
		State:    Reviewing,
		FilePath: filePath,
		Items:    deck,
	}
	return nil
}

// State returns the current state
func (f *FreeLearning) State() State { return f.snap.State }

// Current returns the item under review, nil outside Reviewing
func (f *FreeLearning) Current() *entities.KnowledgeItem {
	if f.snap.State != Reviewing {
		return nil
	}
	return f.snap.Items[f.snap.Index]
}

// ShowDetail reports whether the current item's detail is revealed
func (f *FreeLearning) ShowDetail() bool { return f.snap.ShowDetail }

// Progress returns the 1-based position and the total number of items
func (f *FreeLearning) Progress() (position, total int) {
	total = len(f.snap.Items)
	if f.snap.State == Finished {
		return total, total
	}
	if total == 0 {
		return 0, 0
	}
	return f.snap.Index + 1, total
}

func (f *FreeLearning) requireReviewing() error {
	switch f.snap.State {
	case Reviewing:
		return nil
	case Finished:
		return ErrSessionFinished
	default:
		return ErrNotReviewing
	}
}

// RevealDetail flips the current card; revealing twice is harmless
func (f *FreeLearning) RevealDetail() error {
	if err := f.requireReviewing(); err != nil {
		return err
	}
	f.snap.ShowDetail = true
	return nil
}

// MarkLearned records the current item as learned and advances
func (f *FreeLearning) MarkLearned(ctx context.Context) error {
	if err := f.requireReviewing(); err != nil {
		return err
	}
	updated, err := f.reviewer.MarkLearned(ctx, f.snap.FilePath, f.Current().ID)
	if err != nil {
		return err
	}
	f.replaceCurrent(updated)
	return f.Advance()
}

// MarkForgotten records the current item as forgotten and advances
func (f *FreeLearning) MarkForgotten(ctx context.Context) error {
	if err := f.requireReviewing(); err != nil {
		return err
	}
	updated, err := f.reviewer.MarkForgotten(ctx, f.snap.FilePath, f.Current().ID)
	if err != nil {
		return err
	}
	f.replaceCurrent(updated)
	return f.Advance()
}

func (f *FreeLearning) replaceCurrent(item *entities.KnowledgeItem) {
	if item != nil {
		f.snap.Items[f.snap.Index] = item.Clone()
	}
}

// Advance moves to the next item's front. Moving past the last item
// finishes the session; advancing a finished session does nothing.
func (f *FreeLearning) Advance() error {
	switch f.snap.State {
	case Finished:
		return nil
	case SelectingScope:
		return ErrNotReviewing
	}
	f.snap.Index++
	f.snap.ShowDetail = false
	if f.snap.Index >= len(f.snap.Items) {
		f.snap.State = Finished
	}
	return nil
}

// Previous moves back one item; a no-op at the first item and once finished
func (f *FreeLearning) Previous() error {
	if err := f.requireReviewing(); err != nil {
		if errors.Is(err, ErrSessionFinished) {
			return nil
		}
		return err
	}
	if f.snap.Index > 0 {
		f.snap.Index--
	}
	f.snap.ShowDetail = false
	return nil
}

// Exit discards the session and returns to scope selection
func (f *FreeLearning) Exit() {
	f.snap = Snapshot{State: SelectingScope}
}

// Snapshot returns a copy of the session state
func (f *FreeLearning) Snapshot() Snapshot {
	out := f.snap
	if f.snap.Items != nil {
		out.Items = make([]*entities.KnowledgeItem, len(f.snap.Items))
		for i, item := range f.snap.Items {
			out.Items[i] = item.Clone()
		}
	}
	return out
}

// Restore resumes from a snapshot, e.g. one held by a client
func (f *FreeLearning) Restore(snap Snapshot) error {
	switch snap.State {
	case SelectingScope:
		f.Exit()
		return nil
	case Reviewing:
		if len(snap.Items) == 0 || snap.Index < 0 || snap.Index >= len(snap.Items) {
			return errors.New("invalid session snapshot")
		}
	case Finished:
	default:
		return errors.New("invalid session state " + string(snap.State))
	}
	f.snap = snap
	return nil
}
