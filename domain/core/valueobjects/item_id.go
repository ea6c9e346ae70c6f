package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// ItemID identifies a knowledge item within its leaf file.
// New ids are UUIDs; ids written by older tools (e.g. millisecond
// timestamps) are accepted as opaque strings.
type ItemID struct {
	value string
}

// NewItemID creates a new random ItemID
func NewItemID() ItemID {
	return ItemID{value: uuid.New().String()}
}

// ItemIDFromString wraps an existing id
func ItemIDFromString(id string) (ItemID, error) {
	if id == "" {
		return ItemID{}, errors.New("item ID cannot be empty")
	}
	return ItemID{value: id}, nil
}

// String returns the string representation of the ItemID
func (id ItemID) String() string {
	return id.value
}

// Equals checks if two ItemIDs are equal
func (id ItemID) Equals(other ItemID) bool {
	return id.value == other.value
}

// IsZero checks if the ItemID is the zero value
func (id ItemID) IsZero() bool {
	return id.value == ""
}
