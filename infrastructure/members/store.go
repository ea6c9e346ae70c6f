// Package members adapts the household member-attribute document to the
// ports.MemberAttributeStore collaborator used by the learn side effect.
package members

import (
	"context"
	"math"
	"strconv"
	"strings"

	"famorg/application/ports"
	"famorg/domain/core/valueobjects"

	"go.uber.org/zap"
)

// Attributes is the document shape: memberId -> attrId -> value.
// Values are numbers for counter attributes and strings for free text.
type Attributes map[string]map[string]any

// Store reads and writes the member-attributes document
type Store struct {
	docs   ports.DocumentStore
	docID  string
	logger *zap.Logger
}

var _ ports.MemberAttributeStore = (*Store)(nil)

// NewStore creates a member attribute store on top of a document store
func NewStore(docs ports.DocumentStore, docID string, logger *zap.Logger) *Store {
	return &Store{docs: docs, docID: docID, logger: logger}
}

func validateIDs(memberID, attrID string) error {
	if err := valueobjects.ValidateKey(memberID); err != nil {
		return err
	}
	return valueobjects.ValidateKey(attrID)
}

// Get returns the counter value, 0 when absent or not numeric
func (s *Store) Get(ctx context.Context, memberID, attrID string) (int, error) {
	if err := validateIDs(memberID, attrID); err != nil {
		return 0, err
	}
	attrs := Attributes{}
	if _, err := s.docs.Load(ctx, s.docID, &attrs); err != nil {
		return 0, err
	}
	return ToInt(attrs[memberID][attrID]), nil
}

// Set stores an arbitrary value
func (s *Store) Set(ctx context.Context, memberID, attrID string, value any) error {
	if err := validateIDs(memberID, attrID); err != nil {
		return err
	}
	attrs := Attributes{}
	return s.docs.Update(ctx, s.docID, &attrs, func() error {
		if attrs[memberID] == nil {
			attrs[memberID] = map[string]any{}
		}
		attrs[memberID][attrID] = value
		return nil
	})
}

// Increment adds delta to the counter in one read-modify-write cycle
func (s *Store) Increment(ctx context.Context, memberID, attrID string, delta int) (int, error) {
	if err := validateIDs(memberID, attrID); err != nil {
		return 0, err
	}
	attrs := Attributes{}
	var next int
	err := s.docs.Update(ctx, s.docID, &attrs, func() error {
		if attrs[memberID] == nil {
			attrs[memberID] = map[string]any{}
		}
		next = ToInt(attrs[memberID][attrID]) + delta
		attrs[memberID][attrID] = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// All returns the whole document
func (s *Store) All(ctx context.Context) (map[string]map[string]any, error) {
	attrs := Attributes{}
	if _, err := s.docs.Load(ctx, s.docID, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

// ToInt coerces a stored attribute value to an integer the way the web
// client does: numbers are truncated, strings contribute their leading
// integer ("12 times" is 12), anything else is 0.
func ToInt(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0
		}
		return int(val)
	case string:
		return leadingInt(val)
	default:
		return 0
	}
}

func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
