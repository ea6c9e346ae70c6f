package entities

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"famorg/domain/config"
	"famorg/domain/core/valueobjects"
	pkgerrors "famorg/pkg/errors"
)

// KnowledgeItem is one flashcard-like record stored in a leaf file.
// Fields other than the known ones (e.g. columns carried by a bulk import)
// are kept in Extra and written back untouched.
type KnowledgeItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Brief         string `json:"brief,omitempty"`
	Detail        string `json:"detail,omitempty"`
	URL           string `json:"url,omitempty"`
	LearnCount    int    `json:"learnCount"`
	ForgetCount   int    `json:"forgetCount"`
	LastLearnTime string `json:"lastLearnTime,omitempty"`
	CreatedAt     string `json:"createdAt"`

	Extra map[string]json.RawMessage `json:"-"`
}

var knownItemFields = []string{
	"id", "name", "brief", "detail", "url",
	"learnCount", "forgetCount", "lastLearnTime", "createdAt",
}

// itemAlias strips the custom (un)marshalers
type itemAlias KnowledgeItem

// UnmarshalJSON decodes the known fields and keeps the rest in Extra
func (i *KnowledgeItem) UnmarshalJSON(data []byte) error {
	var alias itemAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, key := range knownItemFields {
		delete(all, key)
	}

	*i = KnowledgeItem(alias)
	if len(all) > 0 {
		i.Extra = all
	} else {
		i.Extra = nil
	}
	return nil
}

// MarshalJSON writes the known fields merged with Extra; known fields win
func (i KnowledgeItem) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(itemAlias(i))
	if err != nil {
		return nil, err
	}
	if len(i.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(i.Extra)+len(knownItemFields))
	for k, v := range i.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Validate checks the item against the domain rules
func (i *KnowledgeItem) Validate(cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if strings.TrimSpace(i.Name) == "" {
		return pkgerrors.NewValidationError("item name is required")
	}
	if utf8.RuneCountInString(i.Name) > cfg.MaxItemNameLength {
		return pkgerrors.NewValidationError(fmt.Sprintf("item name exceeds %d characters", cfg.MaxItemNameLength))
	}
	if i.LearnCount < 0 || i.ForgetCount < 0 {
		return pkgerrors.NewValidationError("learn and forget counts cannot be negative")
	}
	for key := range i.Extra {
		if err := valueobjects.ValidateKey(key); err != nil {
			return err
		}
	}
	return nil
}

// Learned records a successful review
func (i *KnowledgeItem) Learned(now string) {
	i.LearnCount++
	i.LastLearnTime = now
}

// Forgotten records a failed review
func (i *KnowledgeItem) Forgotten() {
	i.ForgetCount++
}

// Clone returns a deep copy so callers can mutate without touching stored state
func (i *KnowledgeItem) Clone() *KnowledgeItem {
	c := *i
	if i.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(i.Extra))
		for k, v := range i.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}

// LeafDocument is the on-disk shape of a leaf file
type LeafDocument struct {
	Items []*KnowledgeItem `json:"items"`
}

// Normalize guarantees an empty list is written as [] rather than null
func (d *LeafDocument) Normalize() {
	if d.Items == nil {
		d.Items = []*KnowledgeItem{}
	}
}
