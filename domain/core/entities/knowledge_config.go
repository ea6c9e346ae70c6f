package entities

import (
	"sort"

	"famorg/domain/core/valueobjects"
)

// KnowledgeConfig says whose attributes a "learn" counts towards.
type KnowledgeConfig struct {
	CurrentLearners  []string        `json:"currentLearners"`
	TargetAttributes map[string]bool `json:"targetAttributes"`
}

// DefaultKnowledgeConfig returns the empty configuration
func DefaultKnowledgeConfig() *KnowledgeConfig {
	return &KnowledgeConfig{
		CurrentLearners:  []string{},
		TargetAttributes: map[string]bool{},
	}
}

// Normalize replaces nil collections with empty ones
func (c *KnowledgeConfig) Normalize() {
	if c.CurrentLearners == nil {
		c.CurrentLearners = []string{}
	}
	if c.TargetAttributes == nil {
		c.TargetAttributes = map[string]bool{}
	}
}

// Validate rejects reserved member or attribute ids
func (c *KnowledgeConfig) Validate() error {
	for _, learner := range c.CurrentLearners {
		if err := valueobjects.ValidateKey(learner); err != nil {
			return err
		}
	}
	for attr := range c.TargetAttributes {
		if err := valueobjects.ValidateKey(attr); err != nil {
			return err
		}
	}
	return nil
}

// AttributeIDs returns the enabled target attributes in a stable order
func (c *KnowledgeConfig) AttributeIDs() []string {
	ids := make([]string, 0, len(c.TargetAttributes))
	for id, enabled := range c.TargetAttributes {
		if enabled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
