package services

import (
	"context"

	"famorg/domain/core/entities"
	"famorg/domain/session"
)

// SessionReviewer lets a free-learning session record outcomes. Learns are
// credited to the learners and attributes of the stored knowledge config.
type SessionReviewer struct {
	knowledge *KnowledgeService
	configs   *ConfigService
}

var (
	_ session.Reviewer   = (*SessionReviewer)(nil)
	_ session.ItemSource = (*KnowledgeService)(nil)
)

// NewSessionReviewer creates a reviewer over the knowledge and config services
func NewSessionReviewer(knowledge *KnowledgeService, configs *ConfigService) *SessionReviewer {
	return &SessionReviewer{knowledge: knowledge, configs: configs}
}

// MarkLearned implements session.Reviewer
func (r *SessionReviewer) MarkLearned(ctx context.Context, filePath, itemID string) (*entities.KnowledgeItem, error) {
	learners, attributes, err := r.configs.LearnTargets(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	return r.knowledge.MarkLearned(ctx, filePath, itemID, learners, attributes)
}

// MarkForgotten implements session.Reviewer
func (r *SessionReviewer) MarkForgotten(ctx context.Context, filePath, itemID string) (*entities.KnowledgeItem, error) {
	return r.knowledge.MarkForgotten(ctx, filePath, itemID)
}

// NewFreeLearningSession starts a session wired to these services
func (r *SessionReviewer) NewFreeLearningSession() *session.FreeLearning {
	return session.NewFreeLearning(r.knowledge, r)
}
