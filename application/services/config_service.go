package services

import (
	"context"

	"famorg/application/ports"
	"famorg/domain/config"
	"famorg/domain/core/entities"
	pkgerrors "famorg/pkg/errors"

	"go.uber.org/zap"
)

// ConfigService reads and writes the knowledge config document
type ConfigService struct {
	docs      ports.DocumentStore
	domainCfg *config.DomainConfig
	logger    *zap.Logger
}

// NewConfigService creates a new config service
func NewConfigService(docs ports.DocumentStore, domainCfg *config.DomainConfig, logger *zap.Logger) *ConfigService {
	if domainCfg == nil {
		domainCfg = config.DefaultDomainConfig()
	}
	return &ConfigService{docs: docs, domainCfg: domainCfg, logger: logger}
}

// GetConfig returns the stored config, or the empty default when none exists
func (s *ConfigService) GetConfig(ctx context.Context) (*entities.KnowledgeConfig, error) {
	cfg := entities.DefaultKnowledgeConfig()
	if _, err := s.docs.Load(ctx, s.domainCfg.KnowledgeConfigDoc, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// UpdateConfig replaces the config after validating every id
func (s *ConfigService) UpdateConfig(ctx context.Context, cfg *entities.KnowledgeConfig) (*entities.KnowledgeConfig, error) {
	if cfg == nil {
		return nil, pkgerrors.NewValidationError("config is required")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.docs.Save(ctx, s.domainCfg.KnowledgeConfigDoc, cfg); err != nil {
		return nil, err
	}

	s.logger.Info("Knowledge config updated",
		zap.Int("learners", len(cfg.CurrentLearners)),
		zap.Int("targetAttributes", len(cfg.AttributeIDs())),
	)
	return cfg, nil
}

// LearnTargets resolves the learners and attributes a learn should credit.
// Explicit values win; nil falls back to the stored config.
func (s *ConfigService) LearnTargets(ctx context.Context, learners []string, attributes map[string]bool) ([]string, []string, error) {
	if learners == nil || attributes == nil {
		stored, err := s.GetConfig(ctx)
		if err != nil {
			return nil, nil, err
		}
		if learners == nil {
			learners = stored.CurrentLearners
		}
		if attributes == nil {
			attributes = stored.TargetAttributes
		}
	}
	resolved := &entities.KnowledgeConfig{CurrentLearners: learners, TargetAttributes: attributes}
	return resolved.CurrentLearners, resolved.AttributeIDs(), nil
}
