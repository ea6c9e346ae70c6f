package services

import (
	"context"
	"time"

	"famorg/application/ports"
	"famorg/domain/config"
	"famorg/domain/core/aggregates"
	"famorg/domain/core/entities"
	"famorg/domain/core/valueobjects"
	pkgerrors "famorg/pkg/errors"
	"famorg/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// KnowledgeService manages the items of leaf files.
// Every write goes through LeafRepository.Modify, which serializes
// read-modify-write cycles per leaf; nothing is published until the write
// has succeeded.
type KnowledgeService struct {
	leaves    ports.LeafRepository
	members   ports.MemberAttributeStore
	publisher ports.EventPublisher
	domainCfg *config.DomainConfig
	logger    *zap.Logger
	tracer    *observability.Tracer
	clock     func() time.Time
}

// NewKnowledgeService creates a new knowledge service
func NewKnowledgeService(
	leaves ports.LeafRepository,
	members ports.MemberAttributeStore,
	publisher ports.EventPublisher,
	domainCfg *config.DomainConfig,
	logger *zap.Logger,
) *KnowledgeService {
	if domainCfg == nil {
		domainCfg = config.DefaultDomainConfig()
	}
	return &KnowledgeService{
		leaves:    leaves,
		members:   members,
		publisher: publisher,
		domainCfg: domainCfg,
		logger:    logger,
		tracer:    observability.NewTracer("famorg"),
		clock:     time.Now,
	}
}

// WithClock overrides the time source; used by tests
func (s *KnowledgeService) WithClock(clock func() time.Time) *KnowledgeService {
	s.clock = clock
	return s
}

// ListItems returns the items of a leaf; a missing leaf has none
func (s *KnowledgeService) ListItems(ctx context.Context, filePath string) ([]*entities.KnowledgeItem, error) {
	path, err := parseLeafPath(filePath, s.domainCfg)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.StartSpan(ctx, "knowledge.list", attribute.String("leaf", path.String()))
	defer span.End()

	leaf, err := s.leaves.Get(ctx, path)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return cloneItems(leaf.Items()), nil
}

// UpsertItem replaces the item with the same id (full overwrite, in place) or
// appends it with a fresh id and createdAt. Returns the stored item.
func (s *KnowledgeService) UpsertItem(ctx context.Context, filePath string, item *entities.KnowledgeItem) (*entities.KnowledgeItem, error) {
	path, err := parseLeafPath(filePath, s.domainCfg)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, pkgerrors.NewValidationError("item is required")
	}
	if err := item.Validate(s.domainCfg); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.StartSpan(ctx, "knowledge.upsert",
		attribute.String("leaf", path.String()),
		attribute.String("item_id", item.ID),
	)
	defer span.End()

	// The caller's item is never mutated; a failed write leaves it as it was.
	candidate := item.Clone()
	var stored *entities.KnowledgeItem
	var changed *aggregates.Leaf
	err = s.leaves.Modify(ctx, path, func(leaf *aggregates.Leaf) error {
		leaf.WithClock(s.clock)
		stored = leaf.Upsert(candidate)
		changed = leaf
		return nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	s.commit(ctx, changed)
	s.logger.Debug("Knowledge item saved",
		zap.String("leaf", path.String()),
		zap.String("itemID", stored.ID),
	)
	return stored.Clone(), nil
}

// DeleteItem removes the item if present. Deleting an absent id (or from an
// absent leaf) is a no-op and writes nothing.
func (s *KnowledgeService) DeleteItem(ctx context.Context, filePath, itemID string) error {
	path, err := parseLeafPath(filePath, s.domainCfg)
	if err != nil {
		return err
	}
	if itemID == "" {
		return pkgerrors.NewValidationError("item id is required")
	}

	ctx, span := s.tracer.StartSpan(ctx, "knowledge.delete",
		attribute.String("leaf", path.String()),
		attribute.String("item_id", itemID),
	)
	defer span.End()

	var changed *aggregates.Leaf
	err = s.leaves.Modify(ctx, path, func(leaf *aggregates.Leaf) error {
		leaf.WithClock(s.clock)
		if !leaf.Delete(itemID) {
			return ports.ErrNoChange
		}
		changed = leaf
		return nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return err
	}

	s.commit(ctx, changed)
	return nil
}

// MarkLearned increments learnCount, stamps lastLearnTime and persists the
// leaf. Afterwards every (learner, attribute) counter in the member
// attribute store is incremented by one.
//
// The counter updates are best-effort and not transactional with the leaf
// write: a failure is logged and the learned item is still returned.
func (s *KnowledgeService) MarkLearned(ctx context.Context, filePath, itemID string, learners, attributes []string) (*entities.KnowledgeItem, error) {
	path, err := parseLeafPath(filePath, s.domainCfg)
	if err != nil {
		return nil, err
	}
	if itemID == "" {
		return nil, pkgerrors.NewValidationError("item id is required")
	}
	for _, key := range append(append([]string{}, learners...), attributes...) {
		if err := valueobjects.ValidateKey(key); err != nil {
			return nil, err
		}
	}

	ctx, span := s.tracer.StartSpan(ctx, "knowledge.learn",
		attribute.String("leaf", path.String()),
		attribute.String("item_id", itemID),
		attribute.Int("learners", len(learners)),
		attribute.Int("attributes", len(attributes)),
	)
	defer span.End()

	var learned *entities.KnowledgeItem
	var changed *aggregates.Leaf
	err = s.leaves.Modify(ctx, path, func(leaf *aggregates.Leaf) error {
		leaf.WithClock(s.clock)
		item, err := leaf.Learn(itemID)
		if err != nil {
			return err
		}
		learned = item
		changed = leaf
		return nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	s.commit(ctx, changed)
	s.creditLearners(ctx, learners, attributes)

	return learned.Clone(), nil
}

// creditLearners bumps each learner's target attributes; failures are only logged
func (s *KnowledgeService) creditLearners(ctx context.Context, learners, attributes []string) {
	if s.members == nil {
		return
	}
	for _, memberID := range learners {
		for _, attrID := range attributes {
			value, err := s.members.Increment(ctx, memberID, attrID, 1)
			if err != nil {
				s.logger.Warn("Failed to credit member attribute",
					zap.String("memberID", memberID),
					zap.String("attrID", attrID),
					zap.Error(err),
				)
				continue
			}
			s.logger.Debug("Member attribute credited",
				zap.String("memberID", memberID),
				zap.String("attrID", attrID),
				zap.Int("value", value),
			)
		}
	}
}

// MarkForgotten increments forgetCount and persists the leaf
func (s *KnowledgeService) MarkForgotten(ctx context.Context, filePath, itemID string) (*entities.KnowledgeItem, error) {
	path, err := parseLeafPath(filePath, s.domainCfg)
	if err != nil {
		return nil, err
	}
	if itemID == "" {
		return nil, pkgerrors.NewValidationError("item id is required")
	}

	ctx, span := s.tracer.StartSpan(ctx, "knowledge.forget",
		attribute.String("leaf", path.String()),
		attribute.String("item_id", itemID),
	)
	defer span.End()

	var forgotten *entities.KnowledgeItem
	var changed *aggregates.Leaf
	err = s.leaves.Modify(ctx, path, func(leaf *aggregates.Leaf) error {
		leaf.WithClock(s.clock)
		item, err := leaf.Forget(itemID)
		if err != nil {
			return err
		}
		forgotten = item
		changed = leaf
		return nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	s.commit(ctx, changed)
	return forgotten.Clone(), nil
}

// commit publishes the events a successfully saved leaf raised
func (s *KnowledgeService) commit(ctx context.Context, leaf *aggregates.Leaf) {
	if leaf == nil {
		return
	}
	if s.publisher != nil {
		s.publisher.Publish(ctx, leaf.GetUncommittedEvents()...)
	}
	leaf.MarkEventsAsCommitted()
}

func cloneItems(items []*entities.KnowledgeItem) []*entities.KnowledgeItem {
	out := make([]*entities.KnowledgeItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
