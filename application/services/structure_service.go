package services

import (
	"context"

	"famorg/application/ports"
	"famorg/domain/core/entities"
	"famorg/pkg/observability"

	"go.uber.org/zap"
)

// StructureService exposes the category tree
type StructureService struct {
	scanner ports.TreeScanner
	logger  *zap.Logger
	tracer  *observability.Tracer
}

// NewStructureService creates a structure service over a scanner or tree cache
func NewStructureService(scanner ports.TreeScanner, logger *zap.Logger) *StructureService {
	return &StructureService{
		scanner: scanner,
		logger:  logger,
		tracer:  observability.NewTracer("famorg"),
	}
}

// Structure returns the root categories. An empty root yields an empty list.
func (s *StructureService) Structure(ctx context.Context) ([]*entities.TreeNode, error) {
	ctx, span := s.tracer.StartSpan(ctx, "knowledge.structure")
	defer span.End()

	tree, err := s.scanner.Scan(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if tree == nil {
		tree = []*entities.TreeNode{}
	}
	return tree, nil
}
