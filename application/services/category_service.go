package services

import (
	"context"
	"fmt"
	"time"

	"famorg/application/ports"
	"famorg/domain/config"
	"famorg/domain/core/valueobjects"
	"famorg/domain/events"
	pkgerrors "famorg/pkg/errors"
	"famorg/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CategoryService manages category directories and leaf files
type CategoryService struct {
	categories ports.CategoryRepository
	publisher  ports.EventPublisher
	domainCfg  *config.DomainConfig
	logger     *zap.Logger
	tracer     *observability.Tracer
	clock      func() time.Time
}

// NewCategoryService creates a new category service
func NewCategoryService(
	categories ports.CategoryRepository,
	publisher ports.EventPublisher,
	domainCfg *config.DomainConfig,
	logger *zap.Logger,
) *CategoryService {
	if domainCfg == nil {
		domainCfg = config.DefaultDomainConfig()
	}
	return &CategoryService{
		categories: categories,
		publisher:  publisher,
		domainCfg:  domainCfg,
		logger:     logger,
		tracer:     observability.NewTracer("famorg"),
		clock:      time.Now,
	}
}

// CreateRootCategory creates a top-level category directory
func (s *CategoryService) CreateRootCategory(ctx context.Context, name string) (valueobjects.ResourcePath, error) {
	path, err := valueobjects.PathFromSegments(name)
	if err != nil {
		return valueobjects.ResourcePath{}, err
	}
	if err := checkVisible(path, s.domainCfg); err != nil {
		return valueobjects.ResourcePath{}, err
	}

	ctx, span := s.tracer.StartSpan(ctx, "category.create_root", attribute.String("path", path.String()))
	defer span.End()

	exists, err := s.categories.DirExists(ctx, path)
	if err != nil {
		observability.RecordError(span, err)
		return valueobjects.ResourcePath{}, err
	}
	if exists {
		return valueobjects.ResourcePath{}, pkgerrors.NewConflictError(
			fmt.Sprintf("category '%s' already exists", name))
	}

	if err := s.categories.CreateDir(ctx, path); err != nil {
		observability.RecordError(span, err)
		return valueobjects.ResourcePath{}, err
	}

	s.publish(ctx, events.NewCategoryCreated(path.String(), s.clock()))
	s.logger.Info("Category created", zap.String("path", path.String()))
	return path, nil
}

// DeleteCategory removes a category directory and everything below it.
// When no directory exists but a leaf file of that path does, the leaf is
// removed instead. This is irreversible.
func (s *CategoryService) DeleteCategory(ctx context.Context, rawPath string) error {
	path, err := valueobjects.NewResourcePath(rawPath)
	if err != nil {
		return err
	}
	if err := checkVisible(path, s.domainCfg); err != nil {
		return err
	}

	ctx, span := s.tracer.StartSpan(ctx, "category.delete", attribute.String("path", path.String()))
	defer span.End()

	isDir, err := s.categories.DirExists(ctx, path)
	if err != nil {
		observability.RecordError(span, err)
		return err
	}
	if isDir {
		if err := s.categories.RemoveDir(ctx, path); err != nil {
			observability.RecordError(span, err)
			return err
		}
		s.publish(ctx, events.NewCategoryDeleted(path.String(), s.clock()))
		s.logger.Info("Category deleted", zap.String("path", path.String()))
		return nil
	}

	isLeaf, err := s.categories.LeafExists(ctx, path)
	if err != nil {
		observability.RecordError(span, err)
		return err
	}
	if !isLeaf {
		return pkgerrors.NewNotFoundError("category " + path.String())
	}
	if err := s.categories.RemoveLeaf(ctx, path); err != nil {
		observability.RecordError(span, err)
		return err
	}
	s.publish(ctx, events.NewCategoryDeleted(path.String(), s.clock()))
	s.logger.Info("Knowledge file deleted", zap.String("path", path.String()))
	return nil
}

// CreateSubcategory creates a subdirectory, or an empty leaf file when
// isFile is set, below an existing category.
func (s *CategoryService) CreateSubcategory(ctx context.Context, parentPath, name string, isFile bool) (valueobjects.ResourcePath, error) {
	parent, err := valueobjects.NewResourcePath(parentPath)
	if err != nil {
		return valueobjects.ResourcePath{}, err
	}
	if err := checkVisible(parent, s.domainCfg); err != nil {
		return valueobjects.ResourcePath{}, err
	}
	path, err := parent.Child(name)
	if err != nil {
		return valueobjects.ResourcePath{}, err
	}

	ctx, span := s.tracer.StartSpan(ctx, "category.create_sub",
		attribute.String("path", path.String()),
		attribute.Bool("is_file", isFile),
	)
	defer span.End()

	parentExists, err := s.categories.DirExists(ctx, parent)
	if err != nil {
		observability.RecordError(span, err)
		return valueobjects.ResourcePath{}, err
	}
	if !parentExists {
		return valueobjects.ResourcePath{}, pkgerrors.NewNotFoundError("category " + parent.String())
	}

	if isFile {
		exists, err := s.categories.LeafExists(ctx, path)
		if err != nil {
			observability.RecordError(span, err)
			return valueobjects.ResourcePath{}, err
		}
		if exists {
			return valueobjects.ResourcePath{}, pkgerrors.NewConflictError(
				fmt.Sprintf("file '%s' already exists", path.String()))
		}
		if err := s.categories.CreateLeaf(ctx, path); err != nil {
			observability.RecordError(span, err)
			return valueobjects.ResourcePath{}, err
		}
		s.publish(ctx, events.NewLeafCreated(path.String(), s.clock()))
		s.logger.Info("Knowledge file created", zap.String("path", path.String()))
		return path, nil
	}

	exists, err := s.categories.DirExists(ctx, path)
	if err != nil {
		observability.RecordError(span, err)
		return valueobjects.ResourcePath{}, err
	}
	if exists {
		return valueobjects.ResourcePath{}, pkgerrors.NewConflictError(
			fmt.Sprintf("category '%s' already exists", path.String()))
	}
	if err := s.categories.CreateDir(ctx, path); err != nil {
		observability.RecordError(span, err)
		return valueobjects.ResourcePath{}, err
	}
	s.publish(ctx, events.NewCategoryCreated(path.String(), s.clock()))
	s.logger.Info("Category created", zap.String("path", path.String()))
	return path, nil
}

func (s *CategoryService) publish(ctx context.Context, evt events.DomainEvent) {
	if s.publisher != nil {
		s.publisher.Publish(ctx, evt)
	}
}
