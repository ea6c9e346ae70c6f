package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"famorg/application/ports"
	"famorg/domain/config"
	"famorg/domain/core/aggregates"
	"famorg/domain/core/entities"
	"famorg/domain/core/valueobjects"
	"famorg/domain/events"
	pkgerrors "famorg/pkg/errors"
	"famorg/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Level-name keys of an import record
const (
	LevelRootKey = "levelRootName"
	Level1Key    = "level1Name"
	Level2Key    = "level2Name"
	Level3Key    = "level3Name"
)

var levelKeys = []string{LevelRootKey, Level1Key, Level2Key, Level3Key}

// ImportResult reports how many records were appended and how many skipped
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Leaves   []string `json:"leaves,omitempty"`
}

// ImportService appends flat spreadsheet-style records to leaf files
type ImportService struct {
	leaves     ports.LeafRepository
	categories ports.CategoryRepository
	publisher  ports.EventPublisher
	domainCfg  *config.DomainConfig
	logger     *zap.Logger
	tracer     *observability.Tracer
	clock      func() time.Time
}

// NewImportService creates a new import service
func NewImportService(
	leaves ports.LeafRepository,
	categories ports.CategoryRepository,
	publisher ports.EventPublisher,
	domainCfg *config.DomainConfig,
	logger *zap.Logger,
) *ImportService {
	if domainCfg == nil {
		domainCfg = config.DefaultDomainConfig()
	}
	return &ImportService{
		leaves:     leaves,
		categories: categories,
		publisher:  publisher,
		domainCfg:  domainCfg,
		logger:     logger,
		tracer:     observability.NewTracer("famorg"),
		clock:      time.Now,
	}
}

// WithClock overrides the time source; used by tests
func (s *ImportService) WithClock(clock func() time.Time) *ImportService {
	s.clock = clock
	return s
}

// ParseImportPayload accepts a JSON array of records or an object of the
// form {"records": [...]}. Anything else is an invalid argument.
func ParseImportPayload(data []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, pkgerrors.NewValidationError("import payload is empty")
	}

	decode := func(raw []byte, into any) error {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		return dec.Decode(into)
	}

	switch trimmed[0] {
	case '[':
		var records []map[string]any
		if err := decode(trimmed, &records); err != nil {
			return nil, pkgerrors.NewValidationError("import payload must be an array of objects").WithCause(err)
		}
		return records, nil
	case '{':
		var envelope struct {
			Records *[]map[string]any `json:"records"`
		}
		if err := decode(trimmed, &envelope); err != nil || envelope.Records == nil {
			return nil, pkgerrors.NewValidationError("import payload must be an array of objects")
		}
		return *envelope.Records, nil
	default:
		return nil, pkgerrors.NewValidationError("import payload must be an array of objects")
	}
}

// LeafPathForRecord derives the leaf a record belongs to. ok is false when
// the record lacks levelRootName or level1Name and must be skipped.
//
// The precedence is deliberately asymmetric:
//   - no level2Name: root/level1.json (level1 names the file)
//   - level2Name, no level3Name: root/level1/level2.json
//   - both: root/level1/level2/level3.json
func LeafPathForRecord(record map[string]any) (path valueobjects.ResourcePath, ok bool, err error) {
	root, hasRoot := levelName(record[LevelRootKey])
	level1, hasLevel1 := levelName(record[Level1Key])
	if !hasRoot || !hasLevel1 {
		return valueobjects.ResourcePath{}, false, nil
	}

	level2, hasLevel2 := levelName(record[Level2Key])
	level3, hasLevel3 := levelName(record[Level3Key])

	switch {
	case !hasLevel2:
		path, err = valueobjects.PathFromSegments(root, level1)
	case !hasLevel3:
		path, err = valueobjects.PathFromSegments(root, level1, level2)
	default:
		path, err = valueobjects.PathFromSegments(root, level1, level2, level3)
	}
	if err != nil {
		return valueobjects.ResourcePath{}, false, err
	}
	return path, true, nil
}

// levelName reads a level value; missing, null and empty values are absent
func levelName(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, val != ""
	case json.Number:
		return val.String(), true
	case float64:
		return fmt.Sprint(val), true
	default:
		return "", false
	}
}

// itemFromRecord turns the non-level fields of a record into an item
func itemFromRecord(record map[string]any) (*entities.KnowledgeItem, error) {
	fields := make(map[string]any, len(record))
	for k, v := range record {
		fields[k] = v
	}
	for _, k := range levelKeys {
		delete(fields, k)
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, pkgerrors.NewValidationError("import record is not serializable").WithCause(err)
	}
	item := &entities.KnowledgeItem{}
	if err := json.Unmarshal(raw, item); err != nil {
		return nil, pkgerrors.NewValidationError("import record has malformed item fields").WithCause(err)
	}
	return item, nil
}

type plannedRecord struct {
	path valueobjects.ResourcePath
	item *entities.KnowledgeItem
}

// Import appends each record to its derived leaf, creating missing
// directories on the way. Records are processed one after another so
// records sharing a leaf each see the previous append.
//
// Every record is validated before anything is written: one unsafe level
// name or field key rejects the whole import.
func (s *ImportService) Import(ctx context.Context, records []map[string]any) (*ImportResult, error) {
	if len(records) > s.domainCfg.MaxImportRecords {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("import exceeds %d records", s.domainCfg.MaxImportRecords))
	}

	ctx, span := s.tracer.StartSpan(ctx, "knowledge.import", attribute.Int("records", len(records)))
	defer span.End()

	result := &ImportResult{}
	plan := make([]plannedRecord, 0, len(records))
	for i, record := range records {
		path, ok, err := LeafPathForRecord(record)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "record %d", i)
		}
		if !ok {
			result.Skipped++
			continue
		}
		if err := checkVisible(path, s.domainCfg); err != nil {
			return nil, pkgerrors.Wrapf(err, "record %d", i)
		}
		for key := range record {
			if err := valueobjects.ValidateKey(key); err != nil {
				return nil, pkgerrors.Wrapf(err, "record %d", i)
			}
		}
		item, err := itemFromRecord(record)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "record %d", i)
		}
		plan = append(plan, plannedRecord{path: path, item: item})
	}

	seen := make(map[string]bool)
	createdDirs := make(map[string]bool)
	for _, p := range plan {
		if parent := p.path.Parent(); !parent.IsZero() && !createdDirs[parent.String()] {
			if err := s.categories.CreateDir(ctx, parent); err != nil {
				observability.RecordError(span, err)
				s.finish(ctx, result)
				return result, err
			}
			createdDirs[parent.String()] = true
		}

		err := s.leaves.Modify(ctx, p.path, func(leaf *aggregates.Leaf) error {
			leaf.WithClock(s.clock)
			leaf.Append(p.item)
			// Per-item events are folded into the single import event
			leaf.MarkEventsAsCommitted()
			return nil
		})
		if err != nil {
			observability.RecordError(span, err)
			s.finish(ctx, result)
			return result, err
		}

		result.Imported++
		if !seen[p.path.String()] {
			seen[p.path.String()] = true
			result.Leaves = append(result.Leaves, p.path.String())
		}
	}

	s.finish(ctx, result)
	s.logger.Info("Import completed",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("leaves", len(result.Leaves)),
	)
	return result, nil
}

func (s *ImportService) finish(ctx context.Context, result *ImportResult) {
	if s.publisher == nil || (result.Imported == 0 && result.Skipped == 0) {
		return
	}
	s.publisher.Publish(ctx, events.NewItemsImported(result.Imported, result.Skipped, result.Leaves, s.clock()))
}
