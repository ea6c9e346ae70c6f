package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"famorg/domain/config"
	"famorg/domain/events"
	"famorg/infrastructure/members"
	"famorg/infrastructure/persistence/jsonfs"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.GetEventType()
	}
	return types
}

// MockMemberStore is a mock implementation of ports.MemberAttributeStore
type MockMemberStore struct {
	mock.Mock
}

func (m *MockMemberStore) Get(ctx context.Context, memberID, attrID string) (int, error) {
	args := m.Called(ctx, memberID, attrID)
	return args.Int(0), args.Error(1)
}

func (m *MockMemberStore) Set(ctx context.Context, memberID, attrID string, value any) error {
	args := m.Called(ctx, memberID, attrID, value)
	return args.Error(0)
}

func (m *MockMemberStore) Increment(ctx context.Context, memberID, attrID string, delta int) (int, error) {
	args := m.Called(ctx, memberID, attrID, delta)
	return args.Int(0), args.Error(1)
}

func (m *MockMemberStore) All(ctx context.Context) (map[string]map[string]any, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]map[string]any), args.Error(1)
}

// fixture wires the services over in-memory filesystems
type fixture struct {
	knowledgeFS hackpadfs.FS
	tree        *jsonfs.Store
	docs        *jsonfs.Store
	members     *members.Store
	publisher   *recordingPublisher

	Knowledge  *KnowledgeService
	Categories *CategoryService
	Imports    *ImportService
	Configs    *ConfigService
	Structure  *StructureService
	Reviewer   *SessionReviewer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	domainCfg := config.DefaultDomainConfig()

	knowledgeFS, err := mem.NewFS()
	require.NoError(t, err)
	dataFS, err := mem.NewFS()
	require.NoError(t, err)

	tree := jsonfs.NewStore(knowledgeFS, nil, logger)
	docs := jsonfs.NewStore(dataFS, nil, logger)
	memberStore := members.NewStore(docs, domainCfg.MemberAttributesDoc, logger)
	leaves := jsonfs.NewLeafRepository(tree)
	categories := jsonfs.NewCategoryRepository(tree)
	publisher := &recordingPublisher{}

	f := &fixture{
		knowledgeFS: knowledgeFS,
		tree:        tree,
		docs:        docs,
		members:     memberStore,
		publisher:   publisher,
		Knowledge:   NewKnowledgeService(leaves, memberStore, publisher, domainCfg, logger).WithClock(fixedClock),
		Categories:  NewCategoryService(categories, publisher, domainCfg, logger),
		Imports:     NewImportService(leaves, categories, publisher, domainCfg, logger).WithClock(fixedClock),
		Configs:     NewConfigService(docs, domainCfg, logger),
		Structure:   NewStructureService(jsonfs.NewScanner(tree, domainCfg.ImagesDir, logger), logger),
	}
	f.Reviewer = NewSessionReviewer(f.Knowledge, f.Configs)
	return f
}

func (f *fixture) mkdir(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, f.tree.MkdirAll(dir))
}

func (f *fixture) writeLeaf(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, hackpadfs.WriteFullFile(f.knowledgeFS, name+".json", []byte(content), 0o644))
}

func (f *fixture) readLeaf(t *testing.T, name string) []byte {
	t.Helper()
	data, err := hackpadfs.ReadFile(f.knowledgeFS, name+".json")
	require.NoError(t, err)
	return data
}
