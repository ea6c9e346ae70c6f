package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"famorg/domain/core/entities"
	domainevents "famorg/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingScanner struct {
	mu    sync.Mutex
	calls int
}

func (s *countingScanner) Scan(ctx context.Context) ([]*entities.TreeNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return []*entities.TreeNode{entities.NewCategoryNode("A", "A")}, nil
}

func (s *countingScanner) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type countingObserver struct {
	hits, misses int
}

func (o *countingObserver) CacheHit()  { o.hits++ }
func (o *countingObserver) CacheMiss() { o.misses++ }

func TestTreeCache_HitsUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	scanner := &countingScanner{}
	observer := &countingObserver{}
	c := NewTreeCache(scanner, zap.NewNop()).WithObserver(observer)

	for i := 0; i < 3; i++ {
		tree, err := c.Scan(ctx)
		require.NoError(t, err)
		require.Len(t, tree, 1)
	}
	assert.Equal(t, 1, scanner.Calls())
	assert.Equal(t, 2, observer.hits)
	assert.Equal(t, 1, observer.misses)

	c.Invalidate()
	_, err := c.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, scanner.Calls())
}

func TestTreeCache_HandleEvent(t *testing.T) {
	ctx := context.Background()
	scanner := &countingScanner{}
	c := NewTreeCache(scanner, zap.NewNop())

	_, err := c.Scan(ctx)
	require.NoError(t, err)

	c.HandleEvent(ctx, domainevents.NewItemLearned("A/b", "1", 1, time.Now()))
	_, err = c.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, scanner.Calls())

	c.HandleEvent(ctx, domainevents.NewCategoryCreated("B", time.Now()))
	_, err = c.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, scanner.Calls())
}

func TestTreeCache_WatchPicksUpExternalChanges(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	scanner := &countingScanner{}
	c := NewTreeCache(scanner, zap.NewNop())

	require.NoError(t, c.Watch(root))
	t.Cleanup(func() { c.Close() })

	_, err := c.Scan(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Mkdir(filepath.Join(root, "A"), 0o755))

	assert.Eventually(t, func() bool {
		_, err := c.Scan(ctx)
		return err == nil && scanner.Calls() >= 2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestTreeCache_CloseWithoutWatch(t *testing.T) {
	c := NewTreeCache(&countingScanner{}, zap.NewNop())
	assert.NoError(t, c.Close())
}
