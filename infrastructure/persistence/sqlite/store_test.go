package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"famorg/application/ports"
	"famorg/domain/core/entities"
	pkgerrors "famorg/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "famorg.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_LoadMissing(t *testing.T) {
	s := openTestStore(t)

	cfg := entities.DefaultKnowledgeConfig()
	found, err := s.Load(context.Background(), "knowledge-config", cfg)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, cfg.CurrentLearners)
}

func TestStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Save(ctx, "knowledge-config", &entities.KnowledgeConfig{
		CurrentLearners: []string{"mom"},
	}))
	require.NoError(t, s.Save(ctx, "knowledge-config", &entities.KnowledgeConfig{
		CurrentLearners:  []string{"kid"},
		TargetAttributes: map[string]bool{"reading": true},
	}))

	var cfg entities.KnowledgeConfig
	found, err := s.Load(ctx, "knowledge-config", &cfg)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"kid"}, cfg.CurrentLearners)
	assert.True(t, cfg.TargetAttributes["reading"])
}

func TestStore_CorruptBody(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.conn.ExecContext(ctx,
		"INSERT INTO documents (id, body, updated_at) VALUES (?, ?, ?)", "broken", "{nope", "now")
	require.NoError(t, err)

	_, err = s.Load(ctx, "broken", &map[string]any{})
	assert.True(t, pkgerrors.IsCorruptDocument(err))
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc := map[string]int{}
			assert.NoError(t, s.Update(ctx, "counters", &doc, func() error {
				doc["n"]++
				return nil
			}))
		}()
	}
	wg.Wait()

	doc := map[string]int{}
	_, err := s.Load(ctx, "counters", &doc)
	require.NoError(t, err)
	assert.Equal(t, 10, doc["n"])
}

func TestStore_UpdateSkipsWrite(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	doc := map[string]int{}
	require.NoError(t, s.Update(ctx, "untouched", &doc, func() error { return ports.ErrNoChange }))
	found, err := s.Load(ctx, "untouched", &doc)
	require.NoError(t, err)
	assert.False(t, found)

	boom := errors.New("boom")
	assert.ErrorIs(t, s.Update(ctx, "untouched", &doc, func() error { return boom }), boom)
	found, err = s.Load(ctx, "untouched", &doc)
	require.NoError(t, err)
	assert.False(t, found)
}
