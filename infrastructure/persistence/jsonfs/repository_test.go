package jsonfs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"famorg/application/ports"
	"famorg/domain/core/aggregates"
	"famorg/domain/core/entities"
	"famorg/domain/core/valueobjects"
	pkgerrors "famorg/pkg/errors"

	"github.com/hack-pad/hackpadfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPath(t *testing.T, raw string) valueobjects.ResourcePath {
	t.Helper()
	p, err := valueobjects.NewResourcePath(raw)
	require.NoError(t, err)
	return p
}

func TestLeafRepository_GetMissingIsEmpty(t *testing.T) {
	repo := NewLeafRepository(newMemStore(t))

	leaf, err := repo.Get(context.Background(), mustPath(t, "A/b"))
	require.NoError(t, err)
	assert.Empty(t, leaf.Items())
	assert.Equal(t, "A/b", leaf.Path().String())
}

func TestLeafRepository_ModifyPersists(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	require.NoError(t, s.MkdirAll("A"))
	repo := NewLeafRepository(s)
	path := mustPath(t, "A/b")

	err := repo.Modify(ctx, path, func(leaf *aggregates.Leaf) error {
		leaf.Append(&entities.KnowledgeItem{Name: "apple"})
		return nil
	})
	require.NoError(t, err)

	leaf, err := repo.Get(ctx, path)
	require.NoError(t, err)
	require.Len(t, leaf.Items(), 1)
	assert.Equal(t, "apple", leaf.Items()[0].Name)
}

func TestLeafRepository_ModifyFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	require.NoError(t, s.MkdirAll("A"))
	writeFile(t, s, "A/b.json", `{"items":[{"id":"1","name":"apple","learnCount":3,"forgetCount":0,"createdAt":""}]}`)
	before, err := hackpadfs.ReadFile(s.FS(), "A/b.json")
	require.NoError(t, err)

	repo := NewLeafRepository(s)
	err = repo.Modify(ctx, mustPath(t, "A/b"), func(leaf *aggregates.Leaf) error {
		_, err := leaf.Learn("missing")
		return err
	})
	assert.True(t, pkgerrors.IsNotFound(err))

	after, err := hackpadfs.ReadFile(s.FS(), "A/b.json")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLeafRepository_ConcurrentLearnsOnOneLeaf(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	require.NoError(t, s.MkdirAll("A"))
	writeFile(t, s, "A/b.json", `{"items":[{"id":"1","name":"apple","learnCount":0,"forgetCount":0,"createdAt":""},{"id":"2","name":"pear","learnCount":0,"forgetCount":0,"createdAt":""}]}`)
	repo := NewLeafRepository(s)
	path := mustPath(t, "A/b")

	const rounds = 20
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		for _, id := range []string{"1", "2"} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				err := repo.Modify(ctx, path, func(leaf *aggregates.Leaf) error {
					_, err := leaf.Learn(id)
					return err
				})
				assert.NoError(t, err)
			}(id)
		}
	}
	wg.Wait()

	leaf, err := repo.Get(ctx, path)
	require.NoError(t, err)
	for _, item := range leaf.Items() {
		assert.Equal(t, rounds, item.LearnCount, item.ID)
	}
}

func TestCategoryRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	repo := NewCategoryRepository(s)

	dir := mustPath(t, "A/C")
	leaf := mustPath(t, "A/b")

	exists, err := repo.DirExists(ctx, dir)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.CreateDir(ctx, dir))
	exists, err = repo.DirExists(ctx, dir)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.CreateLeaf(ctx, leaf))
	exists, err = repo.LeafExists(ctx, leaf)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := hackpadfs.ReadFile(s.FS(), "A/b.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, string(data))

	// A leaf is not a directory and a directory is not a leaf
	exists, err = repo.DirExists(ctx, leaf)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = repo.LeafExists(ctx, dir)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.RemoveLeaf(ctx, leaf))
	exists, err = repo.LeafExists(ctx, leaf)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.RemoveDir(ctx, mustPath(t, "A")))
	exists, err = repo.DirExists(ctx, dir)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCategoryRepository_RemoveMissingLeaf(t *testing.T) {
	repo := NewCategoryRepository(newMemStore(t))

	err := repo.RemoveLeaf(context.Background(), mustPath(t, "A/none"))
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestCategoryRepository_CreateLeafWithoutParent(t *testing.T) {
	repo := NewCategoryRepository(newMemStore(t))

	err := repo.CreateLeaf(context.Background(), mustPath(t, "missing/b"))
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestNoChangeIsNotAnError(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	repo := NewLeafRepository(s)

	err := repo.Modify(ctx, mustPath(t, "ghost"), func(leaf *aggregates.Leaf) error {
		return ports.ErrNoChange
	})
	require.NoError(t, err)

	_, err = hackpadfs.Stat(s.FS(), "ghost.json")
	assert.True(t, errors.Is(err, hackpadfs.ErrNotExist))
}

func TestCategoryRepository_LeafNameTakenByDirectory(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	require.NoError(t, s.MkdirAll("A/b.json/C"))
	repo := NewCategoryRepository(s)

	exists, err := repo.LeafExists(ctx, mustPath(t, "A/b"))
	assert.False(t, exists)
	assert.True(t, pkgerrors.IsConflict(err), "got %v", err)

	// The directory is left alone
	info, err := hackpadfs.Stat(s.FS(), "A/b.json/C")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
