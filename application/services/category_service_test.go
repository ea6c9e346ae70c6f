package services

import (
	"context"
	"testing"

	"famorg/domain/events"
	pkgerrors "famorg/pkg/errors"

	"github.com/hack-pad/hackpadfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_CreateRootCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	path, err := f.Categories.CreateRootCategory(ctx, "英语")
	require.NoError(t, err)
	assert.Equal(t, "英语", path.String())

	_, err = f.Categories.CreateRootCategory(ctx, "英语")
	assert.True(t, pkgerrors.IsConflict(err))

	tree, err := f.Structure.Structure(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "英语", tree[0].Name)
	assert.Empty(t, tree[0].Children)

	assert.Equal(t, []string{events.TypeCategoryCreated}, f.publisher.Types())
}

func TestCategoryService_CreateRootCategoryRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name   string
		input  string
		unsafe bool
	}{
		{name: "empty", input: ""},
		{name: "separator", input: "a/b"},
		{name: "traversal", input: ".."},
		{name: "images directory", input: "images"},
		{name: "hidden", input: ".hidden"},
		{name: "leaf suffix", input: "notes.json"},
		{name: "reserved", input: "__proto__", unsafe: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Categories.CreateRootCategory(ctx, tt.input)
			require.Error(t, err)
			if tt.unsafe {
				assert.True(t, pkgerrors.IsUnsafeKey(err))
			} else {
				assert.True(t, pkgerrors.IsValidation(err))
			}
		})
	}

	tree, err := f.Structure.Structure(ctx)
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestCategoryService_CreateSubcategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.Categories.CreateRootCategory(ctx, "A")
	require.NoError(t, err)

	dir, err := f.Categories.CreateSubcategory(ctx, "A", "C", false)
	require.NoError(t, err)
	assert.Equal(t, "A/C", dir.String())

	leaf, err := f.Categories.CreateSubcategory(ctx, "A", "b", true)
	require.NoError(t, err)
	assert.Equal(t, "A/b", leaf.String())

	_, err = f.Categories.CreateSubcategory(ctx, "A", "b", true)
	assert.True(t, pkgerrors.IsConflict(err))
	_, err = f.Categories.CreateSubcategory(ctx, "A", "C", false)
	assert.True(t, pkgerrors.IsConflict(err))

	_, err = f.Categories.CreateSubcategory(ctx, "missing", "x", false)
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = f.Categories.CreateSubcategory(ctx, "A", "constructor", true)
	assert.True(t, pkgerrors.IsUnsafeKey(err))

	tree, err := f.Structure.Structure(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	file := tree[0].Find("A/b")
	require.NotNil(t, file)
	assert.True(t, file.IsFile())
	assert.Empty(t, file.KnowledgeItems)
	assert.NotNil(t, tree[0].Find("A/C"))

	assert.Equal(t, []string{
		events.TypeCategoryCreated, events.TypeCategoryCreated, events.TypeLeafCreated,
	}, f.publisher.Types())
}

func TestCategoryService_DirectoryNeverShadowsLeaf(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.Categories.CreateRootCategory(ctx, "A")
	require.NoError(t, err)

	_, err = f.Categories.CreateSubcategory(ctx, "A", "b.json", false)
	assert.True(t, pkgerrors.IsValidation(err), "got %v", err)
	_, err = f.Categories.CreateSubcategory(ctx, "A", ".b", false)
	assert.True(t, pkgerrors.IsValidation(err), "got %v", err)

	// A directory already sitting on the leaf's file name is a conflict
	f.mkdir(t, "A/c.json/D")
	_, err = f.Categories.CreateSubcategory(ctx, "A", "c", true)
	assert.True(t, pkgerrors.IsConflict(err), "got %v", err)

	info, err := hackpadfs.Stat(f.knowledgeFS, "A/c.json/D")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCategoryService_ImagesDirectoryIsOffLimits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mkdir(t, "images/cats")

	_, err := f.Categories.CreateSubcategory(ctx, "images", "x", false)
	assert.True(t, pkgerrors.IsValidation(err))
	_, err = f.Categories.CreateSubcategory(ctx, "images/cats", "y", true)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.True(t, pkgerrors.IsValidation(f.Categories.DeleteCategory(ctx, "images")))

	_, err = hackpadfs.Stat(f.knowledgeFS, "images/cats")
	assert.NoError(t, err)
	assert.Empty(t, f.publisher.Types())
}

func TestCategoryService_DeleteCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mkdir(t, "A/C/D")
	f.writeLeaf(t, "A/C/D/e", fruitLeaf)
	f.writeLeaf(t, "A/b", fruitLeaf)

	// A leaf path removes the file
	require.NoError(t, f.Categories.DeleteCategory(ctx, "A/b"))
	// A directory path removes everything below it
	require.NoError(t, f.Categories.DeleteCategory(ctx, "A/C"))

	tree, err := f.Structure.Structure(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Empty(t, tree[0].Children)

	err = f.Categories.DeleteCategory(ctx, "A/C")
	assert.True(t, pkgerrors.IsNotFound(err))

	err = f.Categories.DeleteCategory(ctx, "A/../A")
	assert.True(t, pkgerrors.IsValidation(err))

	assert.Equal(t, []string{events.TypeCategoryDeleted, events.TypeCategoryDeleted}, f.publisher.Types())
}
