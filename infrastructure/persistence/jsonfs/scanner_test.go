package jsonfs

import (
	"context"
	"testing"

	"famorg/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func childByName(node *entities.TreeNode, name string) *entities.TreeNode {
	for _, child := range node.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

func TestScanner_MirrorsDirectoryTree(t *testing.T) {
	s := newMemStore(t)
	require.NoError(t, s.MkdirAll("A/C"))
	writeFile(t, s, "A/b.json", `{"items":[{"id":"1","name":"apple","learnCount":0,"forgetCount":0,"createdAt":""}]}`)

	tree, err := NewScanner(s, "images", zap.NewNop()).Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, tree, 1)
	root := tree[0]
	assert.Equal(t, "A", root.Name)
	assert.Equal(t, "A", root.Path)
	require.Len(t, root.Children, 2)

	file := childByName(root, "b")
	require.NotNil(t, file)
	assert.True(t, file.IsFile())
	assert.Equal(t, "A/b", file.Path)
	require.Len(t, file.KnowledgeItems, 1)
	assert.Equal(t, "apple", file.KnowledgeItems[0].Name)

	sub := childByName(root, "C")
	require.NotNil(t, sub)
	assert.False(t, sub.IsFile())
	assert.Equal(t, "A/C", sub.Path)
	assert.Empty(t, sub.Children)
}

func TestScanner_EmptyRoot(t *testing.T) {
	s := newMemStore(t)

	tree, err := NewScanner(s, "images", zap.NewNop()).Scan(context.Background())
	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.Empty(t, tree)
}

func TestScanner_SkipsImagesRootFilesAndDotfiles(t *testing.T) {
	s := newMemStore(t)
	require.NoError(t, s.MkdirAll("images/2024"))
	require.NoError(t, s.MkdirAll(".git"))
	require.NoError(t, s.MkdirAll("A"))
	writeFile(t, s, "stray.json", `{"items":[]}`)
	writeFile(t, s, "A/.b.json.tmp-1234", `{"items":[]}`)
	writeFile(t, s, "A/notes.txt", "not a leaf")

	tree, err := NewScanner(s, "images", zap.NewNop()).Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, tree, 1)
	assert.Equal(t, "A", tree[0].Name)
	assert.Empty(t, tree[0].Children)
}

func TestScanner_CorruptLeafShowsEmpty(t *testing.T) {
	s := newMemStore(t)
	require.NoError(t, s.MkdirAll("A"))
	writeFile(t, s, "A/bad.json", "{oops")
	writeFile(t, s, "A/good.json", `{"items":[{"id":"1","name":"x","learnCount":0,"forgetCount":0,"createdAt":""}]}`)

	tree, err := NewScanner(s, "images", zap.NewNop()).Scan(context.Background())
	require.NoError(t, err)

	bad := childByName(tree[0], "bad")
	require.NotNil(t, bad)
	require.NotNil(t, bad.KnowledgeItems)
	assert.Empty(t, bad.KnowledgeItems)

	good := childByName(tree[0], "good")
	require.NotNil(t, good)
	assert.Len(t, good.KnowledgeItems, 1)
}

func TestScanner_NestedLeafPaths(t *testing.T) {
	s := newMemStore(t)
	require.NoError(t, s.MkdirAll("英语/单词"))
	writeFile(t, s, "英语/单词/水果.json", `{"items":[]}`)

	tree, err := NewScanner(s, "images", zap.NewNop()).Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, tree, 1)
	leaf := tree[0].Find("英语/单词/水果")
	require.NotNil(t, leaf)
	assert.True(t, leaf.IsFile())
}

func TestScanner_CancelledContext(t *testing.T) {
	s := newMemStore(t)
	require.NoError(t, s.MkdirAll("A"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScanner(s, "images", zap.NewNop()).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
