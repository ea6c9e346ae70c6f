package services

import (
	"context"
	"encoding/json"
	"testing"

	"famorg/domain/events"
	pkgerrors "famorg/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeafPathForRecord(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
		want   string
		ok     bool
		unsafe bool
	}{
		{
			name:   "root and level1 name the file",
			record: map[string]any{"levelRootName": "英语", "level1Name": "语法"},
			want:   "英语/语法", ok: true,
		},
		{
			name:   "level2 names the file",
			record: map[string]any{"levelRootName": "英语", "level1Name": "单词", "level2Name": "水果"},
			want:   "英语/单词/水果", ok: true,
		},
		{
			name:   "level3 names the file",
			record: map[string]any{"levelRootName": "a", "level1Name": "b", "level2Name": "c", "level3Name": "d"},
			want:   "a/b/c/d", ok: true,
		},
		{
			name:   "level3 without level2 is ignored",
			record: map[string]any{"levelRootName": "a", "level1Name": "b", "level3Name": "d"},
			want:   "a/b", ok: true,
		},
		{
			name:   "empty level2 counts as absent",
			record: map[string]any{"levelRootName": "a", "level1Name": "b", "level2Name": ""},
			want:   "a/b", ok: true,
		},
		{
			name:   "numeric level names",
			record: map[string]any{"levelRootName": "grade", "level1Name": json.Number("3")},
			want:   "grade/3", ok: true,
		},
		{
			name:   "missing level1",
			record: map[string]any{"levelRootName": "a", "name": "x"},
		},
		{
			name:   "missing root",
			record: map[string]any{"level1Name": "b"},
		},
		{
			name:   "null root",
			record: map[string]any{"levelRootName": nil, "level1Name": "b"},
		},
		{
			name:   "reserved level name",
			record: map[string]any{"levelRootName": "a", "level1Name": "__proto__"},
			unsafe: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok, err := LeafPathForRecord(tt.record)
			if tt.unsafe {
				assert.True(t, pkgerrors.IsUnsafeKey(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, path.String())
			}
		})
	}
}

func TestParseImportPayload(t *testing.T) {
	records, err := ParseImportPayload([]byte(`[{"levelRootName":"a","level1Name":"b","name":"x","learnCount":2}]`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, json.Number("2"), records[0]["learnCount"])

	records, err = ParseImportPayload([]byte(`{"records":[{"name":"x"},{"name":"y"}]}`))
	require.NoError(t, err)
	assert.Len(t, records, 2)

	for _, bad := range []string{``, `"text"`, `{"items":[]}`, `[1,2]`, `[{"a":1}`} {
		_, err := ParseImportPayload([]byte(bad))
		assert.True(t, pkgerrors.IsValidation(err), "payload %q", bad)
	}
}

func TestImportService_Import(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	records := []map[string]any{
		{"levelRootName": "英语", "level1Name": "单词", "level2Name": "水果", "name": "apple", "brief": "苹果"},
		{"levelRootName": "英语", "level1Name": "单词", "level2Name": "水果", "name": "pear", "phonetic": "peə"},
		{"levelRootName": "英语", "level1Name": "语法", "name": "present tense"},
		{"levelRootName": "英语", "name": "orphan"},
	}

	result, err := f.Imports.Import(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, []string{"英语/单词/水果", "英语/语法"}, result.Leaves)

	fruit, err := f.Knowledge.ListItems(ctx, "英语/单词/水果")
	require.NoError(t, err)
	require.Len(t, fruit, 2)
	assert.Equal(t, "apple", fruit[0].Name)
	assert.Equal(t, "苹果", fruit[0].Brief)
	assert.Equal(t, "pear", fruit[1].Name)
	assert.NotEqual(t, fruit[0].ID, fruit[1].ID)
	assert.Equal(t, "2024-05-01T10:30:00.000Z", fruit[0].CreatedAt)
	assert.Contains(t, fruit[1].Extra, "phonetic")
	assert.NotContains(t, fruit[1].Extra, "levelRootName")

	grammar, err := f.Knowledge.ListItems(ctx, "英语/语法")
	require.NoError(t, err)
	require.Len(t, grammar, 1)

	tree, err := f.Structure.Structure(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, 3, tree[0].CountItems())

	// Per-item events fold into one import event
	require.Len(t, f.publisher.events, 1)
	imported, ok := f.publisher.events[0].(events.ItemsImported)
	require.True(t, ok)
	assert.Equal(t, 3, imported.Imported)
	assert.Equal(t, 1, imported.Skipped)
}

func TestImportService_AppendsToExistingLeaf(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mkdir(t, "英语/单词")
	f.writeLeaf(t, "英语/单词/水果", fruitLeaf)

	result, err := f.Imports.Import(ctx, []map[string]any{
		{"levelRootName": "英语", "level1Name": "单词", "level2Name": "水果", "name": "cherry"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	items, err := f.Knowledge.ListItems(ctx, "英语/单词/水果")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "apple", items[0].Name)
	assert.Equal(t, "cherry", items[2].Name)
}

func TestImportService_UnsafeKeyRejectsWholeImport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	records := []map[string]any{
		{"levelRootName": "a", "level1Name": "b", "name": "fine"},
		{"levelRootName": "a", "level1Name": "b", "name": "bad", "__proto__": map[string]any{"x": 1}},
	}

	result, err := f.Imports.Import(ctx, records)
	assert.Nil(t, result)
	assert.True(t, pkgerrors.IsUnsafeKey(err))

	tree, err := f.Structure.Structure(ctx)
	require.NoError(t, err)
	assert.Empty(t, tree, "nothing may be written")
	assert.Empty(t, f.publisher.events)
}

func TestImportService_UnsafeLevelName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.Imports.Import(ctx, []map[string]any{
		{"levelRootName": "a", "level1Name": "b", "name": "fine"},
		{"levelRootName": "constructor", "level1Name": "b", "name": "bad"},
	})
	assert.True(t, pkgerrors.IsUnsafeKey(err))

	tree, err := f.Structure.Structure(ctx)
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestImportService_ImagesRootRejectsWholeImport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	result, err := f.Imports.Import(ctx, []map[string]any{
		{"levelRootName": "a", "level1Name": "b", "name": "fine"},
		{"levelRootName": "images", "level1Name": "x", "name": "hidden"},
	})
	assert.Nil(t, result)
	assert.True(t, pkgerrors.IsValidation(err), "got %v", err)

	tree, err := f.Structure.Structure(ctx)
	require.NoError(t, err)
	assert.Empty(t, tree)
	assert.Empty(t, f.publisher.events)
}

func TestImportService_LeafSuffixInLevelName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.Imports.Import(ctx, []map[string]any{
		{"levelRootName": "a", "level1Name": "b.json", "level2Name": "c", "name": "x"},
	})
	assert.True(t, pkgerrors.IsValidation(err), "got %v", err)

	tree, err := f.Structure.Structure(ctx)
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestImportService_OnlySkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	result, err := f.Imports.Import(ctx, []map[string]any{{"name": "x"}, {"levelRootName": "a"}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	assert.Empty(t, result.Leaves)
}

func TestImportService_TooManyRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.Imports.domainCfg.MaxImportRecords = 1

	_, err := f.Imports.Import(ctx, []map[string]any{{"name": "x"}, {"name": "y"}})
	assert.True(t, pkgerrors.IsValidation(err))
}
