package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"famorg/application/services"
	"famorg/domain/config"
	"famorg/domain/core/entities"
	"famorg/infrastructure/members"
	"famorg/infrastructure/persistence/jsonfs"
	"famorg/pkg/observability"

	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	domainCfg := config.DefaultDomainConfig()

	knowledgeFS, err := mem.NewFS()
	require.NoError(t, err)
	dataFS, err := mem.NewFS()
	require.NoError(t, err)

	tree := jsonfs.NewStore(knowledgeFS, nil, logger)
	docs := jsonfs.NewStore(dataFS, nil, logger)
	leaves := jsonfs.NewLeafRepository(tree)
	categories := jsonfs.NewCategoryRepository(tree)
	memberStore := members.NewStore(docs, domainCfg.MemberAttributesDoc, logger)

	router := NewRouter(
		services.NewStructureService(jsonfs.NewScanner(tree, domainCfg.ImagesDir, logger), logger),
		services.NewKnowledgeService(leaves, memberStore, nil, domainCfg, logger),
		services.NewCategoryService(categories, nil, domainCfg, logger),
		services.NewImportService(leaves, categories, nil, domainCfg, logger),
		services.NewConfigService(docs, domainCfg, logger),
		memberStore,
		observability.NewCollector("famorg"),
		nil,
		Options{MaxImportBytes: 1 << 20},
		logger,
	)
	return router.Setup()
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error bool   `json:"error"`
		Type  string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Error)
	return resp.Type
}

func TestRouter_Health(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ItemFlow(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/knowledge/category", map[string]any{"name": "英语"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"path":"英语"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/knowledge/subcategory",
		map[string]any{"parentPath": "英语", "name": "水果", "isFile": true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/knowledge/item",
		map[string]any{"filePath": "英语/水果", "item": map[string]any{"name": "apple", "brief": "苹果"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var saved entities.KnowledgeItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	require.NotEmpty(t, saved.ID)

	rec = do(t, h, http.MethodPut, "/api/knowledge/config",
		map[string]any{"currentLearners": []string{"kid"}, "targetAttributes": map[string]bool{"english": true}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/knowledge/item/learn",
		map[string]any{"filePath": "英语/水果", "itemId": saved.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var learned entities.KnowledgeItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &learned))
	assert.Equal(t, 1, learned.LearnCount)
	assert.NotEmpty(t, learned.LastLearnTime)

	rec = do(t, h, http.MethodGet, "/api/member-attributes/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"kid":{"english":1}}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/knowledge/item/forget",
		map[string]any{"filePath": "英语/水果", "itemId": saved.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/knowledge/items?filePath="+url.QueryEscape("英语/水果"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []entities.KnowledgeItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].ForgetCount)

	rec = do(t, h, http.MethodGet, "/api/knowledge/structure", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"knowledgeItems"`)

	rec = do(t, h, http.MethodDelete, "/api/knowledge/item?filePath="+url.QueryEscape("英语/水果")+"&itemId="+saved.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/knowledge/category?path="+url.QueryEscape("英语"), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/knowledge/structure", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRouter_Import(t *testing.T) {
	h := newTestServer(t)

	payload := `[
		{"levelRootName":"英语","level1Name":"单词","level2Name":"水果","name":"apple"},
		{"levelRootName":"英语","level1Name":"语法","name":"tense"},
		{"name":"orphan"}
	]`
	rec := do(t, h, http.MethodPost, "/api/knowledge/import", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"imported":2,"skipped":1,"leaves":["英语/单词/水果","英语/语法"]}`, rec.Body.String())
}

func TestRouter_ErrorStatusMapping(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated,
		do(t, h, http.MethodPost, "/api/knowledge/category", map[string]any{"name": "A"}).Code)

	tests := []struct {
		name     string
		method   string
		target   string
		body     any
		status   int
		wantType string
	}{
		{
			name: "duplicate category", method: http.MethodPost, target: "/api/knowledge/category",
			body: map[string]any{"name": "A"}, status: http.StatusConflict, wantType: "CONFLICT",
		},
		{
			name: "reserved category name", method: http.MethodPost, target: "/api/knowledge/category",
			body: map[string]any{"name": "__proto__"}, status: http.StatusBadRequest, wantType: "UNSAFE_KEY",
		},
		{
			name: "missing name", method: http.MethodPost, target: "/api/knowledge/category",
			body: map[string]any{}, status: http.StatusBadRequest, wantType: "VALIDATION",
		},
		{
			name: "category named like a leaf file", method: http.MethodPost, target: "/api/knowledge/subcategory",
			body: map[string]any{"parentPath": "A", "name": "b.json"}, status: http.StatusBadRequest, wantType: "VALIDATION",
		},
		{
			name: "root level knowledge file", method: http.MethodPost, target: "/api/knowledge/item",
			body: map[string]any{"filePath": "A", "item": map[string]any{"name": "x"}}, status: http.StatusBadRequest, wantType: "VALIDATION",
		},
		{
			name: "malformed body", method: http.MethodPost, target: "/api/knowledge/item",
			body: `{"filePath":`, status: http.StatusBadRequest, wantType: "VALIDATION",
		},
		{
			name: "learn unknown item", method: http.MethodPost, target: "/api/knowledge/item/learn",
			body: map[string]any{"filePath": "A/b", "itemId": "nope"}, status: http.StatusNotFound, wantType: "NOT_FOUND",
		},
		{
			name: "delete unknown category", method: http.MethodDelete, target: "/api/knowledge/category?path=B",
			status: http.StatusNotFound, wantType: "NOT_FOUND",
		},
		{
			name: "missing query parameter", method: http.MethodGet, target: "/api/knowledge/items",
			status: http.StatusBadRequest, wantType: "VALIDATION",
		},
		{
			name: "traversal in query", method: http.MethodGet, target: "/api/knowledge/items?filePath=A/../../etc",
			status: http.StatusBadRequest, wantType: "VALIDATION",
		},
		{
			name: "unsafe member id", method: http.MethodPut, target: "/api/member-attributes/__proto__/x",
			body: map[string]any{"value": 1}, status: http.StatusBadRequest, wantType: "UNSAFE_KEY",
		},
		{
			name: "import not an array", method: http.MethodPost, target: "/api/knowledge/import",
			body: `"nope"`, status: http.StatusBadRequest, wantType: "VALIDATION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantType, errorType(t, rec))
		})
	}
}

func TestRouter_SetMemberAttribute(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPut, "/api/member-attributes/mom/note", map[string]any{"value": "likes tea"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"memberId":"mom","attrId":"note","value":"likes tea"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/member-attributes/", nil)
	assert.JSONEq(t, `{"mom":{"note":"likes tea"}}`, rec.Body.String())
}
