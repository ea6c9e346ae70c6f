package handlers

import (
	"net/http"

	"famorg/application/services"
	"famorg/domain/core/entities"
	"famorg/pkg/common"
	pkgerrors "famorg/pkg/errors"

	"go.uber.org/zap"
)

// KnowledgeHandler handles the knowledge tree and item endpoints
type KnowledgeHandler struct {
	structure    *services.StructureService
	knowledge    *services.KnowledgeService
	configs      *services.ConfigService
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewKnowledgeHandler creates a new knowledge handler
func NewKnowledgeHandler(
	structure *services.StructureService,
	knowledge *services.KnowledgeService,
	configs *services.ConfigService,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *KnowledgeHandler {
	return &KnowledgeHandler{
		structure:    structure,
		knowledge:    knowledge,
		configs:      configs,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// UpsertItemRequest represents the request body for saving an item
type UpsertItemRequest struct {
	FilePath string                  `json:"filePath" validate:"required"`
	Item     *entities.KnowledgeItem `json:"item" validate:"required"`
}

// LearnRequest represents the request body for a learn mark.
// Omitted learners or targetAttributes fall back to the stored config.
type LearnRequest struct {
	FilePath         string          `json:"filePath" validate:"required"`
	ItemID           string          `json:"itemId" validate:"required"`
	Learners         []string        `json:"learners,omitempty"`
	TargetAttributes map[string]bool `json:"targetAttributes,omitempty"`
}

// ForgetRequest represents the request body for a forget mark
type ForgetRequest struct {
	FilePath string `json:"filePath" validate:"required"`
	ItemID   string `json:"itemId" validate:"required"`
}

// GetStructure handles GET /api/knowledge/structure
func (h *KnowledgeHandler) GetStructure(w http.ResponseWriter, r *http.Request) {
	tree, err := h.structure.Structure(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, tree)
}

// ListItems handles GET /api/knowledge/items?filePath=
func (h *KnowledgeHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	filePath, err := common.QueryParam(r, "filePath")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	items, err := h.knowledge.ListItems(r.Context(), filePath)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, items)
}

// UpsertItem handles POST /api/knowledge/item
func (h *KnowledgeHandler) UpsertItem(w http.ResponseWriter, r *http.Request) {
	var req UpsertItemRequest
	if err := common.ParseJSONBody(w, r, &req, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	stored, err := h.knowledge.UpsertItem(r.Context(), req.FilePath, req.Item)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, stored)
}

// DeleteItem handles DELETE /api/knowledge/item?filePath=&itemId=
func (h *KnowledgeHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	filePath, err := common.QueryParam(r, "filePath")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	itemID, err := common.QueryParam(r, "itemId")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.knowledge.DeleteItem(r.Context(), filePath, itemID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}

// LearnItem handles POST /api/knowledge/item/learn
func (h *KnowledgeHandler) LearnItem(w http.ResponseWriter, r *http.Request) {
	var req LearnRequest
	if err := common.ParseJSONBody(w, r, &req, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	learners, attributes, err := h.configs.LearnTargets(r.Context(), req.Learners, req.TargetAttributes)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	item, err := h.knowledge.MarkLearned(r.Context(), req.FilePath, req.ItemID, learners, attributes)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, item)
}

// ForgetItem handles POST /api/knowledge/item/forget
func (h *KnowledgeHandler) ForgetItem(w http.ResponseWriter, r *http.Request) {
	var req ForgetRequest
	if err := common.ParseJSONBody(w, r, &req, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	item, err := h.knowledge.MarkForgotten(r.Context(), req.FilePath, req.ItemID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, item)
}
