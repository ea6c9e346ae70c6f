package handlers

import (
	"encoding/json"
	"net/http"

	"famorg/application/ports"
	"famorg/pkg/common"
	pkgerrors "famorg/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MemberHandler exposes the member attribute collaborator
type MemberHandler struct {
	members      ports.MemberAttributeStore
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewMemberHandler creates a new member attribute handler
func NewMemberHandler(members ports.MemberAttributeStore, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{
		members:      members,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// SetAttributeRequest represents the request body for writing an attribute
type SetAttributeRequest struct {
	Value json.RawMessage `json:"value" validate:"required"`
}

// ListAttributes handles GET /api/member-attributes
func (h *MemberHandler) ListAttributes(w http.ResponseWriter, r *http.Request) {
	attrs, err := h.members.All(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, attrs)
}

// SetAttribute handles PUT /api/member-attributes/{memberID}/{attrID}
func (h *MemberHandler) SetAttribute(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")
	attrID := chi.URLParam(r, "attrID")

	var req SetAttributeRequest
	if err := common.ParseJSONBody(w, r, &req, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError("value must be valid JSON"))
		return
	}

	if err := h.members.Set(r.Context(), memberID, attrID, value); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]any{
		"memberId": memberID,
		"attrId":   attrID,
		"value":    value,
	})
}
