package handlers

import (
	"net/http"

	"famorg/application/services"
	"famorg/domain/core/entities"
	"famorg/pkg/common"
	pkgerrors "famorg/pkg/errors"

	"go.uber.org/zap"
)

// ConfigHandler handles the knowledge config document
type ConfigHandler struct {
	configs      *services.ConfigService
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(configs *services.ConfigService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *ConfigHandler {
	return &ConfigHandler{
		configs:      configs,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// GetConfig handles GET /api/knowledge/config
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configs.GetConfig(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, cfg)
}

// UpdateConfig handles PUT /api/knowledge/config
func (h *ConfigHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg entities.KnowledgeConfig
	if err := common.ParseJSONBody(w, r, &cfg, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	updated, err := h.configs.UpdateConfig(r.Context(), &cfg)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, updated)
}
