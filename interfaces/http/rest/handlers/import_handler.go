package handlers

import (
	"net/http"

	"famorg/application/services"
	"famorg/pkg/common"
	pkgerrors "famorg/pkg/errors"

	"go.uber.org/zap"
)

// ImportHandler handles bulk imports
type ImportHandler struct {
	imports      *services.ImportService
	maxBytes     int64
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(imports *services.ImportService, maxBytes int64, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		imports:      imports,
		maxBytes:     maxBytes,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// Import handles POST /api/knowledge/import
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	body, err := common.ReadBody(w, r, h.maxBytes)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	records, err := services.ParseImportPayload(body)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.imports.Import(r.Context(), records)
	if err != nil {
		if result != nil && result.Imported > 0 {
			h.logger.Warn("Import stopped part way",
				zap.Int("imported", result.Imported),
				zap.Error(err),
			)
		}
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}
