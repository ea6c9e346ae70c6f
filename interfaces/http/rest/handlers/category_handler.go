package handlers

import (
	"net/http"

	"famorg/application/services"
	"famorg/pkg/common"
	pkgerrors "famorg/pkg/errors"

	"go.uber.org/zap"
)

// CategoryHandler handles category and leaf-file management
type CategoryHandler struct {
	categories   *services.CategoryService
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categories *services.CategoryService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categories:   categories,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// CreateCategoryRequest represents the request body for a root category
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// CreateSubcategoryRequest represents the request body for a subcategory or leaf file
type CreateSubcategoryRequest struct {
	ParentPath string `json:"parentPath" validate:"required"`
	Name       string `json:"name" validate:"required,max=255"`
	IsFile     bool   `json:"isFile"`
}

// PathResponse echoes the path that was created
type PathResponse struct {
	Path string `json:"path"`
}

// CreateCategory handles POST /api/knowledge/category
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := common.ParseJSONBody(w, r, &req, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	path, err := h.categories.CreateRootCategory(r.Context(), req.Name)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, PathResponse{Path: path.String()})
}

// DeleteCategory handles DELETE /api/knowledge/category?path=
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	path, err := common.QueryParam(r, "path")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.categories.DeleteCategory(r.Context(), path); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}

// CreateSubcategory handles POST /api/knowledge/subcategory
func (h *CategoryHandler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	var req CreateSubcategoryRequest
	if err := common.ParseJSONBody(w, r, &req, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	path, err := h.categories.CreateSubcategory(r.Context(), req.ParentPath, req.Name, req.IsFile)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, PathResponse{Path: path.String()})
}
