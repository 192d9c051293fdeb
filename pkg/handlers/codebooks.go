package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/gradeline-systems/codebook-engine/pkg/models"
	"github.com/gradeline-systems/codebook-engine/pkg/repositories"
	"github.com/gradeline-systems/codebook-engine/pkg/services"
)

// CodebookListResponse for GET /api/clients/{clientID}/codebooks
type CodebookListResponse struct {
	Codebooks []*models.Codebook `json:"codebooks"`
	Total     int                `json:"total"`
}

// VersionListResponse for GET /api/codebooks/{codebookID}/versions
type VersionListResponse struct {
	Versions []*models.CodebookVersion `json:"versions"`
	Total    int                       `json:"total"`
}

// ItemListResponse for GET /api/versions/{versionID}/items
type ItemListResponse struct {
	Items []*models.CodebookItem `json:"items"`
	Total int                    `json:"total"`
}

// CodebookHandler serves codebook, version, and item read endpoints plus
// version activation and soft delete.
type CodebookHandler struct {
	codebooks services.CodebookService
	logger    *zap.Logger
}

// NewCodebookHandler creates a new CodebookHandler.
func NewCodebookHandler(codebooks services.CodebookService, logger *zap.Logger) *CodebookHandler {
	return &CodebookHandler{codebooks: codebooks, logger: logger}
}

// RegisterRoutes registers the codebook handler's routes on the given mux.
func (h *CodebookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/clients/{clientID}/codebooks", h.List)
	mux.HandleFunc("GET /api/codebooks/{codebookID}", h.Get)
	mux.HandleFunc("GET /api/codebooks/{codebookID}/versions", h.ListVersions)
	mux.HandleFunc("GET /api/versions/{versionID}/items", h.ListItems)
	mux.HandleFunc("POST /api/codebooks/{codebookID}/versions/{versionID}/activate", h.ActivateVersion)
	mux.HandleFunc("DELETE /api/codebooks/{codebookID}", h.Delete)
}

// List handles GET /api/clients/{clientID}/codebooks.
func (h *CodebookHandler) List(w http.ResponseWriter, r *http.Request) {
	clientID, ok := ParsePathUUID(w, r, "clientID", h.logger)
	if !ok {
		return
	}

	codebookType := models.CodebookType(r.URL.Query().Get("type"))
	codebooks, err := h.codebooks.List(r.Context(), clientID, codebookType, parseLimitQuery(r))
	if err != nil {
		WriteServiceError(w, h.logger, err, "list_codebooks_failed")
		return
	}

	response := CodebookListResponse{Codebooks: codebooks, Total: len(codebooks)}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/codebooks/{codebookID}.
func (h *CodebookHandler) Get(w http.ResponseWriter, r *http.Request) {
	codebookID, ok := ParsePathUUID(w, r, "codebookID", h.logger)
	if !ok {
		return
	}

	codebook, err := h.codebooks.Get(r.Context(), codebookID)
	if err != nil {
		WriteServiceError(w, h.logger, err, "get_codebook_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, codebook); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListVersions handles GET /api/codebooks/{codebookID}/versions.
func (h *CodebookHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	codebookID, ok := ParsePathUUID(w, r, "codebookID", h.logger)
	if !ok {
		return
	}

	versions, err := h.codebooks.ListVersions(r.Context(), codebookID)
	if err != nil {
		WriteServiceError(w, h.logger, err, "list_versions_failed")
		return
	}

	response := VersionListResponse{Versions: versions, Total: len(versions)}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListItems handles GET /api/versions/{versionID}/items.
func (h *CodebookHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	versionID, ok := ParsePathUUID(w, r, "versionID", h.logger)
	if !ok {
		return
	}

	filter := repositories.ItemFilter{
		CSIDivision: r.URL.Query().Get("csi_division"),
		Application: r.URL.Query().Get("application"),
		Limit:       parseLimitQuery(r),
	}
	items, err := h.codebooks.ListItems(r.Context(), versionID, filter)
	if err != nil {
		WriteServiceError(w, h.logger, err, "list_items_failed")
		return
	}

	response := ItemListResponse{Items: items, Total: len(items)}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ActivateVersion handles POST /api/codebooks/{codebookID}/versions/{versionID}/activate.
func (h *CodebookHandler) ActivateVersion(w http.ResponseWriter, r *http.Request) {
	codebookID, ok := ParsePathUUID(w, r, "codebookID", h.logger)
	if !ok {
		return
	}
	versionID, ok := ParsePathUUID(w, r, "versionID", h.logger)
	if !ok {
		return
	}

	if err := h.codebooks.ActivateVersion(r.Context(), codebookID, versionID); err != nil {
		WriteServiceError(w, h.logger, err, "activate_version_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]string{"status": "activated"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/codebooks/{codebookID}.
func (h *CodebookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	codebookID, ok := ParsePathUUID(w, r, "codebookID", h.logger)
	if !ok {
		return
	}

	if err := h.codebooks.Delete(r.Context(), codebookID); err != nil {
		WriteServiceError(w, h.logger, err, "delete_codebook_failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
