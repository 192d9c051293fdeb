package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/gradeline-systems/codebook-engine/pkg/apperrors"
	"github.com/gradeline-systems/codebook-engine/pkg/ingest"
	"github.com/gradeline-systems/codebook-engine/pkg/models"
	"github.com/gradeline-systems/codebook-engine/pkg/services"
)

// multipartMemoryLimit bounds how much of a multipart body is held in
// memory; the rest spills to temp files.
const multipartMemoryLimit = 32 << 20

// UploadResponse acknowledges an accepted upload. The pipeline continues in
// the background; poll the job for progress.
type UploadResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// UploadHandler accepts codebook file uploads and starts the analysis
// pipeline.
type UploadHandler struct {
	ingestor *ingest.Ingestor
	jobs     services.JobService
	uploads  services.UploadService
	logger   *zap.Logger
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(ingestor *ingest.Ingestor, jobs services.JobService, uploads services.UploadService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		ingestor: ingestor,
		jobs:     jobs,
		uploads:  uploads,
		logger:   logger,
	}
}

// RegisterRoutes registers the upload handler's routes on the given mux.
func (h *UploadHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/clients/{clientID}/codebooks/upload", h.Upload)
}

// Upload handles POST /api/clients/{clientID}/codebooks/upload.
//
// The file is ingested and validated synchronously so size and row-count
// violations reach the uploader directly; everything after that runs in the
// background against the returned job.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	clientID, ok := ParsePathUUID(w, r, "clientID", h.logger)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_multipart", "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "missing_file", "A file form field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unreadable_file", "Failed to read uploaded file")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	codebookType := models.CodebookType(r.FormValue("type"))
	if !models.IsValidCodebookType(codebookType) {
		h.writeError(w, http.StatusBadRequest, "invalid_codebook_type", apperrors.ErrInvalidCodebookType.Error())
		return
	}

	var rules map[string]any
	if raw := r.FormValue("rules"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &rules); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_rules", "rules must be a JSON object")
			return
		}
	}

	rows, err := h.ingestor.Ingest(data, header.Filename)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	job, err := h.jobs.Create(r.Context(), clientID, models.JobTypeInitialAnalysis)
	if err != nil {
		h.logger.Error("Failed to create upload job", zap.Error(err))
		WriteServiceError(w, h.logger, err, "create_job_failed")
		return
	}

	req := services.UploadRequest{
		ClientID:     clientID,
		Name:         name,
		CodebookType: codebookType,
		Description:  r.FormValue("description"),
		Rows:         rows,
		Rules:        rules,
	}
	// Detached from the request context: the response returns now and the
	// pipeline keeps running.
	go h.uploads.ProcessUpload(context.Background(), job.ID, req)

	h.logger.Info("Upload accepted",
		zap.String("job_id", job.ID.String()),
		zap.String("client_id", clientID.String()),
		zap.String("filename", header.Filename),
		zap.Int("rows", len(rows)))

	if err := WriteJSON(w, http.StatusAccepted, UploadResponse{
		JobID:   job.ID.String(),
		Status:  string(job.Status),
		Message: "Upload accepted, analysis started",
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *UploadHandler) writeIngestError(w http.ResponseWriter, err error) {
	var tooLarge *apperrors.FileTooLargeError
	var tooManyRows *apperrors.TooManyRowsError

	switch {
	case errors.As(err, &tooLarge):
		h.writeError(w, http.StatusRequestEntityTooLarge, "file_too_large", err.Error())
	case errors.As(err, &tooManyRows):
		h.writeError(w, http.StatusBadRequest, "too_many_rows", err.Error())
	case errors.Is(err, apperrors.ErrEmptyFile):
		h.writeError(w, http.StatusBadRequest, "empty_file", err.Error())
	default:
		h.writeError(w, http.StatusBadRequest, "invalid_file", err.Error())
	}
}

func (h *UploadHandler) writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
