package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/gradeline-systems/codebook-engine/pkg/services"
)

// JobHandler serves job polling requests.
type JobHandler struct {
	jobs   services.JobService
	logger *zap.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobs services.JobService, logger *zap.Logger) *JobHandler {
	return &JobHandler{jobs: jobs, logger: logger}
}

// RegisterRoutes registers the job handler's routes on the given mux.
func (h *JobHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/jobs/{jobID}", h.Get)
}

// Get handles GET /api/jobs/{jobID}.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobID, ok := ParsePathUUID(w, r, "jobID", h.logger)
	if !ok {
		return
	}

	job, err := h.jobs.Get(r.Context(), jobID)
	if err != nil {
		WriteServiceError(w, h.logger, err, "get_job_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, job); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
