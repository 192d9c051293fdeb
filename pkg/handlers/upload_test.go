package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gradeline-systems/codebook-engine/pkg/ingest"
	"github.com/gradeline-systems/codebook-engine/pkg/models"
)

func multipartUpload(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func newUploadMux(maxFileSize int64, maxRows int, jobs *mockJobService, uploads *mockUploadService) *http.ServeMux {
	ingestor := ingest.NewIngestor(maxFileSize, maxRows, zap.NewNop())
	handler := NewUploadHandler(ingestor, jobs, uploads, zap.NewNop())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux
}

func TestUploadAccepted(t *testing.T) {
	jobID := uuid.New()
	jobs := &mockJobService{
		CreateFunc: func(ctx context.Context, clientID uuid.UUID, jobType models.JobType) (*models.Job, error) {
			assert.Equal(t, models.JobTypeInitialAnalysis, jobType)
			return &models.Job{ID: jobID, ClientID: clientID, JobType: jobType, Status: models.JobStatusPending}, nil
		},
	}
	uploads := newMockUploadService()
	mux := newUploadMux(1<<20, 100, jobs, uploads)

	body, contentType := multipartUpload(t, map[string]string{
		"name":  "Site Materials",
		"type":  "material",
		"rules": `{"valve_prefix":"4"}`,
	}, "materials.csv", "material,size\n8in DI Pipe,8\n12in PVC,12\n")

	req := httptest.NewRequest(http.MethodPost, "/api/clients/"+uuid.NewString()+"/codebooks/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, jobID.String(), resp.JobID)
	assert.Equal(t, "pending", resp.Status)
	assert.NotEmpty(t, resp.Message)

	select {
	case started := <-uploads.Started:
		assert.Equal(t, "Site Materials", started.Name)
		assert.Equal(t, models.CodebookTypeMaterial, started.CodebookType)
		assert.Len(t, started.Rows, 2)
		assert.Equal(t, map[string]any{"valve_prefix": "4"}, started.Rules)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline was never started")
	}
}

func TestUploadNameDefaultsToFilename(t *testing.T) {
	uploads := newMockUploadService()
	mux := newUploadMux(1<<20, 100, &mockJobService{}, uploads)

	body, contentType := multipartUpload(t, map[string]string{"type": "material"},
		"bid_items.csv", "item\npipe\n")

	req := httptest.NewRequest(http.MethodPost, "/api/clients/"+uuid.NewString()+"/codebooks/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	started := <-uploads.Started
	assert.Equal(t, "bid_items.csv", started.Name)
}

func TestUploadRejectsInvalidType(t *testing.T) {
	uploads := newMockUploadService()
	mux := newUploadMux(1<<20, 100, &mockJobService{}, uploads)

	body, contentType := multipartUpload(t, map[string]string{"type": "spreadsheet"},
		"materials.csv", "item\npipe\n")

	req := httptest.NewRequest(http.MethodPost, "/api/clients/"+uuid.NewString()+"/codebooks/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_codebook_type")
	assert.Empty(t, uploads.Started)
}

func TestUploadRejectsMissingFile(t *testing.T) {
	mux := newUploadMux(1<<20, 100, &mockJobService{}, newMockUploadService())

	body, contentType := multipartUpload(t, map[string]string{"type": "material"}, "", "")

	req := httptest.NewRequest(http.MethodPost, "/api/clients/"+uuid.NewString()+"/codebooks/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_file")
}

func TestUploadRejectsInvalidClientID(t *testing.T) {
	mux := newUploadMux(1<<20, 100, &mockJobService{}, newMockUploadService())

	body, contentType := multipartUpload(t, map[string]string{"type": "material"},
		"materials.csv", "item\npipe\n")

	req := httptest.NewRequest(http.MethodPost, "/api/clients/not-a-uuid/codebooks/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_clientID")
}

func TestUploadFileTooLarge(t *testing.T) {
	uploads := newMockUploadService()
	mux := newUploadMux(64, 100, &mockJobService{}, uploads)

	content := "item\n" + strings.Repeat("really long material description row\n", 10)
	body, contentType := multipartUpload(t, map[string]string{"type": "material"},
		"materials.csv", content)

	req := httptest.NewRequest(http.MethodPost, "/api/clients/"+uuid.NewString()+"/codebooks/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "file_too_large")
	assert.Empty(t, uploads.Started)
}

func TestUploadTooManyRows(t *testing.T) {
	mux := newUploadMux(1<<20, 2, &mockJobService{}, newMockUploadService())

	body, contentType := multipartUpload(t, map[string]string{"type": "material"},
		"materials.csv", "item\na\nb\nc\n")

	req := httptest.NewRequest(http.MethodPost, "/api/clients/"+uuid.NewString()+"/codebooks/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too_many_rows")
}

func TestUploadEmptyFile(t *testing.T) {
	mux := newUploadMux(1<<20, 100, &mockJobService{}, newMockUploadService())

	body, contentType := multipartUpload(t, map[string]string{"type": "material"},
		"materials.csv", "item\n")

	req := httptest.NewRequest(http.MethodPost, "/api/clients/"+uuid.NewString()+"/codebooks/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "empty_file")
}

func TestUploadRejectsMalformedRules(t *testing.T) {
	mux := newUploadMux(1<<20, 100, &mockJobService{}, newMockUploadService())

	body, contentType := multipartUpload(t, map[string]string{
		"type":  "material",
		"rules": "not json",
	}, "materials.csv", "item\npipe\n")

	req := httptest.NewRequest(http.MethodPost, "/api/clients/"+uuid.NewString()+"/codebooks/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_rules")
}
