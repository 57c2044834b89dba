// Package handlers implements the HTTP endpoints of the cheque-processing
// API: document upload and processing, alias management, job inspection and
// classified results.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/echeque-clerk/internal/alias"
	"github.com/dvloznov/echeque-clerk/internal/api/middleware"
	infra "github.com/dvloznov/echeque-clerk/internal/infra/bigquery"
	"github.com/dvloznov/echeque-clerk/internal/jobs"
)

// ChequesHandler handles cheque-document endpoints.
type ChequesHandler struct {
	repo      infra.Repository
	publisher jobs.Publisher
	bucket    string
	log       zerolog.Logger
}

// NewChequesHandler creates a new cheques handler.
func NewChequesHandler(repo infra.Repository, publisher jobs.Publisher, bucket string, log zerolog.Logger) *ChequesHandler {
	return &ChequesHandler{
		repo:      repo,
		publisher: publisher,
		bucket:    bucket,
		log:       log,
	}
}

// ListDocuments handles GET /api/cheques
func (h *ChequesHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	documents, err := h.repo.ListDocuments(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list documents")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"count":     len(documents),
	})
}

// UploadCheque handles POST /api/cheques/upload. The request body is the PDF;
// the file lands under inbox/ in the configured bucket.
func (h *ChequesHandler) UploadCheque(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.bucket == "" {
		middleware.WriteError(w, http.StatusServiceUnavailable, "No upload bucket configured")
		return
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "cheque.pdf"
	}
	filename = filepath.Base(filename)

	objectName := fmt.Sprintf("inbox/%s/%s", time.Now().Format("2006/01/02"), uuid.NewString()+"-"+filename)
	gcsURI := fmt.Sprintf("gs://%s/%s", h.bucket, objectName)

	client, err := storage.NewClient(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create storage client")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}
	defer client.Close()

	wc := client.Bucket(h.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = "application/pdf"

	written, err := io.Copy(wc, r.Body)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to write to GCS")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}
	if err := wc.Close(); err != nil {
		h.log.Error().Err(err).Msg("Failed to close GCS writer")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	h.log.Info().
		Str("gcs_uri", gcsURI).
		Int64("bytes", written).
		Msg("Cheque uploaded")

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"gcs_uri": gcsURI,
		"status":  "uploaded",
	})
}

// EnqueueProcessing handles POST /api/cheques/process
func (h *ChequesHandler) EnqueueProcessing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GCSURI string `json:"gcs_uri"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.GCSURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "gcs_uri is required")
		return
	}

	job := &jobs.ProcessChequeJob{GCSURI: req.GCSURI}

	if err := h.publisher.PublishProcessCheque(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue processing job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue processing job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("gcs_uri", req.GCSURI).Msg("Processing job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"gcs_uri": req.GCSURI,
		"status":  string(job.Status),
	})
}

// ResultsHandler handles classified-result endpoints.
type ResultsHandler struct {
	repo infra.Repository
	log  zerolog.Logger
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(repo infra.Repository, log zerolog.Logger) *ResultsHandler {
	return &ResultsHandler{repo: repo, log: log}
}

// ListResults handles GET /api/results
func (h *ResultsHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := h.repo.ListResults(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list results")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list results")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// AliasesHandler handles payee-alias endpoints backed by the alias store.
type AliasesHandler struct {
	store *alias.Store
	log   zerolog.Logger
}

// NewAliasesHandler creates a new aliases handler.
func NewAliasesHandler(store *alias.Store, log zerolog.Logger) *AliasesHandler {
	return &AliasesHandler{store: store, log: log}
}

// ListAliases handles GET /api/aliases
func (h *AliasesHandler) ListAliases(w http.ResponseWriter, r *http.Request) {
	entries := h.store.List()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"aliases": entries,
		"count":   len(entries),
	})
}

// AddAlias handles POST /api/aliases
func (h *AliasesHandler) AddAlias(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName  string `json:"full_name"`
		ShortForm string `json:"short_form"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.ShortForm = strings.TrimSpace(req.ShortForm)
	if req.FullName == "" || req.ShortForm == "" {
		middleware.WriteError(w, http.StatusBadRequest, "full_name and short_form are required")
		return
	}

	if err := h.store.Add(req.FullName, req.ShortForm); err != nil {
		if errors.Is(err, alias.ErrDuplicate) {
			middleware.WriteError(w, http.StatusConflict, "An alias for this full name already exists")
			return
		}
		// The entry may have been kept in memory with persistence failing;
		// the caller needs to know the write did not stick.
		h.log.Error().Err(err).Str("full_name", req.FullName).Msg("Failed to add alias")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to persist alias")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{
		"full_name":  req.FullName,
		"short_form": req.ShortForm,
	})
}

// RemoveAlias handles DELETE /api/aliases/{fullName}
func (h *AliasesHandler) RemoveAlias(w http.ResponseWriter, r *http.Request, fullName string) {
	if err := h.store.Remove(fullName); err != nil {
		if errors.Is(err, alias.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Alias not found")
			return
		}
		h.log.Error().Err(err).Str("full_name", fullName).Msg("Failed to remove alias")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to persist alias removal")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"removed": fullName})
}

// JobsHandler handles job-status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
