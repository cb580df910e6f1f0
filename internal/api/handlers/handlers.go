package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spendlens/internal/api/middleware"
	"github.com/dvloznov/spendlens/internal/extract"
	"github.com/dvloznov/spendlens/internal/jobs"
	"github.com/dvloznov/spendlens/internal/sources"
)

// DefaultMaxUploadBytes bounds a multipart upload request.
const DefaultMaxUploadBytes = 32 << 20

// Archiver keeps a copy of uploaded files in remote storage.
type Archiver interface {
	Upload(ctx context.Context, uri string, data []byte) error
}

// UploadsHandler accepts statement uploads and enqueues one extraction job
// per file.
type UploadsHandler struct {
	publisher jobs.Publisher
	archiver  Archiver
	bucket    string
	maxBytes  int64
	log       zerolog.Logger
}

// NewUploadsHandler creates a new uploads handler. Files are archived to
// bucket only when both archiver and bucket are set.
func NewUploadsHandler(publisher jobs.Publisher, archiver Archiver, bucket string, maxBytes int64, log zerolog.Logger) *UploadsHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadsHandler{
		publisher: publisher,
		archiver:  archiver,
		bucket:    bucket,
		maxBytes:  maxBytes,
		log:       log,
	}
}

// UploadedFile is one accepted file in an upload response.
type UploadedFile struct {
	JobID      string         `json:"job_id"`
	SourceFile string         `json:"source_file"`
	URI        string         `json:"uri,omitempty"`
	Status     jobs.JobStatus `json:"status"`
}

// RejectedFile is one file that was not enqueued.
type RejectedFile struct {
	SourceFile string `json:"source_file"`
	Error      string `json:"error"`
}

// UploadResponse is the body of POST /api/uploads.
type UploadResponse struct {
	BatchID  string         `json:"batch_id"`
	Jobs     []UploadedFile `json:"jobs"`
	Rejected []RejectedFile `json:"rejected"`
}

// Upload handles POST /api/uploads
// Files are sent as multipart form parts named "files" (or "file").
func (h *UploadsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := append(r.MultipartForm.File["files"], r.MultipartForm.File["file"]...)
	if len(headers) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "No files uploaded")
		return
	}

	resp := UploadResponse{
		BatchID:  uuid.New().String(),
		Jobs:     []UploadedFile{},
		Rejected: []RejectedFile{},
	}
	datePath := time.Now().Format("2006/01/02")

	for _, fh := range headers {
		name := filepath.Base(fh.Filename)
		if _, err := extract.DetectKind(name); err != nil {
			resp.Rejected = append(resp.Rejected, RejectedFile{SourceFile: name, Error: err.Error()})
			continue
		}

		data, err := readPart(fh)
		if err != nil {
			h.log.Error().Err(err).Str("source_file", name).Msg("Failed to read uploaded file")
			resp.Rejected = append(resp.Rejected, RejectedFile{SourceFile: name, Error: "failed to read file"})
			continue
		}

		job := &jobs.ExtractFileJob{
			BatchID:    resp.BatchID,
			SourceFile: name,
			Data:       data,
		}

		if h.archiver != nil && h.bucket != "" {
			uri := sources.GCSURI(h.bucket, fmt.Sprintf("uploads/%s/%s/%s", datePath, resp.BatchID, name))
			if err := h.archiver.Upload(ctx, uri, data); err != nil {
				// Archiving is best effort; the file is still processed.
				h.log.Warn().Err(err).Str("uri", uri).Msg("Failed to archive upload")
			} else {
				job.URI = uri
			}
		}

		if err := h.publisher.PublishExtractFile(ctx, job); err != nil {
			h.log.Error().Err(err).Str("source_file", name).Msg("Failed to enqueue extraction job")
			resp.Rejected = append(resp.Rejected, RejectedFile{SourceFile: name, Error: "failed to enqueue job"})
			continue
		}

		h.log.Info().
			Str("job_id", job.JobID).
			Str("batch_id", resp.BatchID).
			Str("source_file", name).
			Int("bytes", len(data)).
			Msg("Extraction job enqueued")

		resp.Jobs = append(resp.Jobs, UploadedFile{
			JobID:      job.JobID,
			SourceFile: name,
			URI:        job.URI,
			Status:     job.Status,
		})
	}

	status := http.StatusAccepted
	if len(resp.Jobs) == 0 {
		status = http.StatusUnprocessableEntity
	}
	middleware.WriteJSON(w, status, resp)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		BatchID: query.Get("batch_id"),
		Status:  jobs.JobStatus(query.Get("status")),
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

	jobsList, err := h.store.ListJobs(ctx, filter)
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
