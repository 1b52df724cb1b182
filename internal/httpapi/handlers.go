// internal/httpapi/handlers.go
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-transform/internal/auth"
	"github.com/tendant/simple-transform/internal/cache"
	"github.com/tendant/simple-transform/internal/engine"
	"github.com/tendant/simple-transform/internal/store"
	"github.com/tendant/simple-transform/internal/store/model"
	"github.com/tendant/simple-transform/internal/transform"
	"github.com/tendant/simple-transform/pkg/schema"
)

func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	owner := principal(r).Sub

	var req schema.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, r, http.StatusBadRequest, schema.CodeBadRequest, "invalid request body")
		return
	}
	if req.FileID == "" {
		writeErr(w, r, http.StatusBadRequest, schema.CodeBadRequest, "missing fileId")
		return
	}

	iterations := req.Iterations
	if iterations == 0 {
		iterations = 30
	}
	kernel := req.Kernel
	if kernel == "" {
		kernel = transform.DefaultKernel
	}

	job := &model.Job{
		OwnerID: owner,
		ID:      uuid.NewString(),
		FileID:  req.FileID,
		Status:  model.JobStatusQueued,
		Params: model.JobParams{
			Iterations: transform.ClampIterations(iterations),
			Kernel:     kernel,
		},
	}
	if err := s.store.Job().Create(r.Context(), job); err != nil {
		s.logger.Error("create job failed", "owner_id", owner, "err", err)
		writeErr(w, r, http.StatusInternalServerError, schema.CodeStorageError, "could not create job")
		return
	}

	s.cache.Delete(cache.ListKey(owner, 20))
	s.cache.Delete(cache.ListKey(owner, 100))

	if s.queue != nil {
		body, _ := json.Marshal(schema.WorkMessage{JobID: job.ID, OwnerID: owner})
		if err := s.queue.Enqueue(r.Context(), body); err != nil {
			s.logger.Error("enqueue job failed", "job_id", job.ID, "err", err)
			writeErr(w, r, http.StatusInternalServerError, schema.CodeInternal, "could not enqueue job")
			return
		}
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, schema.CreateJobResponse{ID: job.ID})
}

func (s *Server) handleProcessJob(w http.ResponseWriter, r *http.Request) {
	owner := principal(r).Sub
	jobID := chi.URLParam(r, "id")

	result, err := s.controller.Execute(r.Context(), owner, jobID)
	if err != nil {
		code := engine.CodeOf(err)
		status := http.StatusInternalServerError
		switch code {
		case schema.CodeNotFound:
			status = http.StatusNotFound
		case schema.CodeBadRequest:
			status = http.StatusBadRequest
		}
		s.logger.Error("process job failed", "owner_id", owner, "job_id", jobID, "code", code, "err", err)
		writeErr(w, r, status, code, err.Error())
		return
	}

	render.JSON(w, r, schema.ProcessJobResponse{
		Status:     string(model.JobStatusDone),
		OutputKey:  result.OutputKey,
		ThumbKey:   result.ThumbKey,
		DurationMs: result.DurationMs,
		Iterations: result.Iterations,
		Kernel:     result.Kernel,
	})
}

type jobListPayload struct {
	Items []model.Job `json:"items"`
	Count int         `json:"count"`
	Limit int         `json:"limit"`
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	owner := principal(r).Sub

	limit := s.defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	cacheKey := cache.ListKey(owner, limit)
	var payload jobListPayload
	if s.cache.Get(cacheKey, &payload) {
		render.JSON(w, r, payload)
		return
	}

	jobs, err := s.store.Job().List(r.Context(), owner, limit)
	if err != nil {
		s.logger.Error("list jobs failed", "owner_id", owner, "err", err)
		writeErr(w, r, http.StatusInternalServerError, schema.CodeStorageError, "could not list jobs")
		return
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	payload = jobListPayload{Items: jobs, Count: len(jobs), Limit: limit}
	s.cache.Set(cacheKey, payload, s.cacheTTL)
	render.JSON(w, r, payload)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	owner := principal(r).Sub
	jobID := chi.URLParam(r, "id")

	cacheKey := cache.DetailKey(owner, jobID)
	var cached model.Job
	if s.cache.Get(cacheKey, &cached) {
		render.JSON(w, r, cached)
		return
	}

	job, err := s.store.Job().Get(r.Context(), owner, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			writeErr(w, r, http.StatusNotFound, schema.CodeNotFound, "job not found")
			return
		}
		s.logger.Error("get job failed", "owner_id", owner, "job_id", jobID, "err", err)
		writeErr(w, r, http.StatusInternalServerError, schema.CodeStorageError, "could not load job")
		return
	}

	s.cache.Set(cacheKey, job, s.cacheTTL)
	render.JSON(w, r, job)
}

func (s *Server) handleJobLogs(w http.ResponseWriter, r *http.Request) {
	owner := principal(r).Sub
	jobID := chi.URLParam(r, "id")

	if _, err := s.store.Job().Get(r.Context(), owner, jobID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			writeErr(w, r, http.StatusNotFound, schema.CodeNotFound, "job not found")
			return
		}
		writeErr(w, r, http.StatusInternalServerError, schema.CodeStorageError, "could not load job")
		return
	}

	entries, err := s.store.JobLog().List(r.Context(), jobID)
	if err != nil {
		s.logger.Error("list job logs failed", "job_id", jobID, "err", err)
		writeErr(w, r, http.StatusInternalServerError, schema.CodeStorageError, "could not list job logs")
		return
	}
	if entries == nil {
		entries = []model.JobLog{}
	}
	render.JSON(w, r, map[string]any{"items": entries, "count": len(entries)})
}

func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	owner := principal(r).Sub
	jobID := chi.URLParam(r, "id")

	job, err := s.store.Job().Get(r.Context(), owner, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			writeErr(w, r, http.StatusNotFound, schema.CodeNotFound, "job not found")
			return
		}
		writeErr(w, r, http.StatusInternalServerError, schema.CodeStorageError, "could not load job")
		return
	}
	if job.Status != model.JobStatusDone || job.OutputKey == "" || job.ThumbKey == "" {
		writeErr(w, r, http.StatusConflict, schema.CodeNotReady, "job not completed")
		return
	}

	outputURL, err := s.blobs.Presign(r.Context(), job.OutputKey, s.presignTTL)
	if err != nil {
		s.logger.Error("presign output failed", "job_id", jobID, "err", err)
		writeErr(w, r, http.StatusInternalServerError, schema.CodeStorageError, "could not presign output")
		return
	}
	thumbURL, err := s.blobs.Presign(r.Context(), job.ThumbKey, s.presignTTL)
	if err != nil {
		s.logger.Error("presign thumbnail failed", "job_id", jobID, "err", err)
		writeErr(w, r, http.StatusInternalServerError, schema.CodeStorageError, "could not presign thumbnail")
		return
	}

	render.JSON(w, r, schema.JobResultResponse{
		OutputURL: outputURL,
		ThumbURL:  thumbURL,
		ExpiresIn: int(s.presignTTL.Seconds()),
	})
}
