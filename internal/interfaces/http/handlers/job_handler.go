package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tupiana/lexipipe/internal/domain/job"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// JobService is the orchestration surface the API exposes.  Satisfied by
// seeding.Orchestrator.
type JobService interface {
	Enqueue(ctx context.Context, candidates []*job.Candidate) error
	Start(ctx context.Context, priorities []job.CandidateSource, chunkSize int) (*job.BatchJob, error)
	Cancel(ctx context.Context, jobID string) error
}

// JobHandler serves the seeding-job endpoints.
type JobHandler struct {
	service JobService
	jobs    job.Repository
	logger  logging.Logger
}

// NewJobHandler builds the handler.
func NewJobHandler(service JobService, jobs job.Repository, log logging.Logger) *JobHandler {
	return &JobHandler{service: service, jobs: jobs, logger: log}
}

// StartJobRequest starts a seeding run.  Priorities default to the
// documented dequeue order when omitted.
type StartJobRequest struct {
	Priorities []string `json:"priorities"`
	ChunkSize  int      `json:"chunk_size"`
}

// Start handles POST /jobs.
func (h *JobHandler) Start(c *gin.Context) {
	var req StartJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeValidation, "malformed job request"))
		return
	}

	priorities := job.DefaultPriorities
	if len(req.Priorities) > 0 {
		priorities = make([]job.CandidateSource, 0, len(req.Priorities))
		for _, p := range req.Priorities {
			priorities = append(priorities, job.CandidateSource(p))
		}
	}

	started, err := h.service.Start(c.Request.Context(), priorities, req.ChunkSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, started)
}

// Get handles GET /jobs/:id.
func (h *JobHandler) Get(c *gin.Context) {
	j, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

// List handles GET /jobs.
func (h *JobHandler) List(c *gin.Context) {
	jobs, err := h.jobs.List(c.Request.Context(), parseLimit(c, 20, 100))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// Cancel handles POST /jobs/:id/cancel.  Cancellation is cooperative: the
// flag is set here, the worker honors it between chunks.
func (h *JobHandler) Cancel(c *gin.Context) {
	jobID := c.Param("id")
	if err := h.service.Cancel(c.Request.Context(), jobID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": jobID, "cancellation": "requested"})
}

// EnqueueRequest adds candidate words to the seeding queue.
type EnqueueRequest struct {
	Candidates []struct {
		Word   string `json:"word"`
		Source string `json:"source"`
	} `json:"candidates"`
}

// Enqueue handles POST /candidates.
func (h *JobHandler) Enqueue(c *gin.Context) {
	var req EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeValidation, "malformed candidate request"))
		return
	}
	if len(req.Candidates) == 0 {
		respondError(c, errors.New(errors.ErrCodeValidation, "no candidates given"))
		return
	}

	candidates := make([]*job.Candidate, 0, len(req.Candidates))
	for _, cand := range req.Candidates {
		candidates = append(candidates, &job.Candidate{
			Word:   cand.Word,
			Source: job.CandidateSource(cand.Source),
		})
	}
	if err := h.service.Enqueue(c.Request.Context(), candidates); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": len(candidates)})
}
