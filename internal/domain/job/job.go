// Package job implements the batch seeding job aggregate: its status state
// machine, progress counters, and the persistence contract.  The orchestrator
// is the only writer; everything here enforces the transitions it is allowed
// to make.
package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/tupiana/lexipipe/pkg/errors"
)

// Status is the job lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// allowedTransitions defines the valid next states reachable from each
// status.  Transitions not listed are illegal.
//
//	pending ──► processing ◄──► paused
//	               │
//	               ├──► completed
//	               └──► failed
//	any non-terminal ──► cancelled
var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusPaused, StatusCompleted, StatusFailed, StatusCancelled},
	StatusPaused:     {StatusProcessing, StatusCancelled},
	// Terminal states: no outgoing transitions.
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

func (s Status) canTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BatchJob is the seeding job aggregate root.
type BatchJob struct {
	ID              string    `json:"id"`
	Status          Status    `json:"status"`
	Priorities      []string  `json:"priorities,omitempty"`
	ChunkSize       int       `json:"chunk_size"`
	ChunkIndex      int       `json:"chunk_index"`
	TotalChunks     int       `json:"total_chunks"`
	ItemsProcessed  int       `json:"items_processed"`
	ItemsClassified int       `json:"items_classified"`
	FailureReason   string    `json:"failure_reason,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// New creates a pending job with a fresh UUID.
func New(priorities []string, chunkSize int) *BatchJob {
	now := time.Now().UTC()
	return &BatchJob{
		ID:         uuid.NewString(),
		Status:     StatusPending,
		Priorities: priorities,
		ChunkSize:  chunkSize,
		StartedAt:  now,
		UpdatedAt:  now,
	}
}

// Transition moves the job to next, rejecting illegal moves.  Terminal
// states surface a dedicated code so callers can distinguish "already done"
// from a programming error.
func (j *BatchJob) Transition(next Status) error {
	if j.Status == next {
		return nil
	}
	if j.Status.Terminal() {
		return errors.Newf(errors.ErrCodeJobAlreadyTerminal,
			"job %s is %s; no transition to %s", j.ID, j.Status, next)
	}
	if !j.Status.canTransitionTo(next) {
		return errors.Newf(errors.ErrCodeJobInvalidTransition,
			"job %s cannot transition %s → %s", j.ID, j.Status, next)
	}
	j.Status = next
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// AdvanceChunk moves progress to chunkIndex, which must be strictly greater
// than the current index.  ChunkIndex counts committed chunks, so it doubles
// as the next chunk to process; a continuation resuming at a lower index is
// a regression and is rejected.
func (j *BatchJob) AdvanceChunk(chunkIndex, processed, classified int) error {
	if chunkIndex <= j.ChunkIndex {
		return errors.Newf(errors.ErrCodeJobChunkRegression,
			"job %s chunk index would regress from %d to %d", j.ID, j.ChunkIndex, chunkIndex)
	}
	j.ChunkIndex = chunkIndex
	j.ItemsProcessed += processed
	j.ItemsClassified += classified
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail marks the job failed with a reason.
func (j *BatchJob) Fail(reason string) error {
	if err := j.Transition(StatusFailed); err != nil {
		return err
	}
	j.FailureReason = reason
	return nil
}
