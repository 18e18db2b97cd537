// Package seeding runs batch classification jobs over the candidate queue:
// chunked, priority-ordered, resumable through continuation messages, and
// cooperatively cancellable between chunks.
package seeding

import (
	"context"
	"time"

	"github.com/tupiana/lexipipe/internal/application/semantics"
	"github.com/tupiana/lexipipe/internal/domain/classification"
	"github.com/tupiana/lexipipe/internal/domain/job"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

const (
	// DefaultChunkSize is the number of candidates processed per committed
	// chunk.
	DefaultChunkSize = 50

	// DefaultTimeBudget caps one worker invocation; past it the job pauses
	// and hands itself off through a continuation message.
	DefaultTimeBudget = 50 * time.Second
)

// Continuation is the resume token published when a job pauses.  A worker
// picking it up resumes exactly at NextChunkIndex; chunks committed before
// the pause stay valid.
type Continuation struct {
	JobID          string `json:"job_id"`
	NextChunkIndex int    `json:"next_chunk_index"`
}

// ContinuationPublisher hands a paused job to the task queue, Kafka in
// production.
type ContinuationPublisher interface {
	PublishContinuation(ctx context.Context, cont *Continuation) error
}

// Canceller is the out-of-band cancellation flag, Redis in production.  The
// API sets it; the orchestrator polls it between chunks.
type Canceller interface {
	RequestCancel(ctx context.Context, jobID string) error
	Cancelled(ctx context.Context, jobID string) (bool, error)
}

// Classifier is the semantic cascade the orchestrator feeds chunks into.
type Classifier interface {
	ClassifyBatch(ctx context.Context, reqs []semantics.Request) ([]*classification.Record, error)
}

// Orchestrator drives seeding jobs.
type Orchestrator struct {
	jobs       job.Repository
	candidates job.CandidateRepository
	classifier Classifier
	records    classification.Repository
	publisher  ContinuationPublisher
	canceller  Canceller

	chunkSize  int
	timeBudget time.Duration
	now        func() time.Time
	logger     logging.Logger
}

// Config carries the orchestrator's collaborators.  Publisher and Canceller
// may be nil: without a publisher an over-budget job simply pauses, and
// without a canceller jobs only stop via context or completion.
type Config struct {
	Jobs       job.Repository
	Candidates job.CandidateRepository
	Classifier Classifier
	Records    classification.Repository
	Publisher  ContinuationPublisher
	Canceller  Canceller
	ChunkSize  int
	TimeBudget time.Duration
	Logger     logging.Logger
}

// New builds an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Jobs == nil || cfg.Candidates == nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "seeding: job and candidate repositories are required")
	}
	if cfg.Classifier == nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "seeding: classifier is required")
	}
	if cfg.Records == nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "seeding: classification repository is required")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.TimeBudget <= 0 {
		cfg.TimeBudget = DefaultTimeBudget
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	return &Orchestrator{
		jobs:       cfg.Jobs,
		candidates: cfg.Candidates,
		classifier: cfg.Classifier,
		records:    cfg.Records,
		publisher:  cfg.Publisher,
		canceller:  cfg.Canceller,
		chunkSize:  cfg.ChunkSize,
		timeBudget: cfg.TimeBudget,
		now:        time.Now,
		logger:     cfg.Logger.Named("seeding"),
	}, nil
}

// Enqueue adds candidate words to the queue, normalized and deduplicated by
// the repository.
func (o *Orchestrator) Enqueue(ctx context.Context, candidates []*job.Candidate) error {
	valid := make([]*job.Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.Normalize()
		if err := c.Validate(); err != nil {
			o.logger.Warn("dropping malformed candidate", logging.Err(err))
			continue
		}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return nil
	}
	return o.candidates.Enqueue(ctx, valid)
}

// Start creates a job over the given source priorities and persists it
// pending.  The caller (or a published continuation) then drives it with
// Run.
func (o *Orchestrator) Start(ctx context.Context, priorities []job.CandidateSource, chunkSize int) (*job.BatchJob, error) {
	if len(priorities) == 0 {
		priorities = job.DefaultPriorities
	}
	for _, p := range priorities {
		if !p.Valid() {
			return nil, errors.Newf(errors.ErrCodeValidation, "unknown candidate source %q", p)
		}
	}
	if chunkSize <= 0 {
		chunkSize = o.chunkSize
	}

	names := make([]string, len(priorities))
	for i, p := range priorities {
		names[i] = string(p)
	}
	j := job.New(names, chunkSize)

	pending, err := o.candidates.CountPending(ctx, priorities)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "pending candidate count failed")
	}
	j.TotalChunks = (pending + chunkSize - 1) / chunkSize

	if err := o.jobs.Create(ctx, j); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "job creation failed")
	}
	o.logger.Info("job created",
		logging.String("job_id", j.ID),
		logging.Int("total_chunks", j.TotalChunks))

	if o.publisher != nil {
		if err := o.publisher.PublishContinuation(ctx, &Continuation{JobID: j.ID, NextChunkIndex: 0}); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeJobContinuationFailed, "initial continuation publish failed")
		}
	}
	return j, nil
}

// Cancel flags the job for cooperative cancellation.  The current chunk
// finishes; the job stops before the next one.
func (o *Orchestrator) Cancel(ctx context.Context, jobID string) error {
	j, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if j.Status.Terminal() {
		return errors.Newf(errors.ErrCodeJobAlreadyTerminal, "job %s is already %s", jobID, j.Status)
	}
	if o.canceller == nil {
		return errors.New(errors.ErrCodeNotImplemented, "no cancellation backend configured")
	}
	return o.canceller.RequestCancel(ctx, jobID)
}

// Run executes the job from fromChunk until completion, cancellation, or
// the time budget.  Continuation delivery is at-least-once, so a stale
// message pointing at an already-committed chunk is acknowledged as a no-op
// rather than reprocessed; a message pointing past the committed index means
// chunks were lost and is an error.
func (o *Orchestrator) Run(ctx context.Context, jobID string, fromChunk int) error {
	j, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if j.Status.Terminal() {
		o.logger.Info("skipping continuation for terminal job",
			logging.String("job_id", jobID), logging.String("status", string(j.Status)))
		return nil
	}
	if fromChunk < j.ChunkIndex {
		o.logger.Info("stale continuation; chunk already committed",
			logging.String("job_id", jobID),
			logging.Int("from_chunk", fromChunk),
			logging.Int("committed", j.ChunkIndex))
		return nil
	}
	if fromChunk > j.ChunkIndex {
		return errors.Newf(errors.ErrCodeJobChunkRegression,
			"job %s continuation points at chunk %d but only %d are committed", jobID, fromChunk, j.ChunkIndex)
	}

	if err := j.Transition(job.StatusProcessing); err != nil {
		return err
	}
	if err := o.jobs.Update(ctx, j); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "job update failed")
	}

	priorities := make([]job.CandidateSource, len(j.Priorities))
	for i, p := range j.Priorities {
		priorities[i] = job.CandidateSource(p)
	}
	deadline := o.now().Add(o.timeBudget)

	for {
		if err := ctx.Err(); err != nil {
			return o.pause(ctx, j)
		}
		cancelled, err := o.isCancelled(ctx, j.ID)
		if err != nil {
			o.logger.Warn("cancellation check failed; continuing", logging.Err(err))
		}
		if cancelled {
			if err := j.Transition(job.StatusCancelled); err != nil {
				return err
			}
			o.logger.Info("job cancelled", logging.String("job_id", j.ID))
			return o.jobs.Update(ctx, j)
		}
		if !o.now().Before(deadline) {
			return o.pause(ctx, j)
		}

		chunk, err := o.candidates.NextChunk(ctx, priorities, j.ChunkSize)
		if err != nil {
			return o.fail(ctx, j, errors.Wrap(err, errors.ErrCodeDatabaseError, "chunk dequeue failed"))
		}
		if len(chunk) == 0 {
			if err := j.Transition(job.StatusCompleted); err != nil {
				return err
			}
			o.logger.Info("job completed",
				logging.String("job_id", j.ID),
				logging.Int("items_processed", j.ItemsProcessed),
				logging.Int("items_classified", j.ItemsClassified))
			return o.jobs.Update(ctx, j)
		}

		classified, err := o.processChunk(ctx, chunk)
		if err != nil {
			return o.fail(ctx, j, err)
		}
		if err := j.AdvanceChunk(j.ChunkIndex+1, len(chunk), classified); err != nil {
			return o.fail(ctx, j, err)
		}
		if err := o.jobs.Update(ctx, j); err != nil {
			return o.fail(ctx, j, errors.Wrap(err, errors.ErrCodeJobPersistenceFailed, "chunk commit failed"))
		}
	}
}

// processChunk classifies one chunk and marks its words processed.  Words
// already holding a record are skipped outright, which is what makes a
// resumed or re-run job idempotent: no classifier work, no writes.  A word
// the cascade cannot place gets its NC record inside the classifier; only
// infrastructure failures propagate up and fail the job.
func (o *Orchestrator) processChunk(ctx context.Context, chunk []*job.Candidate) (int, error) {
	words := make([]string, len(chunk))
	for i, c := range chunk {
		words[i] = c.Word
	}

	existing, err := o.records.FindWords(ctx, words)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "existing classification lookup failed")
	}

	reqs := make([]semantics.Request, 0, len(chunk))
	classified := 0
	for _, c := range chunk {
		if rec, ok := existing[c.Word]; ok && rec != nil {
			if !rec.IsNotClassified() {
				classified++
			}
			continue
		}
		reqs = append(reqs, semantics.Request{Word: c.Word})
	}

	if len(reqs) > 0 {
		records, err := o.classifier.ClassifyBatch(ctx, reqs)
		if err != nil {
			return 0, errors.Wrap(err, errors.ErrCodeClassificationFailed, "chunk classification failed")
		}
		for _, rec := range records {
			if rec != nil && !rec.IsNotClassified() {
				classified++
			}
		}
	}

	if err := o.candidates.MarkProcessed(ctx, words); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeJobPersistenceFailed, "marking chunk processed failed")
	}
	return classified, nil
}

// pause transitions the job to paused and publishes its continuation.
func (o *Orchestrator) pause(ctx context.Context, j *job.BatchJob) error {
	if err := j.Transition(job.StatusPaused); err != nil {
		return err
	}
	if err := o.jobs.Update(ctx, j); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "job update failed")
	}
	o.logger.Info("job paused at time budget",
		logging.String("job_id", j.ID),
		logging.Int("next_chunk_index", j.ChunkIndex))
	if o.publisher == nil {
		return nil
	}
	cont := &Continuation{JobID: j.ID, NextChunkIndex: j.ChunkIndex}
	if err := o.publisher.PublishContinuation(ctx, cont); err != nil {
		return errors.Wrap(err, errors.ErrCodeJobContinuationFailed, "continuation publish failed")
	}
	return nil
}

// fail marks the job failed.  Committed chunks stay valid; only the failing
// chunk's work is lost.
func (o *Orchestrator) fail(ctx context.Context, j *job.BatchJob, cause error) error {
	o.logger.Error("job failed",
		logging.String("job_id", j.ID),
		logging.Int("chunk_index", j.ChunkIndex),
		logging.Err(cause))
	if err := j.Fail(cause.Error()); err != nil {
		return err
	}
	if err := o.jobs.Update(ctx, j); err != nil {
		o.logger.Error("failed-state persist failed", logging.Err(err))
	}
	return cause
}

func (o *Orchestrator) isCancelled(ctx context.Context, jobID string) (bool, error) {
	if o.canceller == nil {
		return false, nil
	}
	return o.canceller.Cancelled(ctx, jobID)
}
