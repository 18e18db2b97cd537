package job

import (
	"context"
	"strings"

	"github.com/tupiana/lexipipe/internal/domain/morphology"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// CandidateSource tags where a seeding candidate came from.  Sources are
// dequeued in a fixed priority order: dialectal vocabulary and
// formal-dictionary nouns have known high classification yield and low
// ambiguity, so they are seeded before low-yield general vocabulary.
type CandidateSource string

const (
	CandidateDialectal     CandidateSource = "dialectal"
	CandidateGutenbergNoun CandidateSource = "gutenberg_noun"
	CandidateGutenbergVerb CandidateSource = "gutenberg_verb"
	CandidateGutenbergAdj  CandidateSource = "gutenberg_adj"
	CandidateGeneral       CandidateSource = "general"
)

// DefaultPriorities is the documented dequeue order.
var DefaultPriorities = []CandidateSource{
	CandidateDialectal,
	CandidateGutenbergNoun,
	CandidateGutenbergVerb,
	CandidateGutenbergAdj,
	CandidateGeneral,
}

// candidateRank orders sources; lower dequeues first.
var candidateRank = map[CandidateSource]int{
	CandidateDialectal:     1,
	CandidateGutenbergNoun: 2,
	CandidateGutenbergVerb: 3,
	CandidateGutenbergAdj:  4,
	CandidateGeneral:       5,
}

// Rank returns the source's dequeue rank, or 0 for an unknown source.
func (s CandidateSource) Rank() int { return candidateRank[s] }

// Valid reports whether s is a known candidate source.
func (s CandidateSource) Valid() bool { return candidateRank[s] > 0 }

// Candidate is one word awaiting classification.
type Candidate struct {
	Word      string          `json:"word"`
	Source    CandidateSource `json:"source"`
	Processed bool            `json:"processed"`
}

// Normalize canonicalizes the word.
func (c *Candidate) Normalize() { c.Word = morphology.Normalize(c.Word) }

// Validate rejects malformed candidates.
func (c *Candidate) Validate() error {
	if strings.TrimSpace(c.Word) == "" {
		return errors.New(errors.ErrCodeValidation, "candidate has empty word")
	}
	if !c.Source.Valid() {
		return errors.Newf(errors.ErrCodeValidation,
			"candidate %q has unknown source %q", c.Word, c.Source)
	}
	return nil
}

// Repository is the persistence contract for jobs.
type Repository interface {
	// Create persists a new job.
	Create(ctx context.Context, j *BatchJob) error

	// Update persists the job's current state.
	Update(ctx context.Context, j *BatchJob) error

	// Get returns the job by id, or a JOB_001 not-found error.
	Get(ctx context.Context, id string) (*BatchJob, error)

	// List returns jobs most recent first, bounded by limit.
	List(ctx context.Context, limit int) ([]*BatchJob, error)
}

// CandidateRepository is the priority-ordered candidate queue.
type CandidateRepository interface {
	// Enqueue adds candidates, idempotent on the normalized word.
	Enqueue(ctx context.Context, candidates []*Candidate) error

	// NextChunk returns up to limit unprocessed candidates, ordered by the
	// priority ranks of sources, then by word for a stable order.
	NextChunk(ctx context.Context, sources []CandidateSource, limit int) ([]*Candidate, error)

	// MarkProcessed flags the words as processed so a resumed job never
	// dequeues them again.
	MarkProcessed(ctx context.Context, words []string) error

	// CountPending returns the number of unprocessed candidates across
	// sources.
	CountPending(ctx context.Context, sources []CandidateSource) (int, error)
}
