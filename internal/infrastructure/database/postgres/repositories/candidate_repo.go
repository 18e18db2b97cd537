package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/tupiana/lexipipe/internal/domain/job"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// CandidateRepo persists the seeding candidate queue.  Dequeue order is the
// source priority rank, then the word, so chunks are stable across resumed
// runs.
type CandidateRepo struct {
	db querier
}

// NewCandidateRepo builds the repository.
func NewCandidateRepo(db querier) *CandidateRepo {
	return &CandidateRepo{db: db}
}

// Enqueue implements job.CandidateRepository.  Conflicts keep the existing
// row, including its processed flag, so re-importing a word list never
// resets progress.
func (r *CandidateRepo) Enqueue(ctx context.Context, candidates []*job.Candidate) error {
	for _, c := range candidates {
		_, err := r.db.Exec(ctx, `
INSERT INTO seeding_candidates (word, source, rank, processed)
VALUES ($1, $2, $3, FALSE)
ON CONFLICT (word) DO NOTHING`,
			c.Word, string(c.Source), c.Source.Rank())
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "candidate enqueue failed")
		}
	}
	return nil
}

// NextChunk implements job.CandidateRepository.
func (r *CandidateRepo) NextChunk(ctx context.Context, sources []job.CandidateSource, limit int) ([]*job.Candidate, error) {
	if len(sources) == 0 || limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
SELECT word, source FROM seeding_candidates
WHERE NOT processed AND source = ANY($1)
ORDER BY rank, word
LIMIT $2`, sourceNames(sources), limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "candidate dequeue failed")
	}
	defer rows.Close()

	var out []*job.Candidate
	for rows.Next() {
		var (
			c      job.Candidate
			source string
		)
		if err := rows.Scan(&c.Word, &source); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "candidate row scan failed")
		}
		c.Source = job.CandidateSource(source)
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "candidate rows failed")
	}
	return out, nil
}

// MarkProcessed implements job.CandidateRepository.
func (r *CandidateRepo) MarkProcessed(ctx context.Context, words []string) error {
	if len(words) == 0 {
		return nil
	}
	tag, err := r.db.Exec(ctx,
		"UPDATE seeding_candidates SET processed = TRUE WHERE word = ANY($1)", words)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "mark processed failed")
	}
	if int(tag.RowsAffected()) < len(words) {
		missing := len(words) - int(tag.RowsAffected())
		return errors.New(errors.ErrCodeDatabaseError,
			fmt.Sprintf("mark processed touched %d fewer rows than expected", missing))
	}
	return nil
}

// CountPending implements job.CandidateRepository.
func (r *CandidateRepo) CountPending(ctx context.Context, sources []job.CandidateSource) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
SELECT count(*) FROM seeding_candidates
WHERE NOT processed AND source = ANY($1)`, sourceNames(sources)).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "pending count failed")
	}
	return n, nil
}

func sourceNames(sources []job.CandidateSource) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = strings.TrimSpace(string(s))
	}
	return out
}
