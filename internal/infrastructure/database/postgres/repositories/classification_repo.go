package repositories

import (
	"context"
	goerrors "errors"

	"github.com/jackc/pgx/v5"

	"github.com/tupiana/lexipipe/internal/domain/classification"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// ClassificationRepo persists classification records keyed by
// (word, context_hash); a word-only record has an empty context_hash.  All
// upserts are conditional on strictly higher confidence, so concurrent
// writers converge on the best record without locking.
type ClassificationRepo struct {
	db querier
}

// NewClassificationRepo builds the repository.
func NewClassificationRepo(db querier) *ClassificationRepo {
	return &ClassificationRepo{db: db}
}

const selectRecordSQL = `
SELECT word, context_hash, domain_code, confidence, source, justification, created_at
FROM classification_records`

// FindWord implements classification.Repository.
func (r *ClassificationRepo) FindWord(ctx context.Context, word string) (*classification.Record, error) {
	return r.findOne(ctx, word, "")
}

// FindWordContext implements classification.Repository.
func (r *ClassificationRepo) FindWordContext(ctx context.Context, word, contextHash string) (*classification.Record, error) {
	return r.findOne(ctx, word, contextHash)
}

func (r *ClassificationRepo) findOne(ctx context.Context, word, contextHash string) (*classification.Record, error) {
	row := r.db.QueryRow(ctx, selectRecordSQL+" WHERE word = $1 AND context_hash = $2", word, contextHash)
	rec, err := scanRecord(row)
	if err != nil {
		if goerrors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "classification lookup failed")
	}
	return rec, nil
}

// FindWords implements classification.Repository: word-only records for many
// words at once.
func (r *ClassificationRepo) FindWords(ctx context.Context, words []string) (map[string]*classification.Record, error) {
	if len(words) == 0 {
		return map[string]*classification.Record{}, nil
	}
	rows, err := r.db.Query(ctx, selectRecordSQL+" WHERE word = ANY($1) AND context_hash = ''", words)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "classification batch lookup failed")
	}
	defer rows.Close()

	out := make(map[string]*classification.Record, len(words))
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "classification row scan failed")
		}
		out[rec.Word] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "classification rows failed")
	}
	return out, nil
}

// The WHERE on the conflict arm makes the upsert a no-op unless the new
// record is strictly better; RowsAffected then tells us which way it went.
const upsertRecordSQL = `
INSERT INTO classification_records
	(word, context_hash, domain_code, confidence, source, justification, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (word, context_hash) DO UPDATE SET
	domain_code   = EXCLUDED.domain_code,
	confidence    = EXCLUDED.confidence,
	source        = EXCLUDED.source,
	justification = EXCLUDED.justification,
	created_at    = now()
WHERE classification_records.confidence < EXCLUDED.confidence`

// UpsertIfHigher implements classification.Repository.
func (r *ClassificationRepo) UpsertIfHigher(ctx context.Context, rec *classification.Record) (bool, error) {
	tag, err := r.db.Exec(ctx, upsertRecordSQL,
		rec.Word, rec.ContextHash, rec.DomainCode, rec.Confidence,
		string(rec.Source), rec.Justification)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "classification upsert failed")
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertBatchIfHigher implements classification.Repository.
func (r *ClassificationRepo) UpsertBatchIfHigher(ctx context.Context, recs []*classification.Record) (int, error) {
	written := 0
	for _, rec := range recs {
		ok, err := r.UpsertIfHigher(ctx, rec)
		if err != nil {
			return written, err
		}
		if ok {
			written++
		}
	}
	return written, nil
}

func scanRecord(row interface{ Scan(dest ...any) error }) (*classification.Record, error) {
	var (
		rec    classification.Record
		source string
	)
	if err := row.Scan(&rec.Word, &rec.ContextHash, &rec.DomainCode,
		&rec.Confidence, &source, &rec.Justification, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Source = classification.Source(source)
	return &rec, nil
}
