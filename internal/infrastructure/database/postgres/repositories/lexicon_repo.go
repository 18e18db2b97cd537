package repositories

import (
	"context"

	"github.com/tupiana/lexipipe/internal/domain/lexicon"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// LexiconRepo persists lexicon entries keyed by (normalized_form, source).
type LexiconRepo struct {
	db querier
}

// NewLexiconRepo builds the repository over a pool or transaction.
func NewLexiconRepo(db querier) *LexiconRepo {
	return &LexiconRepo{db: db}
}

const upsertEntrySQL = `
INSERT INTO lexicon_entries
	(normalized_form, source, headword, pos_class, domain_codes, confidence, frequency, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (normalized_form, source) DO UPDATE SET
	headword     = EXCLUDED.headword,
	pos_class    = EXCLUDED.pos_class,
	domain_codes = EXCLUDED.domain_codes,
	confidence   = EXCLUDED.confidence,
	frequency    = EXCLUDED.frequency,
	updated_at   = now()`

// Upsert implements lexicon.Repository.
func (r *LexiconRepo) Upsert(ctx context.Context, entry *lexicon.Entry) error {
	_, err := r.db.Exec(ctx, upsertEntrySQL,
		entry.NormalizedForm, string(entry.Source), entry.Headword,
		entry.POSClass, entry.DomainCodes, entry.Confidence, entry.Frequency)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "lexicon upsert failed")
	}
	return nil
}

// UpsertBatch implements lexicon.Repository.  One statement per entry inside
// a single transaction, so a partially applied batch never becomes visible.
func (r *LexiconRepo) UpsertBatch(ctx context.Context, entries []*lexicon.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, ok := beginner(r.db)
	if !ok {
		for _, e := range entries {
			if err := r.Upsert(ctx, e); err != nil {
				return err
			}
		}
		return nil
	}

	t, err := tx.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "lexicon batch begin failed")
	}
	defer t.Rollback(ctx)

	for _, e := range entries {
		if _, err := t.Exec(ctx, upsertEntrySQL,
			e.NormalizedForm, string(e.Source), e.Headword,
			e.POSClass, e.DomainCodes, e.Confidence, e.Frequency); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "lexicon batch upsert failed")
		}
	}
	if err := t.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "lexicon batch commit failed")
	}
	return nil
}

const selectEntrySQL = `
SELECT normalized_form, source, headword, pos_class, domain_codes, confidence, frequency, updated_at
FROM lexicon_entries`

// FindByNormalizedForm implements lexicon.Repository.
func (r *LexiconRepo) FindByNormalizedForm(ctx context.Context, form string) ([]*lexicon.Entry, error) {
	rows, err := r.db.Query(ctx, selectEntrySQL+" WHERE normalized_form = $1", form)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "lexicon lookup failed")
	}
	defer rows.Close()
	return scanEntries(rows)
}

// FindBatch implements lexicon.Repository.
func (r *LexiconRepo) FindBatch(ctx context.Context, forms []string) (map[string][]*lexicon.Entry, error) {
	if len(forms) == 0 {
		return map[string][]*lexicon.Entry{}, nil
	}
	rows, err := r.db.Query(ctx, selectEntrySQL+" WHERE normalized_form = ANY($1)", forms)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "lexicon batch lookup failed")
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]*lexicon.Entry, len(forms))
	for _, e := range entries {
		out[e.NormalizedForm] = append(out[e.NormalizedForm], e)
	}
	return out, nil
}

func scanEntries(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*lexicon.Entry, error) {
	var out []*lexicon.Entry
	for rows.Next() {
		var (
			e      lexicon.Entry
			source string
		)
		if err := rows.Scan(&e.NormalizedForm, &source, &e.Headword, &e.POSClass,
			&e.DomainCodes, &e.Confidence, &e.Frequency, &e.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "lexicon row scan failed")
		}
		e.Source = lexicon.Source(source)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "lexicon rows failed")
	}
	return out, nil
}
