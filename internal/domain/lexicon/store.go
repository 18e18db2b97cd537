package lexicon

import (
	"context"

	"github.com/tupiana/lexipipe/pkg/errors"
)

// ImportReport counts the outcome of a merge or import run.  Rejections are
// broken down by reason so an operator can tell malformed rows from unknown
// sources at a glance.
type ImportReport struct {
	Accepted int            `json:"accepted"`
	Rejected int            `json:"rejected"`
	Reasons  map[string]int `json:"reasons,omitempty"`
}

func (r *ImportReport) reject(reason string) {
	r.Rejected++
	if r.Reasons == nil {
		r.Reasons = make(map[string]int)
	}
	r.Reasons[reason]++
}

// Merge adds counts from other into r.
func (r *ImportReport) Merge(other *ImportReport) {
	if other == nil {
		return
	}
	r.Accepted += other.Accepted
	r.Rejected += other.Rejected
	for reason, n := range other.Reasons {
		if r.Reasons == nil {
			r.Reasons = make(map[string]int)
		}
		r.Reasons[reason] += n
	}
}

// Repository is the persistence contract for lexicon entries, keyed by
// (normalized_form, source) so repeated imports are idempotent.
type Repository interface {
	// Upsert inserts or replaces the entry for (entry.NormalizedForm,
	// entry.Source).
	Upsert(ctx context.Context, entry *Entry) error

	// UpsertBatch upserts many entries in one round trip.
	UpsertBatch(ctx context.Context, entries []*Entry) error

	// FindByNormalizedForm returns every source's entry for the form,
	// unordered.  An empty slice is not an error.
	FindByNormalizedForm(ctx context.Context, form string) ([]*Entry, error)

	// FindBatch returns entries for many forms keyed by normalized form.
	FindBatch(ctx context.Context, forms []string) (map[string][]*Entry, error)
}

// Store is the domain service over the repository: it applies the provenance
// priority policy at read time and the validation/grouping policy at write
// time.
type Store struct {
	repo Repository
}

// NewStore wires a Store over repo.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Lookup returns the winning entry for word: highest provenance priority
// first, confidence to break ties.  A non-empty posHint restricts candidates
// to entries carrying that POS class; if the restriction eliminates
// everything, the unrestricted winner is returned so a bad hint never turns
// a known word into a miss.
func (s *Store) Lookup(ctx context.Context, word, posHint string) (*Entry, error) {
	form := normalizeForm(word)
	candidates, err := s.repo.FindByNormalizedForm(ctx, form)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "lexicon lookup failed")
	}
	if len(candidates) == 0 {
		return nil, errors.Newf(errors.ErrCodeLexiconEntryNotFound, "no lexicon entry for %q", word)
	}

	best := pickBest(candidates, posHint)
	if best == nil {
		best = pickBest(candidates, "")
	}
	return best, nil
}

// Merge validates entries, groups them by normalized headword, resolves
// source conflicts by provenance priority, and upserts the survivors.  Within
// one (form, source) group only the best entry is written, so a file with
// duplicate rows converges to one row.  Malformed entries are counted in the
// report, never written.
func (s *Store) Merge(ctx context.Context, entries []*Entry) (*ImportReport, error) {
	report := &ImportReport{}

	type key struct {
		form   string
		source Source
	}
	winners := make(map[key]*Entry, len(entries))
	order := make([]key, 0, len(entries))

	for _, e := range entries {
		if e == nil {
			report.reject("nil_entry")
			continue
		}
		e.Normalize()
		if err := e.Validate(); err != nil {
			report.reject(errors.GetCode(err).String())
			continue
		}
		k := key{form: e.NormalizedForm, source: e.Source}
		if cur, ok := winners[k]; !ok {
			winners[k] = e
			order = append(order, k)
		} else if e.Better(cur) {
			winners[k] = e
		}
	}

	batch := make([]*Entry, 0, len(order))
	for _, k := range order {
		batch = append(batch, winners[k])
	}
	if len(batch) > 0 {
		if err := s.repo.UpsertBatch(ctx, batch); err != nil {
			return report, errors.Wrap(err, errors.ErrCodeLexiconImportFailed, "lexicon merge upsert failed")
		}
	}
	report.Accepted = len(batch)
	return report, nil
}

// InsertOrUpdate validates and upserts a single entry, idempotent on
// (normalized_form, source).
func (s *Store) InsertOrUpdate(ctx context.Context, e *Entry) error {
	if e == nil {
		return errors.New(errors.ErrCodeLexiconEntryMalformed, "nil lexicon entry")
	}
	e.Normalize()
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, e); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "lexicon upsert failed")
	}
	return nil
}

// LookupBatch resolves many words at once, returning the winner per word.
// Words with no entry are simply absent from the result map.
func (s *Store) LookupBatch(ctx context.Context, words []string) (map[string]*Entry, error) {
	forms := make([]string, 0, len(words))
	formToWord := make(map[string]string, len(words))
	for _, w := range words {
		f := normalizeForm(w)
		if _, seen := formToWord[f]; !seen {
			forms = append(forms, f)
			formToWord[f] = w
		}
	}
	found, err := s.repo.FindBatch(ctx, forms)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "lexicon batch lookup failed")
	}
	out := make(map[string]*Entry, len(found))
	for form, candidates := range found {
		if best := pickBest(candidates, ""); best != nil {
			out[formToWord[form]] = best
		}
	}
	return out, nil
}

func pickBest(candidates []*Entry, posHint string) *Entry {
	var best *Entry
	for _, c := range candidates {
		if posHint != "" && c.POSClass != posHint {
			continue
		}
		if c.Better(best) {
			best = c
		}
	}
	return best
}
