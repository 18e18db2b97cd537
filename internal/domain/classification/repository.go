package classification

import "context"

// Cache is the fast-path store for classification records: Redis in
// production.  All writes are conditional upserts with
// highest-confidence-wins semantics, so two jobs classifying the same word
// concurrently converge without locks, and a later lower-confidence LLM
// answer never clobbers a better one.
type Cache interface {
	// GetWord returns the word-only record, or nil on a miss.
	GetWord(ctx context.Context, word string) (*Record, error)

	// GetWordContext returns the word+context record, or nil on a miss.
	GetWordContext(ctx context.Context, word, contextHash string) (*Record, error)

	// PutIfHigher stores the record unless an existing record under the same
	// key has confidence greater than or equal to the new one.  Returns true
	// when the write happened.
	PutIfHigher(ctx context.Context, record *Record) (bool, error)
}

// Repository is the durable store for classification records: the semantic
// lexicon and disambiguation tables in Postgres.  Upserts follow the same
// highest-confidence-wins policy as the cache.
type Repository interface {
	// FindWord returns the word-only record, or nil when absent.
	FindWord(ctx context.Context, word string) (*Record, error)

	// FindWords returns word-only records for many words keyed by word.
	// Absent words are simply missing from the map.
	FindWords(ctx context.Context, words []string) (map[string]*Record, error)

	// FindWordContext returns the word+context record, or nil when absent.
	FindWordContext(ctx context.Context, word, contextHash string) (*Record, error)

	// UpsertIfHigher persists the record under highest-confidence-wins.
	// Returns true when the row was written.
	UpsertIfHigher(ctx context.Context, record *Record) (bool, error)

	// UpsertBatchIfHigher persists many records in one round trip and
	// returns the number actually written.
	UpsertBatchIfHigher(ctx context.Context, records []*Record) (int, error)
}

// Stopwords is the closed-class function-word table consulted at level 1 of
// the classifier.  Implementations must be safe for concurrent reads.
type Stopwords interface {
	// Contains reports whether the normalized word is a stopword.
	Contains(word string) bool
}
