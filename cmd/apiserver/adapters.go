package main

import (
	"context"
	"time"

	"github.com/tupiana/lexipipe/internal/domain/lexicon"
)

// lexiconDictionary adapts the lexicon store to the resolver's synchronous
// dictionary lookup.  The store call is bounded so a slow database degrades
// the dictionary layer instead of stalling the whole annotation request.
type lexiconDictionary struct {
	store   *lexicon.Store
	timeout time.Duration
}

func newLexiconDictionary(store *lexicon.Store) *lexiconDictionary {
	return &lexiconDictionary{store: store, timeout: 2 * time.Second}
}

func (d *lexiconDictionary) Notation(word string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	entry, err := d.store.Lookup(ctx, word, "")
	if err != nil || entry == nil || entry.POSClass == "" {
		return "", false
	}
	return entry.POSClass, true
}
