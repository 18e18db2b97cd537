// Package semantics implements the layered domain classifier: a fixed
// cascade from cheap deterministic checks down to the batched LLM, with
// every answer carrying its level of origin and conditional write-back so
// later runs resolve the same words without model calls.
package semantics

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/tupiana/lexipipe/internal/domain/classification"
	"github.com/tupiana/lexipipe/internal/domain/lexicon"
	"github.com/tupiana/lexipipe/internal/domain/morphology"
	"github.com/tupiana/lexipipe/internal/domain/tagset"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/internal/intelligence/llmclassifier"
	"github.com/tupiana/lexipipe/pkg/errors"
)

const (
	// StopwordConfidence is definitional: closed-class words carry no
	// lexical domain.
	StopwordConfidence = 1.0

	// DefaultDisambiguationThreshold is the word-only confidence below
	// which the context-specific record is consulted.
	DefaultDisambiguationThreshold = 0.90
)

// Dialectal is the regional-vocabulary lexicon consulted at level 5.
type Dialectal interface {
	Lookup(ctx context.Context, word, posHint string) (*lexicon.Entry, error)
}

// LLM is the last-resort batched domain classifier.
type LLM interface {
	ClassifyDomains(ctx context.Context, inputs []llmclassifier.WordInput, domainCodes []string) ([]llmclassifier.DomainResult, error)
}

// Request is one word to classify, with optional surrounding text for
// disambiguation.
type Request struct {
	Word    string
	Context string
}

// Classifier runs the cascade.  Levels in order: stopword table,
// classification cache (word-only, then word+context when the word-only
// answer is ambiguous), semantic lexicon, morphological rules, dialectal
// lexicon, LLM.  A word that survives all six gets an explicit NC record so
// the miss itself is remembered.
type Classifier struct {
	stopwords classification.Stopwords
	cache     classification.Cache
	repo      classification.Repository
	morph     *morphology.Engine
	dialectal Dialectal
	llm       LLM
	taxonomy  *tagset.Taxonomy

	batchLimit int
	threshold  float64
	group      singleflight.Group
	logger     logging.Logger
}

// Config carries the classifier's collaborators.  Stopwords, Morph, and the
// threshold default when unset; Cache, Dialectal, and LLM may be nil, which
// skips those levels.
type Config struct {
	Stopwords  classification.Stopwords
	Cache      classification.Cache
	Repository classification.Repository
	Morph      *morphology.Engine
	Dialectal  Dialectal
	LLM        LLM
	Taxonomy   *tagset.Taxonomy
	BatchLimit int
	Threshold  float64
	Logger     logging.Logger
}

// New builds a Classifier.  The repository and taxonomy are required; the
// repository is both level 3 and the write-back target.
func New(cfg Config) (*Classifier, error) {
	if cfg.Repository == nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "semantics: repository is required")
	}
	if cfg.Taxonomy == nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "semantics: taxonomy is required")
	}
	if cfg.Stopwords == nil {
		cfg.Stopwords = classification.DefaultPortugueseStopwords()
	}
	if cfg.Morph == nil {
		cfg.Morph = morphology.NewDefaultEngine()
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = llmclassifier.DefaultBatchLimit
	}
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = DefaultDisambiguationThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	return &Classifier{
		stopwords:  cfg.Stopwords,
		cache:      cfg.Cache,
		repo:       cfg.Repository,
		morph:      cfg.Morph,
		dialectal:  cfg.Dialectal,
		llm:        cfg.LLM,
		taxonomy:   cfg.Taxonomy,
		batchLimit: cfg.BatchLimit,
		threshold:  cfg.Threshold,
		logger:     cfg.Logger.Named("semantics"),
	}, nil
}

// Classify resolves a single word through the full cascade.
func (c *Classifier) Classify(ctx context.Context, req Request) (*classification.Record, error) {
	records, err := c.ClassifyBatch(ctx, []Request{req})
	if err != nil {
		return nil, err
	}
	return records[0], nil
}

// ClassifyBatch resolves many words.  Levels 1 through 5 run per word;
// survivors are sent to the LLM in batches.  The result slice is parallel to
// the input and never contains nil: full misses are NC records.  LLM calls
// that fail after their retry degrade to NC for the affected words rather
// than failing the batch.
func (c *Classifier) ClassifyBatch(ctx context.Context, reqs []Request) ([]*classification.Record, error) {
	records := make([]*classification.Record, len(reqs))
	// Cached sub-threshold answers are kept aside: deeper levels get a
	// chance to do better, but an ambiguous cached answer still beats NC.
	fallbacks := make([]*classification.Record, len(reqs))
	var pending []int

	for i, req := range reqs {
		word := morphology.Normalize(req.Word)
		if word == "" {
			records[i] = classification.NewNotClassified(req.Word, classification.SourceLLM, "empty after normalization")
			continue
		}
		rec, fb, err := c.resolveWord(ctx, word, req.Context)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			records[i] = rec
			continue
		}
		fallbacks[i] = fb
		pending = append(pending, i)
	}

	if len(pending) > 0 {
		if err := c.resolveLLMBatches(ctx, reqs, records, pending); err != nil {
			c.logger.Warn("llm domain layer failed; degrading to fallback or NC", logging.Err(err))
		}
	}

	for i := range records {
		if records[i] != nil {
			continue
		}
		if fallbacks[i] != nil {
			records[i] = fallbacks[i]
			continue
		}
		nc := classification.NewNotClassified(reqs[i].Word, classification.SourceLLM, "no level produced a domain")
		c.writeBack(ctx, nc)
		records[i] = nc
	}
	return records, nil
}

// resolveWord collapses concurrent word-only resolutions of the same word
// into one cascade pass, so a burst of requests for a hot word costs one
// cache miss instead of many.  Context-specific requests are never shared.
func (c *Classifier) resolveWord(ctx context.Context, word, context string) (*classification.Record, *classification.Record, error) {
	if context != "" {
		return c.resolveLocal(ctx, word, context)
	}

	type outcome struct {
		rec *classification.Record
		fb  *classification.Record
	}
	v, err, _ := c.group.Do(word, func() (any, error) {
		rec, fb, err := c.resolveLocal(ctx, word, "")
		if err != nil {
			return nil, err
		}
		return &outcome{rec: rec, fb: fb}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	o := v.(*outcome)
	return o.rec, o.fb, nil
}

// resolveLocal runs levels 1 through 5.  Returns the resolved record, or a
// sub-threshold cached fallback when only an ambiguous answer exists.
func (c *Classifier) resolveLocal(ctx context.Context, word, context string) (*classification.Record, *classification.Record, error) {
	// Level 1: closed-class words carry no domain, ever.
	if c.stopwords.Contains(word) {
		return &classification.Record{
			Word:       word,
			DomainCode: tagset.NoDomainCode,
			Confidence: StopwordConfidence,
			Source:     classification.SourceStopword,
		}, nil, nil
	}

	// Level 2: the cache, word-only first.  A confident word-only record
	// answers for every occurrence; below the threshold the word is
	// ambiguous and the context-specific record is consulted instead.
	var fallback *classification.Record
	if c.cache != nil {
		wordRec, err := c.cache.GetWord(ctx, word)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrCodeCacheError, "cache lookup failed")
		}
		if wordRec != nil && !wordRec.IsNotClassified() {
			if wordRec.Confidence >= c.threshold {
				return asCacheHit(wordRec), nil, nil
			}
			fallback = asCacheHit(wordRec)
			if hash := classification.ContextHash(context); hash != "" {
				ctxRec, err := c.cache.GetWordContext(ctx, word, hash)
				if err != nil {
					return nil, nil, errors.Wrap(err, errors.ErrCodeCacheError, "cache lookup failed")
				}
				if ctxRec != nil && !ctxRec.IsNotClassified() {
					return asCacheHit(ctxRec), nil, nil
				}
			}
		}
	}

	// Level 3: the durable semantic lexicon.  Hits warm the cache.
	repoRec, err := c.repo.FindWord(ctx, word)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "semantic lexicon lookup failed")
	}
	if repoRec != nil && !repoRec.IsNotClassified() {
		hit := *repoRec
		hit.Source = classification.SourceSemanticLexicon
		if c.cache != nil {
			if _, err := c.cache.PutIfHigher(ctx, &hit); err != nil {
				c.logger.Warn("cache warm failed", logging.String("word", word), logging.Err(err))
			}
		}
		return &hit, fallback, nil
	}

	// Level 4: morphological rules.
	if match := c.morph.Classify(word); match != nil && match.Kind == morphology.KindDomain {
		if c.taxonomy.Contains(match.Value) {
			rec := &classification.Record{
				Word:          word,
				DomainCode:    match.Value,
				Confidence:    match.Confidence,
				Source:        classification.SourceMorphologicalRule,
				Justification: match.Rule,
			}
			c.writeBack(ctx, rec)
			return rec, fallback, nil
		}
	}

	// Level 5: the dialectal lexicon.
	if c.dialectal != nil {
		entry, err := c.dialectal.Lookup(ctx, word, "")
		if err != nil && !errors.IsCode(err, errors.ErrCodeLexiconEntryNotFound) {
			return nil, nil, err
		}
		if entry != nil && entry.PrimaryDomain() != "" {
			rec := &classification.Record{
				Word:          word,
				DomainCode:    entry.PrimaryDomain(),
				Confidence:    entry.Confidence,
				Source:        classification.SourceDialectalLexicon,
				Justification: "lexicon source " + string(entry.Source),
			}
			c.writeBack(ctx, rec)
			return rec, fallback, nil
		}
	}

	return nil, fallback, nil
}

// resolveLLMBatches classifies the pending words in fixed-size batches and
// writes accepted answers back to the lexicon and cache.  Words the model
// omits stay nil for the caller's NC pass; they are not retried inline.
func (c *Classifier) resolveLLMBatches(ctx context.Context, reqs []Request, records []*classification.Record, pending []int) error {
	if c.llm == nil {
		return errors.New(errors.ErrCodeServiceUnavailable, "no llm classifier configured")
	}

	codes := c.taxonomy.Codes()
	var lastErr error
	for start := 0; start < len(pending); start += c.batchLimit {
		end := min(start+c.batchLimit, len(pending))
		batch := pending[start:end]

		inputs := make([]llmclassifier.WordInput, 0, len(batch))
		for _, idx := range batch {
			inputs = append(inputs, llmclassifier.WordInput{
				Word:    reqs[idx].Word,
				Context: strings.TrimSpace(reqs[idx].Context),
			})
		}
		results, err := c.llm.ClassifyDomains(ctx, inputs, codes)
		if err != nil {
			lastErr = err
			continue
		}

		byWord := make(map[string]llmclassifier.DomainResult, len(results))
		for _, res := range results {
			byWord[res.Word] = res
		}
		var writes []*classification.Record
		for _, idx := range batch {
			word := morphology.Normalize(reqs[idx].Word)
			res, ok := byWord[word]
			if !ok {
				continue
			}
			if !c.taxonomy.Contains(res.DomainCode) {
				c.logger.Warn("llm returned unknown domain code",
					logging.String("word", word), logging.String("code", res.DomainCode))
				continue
			}
			rec := &classification.Record{
				Word:          word,
				ContextHash:   classification.ContextHash(reqs[idx].Context),
				DomainCode:    res.DomainCode,
				Confidence:    res.Confidence,
				Source:        classification.SourceLLM,
				Justification: res.Justification,
			}
			records[idx] = rec
			writes = append(writes, rec)
			if rec.ContextHash != "" {
				// Also store the answer under the bare word, so future
				// word-only lookups resolve at the lexicon level instead of
				// reaching the model again.  Highest-confidence-wins keeps a
				// better existing word-only record intact.
				wordOnly := *rec
				wordOnly.ContextHash = ""
				writes = append(writes, &wordOnly)
			}
		}
		if len(writes) > 0 {
			if _, err := c.repo.UpsertBatchIfHigher(ctx, writes); err != nil {
				c.logger.Warn("llm write-back to semantic lexicon failed", logging.Err(err))
			}
			if c.cache != nil {
				for _, rec := range writes {
					if _, err := c.cache.PutIfHigher(ctx, rec); err != nil {
						c.logger.Warn("llm write-back to cache failed",
							logging.String("word", rec.Word), logging.Err(err))
					}
				}
			}
		}
	}
	return lastErr
}

// writeBack persists a newly derived record under highest-confidence-wins.
// Failures are logged, not fatal: the answer is still returned.
func (c *Classifier) writeBack(ctx context.Context, rec *classification.Record) {
	if _, err := c.repo.UpsertIfHigher(ctx, rec); err != nil {
		c.logger.Warn("write-back failed", logging.String("word", rec.Word), logging.Err(err))
	}
	if c.cache != nil {
		if _, err := c.cache.PutIfHigher(ctx, rec); err != nil {
			c.logger.Warn("cache write-back failed", logging.String("word", rec.Word), logging.Err(err))
		}
	}
}

func asCacheHit(rec *classification.Record) *classification.Record {
	hit := *rec
	hit.Source = classification.SourceCache
	return &hit
}
