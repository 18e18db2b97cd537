// Package keyness ranks study-corpus words against a reference corpus with
// the Dunning log-likelihood statistic.  Words unusually frequent in the
// study corpus are the best candidates for dialectal vocabulary, so the
// ranked list feeds the batch classification queue.
package keyness

import (
	"context"
	"math"
	"sort"

	"github.com/tupiana/lexipipe/internal/domain/classification"
	"github.com/tupiana/lexipipe/internal/domain/morphology"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// Reference exposes term statistics for the reference corpus, backed by an
// OpenSearch index in production.
type Reference interface {
	// TermFrequencies returns the reference frequency of each term.  Terms
	// absent from the corpus are simply missing from the map.
	TermFrequencies(ctx context.Context, terms []string) (map[string]int64, error)

	// TotalTokens returns the reference corpus size in tokens.
	TotalTokens(ctx context.Context) (int64, error)
}

// Keyword is one ranked result.
type Keyword struct {
	Word          string  `json:"word"`
	StudyFreq     int64   `json:"study_freq"`
	ReferenceFreq int64   `json:"reference_freq"`
	LogLikelihood float64 `json:"log_likelihood"`
}

// Extractor computes keyness scores.
type Extractor struct {
	reference Reference
	stopwords classification.Stopwords
	logger    logging.Logger
}

// New builds an Extractor.  Stopwords are excluded from ranking since their
// frequency profile says nothing about domain vocabulary.
func New(reference Reference, stopwords classification.Stopwords, logger logging.Logger) (*Extractor, error) {
	if reference == nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "keyness: reference corpus is required")
	}
	if stopwords == nil {
		stopwords = classification.DefaultPortugueseStopwords()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Extractor{reference: reference, stopwords: stopwords, logger: logger.Named("keyness")}, nil
}

// Rank scores every study-corpus word against the reference and returns the
// top results by log-likelihood, highest first.  Only positive keyness is
// kept: words over-represented in the study corpus.  limit <= 0 returns all.
func (e *Extractor) Rank(ctx context.Context, studyFreqs map[string]int64, studyTotal int64, limit int) ([]Keyword, error) {
	if studyTotal <= 0 {
		return nil, errors.New(errors.ErrCodeBadRequest, "keyness: study corpus total must be positive")
	}

	terms := make([]string, 0, len(studyFreqs))
	normFreqs := make(map[string]int64, len(studyFreqs))
	for word, freq := range studyFreqs {
		w := morphology.Normalize(word)
		if w == "" || freq <= 0 || e.stopwords.Contains(w) {
			continue
		}
		normFreqs[w] += freq
	}
	for w := range normFreqs {
		terms = append(terms, w)
	}
	if len(terms) == 0 {
		return nil, nil
	}

	refFreqs, err := e.reference.TermFrequencies(ctx, terms)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "reference frequency lookup failed")
	}
	refTotal, err := e.reference.TotalTokens(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "reference corpus size lookup failed")
	}
	if refTotal <= 0 {
		return nil, errors.New(errors.ErrCodeExternalService, "reference corpus reports zero tokens")
	}

	keywords := make([]Keyword, 0, len(terms))
	for _, w := range terms {
		a := normFreqs[w]
		b := refFreqs[w]
		// Positive keyness only: the study-corpus relative frequency must
		// exceed the reference's.
		if float64(a)/float64(studyTotal) <= float64(b)/float64(refTotal) {
			continue
		}
		keywords = append(keywords, Keyword{
			Word:          w,
			StudyFreq:     a,
			ReferenceFreq: b,
			LogLikelihood: logLikelihood(a, b, studyTotal, refTotal),
		})
	}

	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].LogLikelihood != keywords[j].LogLikelihood {
			return keywords[i].LogLikelihood > keywords[j].LogLikelihood
		}
		return keywords[i].Word < keywords[j].Word
	})
	if limit > 0 && len(keywords) > limit {
		keywords = keywords[:limit]
	}
	return keywords, nil
}

// logLikelihood is Dunning's G2 for a 2x2 contingency of term frequency in
// two corpora: 2 * (a*ln(a/E1) + b*ln(b/E2)), with zero cells contributing
// nothing.
func logLikelihood(a, b, totalA, totalB int64) float64 {
	fa, fb := float64(a), float64(b)
	ta, tb := float64(totalA), float64(totalB)
	e1 := ta * (fa + fb) / (ta + tb)
	e2 := tb * (fa + fb) / (ta + tb)

	var g2 float64
	if fa > 0 && e1 > 0 {
		g2 += fa * math.Log(fa/e1)
	}
	if fb > 0 && e2 > 0 {
		g2 += fb * math.Log(fb/e2)
	}
	return 2 * g2
}
