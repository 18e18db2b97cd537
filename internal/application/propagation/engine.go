// Package propagation spreads semantic classifications along the synonym
// graph: forward from a classified seed to its unclassified synonyms with a
// per-hop confidence decay, and in reverse by inferring a word's domain from
// the majority of its already-classified neighbors.
package propagation

import (
	"context"
	"sort"

	"github.com/tupiana/lexipipe/internal/domain/classification"
	"github.com/tupiana/lexipipe/internal/domain/morphology"
	"github.com/tupiana/lexipipe/internal/domain/synonym"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

const (
	// DefaultForwardDecay is the per-hop multiplier when pushing a seed's
	// domain outward.
	DefaultForwardDecay = 0.85

	// DefaultReverseDecay is the multiplier applied to the winning neighbor
	// confidence when inferring a domain from classified neighbors.
	DefaultReverseDecay = 0.80

	// DefaultFloor stops propagation: no record is written below it.
	DefaultFloor = 0.60
)

// Report summarizes one propagation run.
type Report struct {
	Visited int `json:"visited"`
	Written int `json:"written"`
	Skipped int `json:"skipped"`
}

// Engine traverses the synonym graph and writes derived records through the
// same highest-confidence-wins upserts the classifier uses, so propagation
// never clobbers a directly classified word.
type Engine struct {
	graph   synonym.GraphRepository
	repo    classification.Repository
	forward float64
	reverse float64
	floor   float64
	logger  logging.Logger
}

// Config carries the engine's collaborators and tuning.  Decays and the
// floor default when unset.
type Config struct {
	Graph        synonym.GraphRepository
	Repository   classification.Repository
	ForwardDecay float64
	ReverseDecay float64
	Floor        float64
	Logger       logging.Logger
}

// New builds an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Graph == nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "propagation: graph is required")
	}
	if cfg.Repository == nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "propagation: repository is required")
	}
	if cfg.ForwardDecay <= 0 || cfg.ForwardDecay >= 1 {
		cfg.ForwardDecay = DefaultForwardDecay
	}
	if cfg.ReverseDecay <= 0 || cfg.ReverseDecay >= 1 {
		cfg.ReverseDecay = DefaultReverseDecay
	}
	if cfg.Floor <= 0 || cfg.Floor >= 1 {
		cfg.Floor = DefaultFloor
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	return &Engine{
		graph:   cfg.Graph,
		repo:    cfg.Repository,
		forward: cfg.ForwardDecay,
		reverse: cfg.ReverseDecay,
		floor:   cfg.Floor,
		logger:  cfg.Logger.Named("propagation"),
	}, nil
}

type frontier struct {
	word       string
	confidence float64
}

// PropagateFrom pushes the seed's domain breadth-first through the graph.
// Each hop multiplies the confidence by the forward decay, so every derived
// record is strictly below its parent and the walk self-terminates at the
// floor.  A visited set keeps cycles finite.  Writes go through
// UpsertIfHigher, so a synonym that already holds a better classification is
// counted as skipped, not overwritten.
func (e *Engine) PropagateFrom(ctx context.Context, seedWord string) (*Report, error) {
	seed := morphology.Normalize(seedWord)
	seedRec, err := e.repo.FindWord(ctx, seed)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "seed lookup failed")
	}
	if seedRec == nil || seedRec.IsNotClassified() {
		return nil, errors.Newf(errors.ErrCodePropagationSeedUnclassified,
			"cannot propagate from %q: word has no classification", seed)
	}

	report := &Report{}
	visited := map[string]bool{seed: true}
	queue := []frontier{{word: seed, confidence: seedRec.Confidence}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		derived := cur.confidence * e.forward
		if derived < e.floor {
			continue
		}
		neighbors, err := e.graph.Neighbors(ctx, cur.word)
		if err != nil {
			return report, errors.Wrap(err, errors.ErrCodeSynonymGraphUnavailable, "neighbor lookup failed")
		}
		for _, next := range neighbors {
			if visited[next] {
				continue
			}
			visited[next] = true
			report.Visited++

			rec := &classification.Record{
				Word:          next,
				DomainCode:    seedRec.DomainCode,
				Confidence:    derived,
				Source:        classification.SourceSynonymPropagation,
				Justification: "synonym of " + cur.word,
			}
			written, err := e.repo.UpsertIfHigher(ctx, rec)
			if err != nil {
				return report, errors.Wrap(err, errors.ErrCodeDatabaseError, "propagation write failed")
			}
			if written {
				report.Written++
			} else {
				report.Skipped++
			}
			queue = append(queue, frontier{word: next, confidence: derived})
		}
	}
	return report, nil
}

// InferFromNeighbors derives a domain for an unclassified word from its
// classified synonyms: the most common neighbor domain wins, ties broken by
// the highest single confidence, and the result is discounted by the reverse
// decay.  Returns nil without error when no inference clears the floor.
func (e *Engine) InferFromNeighbors(ctx context.Context, word string) (*classification.Record, error) {
	w := morphology.Normalize(word)
	existing, err := e.repo.FindWord(ctx, w)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "word lookup failed")
	}
	if existing != nil && !existing.IsNotClassified() {
		return existing, nil
	}

	neighbors, err := e.graph.Neighbors(ctx, w)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSynonymGraphUnavailable, "neighbor lookup failed")
	}
	if len(neighbors) == 0 {
		return nil, nil
	}
	recs, err := e.repo.FindWords(ctx, neighbors)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "neighbor classification lookup failed")
	}

	type vote struct {
		count int
		best  float64
	}
	votes := make(map[string]*vote)
	for _, rec := range recs {
		if rec == nil || rec.IsNotClassified() {
			continue
		}
		v := votes[rec.DomainCode]
		if v == nil {
			v = &vote{}
			votes[rec.DomainCode] = v
		}
		v.count++
		if rec.Confidence > v.best {
			v.best = rec.Confidence
		}
	}
	if len(votes) == 0 {
		return nil, nil
	}

	codes := make([]string, 0, len(votes))
	for code := range votes {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		a, b := votes[codes[i]], votes[codes[j]]
		if a.count != b.count {
			return a.count > b.count
		}
		if a.best != b.best {
			return a.best > b.best
		}
		return codes[i] < codes[j]
	})
	winner := codes[0]
	derived := votes[winner].best * e.reverse
	if derived < e.floor {
		return nil, nil
	}

	rec := &classification.Record{
		Word:          w,
		DomainCode:    winner,
		Confidence:    derived,
		Source:        classification.SourceSynonymPropagation,
		Justification: "inferred from classified synonyms",
	}
	if _, err := e.repo.UpsertIfHigher(ctx, rec); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "inference write failed")
	}
	return rec, nil
}
