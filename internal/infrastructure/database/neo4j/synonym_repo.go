package neo4j

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/tupiana/lexipipe/internal/domain/morphology"
	"github.com/tupiana/lexipipe/internal/domain/synonym"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
)

const (
	neighborsQuery = `
		MATCH (w:Word {form: $form})-[:SYNONYM_OF]-(n:Word)
		RETURN n.form AS form`

	neighborsBatchQuery = `
		UNWIND $forms AS form
		MATCH (w:Word {form: form})-[:SYNONYM_OF]-(n:Word)
		RETURN form, collect(n.form) AS neighbors`

	addEdgeQuery = `
		MERGE (a:Word {form: $wordA})
		MERGE (b:Word {form: $wordB})
		MERGE (a)-[r:SYNONYM_OF]-(b)
		ON CREATE SET r.source = $source`
)

// SynonymRepo implements synonym.GraphRepository on Neo4j.  Relationships
// are undirected; edge identity is the lexically ordered word pair, so
// repeated imports converge on a single relationship.
type SynonymRepo struct {
	driver *Driver
	logger logging.Logger
}

// NewSynonymRepo builds the repository.
func NewSynonymRepo(driver *Driver, log logging.Logger) *SynonymRepo {
	return &SynonymRepo{driver: driver, logger: log}
}

// Neighbors returns the words adjacent to word.  Unknown words yield an
// empty slice.
func (r *SynonymRepo) Neighbors(ctx context.Context, word string) ([]string, error) {
	result, err := r.driver.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		res, err := tx.Run(ctx, neighborsQuery, map[string]any{
			"form": morphology.Normalize(word),
		})
		if err != nil {
			return nil, err
		}
		return CollectRecords(ctx, res, func(record *neo4j.Record) (string, error) {
			form, _ := record.Get("form")
			s, _ := form.(string)
			return s, nil
		})
	})
	if err != nil {
		return nil, err
	}
	neighbors, _ := result.([]string)
	return neighbors, nil
}

// NeighborsBatch returns adjacency for many words in one round trip.
// Words without neighbors are absent from the map.
func (r *SynonymRepo) NeighborsBatch(ctx context.Context, words []string) (map[string][]string, error) {
	if len(words) == 0 {
		return map[string][]string{}, nil
	}
	forms := make([]string, 0, len(words))
	for _, w := range words {
		forms = append(forms, morphology.Normalize(w))
	}

	result, err := r.driver.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		res, err := tx.Run(ctx, neighborsBatchQuery, map[string]any{"forms": forms})
		if err != nil {
			return nil, err
		}
		out := make(map[string][]string, len(forms))
		for res.Next(ctx) {
			record := res.Record()
			form, _ := record.Get("form")
			raw, _ := record.Get("neighbors")
			key, ok := form.(string)
			if !ok {
				continue
			}
			values, ok := raw.([]any)
			if !ok || len(values) == 0 {
				continue
			}
			neighbors := make([]string, 0, len(values))
			for _, v := range values {
				if s, ok := v.(string); ok {
					neighbors = append(neighbors, s)
				}
			}
			out[key] = neighbors
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, err
	}
	adjacency, _ := result.(map[string][]string)
	return adjacency, nil
}

// AddEdge persists the edge, idempotent on the ordered word pair.
func (r *SynonymRepo) AddEdge(ctx context.Context, edge *synonym.Edge) error {
	normalized := *edge
	normalized.Normalize()
	if err := normalized.Validate(); err != nil {
		return err
	}

	_, err := r.driver.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		res, err := tx.Run(ctx, addEdgeQuery, map[string]any{
			"wordA":  normalized.WordA,
			"wordB":  normalized.WordB,
			"source": normalized.Source,
		})
		if err != nil {
			return nil, err
		}
		return nil, res.Err()
	})
	if err != nil {
		return err
	}
	r.logger.Debug("Stored synonym edge",
		logging.String("word_a", normalized.WordA),
		logging.String("word_b", normalized.WordB))
	return nil
}
