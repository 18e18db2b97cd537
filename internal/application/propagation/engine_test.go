package propagation

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tupiana/lexipipe/internal/domain/classification"
	"github.com/tupiana/lexipipe/internal/domain/synonym"
	"github.com/tupiana/lexipipe/pkg/errors"
)

type memRepo struct {
	words map[string]*classification.Record
}

func newMemRepo() *memRepo {
	return &memRepo{words: map[string]*classification.Record{}}
}

func (m *memRepo) FindWord(_ context.Context, word string) (*classification.Record, error) {
	return m.words[word], nil
}

func (m *memRepo) FindWords(_ context.Context, words []string) (map[string]*classification.Record, error) {
	out := map[string]*classification.Record{}
	for _, w := range words {
		if rec, ok := m.words[w]; ok {
			out[w] = rec
		}
	}
	return out, nil
}

func (m *memRepo) FindWordContext(_ context.Context, _, _ string) (*classification.Record, error) {
	return nil, nil
}

func (m *memRepo) UpsertIfHigher(_ context.Context, rec *classification.Record) (bool, error) {
	if cur, ok := m.words[rec.Word]; ok && cur.Confidence >= rec.Confidence {
		return false, nil
	}
	cp := *rec
	m.words[rec.Word] = &cp
	return true, nil
}

func (m *memRepo) UpsertBatchIfHigher(ctx context.Context, recs []*classification.Record) (int, error) {
	n := 0
	for _, rec := range recs {
		ok, err := m.UpsertIfHigher(ctx, rec)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func buildGraph(t *testing.T, pairs [][2]string) *synonym.MemoryGraph {
	t.Helper()
	g := synonym.NewMemoryGraph()
	for _, p := range pairs {
		require.NoError(t, g.AddEdge(context.Background(), &synonym.Edge{WordA: p[0], WordB: p[1]}))
	}
	return g
}

func newEngine(t *testing.T, graph synonym.GraphRepository, repo classification.Repository) *Engine {
	t.Helper()
	e, err := New(Config{Graph: graph, Repository: repo})
	require.NoError(t, err)
	return e
}

func TestPropagateFromSeed(t *testing.T) {
	// chimarrão is classified at 1.0; its direct synonyms mate and erva must
	// come out at 0.85 with propagation provenance.
	graph := buildGraph(t, [][2]string{
		{"chimarrão", "mate"},
		{"chimarrão", "erva"},
	})
	repo := newMemRepo()
	repo.words["chimarrão"] = &classification.Record{
		Word: "chimarrão", DomainCode: "AL.BE", Confidence: 1.0,
		Source: classification.SourceSemanticLexicon,
	}
	e := newEngine(t, graph, repo)

	report, err := e.PropagateFrom(context.Background(), "chimarrão")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Written)

	for _, w := range []string{"mate", "erva"} {
		rec := repo.words[w]
		require.NotNil(t, rec, w)
		assert.Equal(t, "AL.BE", rec.DomainCode)
		assert.InDelta(t, 0.85, rec.Confidence, 1e-9)
		assert.Equal(t, classification.SourceSynonymPropagation, rec.Source)
		assert.Less(t, rec.Confidence, repo.words["chimarrão"].Confidence,
			"derived confidence must be strictly below the parent")
	}
}

func TestPropagateMultiHopDecayAndFloor(t *testing.T) {
	// Chain a-b-c-d-e from confidence 1.0: hops land at 0.85, 0.7225,
	// 0.614125, and the fourth hop (0.522) is below the floor.
	graph := buildGraph(t, [][2]string{
		{"aguada", "bebida"}, {"bebida", "cachaça"}, {"cachaça", "caninha"}, {"caninha", "pinga"},
	})
	repo := newMemRepo()
	repo.words["aguada"] = &classification.Record{
		Word: "aguada", DomainCode: "AL.BE", Confidence: 1.0,
		Source: classification.SourceSemanticLexicon,
	}
	e := newEngine(t, graph, repo)

	report, err := e.PropagateFrom(context.Background(), "aguada")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Written)

	assert.InDelta(t, 0.85, repo.words["bebida"].Confidence, 1e-9)
	assert.InDelta(t, math.Pow(0.85, 2), repo.words["cachaça"].Confidence, 1e-9)
	assert.InDelta(t, math.Pow(0.85, 3), repo.words["caninha"].Confidence, 1e-9)
	assert.Nil(t, repo.words["pinga"], "below the floor nothing is written")
}

func TestPropagateCycleTerminates(t *testing.T) {
	graph := buildGraph(t, [][2]string{
		{"guri", "piá"}, {"piá", "gurizote"}, {"gurizote", "guri"},
	})
	repo := newMemRepo()
	repo.words["guri"] = &classification.Record{
		Word: "guri", DomainCode: "PE", Confidence: 0.95,
		Source: classification.SourceSemanticLexicon,
	}
	e := newEngine(t, graph, repo)

	report, err := e.PropagateFrom(context.Background(), "guri")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Visited, "each word is visited once despite the cycle")
}

func TestPropagateNeverOverwritesBetterRecord(t *testing.T) {
	graph := buildGraph(t, [][2]string{{"chimarrão", "mate"}})
	repo := newMemRepo()
	repo.words["chimarrão"] = &classification.Record{
		Word: "chimarrão", DomainCode: "AL.BE", Confidence: 1.0,
		Source: classification.SourceSemanticLexicon,
	}
	repo.words["mate"] = &classification.Record{
		Word: "mate", DomainCode: "AL.BE", Confidence: 0.93,
		Source: classification.SourceLLM,
	}
	e := newEngine(t, graph, repo)

	report, err := e.PropagateFrom(context.Background(), "chimarrão")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0.93, repo.words["mate"].Confidence)
	assert.Equal(t, classification.SourceLLM, repo.words["mate"].Source)
}

func TestPropagateUnclassifiedSeedRejected(t *testing.T) {
	repo := newMemRepo()
	repo.words["bagual"] = classification.NewNotClassified("bagual", classification.SourceLLM, "")
	e := newEngine(t, synonym.NewMemoryGraph(), repo)

	_, err := e.PropagateFrom(context.Background(), "bagual")
	assert.True(t, errors.IsCode(err, errors.ErrCodePropagationSeedUnclassified))

	_, err = e.PropagateFrom(context.Background(), "inexistente")
	assert.True(t, errors.IsCode(err, errors.ErrCodePropagationSeedUnclassified))
}

func TestInferFromNeighborsMajority(t *testing.T) {
	graph := buildGraph(t, [][2]string{
		{"cusco", "cachorro"}, {"cusco", "cão"}, {"cusco", "perro"},
	})
	repo := newMemRepo()
	repo.words["cachorro"] = &classification.Record{Word: "cachorro", DomainCode: "AN", Confidence: 0.95, Source: classification.SourceSemanticLexicon}
	repo.words["cão"] = &classification.Record{Word: "cão", DomainCode: "AN", Confidence: 0.90, Source: classification.SourceSemanticLexicon}
	repo.words["perro"] = &classification.Record{Word: "perro", DomainCode: "PE", Confidence: 0.99, Source: classification.SourceLLM}
	e := newEngine(t, graph, repo)

	rec, err := e.InferFromNeighbors(context.Background(), "cusco")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "AN", rec.DomainCode, "two votes beat one despite lower confidence")
	assert.InDelta(t, 0.95*0.80, rec.Confidence, 1e-9)
	assert.Equal(t, classification.SourceSynonymPropagation, rec.Source)
}

func TestInferFromNeighborsTieBrokenByConfidence(t *testing.T) {
	graph := buildGraph(t, [][2]string{
		{"pingo", "cavalo"}, {"pingo", "flete"},
	})
	repo := newMemRepo()
	repo.words["cavalo"] = &classification.Record{Word: "cavalo", DomainCode: "AN", Confidence: 0.97, Source: classification.SourceSemanticLexicon}
	repo.words["flete"] = &classification.Record{Word: "flete", DomainCode: "CM", Confidence: 0.88, Source: classification.SourceLLM}
	e := newEngine(t, graph, repo)

	rec, err := e.InferFromNeighbors(context.Background(), "pingo")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "AN", rec.DomainCode)
}

func TestInferFromNeighborsFloor(t *testing.T) {
	graph := buildGraph(t, [][2]string{{"tava", "estava"}})
	repo := newMemRepo()
	repo.words["estava"] = &classification.Record{Word: "estava", DomainCode: "ND", Confidence: 0.70, Source: classification.SourceLLM}
	e := newEngine(t, graph, repo)

	rec, err := e.InferFromNeighbors(context.Background(), "tava")
	require.NoError(t, err)
	assert.Nil(t, rec, "0.70 * 0.80 = 0.56 is below the floor")
}

func TestInferReturnsExistingClassification(t *testing.T) {
	repo := newMemRepo()
	repo.words["mate"] = &classification.Record{Word: "mate", DomainCode: "AL.BE", Confidence: 0.95, Source: classification.SourceCache}
	e := newEngine(t, synonym.NewMemoryGraph(), repo)

	rec, err := e.InferFromNeighbors(context.Background(), "mate")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "AL.BE", rec.DomainCode)
}
