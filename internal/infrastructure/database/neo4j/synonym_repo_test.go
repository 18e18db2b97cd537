package neo4j

import (
	"context"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/require"

	"github.com/tupiana/lexipipe/internal/domain/synonym"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

type fakeResult struct {
	records []*neo4j.Record
	pos     int
}

func (r *fakeResult) Next(context.Context) bool {
	if r.pos >= len(r.records) {
		return false
	}
	r.pos++
	return true
}
func (r *fakeResult) Record() *neo4j.Record { return r.records[r.pos-1] }
func (r *fakeResult) Err() error            { return nil }
func (r *fakeResult) Consume(context.Context) (neo4j.ResultSummary, error) {
	return nil, nil
}

type fakeTransaction struct {
	cypher  string
	params  map[string]any
	records []*neo4j.Record
	runErr  error
}

func (t *fakeTransaction) Run(_ context.Context, cypher string, params map[string]any) (Result, error) {
	t.cypher = cypher
	t.params = params
	if t.runErr != nil {
		return nil, t.runErr
	}
	return &fakeResult{records: t.records}, nil
}

type fakeSession struct {
	tx *fakeTransaction
}

func (s *fakeSession) ExecuteRead(_ context.Context, work func(Transaction) (any, error)) (any, error) {
	return work(s.tx)
}
func (s *fakeSession) ExecuteWrite(_ context.Context, work func(Transaction) (any, error)) (any, error) {
	return work(s.tx)
}
func (s *fakeSession) Close(context.Context) error { return nil }

type fakeDriver struct {
	session   *fakeSession
	verifyErr error
}

func (d *fakeDriver) VerifyConnectivity(context.Context) error { return d.verifyErr }
func (d *fakeDriver) NewSession(context.Context, neo4j.SessionConfig) internalSession {
	return d.session
}
func (d *fakeDriver) Close(context.Context) error { return nil }

func record(keys []string, values []any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func newTestRepo(tx *fakeTransaction) *SynonymRepo {
	driver := &Driver{
		driver: &fakeDriver{session: &fakeSession{tx: tx}},
		logger: logging.NewNopLogger(),
	}
	return NewSynonymRepo(driver, logging.NewNopLogger())
}

func TestNeighborsNormalizesAndMaps(t *testing.T) {
	tx := &fakeTransaction{records: []*neo4j.Record{
		record([]string{"form"}, []any{"mate"}),
		record([]string{"form"}, []any{"erva"}),
	}}
	repo := newTestRepo(tx)

	neighbors, err := repo.Neighbors(context.Background(), "  Chimarrão ")
	require.NoError(t, err)
	require.Equal(t, []string{"mate", "erva"}, neighbors)
	require.Equal(t, "chimarrão", tx.params["form"])
	require.Contains(t, tx.cypher, "SYNONYM_OF")
}

func TestNeighborsUnknownWordIsEmpty(t *testing.T) {
	repo := newTestRepo(&fakeTransaction{})

	neighbors, err := repo.Neighbors(context.Background(), "inexistente")
	require.NoError(t, err)
	require.Empty(t, neighbors)
}

func TestNeighborsWrapsGraphFailure(t *testing.T) {
	tx := &fakeTransaction{runErr: errors.New(errors.ErrCodeInternal, "connection reset")}
	repo := newTestRepo(tx)

	_, err := repo.Neighbors(context.Background(), "mate")
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.ErrCodeSynonymGraphUnavailable))
}

func TestNeighborsBatchSkipsWordsWithoutNeighbors(t *testing.T) {
	tx := &fakeTransaction{records: []*neo4j.Record{
		record([]string{"form", "neighbors"}, []any{"chimarrão", []any{"mate"}}),
		record([]string{"form", "neighbors"}, []any{"bagual", []any{}}),
	}}
	repo := newTestRepo(tx)

	adjacency, err := repo.NeighborsBatch(context.Background(), []string{"Chimarrão", "Bagual"})
	require.NoError(t, err)
	require.Equal(t, map[string][]string{"chimarrão": {"mate"}}, adjacency)
	require.Equal(t, []string{"chimarrão", "bagual"}, tx.params["forms"])
}

func TestNeighborsBatchEmptyInput(t *testing.T) {
	tx := &fakeTransaction{}
	repo := newTestRepo(tx)

	adjacency, err := repo.NeighborsBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, adjacency)
	require.Empty(t, tx.cypher)
}

func TestAddEdgeOrdersEndpoints(t *testing.T) {
	tx := &fakeTransaction{}
	repo := newTestRepo(tx)

	err := repo.AddEdge(context.Background(), &synonym.Edge{
		WordA:  "Mate",
		WordB:  "Chimarrão",
		Source: "dialectal",
	})
	require.NoError(t, err)
	require.Equal(t, "chimarrão", tx.params["wordA"])
	require.Equal(t, "mate", tx.params["wordB"])
	require.Equal(t, "dialectal", tx.params["source"])
	require.True(t, strings.Contains(tx.cypher, "MERGE"))
}

func TestAddEdgeRejectsSelfLoop(t *testing.T) {
	tx := &fakeTransaction{}
	repo := newTestRepo(tx)

	err := repo.AddEdge(context.Background(), &synonym.Edge{WordA: "Mate", WordB: "mate"})
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	require.Empty(t, tx.cypher)
}

func TestDriverHealthCheck(t *testing.T) {
	tx := &fakeTransaction{records: []*neo4j.Record{
		record([]string{"health"}, []any{int64(1)}),
	}}
	driver := &Driver{
		driver: &fakeDriver{session: &fakeSession{tx: tx}},
		logger: logging.NewNopLogger(),
	}
	require.NoError(t, driver.HealthCheck(context.Background()))
}
