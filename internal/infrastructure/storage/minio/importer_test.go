package minio

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tupiana/lexipipe/internal/domain/lexicon"
	"github.com/tupiana/lexipipe/internal/infrastructure/messaging/kafka"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
)

type fakeSource struct {
	objects map[string]string
}

func (s *fakeSource) ListSourceObjects(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *fakeSource) OpenObject(_ context.Context, objectKey string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.objects[objectKey])), nil
}

type memLexiconRepo struct {
	entries map[string]*lexicon.Entry // keyed form|source
}

func newMemLexiconRepo() *memLexiconRepo {
	return &memLexiconRepo{entries: make(map[string]*lexicon.Entry)}
}

func (r *memLexiconRepo) key(e *lexicon.Entry) string {
	return e.NormalizedForm + "|" + string(e.Source)
}

func (r *memLexiconRepo) Upsert(_ context.Context, entry *lexicon.Entry) error {
	r.entries[r.key(entry)] = entry
	return nil
}

func (r *memLexiconRepo) UpsertBatch(ctx context.Context, entries []*lexicon.Entry) error {
	for _, e := range entries {
		if err := r.Upsert(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *memLexiconRepo) FindByNormalizedForm(_ context.Context, form string) ([]*lexicon.Entry, error) {
	var out []*lexicon.Entry
	for _, e := range r.entries {
		if e.NormalizedForm == form {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memLexiconRepo) FindBatch(ctx context.Context, forms []string) (map[string][]*lexicon.Entry, error) {
	out := make(map[string][]*lexicon.Entry)
	for _, f := range forms {
		entries, _ := r.FindByNormalizedForm(ctx, f)
		if len(entries) > 0 {
			out[f] = entries
		}
	}
	return out, nil
}

type capturingPublisher struct {
	topic   string
	key     string
	payload any
	calls   int
}

func (p *capturingPublisher) Publish(_ context.Context, topic, key, _ string, payload any) error {
	p.calls++
	p.topic = topic
	p.key = key
	p.payload = payload
	return nil
}

const sampleTSV = `# dialectal dictionary extract
Chimarrão	regional	s.m.	AL.BE	0.97	120
bagual	regional	s.m. e adj.	AN.CV	0.95	40

galpão	formal	s.m.	HA.ED	0.90	300
`

func TestImportObjectParsesAndMerges(t *testing.T) {
	repo := newMemLexiconRepo()
	source := &fakeSource{objects: map[string]string{"sources/dialectal.tsv": sampleTSV}}
	pub := &capturingPublisher{}
	imp := NewImporter(source, lexicon.NewStore(repo), pub, logging.NewNopLogger())

	report, err := imp.ImportObject(context.Background(), "sources/dialectal.tsv")
	require.NoError(t, err)
	require.Equal(t, 3, report.Accepted)
	require.Zero(t, report.Rejected)

	entries, err := repo.FindByNormalizedForm(context.Background(), "chimarrão")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Chimarrão", entries[0].Headword)
	require.Equal(t, lexicon.SourceRegional, entries[0].Source)
	require.Equal(t, []string{"AL.BE"}, entries[0].DomainCodes)
	require.Equal(t, int64(120), entries[0].Frequency)

	require.Equal(t, 1, pub.calls)
	require.Equal(t, kafka.TopicLexiconImported, pub.topic)
	require.Equal(t, "sources/dialectal.tsv", pub.key)
	payload, ok := pub.payload.(kafka.LexiconImportedPayload)
	require.True(t, ok)
	require.Equal(t, 3, payload.Accepted)
}

func TestImportObjectRejectsMalformedRows(t *testing.T) {
	content := "chimarrão\tregional\ts.m.\tAL.BE\t0.97\t10\n" +
		"truncated\tregional\n" + // wrong column count
		"mate\tinvented_source\ts.m.\tAL.BE\t0.9\t5\n" + // unknown source
		"cuia\tregional\ts.f.\tHA.UT\tnot-a-number\t1\n" // bad confidence
	repo := newMemLexiconRepo()
	source := &fakeSource{objects: map[string]string{"bad.tsv": content}}
	imp := NewImporter(source, lexicon.NewStore(repo), nil, logging.NewNopLogger())

	report, err := imp.ImportObject(context.Background(), "bad.tsv")
	require.NoError(t, err)
	require.Equal(t, 1, report.Accepted)
	require.Equal(t, 3, report.Rejected)
	require.Len(t, repo.entries, 1)
}

func TestImportObjectIsIdempotent(t *testing.T) {
	repo := newMemLexiconRepo()
	source := &fakeSource{objects: map[string]string{"dup.tsv": sampleTSV}}
	imp := NewImporter(source, lexicon.NewStore(repo), nil, logging.NewNopLogger())

	_, err := imp.ImportObject(context.Background(), "dup.tsv")
	require.NoError(t, err)
	_, err = imp.ImportObject(context.Background(), "dup.tsv")
	require.NoError(t, err)
	require.Len(t, repo.entries, 3)
}

func TestImportPrefixAggregates(t *testing.T) {
	repo := newMemLexiconRepo()
	source := &fakeSource{objects: map[string]string{
		"sources/a.tsv": "chimarrão\tregional\ts.m.\tAL.BE\t0.97\t10\n",
		"sources/b.tsv": "tropeiro\tregional\ts.m.\tCM.PF\t0.93\t8\n",
		"other/c.tsv":   "ignored\tregional\ts.m.\t\t0.5\t\n",
	}}
	imp := NewImporter(source, lexicon.NewStore(repo), nil, logging.NewNopLogger())

	report, err := imp.ImportPrefix(context.Background(), "sources/")
	require.NoError(t, err)
	require.Equal(t, 2, report.Accepted)
	require.Len(t, repo.entries, 2)
}
