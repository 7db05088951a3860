package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/export"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/store"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/kafka"
)

type memCache struct {
	entries map[string][]string
	hits    int
}

func (m *memCache) GetOrTokenize(_ context.Context, text string, fn func(string) []string) ([]string, bool) {
	if toks, ok := m.entries[text]; ok {
		m.hits++
		return toks, true
	}
	toks := fn(text)
	m.entries[text] = toks
	return toks, false
}

type recordingSaver struct {
	saved []store.Corpus
}

func (r *recordingSaver) SaveCorpus(_ context.Context, c store.Corpus) error {
	r.saved = append(r.saved, c)
	return nil
}

type recordingPublisher struct {
	events []kafka.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e kafka.Event) error {
	r.events = append(r.events, e)
	return r.err
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Export.OutputDir = "out"
	cfg.Filter.MostFrequent = 1
	return cfg
}

func writeCorpus(t *testing.T, fs afero.Fs) []string {
	t.Helper()
	files := map[string]string{
		"corpus/a.txt": "The cat sat on the mat. The cat purred.",
		"corpus/b.txt": "The dog sat on the log. The dog barked.",
	}
	for name, text := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(text), 0o644))
	}
	return []string{"corpus/a.txt", "corpus/b.txt"}
}

func TestRunEndToEnd(t *testing.T) {
	fs := afero.NewMemMapFs()
	paths := writeCorpus(t, fs)
	saver := &recordingSaver{}
	pub := &recordingPublisher{}

	p, err := New(testConfig(), fs, WithStore(saver), WithPublisher(pub))
	require.NoError(t, err)
	res, err := p.Run(context.Background(), paths)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{"a", "b"}, res.Labels)
	assert.Equal(t, []string{"the"}, res.Stopwords)
	assert.ElementsMatch(t, []string{"mat", "purred", "log", "barked"}, res.Hapax)
	assert.Equal(t, [][]string{{"cat", "sat", "on", "cat"}, {"dog", "sat", "on", "dog"}}, res.Cleaned)

	for _, r := range res.Table.Rows() {
		tok, _ := res.Types.Token(r.Token)
		assert.NotContains(t, res.Removed, tok)
	}
	assert.Equal(t, 8, res.Table.Total())

	f, err := fs.Open(res.MatrixPath)
	require.NoError(t, err)
	defer f.Close()
	reloaded, err := export.ReadMatrixMarket(f)
	require.NoError(t, err)
	assert.Equal(t, res.Table.Rows(), reloaded.Rows())

	data, err := afero.ReadFile(fs, "out/mallet_input/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "['cat', 'sat', 'on', 'cat']", string(data))

	require.Len(t, saver.saved, 1)
	assert.Equal(t, "corpus", saver.saved[0].Name)
	require.Len(t, pub.events, 1)
	event := pub.events[0].Value.(CorpusExported)
	assert.Equal(t, res.RunID, event.RunID)
	assert.Equal(t, 2, event.Documents)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.Metrics().RunsTotal.WithLabelValues("success")))

	require.NotNil(t, res.Trace)
	var stages []string
	for _, st := range res.Trace.Stages() {
		stages = append(stages, st.Path)
	}
	assert.Equal(t, []string{"run", "run/read", "run/tokenize", "run/count", "run/filter", "run/export", "run/store"}, stages)
}

func TestRunUsesStoplist(t *testing.T) {
	fs := afero.NewMemMapFs()
	paths := writeCorpus(t, fs)
	require.NoError(t, afero.WriteFile(fs, "stop.txt", []byte("the\non\nsat"), 0o644))

	cfg := testConfig()
	cfg.Filter.Stoplist = "stop.txt"
	p, err := New(cfg, fs)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, []string{"the", "on", "sat"}, res.Removed)
	assert.Nil(t, res.Hapax)
	assert.Equal(t, []string{"cat", "mat", "cat", "purred"}, res.Cleaned[0])
}

func TestRunSegments(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "c/doc.txt", []byte("This test is very clear\nand contains chunks"), 0o644))

	cfg := testConfig()
	cfg.Segment.Enabled = true
	cfg.Segment.Size = 2
	cfg.Segment.Tolerance = 0.05
	cfg.Filter.MostFrequent = 0
	cfg.Filter.RemoveHapax = false
	p, err := New(cfg, fs)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), []string{"c/doc.txt"})
	require.NoError(t, err)

	assert.Equal(t, []string{"doc_0000", "doc_0001", "doc_0002", "doc_0003"}, res.Labels)
	assert.Equal(t, "this test is very clear and contains chunks", strings.Join(concat(res.Tokens), " "))
}

func TestRunWithCache(t *testing.T) {
	fs := afero.NewMemMapFs()
	paths := writeCorpus(t, fs)
	cache := &memCache{entries: map[string][]string{}}
	p, err := New(testConfig(), fs, WithTokenCache(cache))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), paths)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.hits)
	assert.Equal(t, 2.0, testutil.ToFloat64(p.Metrics().TokenCacheHitsTotal))
}

func TestRunPublishFailureIsNotFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	pub := &recordingPublisher{err: errors.New("broker down")}
	p, err := New(testConfig(), fs, WithPublisher(pub))
	require.NoError(t, err)
	_, err = p.Run(context.Background(), writeCorpus(t, fs))
	assert.NoError(t, err)
}

func TestRunMissingDocument(t *testing.T) {
	p, err := New(testConfig(), afero.NewMemMapFs())
	require.NoError(t, err)
	_, err = p.Run(context.Background(), []string{"nope.txt"})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Metrics().RunsTotal.WithLabelValues("error")))
}

func TestNewRejectsBadPattern(t *testing.T) {
	cfg := testConfig()
	cfg.Tokenizer.Pattern = "("
	_, err := New(cfg, afero.NewMemMapFs())
	assert.Error(t, err)
}

func TestPrepareSkipsFilteringAndExport(t *testing.T) {
	fs := afero.NewMemMapFs()
	saver := &recordingSaver{}
	p, err := New(testConfig(), fs, WithStore(saver))
	require.NoError(t, err)

	res, err := p.Prepare(context.Background(), writeCorpus(t, fs))
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Same(t, res.Raw, res.Table)
	assert.Nil(t, res.Removed)
	assert.Empty(t, saver.saved)

	exists, err := afero.Exists(fs, "out/corpus.mm")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReadStoplist(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "stop.txt", []byte("The\nthe\nAnd"), 0o644))
	p, err := New(testConfig(), fs)
	require.NoError(t, err)
	got, err := p.ReadStoplist("stop.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"the", "and"}, got)
}

func TestResolveInputs(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCorpus(t, fs)
	require.NoError(t, afero.WriteFile(fs, "corpus/extra/c.txt", []byte("x"), 0o644))
	in := config.Default().Input

	got, err := ResolveInputs(fs, in, []string{"given.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"given.txt"}, got)

	got, err = ResolveInputs(fs, in, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"corpus/a.txt", "corpus/b.txt"}, got)

	in.Glob = "**/*.txt"
	got, err = ResolveInputs(fs, in, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"corpus/a.txt", "corpus/b.txt", "corpus/extra/c.txt"}, got)
}

func TestUnion(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, union([]string{"a", "b"}, []string{"b", "c", "a"}))
	assert.Nil(t, union(nil, nil))
}

func concat(docs [][]string) []string {
	var out []string
	for _, d := range docs {
		out = append(out, d...)
	}
	return out
}
