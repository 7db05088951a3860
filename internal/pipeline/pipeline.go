// Package pipeline runs the full preprocessing flow for one corpus: read,
// tokenize, build dictionaries, count, filter and export.
package pipeline

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"regexp"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/bow"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/export"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/filter"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/segment"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/store"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/tracing"
)

// TokenCache returns cached tokens for a text or computes and stores them.
type TokenCache interface {
	GetOrTokenize(ctx context.Context, text string, tokenize func(string) []string) ([]string, bool)
}

// CorpusSaver persists a finished corpus.
type CorpusSaver interface {
	SaveCorpus(ctx context.Context, c store.Corpus) error
}

// EventPublisher announces a finished corpus.
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// EventCorpusExported is the event type of CorpusExported messages.
const EventCorpusExported = "corpus.exported"

// CorpusExported is the event payload published after a successful run.
type CorpusExported struct {
	RunID      string    `json:"run_id"`
	Corpus     string    `json:"corpus"`
	Documents  int       `json:"documents"`
	Types      int       `json:"types"`
	Total      int       `json:"total"`
	Removed    int       `json:"removed_features"`
	MatrixPath string    `json:"matrix_path,omitempty"`
	MalletDir  string    `json:"mallet_dir,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// Result holds every intermediate product of a run.
type Result struct {
	RunID     string
	Labels    []string
	Tokens    [][]string
	Cleaned   [][]string
	Types     *dictionary.Dictionary
	Documents *dictionary.Dictionary
	Raw       *bow.Table
	Table     *bow.Table
	Stopwords []string
	Hapax     []string
	Removed   []string

	MatrixPath string
	MalletDir  string

	// Trace holds the timing of every stage of the run.
	Trace *tracing.Span
}

type Pipeline struct {
	cfg       *config.Config
	fs        afero.Fs
	tokenizer *tokenizer.Tokenizer
	cache     TokenCache
	saver     CorpusSaver
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option wires an optional collaborator into the pipeline.
type Option func(*Pipeline)

func WithTokenCache(c TokenCache) Option {
	return func(p *Pipeline) { p.cache = c }
}

func WithStore(s CorpusSaver) Option {
	return func(p *Pipeline) { p.saver = s }
}

func WithPublisher(pub EventPublisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New builds a pipeline reading and writing through fs.
func New(cfg *config.Config, fs afero.Fs, opts ...Option) (*Pipeline, error) {
	tok, err := NewTokenizer(cfg.Tokenizer)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:       cfg,
		fs:        fs,
		tokenizer: tok,
		metrics:   metrics.New(),
		logger:    slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NewTokenizer builds the tokenizer described by cfg.
func NewTokenizer(cfg config.TokenizerConfig) (*tokenizer.Tokenizer, error) {
	return tokenizer.New(
		tokenizer.WithPattern(cfg.Pattern),
		tokenizer.WithLower(cfg.Lower),
		tokenizer.WithSimple(cfg.Simple),
	)
}

// Tokenizer returns the tokenizer the pipeline runs with.
func (p *Pipeline) Tokenizer() *tokenizer.Tokenizer {
	return p.tokenizer
}

func (p *Pipeline) Metrics() *metrics.Metrics {
	return p.metrics
}

// Run processes the documents at paths.
func (p *Pipeline) Run(ctx context.Context, paths []string) (*Result, error) {
	res, err := p.run(ctx, paths)
	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.RunsTotal.WithLabelValues(status).Inc()
	if p.cfg.Metrics.Enabled && p.cfg.Metrics.Textfile != "" {
		if werr := p.metrics.WriteTextfile(p.cfg.Metrics.Textfile); werr != nil {
			p.logger.Error("writing metrics textfile failed", "error", werr)
		}
	}
	return res, err
}

// Prepare reads, tokenizes and counts the documents at paths without
// filtering or exporting anything. The returned Result has Table equal to
// Raw.
func (p *Pipeline) Prepare(ctx context.Context, paths []string) (*Result, error) {
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx).With("component", "pipeline")
	ctx, trace := tracing.StartRun(ctx, "prepare", runID)
	res, err := p.prepare(ctx, paths, log)
	if err != nil {
		return nil, err
	}
	trace.End()
	trace.Log(log)
	res.RunID = runID
	res.Table = res.Raw
	res.Trace = trace
	return res, nil
}

func (p *Pipeline) prepare(ctx context.Context, paths []string, log *slog.Logger) (*Result, error) {
	res := &Result{}

	end := p.stage(ctx, "read")
	docs, err := corpus.Load(p.fs, paths, corpus.LoadOptions{
		Format:  p.cfg.Input.Format,
		Columns: p.cfg.Input.Columns,
		POSTags: p.cfg.Input.POSTags,
	})
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	p.metrics.DocumentsReadTotal.WithLabelValues(p.cfg.Input.Format).Add(float64(len(docs)))
	end(len(docs))

	end = p.stage(ctx, "tokenize")
	res.Labels, res.Tokens, err = p.tokenize(ctx, docs)
	if err != nil {
		return nil, err
	}
	end(len(res.Labels))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	end = p.stage(ctx, "count")
	res.Types = dictionary.BuildNested(res.Tokens)
	res.Documents = dictionary.BuildDocuments(res.Labels)
	p.metrics.TypesTotal.Set(float64(res.Types.Len()))
	res.Raw, err = bow.Count(res.Labels, res.Tokens, res.Types, res.Documents,
		bow.WithWorkers(p.cfg.Counter.Workers),
		bow.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("counting corpus: %w", err)
	}
	p.metrics.TableRows.WithLabelValues("raw").Set(float64(res.Raw.Len()))
	end(res.Raw.Len())
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, paths []string) (*Result, error) {
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx).With("component", "pipeline")
	ctx, trace := tracing.StartRun(ctx, "run", runID)

	res, err := p.prepare(ctx, paths, log)
	if err != nil {
		return nil, err
	}
	res.RunID = runID
	res.Trace = trace

	end := p.stage(ctx, "filter")
	flt := filter.New(log)
	if p.cfg.Filter.Stoplist != "" {
		stoplist, err := p.ReadStoplist(p.cfg.Filter.Stoplist)
		if err != nil {
			return nil, err
		}
		res.Removed = stoplist
		p.metrics.FeaturesRemoved.WithLabelValues("stoplist").Set(float64(len(stoplist)))
	} else {
		res.Stopwords = flt.FindStopwords(res.Raw, res.Types, p.cfg.Filter.MostFrequent)
		if p.cfg.Filter.RemoveHapax {
			res.Hapax = flt.FindHapax(res.Raw, res.Types)
		}
		res.Removed = union(res.Stopwords, res.Hapax)
		p.metrics.FeaturesRemoved.WithLabelValues("stopword").Set(float64(len(res.Stopwords)))
		p.metrics.FeaturesRemoved.WithLabelValues("hapax").Set(float64(len(res.Hapax)))
	}
	res.Table = flt.RemoveFeatures(res.Raw, res.Types, res.Removed)
	res.Cleaned = make([][]string, len(res.Tokens))
	for i, toks := range res.Tokens {
		res.Cleaned[i] = flt.RemoveFromTokens(toks, res.Removed)
	}
	p.metrics.TableRows.WithLabelValues("filtered").Set(float64(res.Table.Len()))
	end(res.Table.Len())

	end = p.stage(ctx, "export")
	if err := p.export(res); err != nil {
		return nil, err
	}
	end(res.Documents.Len())

	if p.saver != nil {
		end := p.stage(ctx, "store")
		err := p.saver.SaveCorpus(ctx, store.Corpus{
			Name:      p.cfg.Store.CorpusName,
			Types:     res.Types,
			Documents: res.Documents,
			Table:     res.Table,
		})
		if err != nil {
			return nil, fmt.Errorf("storing corpus: %w", err)
		}
		p.metrics.ExportsTotal.WithLabelValues("store").Inc()
		end(res.Table.Len())
	}

	if p.publisher != nil {
		event := CorpusExported{
			RunID:      runID,
			Corpus:     p.cfg.Store.CorpusName,
			Documents:  res.Documents.Len(),
			Types:      res.Types.Len(),
			Total:      res.Table.Total(),
			Removed:    len(res.Removed),
			MatrixPath: res.MatrixPath,
			MalletDir:  res.MalletDir,
			FinishedAt: time.Now().UTC(),
		}
		if err := p.publisher.Publish(ctx, kafka.Event{Type: EventCorpusExported, Key: event.Corpus, Value: event}); err != nil {
			log.Error("publishing corpus event failed", "error", err)
		} else {
			p.metrics.ExportsTotal.WithLabelValues("event").Inc()
		}
	}

	trace.End()
	trace.Log(log)
	log.Info("corpus processed",
		"documents", res.Documents.Len(),
		"types", res.Types.Len(),
		"removed_features", len(res.Removed),
		"rows", res.Table.Len(),
		"total", res.Table.Total(),
	)
	return res, nil
}

func (p *Pipeline) tokenize(ctx context.Context, docs []corpus.Document) ([]string, [][]string, error) {
	var sep *regexp.Regexp
	if p.cfg.Segment.Enabled && p.cfg.Segment.ParagraphSeparator != "" {
		re, err := regexp.Compile(p.cfg.Segment.ParagraphSeparator)
		if err != nil {
			return nil, nil, fmt.Errorf("compiling paragraph separator: %w", err)
		}
		sep = re
	}

	var labels []string
	var tokens [][]string
	total := 0
	for _, doc := range docs {
		if !p.cfg.Segment.Enabled {
			toks := doc.Lemmas
			if !doc.Pretokenized() {
				toks = p.tokenizeText(ctx, doc.Text)
			}
			labels = append(labels, doc.Label)
			tokens = append(tokens, toks)
			total += len(toks)
			continue
		}

		segments, err := p.segment(doc, sep)
		if err != nil {
			return nil, nil, fmt.Errorf("segmenting %s: %w", doc.Label, err)
		}
		for i, seg := range segments {
			labels = append(labels, fmt.Sprintf("%s_%04d", doc.Label, i))
			tokens = append(tokens, seg)
			total += len(seg)
		}
	}
	p.metrics.TokensTotal.Add(float64(total))
	return labels, tokens, nil
}

func (p *Pipeline) tokenizeText(ctx context.Context, text string) []string {
	if p.cache == nil {
		return p.tokenizer.Collect(text)
	}
	toks, hit := p.cache.GetOrTokenize(ctx, text, p.tokenizer.Collect)
	if hit {
		p.metrics.TokenCacheHitsTotal.Inc()
	} else {
		p.metrics.TokenCacheMissTotal.Inc()
	}
	return toks
}

func (p *Pipeline) segment(doc corpus.Document, sep *regexp.Regexp) ([][]string, error) {
	var seq iter.Seq[[][]string]
	var err error
	if doc.Pretokenized() {
		seq, err = segment.Fuzzy(segment.FromSlices([][]string{doc.Lemmas}), p.cfg.Segment.Size, p.cfg.Segment.Tolerance)
	} else {
		seq, err = segment.Segment(doc.Text, segment.Options{
			Size:      p.cfg.Segment.Size,
			Tolerance: p.cfg.Segment.Tolerance,
			Chunker:   func(text string) []string { return segment.SplitParagraphs(text, sep) },
			Tokenizer: p.tokenizer.Collect,
			Logger:    p.logger,
		})
	}
	if err != nil {
		return nil, err
	}
	return slices.Collect(segment.Flatten(seq)), nil
}

// ReadStoplist tokenizes a feature list file with the pipeline tokenizer
// and drops repeats.
func (p *Pipeline) ReadStoplist(path string) ([]string, error) {
	text, err := corpus.ReadText(p.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading stoplist: %w", err)
	}
	return union(p.tokenizer.Collect(text), nil), nil
}

func (p *Pipeline) export(res *Result) error {
	if p.cfg.Export.OutputDir == "" {
		return nil
	}
	w := export.NewWriter(p.fs, p.cfg.Export.OutputDir)
	path, err := w.MatrixMarket(p.cfg.Export.MatrixName, res.Table)
	if err != nil {
		return fmt.Errorf("exporting matrix: %w", err)
	}
	res.MatrixPath = path
	p.metrics.ExportsTotal.WithLabelValues("matrix_market").Inc()

	if p.cfg.Export.MalletDir != "" {
		dir, err := w.Mallet(p.cfg.Export.MalletDir, res.Labels, res.Cleaned)
		if err != nil {
			return fmt.Errorf("exporting mallet files: %w", err)
		}
		res.MalletDir = dir
		p.metrics.ExportsTotal.WithLabelValues("mallet").Inc()
	}
	return nil
}

// stage opens a timing span for name under the run in ctx. The returned
// func closes it, records how many items the stage produced and feeds the
// stage histogram.
func (p *Pipeline) stage(ctx context.Context, name string) func(items int) {
	_, span := tracing.StartStage(ctx, name)
	return func(items int) {
		span.SetAttr("items", items)
		p.metrics.StageDuration.WithLabelValues(name).Observe(span.End().Seconds())
	}
}

// union concatenates the lists, dropping repeats and keeping first
// occurrences in order.
func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range slices.Concat(a, b) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ResolveInputs returns args when given. Otherwise it lists the configured
// corpus directory, by glob pattern when one is set and by extension
// otherwise.
func ResolveInputs(fs afero.Fs, cfg config.InputConfig, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if cfg.Glob != "" {
		return corpus.Glob(fs, cfg.Dir, cfg.Glob)
	}
	return corpus.DocumentList(fs, cfg.Dir, cfg.Ext)
}

// Run processes paths on the local filesystem without any optional sinks.
func Run(ctx context.Context, cfg *config.Config, paths []string) (*Result, error) {
	p, err := New(cfg, afero.NewOsFs())
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, paths)
}
