// Package topics hands a preprocessed corpus to an external topic model. No
// training algorithm lives here: the LDA trainer delegates to
// github.com/e-gun/nlp.
package topics

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/e-gun/nlp"
	"gonum.org/v1/gonum/mat"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/bow"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
)

// Model is the part of a fitted topic model the toolkit reports on.
type Model struct {
	// Topics holds the top keywords of each topic, strongest first.
	Topics [][]string
	// DocTopics is a documents x topics matrix; row d-1 belongs to document d.
	DocTopics *mat.Dense
}

// Trainer fits a topic model to a sparse frequency table. vocab maps token
// ids to their strings.
type Trainer interface {
	Fit(ctx context.Context, table *bow.Table, vocab map[int]string) (*Model, error)
}

// LDA trains latent Dirichlet allocation through e-gun/nlp.
type LDA struct {
	cfg    config.TopicsConfig
	logger *slog.Logger
}

var _ Trainer = (*LDA)(nil)

func NewLDA(cfg config.TopicsConfig) *LDA {
	return &LDA{
		cfg:    cfg,
		logger: slog.Default().With("component", "lda"),
	}
}

func (l *LDA) Fit(ctx context.Context, table *bow.Table, vocab map[int]string) (*Model, error) {
	if l.cfg.NumTopics < 1 {
		return nil, fmt.Errorf("lda needs at least one topic, got %d: %w", l.cfg.NumTopics, apperrors.ErrInvalidInput)
	}
	docTerm := table.Dense()
	if docTerm == nil {
		return nil, fmt.Errorf("lda on a table without tokens: %w", apperrors.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs, types := docTerm.Dims()

	lda := nlp.NewLatentDirichletAllocation(l.cfg.NumTopics)
	if l.cfg.Iterations > 0 {
		lda.Iterations = l.cfg.Iterations
		lda.TransformationPasses = max(l.cfg.Iterations/2, 1)
	}
	if l.cfg.Workers > 0 {
		lda.Processes = l.cfg.Workers
	}

	l.logger.Info("fitting lda",
		"topics", l.cfg.NumTopics,
		"documents", docs,
		"types", types,
		"iterations", lda.Iterations,
	)
	topicsOverDocs, err := lda.FitTransform(mat.DenseCopyOf(docTerm.T()))
	if err != nil {
		return nil, fmt.Errorf("fitting lda: %w", err)
	}

	keywords := l.cfg.Keywords
	if keywords <= 0 {
		keywords = 10
	}
	return &Model{
		Topics:    topKeywords(lda.Components(), vocab, keywords),
		DocTopics: mat.DenseCopyOf(topicsOverDocs.T()),
	}, nil
}

// topKeywords picks the n heaviest words of every topic from a
// topics x words matrix. Column w-1 is token id w.
func topKeywords(topicsOverWords mat.Matrix, vocab map[int]string, n int) [][]string {
	k, words := topicsOverWords.Dims()
	out := make([][]string, k)
	ids := make([]int, words)
	for topic := range k {
		for w := range ids {
			ids[w] = w
		}
		slices.SortStableFunc(ids, func(a, b int) int {
			return cmp.Compare(topicsOverWords.At(topic, b), topicsOverWords.At(topic, a))
		})
		var kw []string
		for _, w := range ids {
			if len(kw) == n {
				break
			}
			if tok, ok := vocab[w+1]; ok {
				kw = append(kw, tok)
			}
		}
		out[topic] = kw
	}
	return out
}
