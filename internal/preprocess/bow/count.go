package bow

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/dictionary"
	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/logger"
)

type countOptions struct {
	workers int
	logger  logger.Logger
}

// CountOption configures Count.
type CountOption func(*countOptions)

// WithWorkers counts up to n documents concurrently. Values below 1 mean
// sequential counting.
func WithWorkers(n int) CountOption {
	return func(o *countOptions) { o.workers = n }
}

// WithLogger sets the logger Count reports progress to.
func WithLogger(l logger.Logger) CountOption {
	return func(o *countOptions) { o.logger = l }
}

// Count builds the sparse frequency table for docs, where docs[i] holds the
// tokens of the document labelled labels[i]. Documents sharing a label are
// counted into the same row set. Every document of the documents dictionary
// ends up with at least one row; documents without tokens get a sentinel.
func Count(labels []string, docs [][]string, types, documents *dictionary.Dictionary, opts ...CountOption) (*Table, error) {
	o := countOptions{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.OrNop(o.logger)

	if len(labels) != len(docs) {
		return nil, fmt.Errorf("counting %d labels against %d documents: %w", len(labels), len(docs), apperrors.ErrInvalidInput)
	}

	perDoc := make([]map[int]int, len(docs))
	docIDs := make([]int, len(docs))

	var g errgroup.Group
	g.SetLimit(max(o.workers, 1))
	for i := range docs {
		g.Go(func() error {
			id, ok := documents.ID(labels[i])
			if !ok {
				return fmt.Errorf("counting document %q: %w", labels[i], apperrors.ErrUnknownDocument)
			}
			counts := make(map[int]int)
			for _, tok := range docs[i] {
				tid, ok := types.ID(tok)
				if !ok {
					return fmt.Errorf("counting token %q in document %q: %w", tok, labels[i], apperrors.ErrUnknownToken)
				}
				counts[tid]++
			}
			docIDs[i] = id
			perDoc[i] = counts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[int]map[int]int, documents.Len())
	for i, counts := range perDoc {
		dst, ok := merged[docIDs[i]]
		if !ok {
			dst = make(map[int]int, len(counts))
			merged[docIDs[i]] = dst
		}
		for tid, n := range counts {
			dst[tid] += n
		}
	}

	rows := make([]Row, 0, len(merged)*8)
	for doc := 1; doc <= documents.Len(); doc++ {
		counts := merged[doc]
		if len(counts) == 0 {
			rows = append(rows, Row{Doc: doc})
			continue
		}
		for tid, n := range counts {
			rows = append(rows, Row{Doc: doc, Token: tid, Count: n})
		}
	}
	t := NewTable(rows)

	log.Info("documents counted",
		"documents", documents.Len(),
		"types", types.Len(),
		"rows", t.Len(),
		"workers", o.workers,
	)
	return t, nil
}
