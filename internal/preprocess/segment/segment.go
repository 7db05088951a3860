// Package segment cuts token streams into segments of roughly equal size
// while trying to keep chunks (usually paragraphs) intact.
package segment

import (
	"fmt"
	"iter"
	"math"
	"regexp"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/logger"
)

const (
	DefaultSize      = 1000
	DefaultTolerance = 0.0
	// FuzzyTolerance is the tolerance used by callers that want the
	// five-percent window around the target size.
	FuzzyTolerance = 0.05
)

var paragraphSep = regexp.MustCompile(`\n`)

// AbsoluteTolerance resolves a tolerance against the target size: values in
// (0,1) are a fraction of size (rounded half to even), anything else is
// already absolute. Negative values are returned unchanged.
func AbsoluteTolerance(size int, tolerance float64) float64 {
	if tolerance > 0 && tolerance < 1 {
		return math.RoundToEven(float64(size) * tolerance)
	}
	return tolerance
}

// Fuzzy groups chunks into segments of about size tokens.
//
// When the running size reaches size, the chunk that crossed the boundary is
// either split at the boundary (only when both the overshoot and the
// undershoot exceed the tolerance and the tolerance is not negative), moved
// whole into the next segment, or kept, whichever is closer. A segment that
// would be left empty by moving its only chunk keeps that chunk instead.
// Any leftover at the end of the input is emitted as a short final segment.
func Fuzzy(chunks iter.Seq[[]string], size int, tolerance float64) (iter.Seq[[][]string], error) {
	if size <= 0 {
		return nil, fmt.Errorf("segmenting with size %d: %w", size, apperrors.ErrInvalidSegmentSize)
	}
	tol := AbsoluteTolerance(size, tolerance)

	return func(yield func([][]string) bool) {
		var current [][]string
		running := 0
		for chunk := range chunks {
			c := slices.Clone(chunk)
			for {
				current = append(current, c)
				running += len(c)
				if running < size {
					break
				}
				tooLong := running - size
				tooShort := size - (running - len(c))

				var carry []string
				carried := false
				switch {
				case tol >= 0 && float64(min(tooLong, tooShort)) > tol:
					cut := len(c) - tooLong
					current[len(current)-1] = c[:cut:cut]
					carry, carried = c[cut:], true
				case tooLong >= tooShort && len(current) > 1:
					current = current[:len(current)-1]
					carry, carried = c, true
				}
				if !yield(current) {
					return
				}
				current = nil
				running = 0
				if !carried {
					break
				}
				c = carry
			}
		}
		if len(current) > 0 {
			yield(current)
		}
	}, nil
}

// SplitParagraphs cuts text at every match of sep. A nil sep splits on
// newlines.
func SplitParagraphs(text string, sep *regexp.Regexp) []string {
	if sep == nil {
		sep = paragraphSep
	}
	return sep.Split(text, -1)
}

// Options configures Segment. Zero values select the defaults: size 1000,
// tolerance 0, newline chunking and the default tokenizer.
type Options struct {
	Size      int
	Tolerance float64
	Chunker   func(text string) []string
	Tokenizer func(chunk string) []string
	Logger    logger.Logger
}

// Segment chunks a raw document, tokenizes every chunk and groups the chunks
// into segments.
func Segment(doc string, opts Options) (iter.Seq[[][]string], error) {
	if opts.Size == 0 {
		opts.Size = DefaultSize
	}
	if opts.Chunker == nil {
		opts.Chunker = func(text string) []string { return SplitParagraphs(text, nil) }
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = func(chunk string) []string { return slices.Collect(tokenizer.Tokenize(chunk)) }
	}
	log := logger.OrNop(opts.Logger)

	paragraphs := opts.Chunker(doc)
	log.Debug("document chunked", "chunks", len(paragraphs), "size", opts.Size, "tolerance", opts.Tolerance)

	chunks := func(yield func([]string) bool) {
		for _, p := range paragraphs {
			if !yield(opts.Tokenizer(p)) {
				return
			}
		}
	}
	return Fuzzy(chunks, opts.Size, opts.Tolerance)
}

// Flatten joins the chunks of every segment into one token list.
func Flatten(segments iter.Seq[[][]string]) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for seg := range segments {
			if !yield(slices.Concat(seg...)) {
				return
			}
		}
	}
}

// FromSlices adapts materialised chunks to the sequence Fuzzy consumes.
func FromSlices(chunks [][]string) iter.Seq[[]string] {
	return slices.Values(chunks)
}
