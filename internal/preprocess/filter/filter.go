// Package filter selects and removes features (token types) from a sparse
// frequency table by corpus-wide frequency.
package filter

import (
	"cmp"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/bow"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/logger"
)

// Filter carries the logger shared by the filter operations. The zero value
// logs nothing.
type Filter struct {
	logger logger.Logger
}

// New returns a Filter logging to l. A nil l discards output.
func New(l logger.Logger) *Filter {
	return &Filter{logger: logger.OrNop(l)}
}

func (f *Filter) log() logger.Logger {
	if f == nil {
		return logger.Nop{}
	}
	return logger.OrNop(f.logger)
}

type tokenTotal struct {
	id    int
	total int
}

func totalsByID(t *bow.Table) []tokenTotal {
	totals := t.TokenTotals()
	out := make([]tokenTotal, 0, len(totals))
	for id, n := range totals {
		out = append(out, tokenTotal{id: id, total: n})
	}
	slices.SortFunc(out, func(a, b tokenTotal) int { return cmp.Compare(a.id, b.id) })
	return out
}

// FindStopwords returns the n tokens with the largest aggregate counts,
// most frequent first. Equal counts are ordered by token id.
func (f *Filter) FindStopwords(t *bow.Table, types *dictionary.Dictionary, n int) []string {
	totals := totalsByID(t)
	slices.SortStableFunc(totals, func(a, b tokenTotal) int { return cmp.Compare(b.total, a.total) })
	if n < len(totals) {
		totals = totals[:max(n, 0)]
	}
	stopwords := resolve(totals, types)
	f.log().Info("stopwords determined", "requested", n, "found", len(stopwords))
	f.log().Debug("stopwords", "tokens", stopwords)
	return stopwords
}

// FindHapax returns the tokens that occur exactly once in the whole corpus,
// ordered by token id.
func (f *Filter) FindHapax(t *bow.Table, types *dictionary.Dictionary) []string {
	totals := slices.DeleteFunc(totalsByID(t), func(tt tokenTotal) bool { return tt.total != 1 })
	hapax := resolve(totals, types)
	f.log().Info("hapax legomena determined", "found", len(hapax))
	return hapax
}

// RemoveFeatures returns a copy of t without the rows of every feature found
// in types. Features missing from the dictionary are skipped. Documents left
// without rows keep a sentinel row.
func (f *Filter) RemoveFeatures(t *bow.Table, types *dictionary.Dictionary, features []string) *bow.Table {
	drop := make(map[int]struct{}, len(features))
	skipped := 0
	for _, feat := range features {
		id, ok := types.ID(feat)
		if !ok {
			skipped++
			continue
		}
		drop[id] = struct{}{}
	}
	out := t.Without(drop)
	f.log().Info("features removed",
		"features", len(features),
		"skipped", skipped,
		"rows_before", t.Len(),
		"rows_after", out.Len(),
	)
	return out
}

// RemoveFromTokens drops every occurrence of features from a token list.
func (f *Filter) RemoveFromTokens(tokens []string, features []string) []string {
	drop := make(map[string]struct{}, len(features))
	for _, feat := range features {
		drop[feat] = struct{}{}
	}
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := drop[tok]; !ok {
			out = append(out, tok)
		}
	}
	f.log().Debug("features removed from tokens", "before", len(tokens), "after", len(out))
	return out
}

func resolve(totals []tokenTotal, types *dictionary.Dictionary) []string {
	out := make([]string, 0, len(totals))
	for _, tt := range totals {
		if tok, ok := types.Token(tt.id); ok {
			out = append(out, tok)
		}
	}
	return out
}

var std = &Filter{}

// FindStopwords calls Filter.FindStopwords without logging.
func FindStopwords(t *bow.Table, types *dictionary.Dictionary, n int) []string {
	return std.FindStopwords(t, types, n)
}

// FindHapax calls Filter.FindHapax without logging.
func FindHapax(t *bow.Table, types *dictionary.Dictionary) []string {
	return std.FindHapax(t, types)
}

// RemoveFeatures calls Filter.RemoveFeatures without logging.
func RemoveFeatures(t *bow.Table, types *dictionary.Dictionary, features []string) *bow.Table {
	return std.RemoveFeatures(t, types, features)
}

// RemoveFromTokens calls Filter.RemoveFromTokens without logging.
func RemoveFromTokens(tokens []string, features []string) []string {
	return std.RemoveFromTokens(tokens, features)
}
