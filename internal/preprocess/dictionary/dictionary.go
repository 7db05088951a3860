// Package dictionary assigns dense integer ids to token types and document
// labels.
package dictionary

import (
	"slices"
)

// Dictionary is a bijection between strings and the ids 1..Len(). It is
// read-only after construction and safe for concurrent use.
type Dictionary struct {
	ids    map[string]int
	tokens []string
}

// Build assigns ids to the distinct tokens in lexicographic order, so the
// same token set always yields the same mapping.
func Build(tokens []string) *Dictionary {
	distinct := slices.Clone(tokens)
	slices.Sort(distinct)
	return fromOrdered(slices.Compact(distinct))
}

// BuildNested builds a type dictionary over the union of every document's
// tokens.
func BuildNested(docs [][]string) *Dictionary {
	n := 0
	for _, doc := range docs {
		n += len(doc)
	}
	all := make([]string, 0, n)
	for _, doc := range docs {
		all = append(all, doc...)
	}
	return Build(all)
}

// BuildDocuments assigns ids to labels in order of first appearance, so
// document ids follow corpus order.
func BuildDocuments(labels []string) *Dictionary {
	seen := make(map[string]struct{}, len(labels))
	ordered := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		ordered = append(ordered, l)
	}
	return fromOrdered(ordered)
}

func fromOrdered(ordered []string) *Dictionary {
	d := &Dictionary{
		ids:    make(map[string]int, len(ordered)),
		tokens: ordered,
	}
	for i, s := range ordered {
		d.ids[s] = i + 1
	}
	return d
}

// ID returns the id of s.
func (d *Dictionary) ID(s string) (int, bool) {
	id, ok := d.ids[s]
	return id, ok
}

// Token returns the string with the given id.
func (d *Dictionary) Token(id int) (string, bool) {
	if id < 1 || id > len(d.tokens) {
		return "", false
	}
	return d.tokens[id-1], true
}

func (d *Dictionary) Len() int {
	return len(d.tokens)
}

// Tokens returns every entry ordered by id.
func (d *Dictionary) Tokens() []string {
	return slices.Clone(d.tokens)
}

// Inverse returns the id to string mapping.
func (d *Dictionary) Inverse() map[int]string {
	inv := make(map[int]string, len(d.tokens))
	for i, s := range d.tokens {
		inv[i+1] = s
	}
	return inv
}

// FromTokens rebuilds a dictionary whose ids are the positions (starting at
// 1) of the given ordered entries. Duplicates keep their first id.
func FromTokens(ordered []string) *Dictionary {
	return BuildDocuments(ordered)
}
