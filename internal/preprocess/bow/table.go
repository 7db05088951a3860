// Package bow counts token occurrences per document into a sparse
// document-term table.
package bow

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Row is one cell of the sparse table. A row with Token 0 and Count 0 marks
// a document that has no tokens left.
type Row struct {
	Doc   int
	Token int
	Count int
}

// IsSentinel reports whether r is the empty-document marker.
func (r Row) IsSentinel() bool {
	return r.Token == 0
}

// Entry is a (token id, count) pair within a single document.
type Entry struct {
	Token int
	Count int
}

// Table is an immutable sparse frequency table sorted by (Doc, Token) with
// at most one row per pair.
type Table struct {
	rows []Row
}

// NewTable builds a table from rows in any order. Rows sharing a
// (Doc, Token) pair are summed.
func NewTable(rows []Row) *Table {
	sorted := slices.Clone(rows)
	slices.SortFunc(sorted, compareRows)
	merged := sorted[:0]
	for _, r := range sorted {
		if n := len(merged); n > 0 && merged[n-1].Doc == r.Doc && merged[n-1].Token == r.Token {
			merged[n-1].Count += r.Count
			continue
		}
		merged = append(merged, r)
	}
	return &Table{rows: slices.Clip(merged)}
}

func compareRows(a, b Row) int {
	if c := cmp.Compare(a.Doc, b.Doc); c != 0 {
		return c
	}
	return cmp.Compare(a.Token, b.Token)
}

// Rows returns a copy of the rows in (Doc, Token) order.
func (t *Table) Rows() []Row {
	return slices.Clone(t.rows)
}

func (t *Table) Len() int {
	return len(t.rows)
}

// NumDocs is the largest document id in the table.
func (t *Table) NumDocs() int {
	if len(t.rows) == 0 {
		return 0
	}
	return t.rows[len(t.rows)-1].Doc
}

// NumTypes is the largest token id in the table.
func (t *Table) NumTypes() int {
	m := 0
	for _, r := range t.rows {
		m = max(m, r.Token)
	}
	return m
}

// Total is the sum of all counts.
func (t *Table) Total() int {
	n := 0
	for _, r := range t.rows {
		n += r.Count
	}
	return n
}

// TokenTotals collapses the table to the aggregate count of each token id.
func (t *Table) TokenTotals() map[int]int {
	totals := make(map[int]int)
	for _, r := range t.rows {
		if r.IsSentinel() {
			continue
		}
		totals[r.Token] += r.Count
	}
	return totals
}

// Documents returns the distinct document ids in ascending order.
func (t *Table) Documents() []int {
	var docs []int
	for _, r := range t.rows {
		if n := len(docs); n == 0 || docs[n-1] != r.Doc {
			docs = append(docs, r.Doc)
		}
	}
	return docs
}

// Doc2Bow returns one entry list per document, in document order. Empty
// documents yield an empty list.
func (t *Table) Doc2Bow() [][]Entry {
	var out [][]Entry
	last := 0
	for _, r := range t.rows {
		if len(out) == 0 || r.Doc != last {
			out = append(out, []Entry{})
			last = r.Doc
		}
		if r.IsSentinel() {
			continue
		}
		out[len(out)-1] = append(out[len(out)-1], Entry{Token: r.Token, Count: r.Count})
	}
	return out
}

// Dense expands the table into a NumDocs x NumTypes matrix where cell
// (d-1, w-1) holds the count of token w in document d. It returns nil for a
// table without any token rows.
func (t *Table) Dense() *mat.Dense {
	docs, types := t.NumDocs(), t.NumTypes()
	if docs == 0 || types == 0 {
		return nil
	}
	m := mat.NewDense(docs, types, nil)
	for _, r := range t.rows {
		if r.IsSentinel() {
			continue
		}
		m.Set(r.Doc-1, r.Token-1, float64(r.Count))
	}
	return m
}

// Without returns a new table lacking every row whose token id is in drop.
// A document that loses all of its rows keeps a sentinel row.
func (t *Table) Without(drop map[int]struct{}) *Table {
	rows := make([]Row, 0, len(t.rows))
	for i := 0; i < len(t.rows); {
		doc := t.rows[i].Doc
		kept := false
		for ; i < len(t.rows) && t.rows[i].Doc == doc; i++ {
			r := t.rows[i]
			if _, ok := drop[r.Token]; ok && !r.IsSentinel() {
				continue
			}
			rows = append(rows, r)
			kept = true
		}
		if !kept {
			rows = append(rows, Row{Doc: doc})
		}
	}
	return &Table{rows: slices.Clip(rows)}
}
