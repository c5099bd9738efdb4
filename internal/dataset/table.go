// Package dataset is a small in-memory, column-oriented table with the
// operations the ranking pipeline needs: filtering, key-based anti-join and
// partitioned row numbering. Tables are immutable; every operation returns a
// new table and never modifies its receiver, so a table can be shared by
// concurrent readers.
package dataset

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
)

var ErrMissingColumn = errors.New("column not found")

// Kind is the inferred type of a column.
type Kind int

const (
	String Kind = iota
	Int
)

func (k Kind) String() string {
	if k == Int {
		return "int"
	}
	return "string"
}

// Column describes one column of a Table.
type Column struct {
	Name string
	Kind Kind
}

type column struct {
	Column
	strs  []string
	ints  []int64
	valid []bool
}

func (c *column) text(i int) string {
	if !c.valid[i] {
		return ""
	}
	if c.Kind == Int {
		return strconv.FormatInt(c.ints[i], 10)
	}
	return c.strs[i]
}

func (c *column) take(idx []int) *column {
	out := &column{Column: c.Column, valid: make([]bool, len(idx))}
	if c.Kind == Int {
		out.ints = make([]int64, len(idx))
	} else {
		out.strs = make([]string, len(idx))
	}
	for j, i := range idx {
		out.valid[j] = c.valid[i]
		if c.Kind == Int {
			out.ints[j] = c.ints[i]
		} else {
			out.strs[j] = c.strs[i]
		}
	}
	return out
}

// Table is an immutable set of rows with named, typed columns.
type Table struct {
	cols  []*column
	index map[string]int
	n     int
}

func newTable(cols []*column, n int) *Table {
	t := &Table{cols: cols, index: make(map[string]int, len(cols)), n: n}
	for i, c := range cols {
		t.index[c.Name] = i
	}
	return t
}

// Builder accumulates rows for a new Table. Values are added as text and
// typed when Build runs.
type Builder struct {
	names []string
	raw   [][]string
	valid [][]bool
	n     int
}

func NewBuilder(names ...string) *Builder {
	b := &Builder{names: names, raw: make([][]string, len(names)), valid: make([][]bool, len(names))}
	return b
}

// Append adds one row. Missing trailing values are null, extra values are
// dropped and empty strings are null.
func (b *Builder) Append(values ...string) {
	for i := range b.names {
		v, ok := "", false
		if i < len(values) && values[i] != "" {
			v, ok = values[i], true
		}
		b.raw[i] = append(b.raw[i], v)
		b.valid[i] = append(b.valid[i], ok)
	}
	b.n++
}

// Build infers a kind per column: a column whose non-null values all parse as
// 64-bit integers is Int, anything else is String.
func (b *Builder) Build() *Table {
	cols := make([]*column, len(b.names))
	for i, name := range b.names {
		cols[i] = inferColumn(name, b.raw[i], b.valid[i])
	}
	return newTable(cols, b.n)
}

func inferColumn(name string, raw []string, valid []bool) *column {
	ints := make([]int64, len(raw))
	seen := false
	for i, s := range raw {
		if !valid[i] {
			continue
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return &column{Column: Column{Name: name, Kind: String}, strs: raw, valid: valid}
		}
		ints[i] = v
		seen = true
	}
	if !seen {
		return &column{Column: Column{Name: name, Kind: String}, strs: raw, valid: valid}
	}
	return &column{Column: Column{Name: name, Kind: Int}, ints: ints, valid: valid}
}

func (t *Table) Len() int { return t.n }

func (t *Table) Columns() []Column {
	out := make([]Column, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Column
	}
	return out
}

func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.cols[i].Column, true
}

func (t *Table) col(name string) (*column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	return t.cols[i], nil
}

// Rename returns a table whose column from is called to.
func (t *Table) Rename(from, to string) *Table {
	i, ok := t.index[from]
	if !ok {
		return t
	}
	cols := append([]*column(nil), t.cols...)
	renamed := *cols[i]
	renamed.Name = to
	cols[i] = &renamed
	return newTable(cols, t.n)
}

// Select keeps only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]*column, len(names))
	for i, name := range names {
		c, err := t.col(name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return newTable(cols, t.n), nil
}

func (t *Table) take(idx []int) *Table {
	cols := make([]*column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.take(idx)
	}
	return newTable(cols, len(idx))
}

// Row is a read-only view of one row of a Table.
type Row struct {
	t *Table
	i int
}

func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// All iterates over the rows in table order.
func (t *Table) All() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i := 0; i < t.n; i++ {
			if !yield(i, Row{t: t, i: i}) {
				return
			}
		}
	}
}

// Text returns the value of col as text; null and unknown columns are "".
func (r Row) Text(col string) string {
	j, ok := r.t.index[col]
	if !ok {
		return ""
	}
	return r.t.cols[j].text(r.i)
}

// Int returns the integer value of col. ok is false for nulls, unknown
// columns and String columns.
func (r Row) Int(col string) (v int64, ok bool) {
	j, found := r.t.index[col]
	if !found {
		return 0, false
	}
	c := r.t.cols[j]
	if c.Kind != Int || !c.valid[r.i] {
		return 0, false
	}
	return c.ints[r.i], true
}

func (r Row) IsNull(col string) bool {
	j, ok := r.t.index[col]
	return !ok || !r.t.cols[j].valid[r.i]
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	var idx []int
	for i := 0; i < t.n; i++ {
		if keep(Row{t: t, i: i}) {
			idx = append(idx, i)
		}
	}
	return t.take(idx)
}
