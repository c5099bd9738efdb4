package dataset

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Window partitions a table and orders each partition.
type Window struct {
	PartitionBy string
	OrderBy     string
	Descending  bool
	// ThenBy is an optional ascending secondary key used to break ties on
	// OrderBy. Without it, tied rows keep the order in which the table holds
	// them, and callers must not rely on that order.
	ThenBy string
	// Parallelism bounds how many partitions are sorted at once. Values
	// below 1 mean 1.
	Parallelism int
}

// WithRowNumber appends an Int column called name holding the 1-based
// position of each row within its partition. Ties get distinct numbers.
// The result is grouped by partition, in order of each partition's first
// appearance in t, and ordered by the new column within a partition.
func (t *Table) WithRowNumber(name string, w Window) (*Table, error) {
	part, err := t.col(w.PartitionBy)
	if err != nil {
		return nil, err
	}
	ord, err := t.col(w.OrderBy)
	if err != nil {
		return nil, err
	}
	var then *column
	if w.ThenBy != "" {
		if then, err = t.col(w.ThenBy); err != nil {
			return nil, err
		}
	}

	groups := make(map[string]int)
	var members [][]int
	for i := 0; i < t.n; i++ {
		key := partitionKey(part, i)
		g, ok := groups[key]
		if !ok {
			g = len(members)
			groups[key] = g
			members = append(members, nil)
		}
		members[g] = append(members[g], i)
	}

	compare := func(a, b int) int {
		if c, ok := compareNulls(ord, a, b); ok {
			return c
		}
		c := compareValues(ord, a, b)
		if w.Descending {
			c = -c
		}
		if c != 0 || then == nil {
			return c
		}
		if c, ok := compareNulls(then, a, b); ok {
			return c
		}
		return compareValues(then, a, b)
	}

	var g errgroup.Group
	g.SetLimit(max(w.Parallelism, 1))
	for _, m := range members {
		g.Go(func() error {
			slices.SortStableFunc(m, compare)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := make([]int, 0, t.n)
	ranks := make([]int64, 0, t.n)
	for _, m := range members {
		idx = append(idx, m...)
		for r := range m {
			ranks = append(ranks, int64(r+1))
		}
	}

	out := t.take(idx)
	valid := make([]bool, len(ranks))
	for i := range valid {
		valid[i] = true
	}
	out.cols = append(out.cols, &column{Column: Column{Name: name, Kind: Int}, ints: ranks, valid: valid})
	out.index[name] = len(out.cols) - 1
	return out, nil
}

func partitionKey(c *column, i int) string {
	if !c.valid[i] {
		return "\x00null"
	}
	return c.text(i)
}

// compareNulls puts nulls after every value whatever the direction.
// ok is false when both values are present.
func compareNulls(c *column, a, b int) (int, bool) {
	va, vb := c.valid[a], c.valid[b]
	switch {
	case va && vb:
		return 0, false
	case !va && !vb:
		return 0, true
	case !va:
		return 1, true
	default:
		return -1, true
	}
}

func compareValues(c *column, a, b int) int {
	if c.Kind == Int {
		return cmp.Compare(c.ints[a], c.ints[b])
	}
	return strings.Compare(c.strs[a], c.strs[b])
}
