package dataset

import "strings"

const keySep = "\x00"

// LeftAntiJoin keeps the rows of t whose key columns have no match in other.
// Only the key columns take part in the match, so the two tables may have
// different arities. Values are compared by their text form, which lets an
// Int column on one side match the same digits in a String column on the
// other. Rows with a null key never match.
func (t *Table) LeftAntiJoin(other *Table, keys ...string) (*Table, error) {
	left, err := t.keyColumns(keys)
	if err != nil {
		return nil, err
	}
	right, err := other.keyColumns(keys)
	if err != nil {
		return nil, err
	}

	exclude := make(map[string]struct{}, other.n)
	for i := 0; i < other.n; i++ {
		if k, ok := compositeKey(right, i); ok {
			exclude[k] = struct{}{}
		}
	}

	idx := make([]int, 0, t.n)
	for i := 0; i < t.n; i++ {
		if k, ok := compositeKey(left, i); ok {
			if _, hit := exclude[k]; hit {
				continue
			}
		}
		idx = append(idx, i)
	}
	return t.take(idx), nil
}

func (t *Table) keyColumns(keys []string) ([]*column, error) {
	cols := make([]*column, len(keys))
	for i, k := range keys {
		c, err := t.col(k)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return cols, nil
}

func compositeKey(cols []*column, i int) (string, bool) {
	if len(cols) == 1 {
		return cols[0].text(i), cols[0].valid[i]
	}
	var sb strings.Builder
	for j, c := range cols {
		if !c.valid[i] {
			return "", false
		}
		if j > 0 {
			sb.WriteString(keySep)
		}
		sb.WriteString(c.text(i))
	}
	return sb.String(), true
}
