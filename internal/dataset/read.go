package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const maxLineSize = 16 << 20

// ReadDelimited parses delimited text without a header row. Each line is one
// record split on delim; quote characters carry no meaning, so a value such
// as "Weird_Al"_Yankovic is kept verbatim. Blank lines are skipped. The
// number of columns is taken from the first record; later records are padded
// with nulls or truncated to fit. Columns are named positionally from names,
// and any column beyond len(names) is called _cN.
func ReadDelimited(r io.Reader, delim rune, names ...string) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	sep := string(delim)

	var b *Builder
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			continue
		}
		rec := strings.Split(line, sep)
		if b == nil {
			b = NewBuilder(columnNames(len(rec), names)...)
		}
		b.Append(rec...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read delimited: %w", err)
	}
	if b == nil {
		return NewBuilder(names...).Build(), nil
	}
	return b.Build(), nil
}

func columnNames(width int, names []string) []string {
	out := make([]string, width)
	for i := range out {
		if i < len(names) {
			out[i] = names[i]
		} else {
			out[i] = fmt.Sprintf("_c%d", i)
		}
	}
	return out
}
