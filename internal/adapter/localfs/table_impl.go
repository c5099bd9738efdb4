package localfs

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/user/pageview-ranker/internal/dataset"
	"github.com/user/pageview-ranker/internal/entity"
)

var gzipMagic = []byte{0x1f, 0x8b}

// TableRepoImpl loads space-delimited pageview and blacklist files.
type TableRepoImpl struct{}

func NewTableRepo() *TableRepoImpl {
	return &TableRepoImpl{}
}

// Load reads path, transparently decompressing gzip content, and names the
// columns domain_code, page_title, count_views and total_response_size by
// position. A two-column file only gets the first two names.
func (r *TableRepoImpl) Load(ctx context.Context, path string) (*dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	src, err := decompress(bufio.NewReaderSize(f, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	tbl, err := dataset.ReadDelimited(&ctxReader{ctx: ctx, r: src}, ' ', entity.PageviewColumns...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return tbl, nil
}

func decompress(br *bufio.Reader) (io.Reader, error) {
	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return nil, err
	}
	if len(head) == len(gzipMagic) && head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		return gzip.NewReader(br)
	}
	return br, nil
}

// ctxReader stops a long parse once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
