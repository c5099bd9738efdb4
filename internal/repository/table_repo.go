package repository

import (
	"context"

	"github.com/user/pageview-ranker/internal/dataset"
)

// TableRepository loads space-delimited sources into tables. Compression is
// detected from the content, not the file name.
type TableRepository interface {
	Load(ctx context.Context, path string) (*dataset.Table, error)
}
