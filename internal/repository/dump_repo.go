package repository

import (
	"context"
	"errors"

	"github.com/user/pageview-ranker/internal/entity"
)

var ErrDownloadFailed = errors.New("dump download failed")

// DumpRepository defines the contract for retrieving an hourly pageview dump.
type DumpRepository interface {
	// Fetch downloads the dump of w into the temp area and returns the local path.
	// The path is returned even when the download fails, so the caller can
	// decide what to do with a missing or partial file.
	Fetch(ctx context.Context, w entity.HourWindow) (string, error)
	// Remove deletes a previously fetched file.
	Remove(path string) error
}
