package repository

import (
	"context"
	"errors"

	"github.com/user/pageview-ranker/internal/entity"
)

var ErrOutputExists = errors.New("output already exists")

// OutputRepository persists the ranked result of one hour.
type OutputRepository interface {
	// Path is the deterministic location of w's output.
	Path(w entity.HourWindow) string
	// Exists reports whether anything is present at Path(w).
	Exists(w entity.HourWindow) (bool, error)
	// Write stores rows at Path(w) and returns the files it created.
	// It returns ErrOutputExists and leaves the existing output untouched
	// when Path(w) is already present.
	Write(ctx context.Context, w entity.HourWindow, rows []entity.RankedRow) ([]string, error)
}
