package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/pageview-ranker/internal/entity"
)

var ErrNotFound = errors.New("not found")

// HourStatusRepository records and looks up what happened to an hour.
type HourStatusRepository interface {
	Save(ctx context.Context, status *entity.HourStatus) error
	// Find returns ErrNotFound when nothing was recorded for hour.
	Find(ctx context.Context, hour time.Time) (*entity.HourStatus, error)
}
