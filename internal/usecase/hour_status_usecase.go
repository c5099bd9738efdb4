package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/user/pageview-ranker/internal/entity"
	"github.com/user/pageview-ranker/internal/repository"
)

// HourStatusQuery answers what is known about an hour.
type HourStatusQuery interface {
	GetStatus(ctx context.Context, hour time.Time) (*entity.HourStatus, error)
}

type hourStatusUseCase struct {
	statuses []repository.HourStatusRepository
	outputs  repository.OutputRepository
	logger   *zap.Logger
}

// NewHourStatusQuery consults statuses in order, then falls back to the
// presence of the hour's output.
func NewHourStatusQuery(statuses []repository.HourStatusRepository, outputs repository.OutputRepository, logger *zap.Logger) HourStatusQuery {
	return &hourStatusUseCase{statuses: statuses, outputs: outputs, logger: logger}
}

func (uc *hourStatusUseCase) GetStatus(ctx context.Context, hour time.Time) (*entity.HourStatus, error) {
	w := entity.NewHourWindow(hour)

	for _, repo := range uc.statuses {
		status, err := repo.Find(ctx, w.Hour)
		if err == nil {
			return status, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			// A broken store should not hide what the others know.
			uc.logger.Warn("hour status lookup failed", zap.String("hour", w.Key()), zap.Error(err))
		}
	}

	exists, err := uc.outputs.Exists(w)
	if err != nil {
		return nil, err
	}
	if exists {
		return &entity.HourStatus{
			Hour:       w.Hour,
			Status:     entity.HourStatusCompleted,
			OutputPath: uc.outputs.Path(w),
		}, nil
	}
	return &entity.HourStatus{Hour: w.Hour, Status: entity.HourStatusNotFound}, nil
}
