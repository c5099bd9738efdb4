package repository

import (
	"context"

	"github.com/user/pageview-ranker/internal/entity"
)

// HourResult is everything known about an hour once its output is written.
type HourResult struct {
	RunID      string
	Window     entity.HourWindow
	OutputPath string
	Files      []string
	Rows       []entity.RankedRow
}

// ResultSink receives each written hour. Sinks are optional and best effort.
type ResultSink interface {
	Name() string
	Publish(ctx context.Context, result *HourResult) error
}
