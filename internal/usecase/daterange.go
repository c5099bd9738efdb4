package usecase

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/user/pageview-ranker/pkg/utils"
)

var (
	ErrInvalidRange    = errors.New("startTime cannot be after endTime")
	ErrFutureTime      = errors.New("startTime and endTime must both be in the past")
	ErrBeforeFirstHour = errors.New("startTime and endTime must both be at or after the first available hour")
)

// FirstAvailableHour is the oldest hour published by the dump source.
var FirstAvailableHour = time.Date(2015, 5, 1, 1, 0, 0, 0, time.UTC)

// DateRange is an inclusive range of hours.
type DateRange struct {
	start time.Time
	end   time.Time
}

// NewDateRange truncates both ends to the hour and rejects a start after the end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	start, end = utils.TruncateHour(start), utils.TruncateHour(end)
	if start.After(end) {
		return DateRange{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start.Format(time.DateTime), end.Format(time.DateTime))
	}
	return DateRange{start: start, end: end}, nil
}

func (r DateRange) Start() time.Time { return r.start }
func (r DateRange) End() time.Time   { return r.end }

// Len is the number of hours in the range.
func (r DateRange) Len() int {
	return int(r.end.Sub(r.start)/time.Hour) + 1
}

// Hours yields start, start+1h, ..., end. Each call starts over.
func (r DateRange) Hours() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for h := r.start; !h.After(r.end); h = h.Add(time.Hour) {
			if !yield(h) {
				return
			}
		}
	}
}

// Validate checks that the whole range lies between FirstAvailableHour and now.
func (r DateRange) Validate(now time.Time) error {
	if r.start.After(now) || r.end.After(now) {
		return fmt.Errorf("%w: now is %s", ErrFutureTime, now.Format(time.DateTime))
	}
	if r.start.Before(FirstAvailableHour) || r.end.Before(FirstAvailableHour) {
		return fmt.Errorf("%w: %s", ErrBeforeFirstHour, FirstAvailableHour.Format(time.DateTime))
	}
	return nil
}
