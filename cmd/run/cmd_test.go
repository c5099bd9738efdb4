package run

import (
	"errors"
	"testing"
	"time"

	"github.com/user/pageview-ranker/internal/usecase"
	"github.com/user/pageview-ranker/pkg/config"
)

func TestResolveRange(t *testing.T) {
	now := time.Date(2020, 6, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name      string
		start     string
		end       string
		want      error
		wantHours int
	}{
		{"single hour", "2020-01-02T05:00", "", nil, 1},
		{"range", "2020-01-02T05:00", "2020-01-02T07:59", nil, 3},
		{"start after end", "2020-01-02T07:00", "2020-01-02T05:00", usecase.ErrInvalidRange, 0},
		{"future", "2020-06-01T14:00", "", usecase.ErrFutureTime, 0},
		{"before first dump", "2014-01-01T00:00", "2015-06-01T00:00", usecase.ErrBeforeFirstHour, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{StartTime: tt.start, EndTime: tt.end}
			rng, err := resolveRange(cfg, now)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Fatalf("err = %v, want %v", err, tt.want)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveRange: %v", err)
			}
			if rng.Len() != tt.wantHours {
				t.Errorf("Len = %d, want %d", rng.Len(), tt.wantHours)
			}
		})
	}
}

func TestResolveRangeRejectsMalformedTime(t *testing.T) {
	if _, err := resolveRange(&config.Config{StartTime: "yesterday"}, time.Now().UTC()); err == nil {
		t.Fatal("expected parse error")
	}
}
