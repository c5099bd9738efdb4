package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/pageview-ranker/internal/entity"
	"github.com/user/pageview-ranker/internal/repository"
)

const hourStatusPrefix = "pageviews:hour:"

// HourStatusRepoImpl caches hour statuses in Redis with an expiry.
type HourStatusRepoImpl struct {
	client *redis.Client
	ttl    time.Duration
}

// NewHourStatusRepo creates a new instance of HourStatusRepoImpl.
func NewHourStatusRepo(client *redis.Client, ttl time.Duration) *HourStatusRepoImpl {
	return &HourStatusRepoImpl{client: client, ttl: ttl}
}

// generateKey creates the Redis key of an hour, e.g. pageviews:hour:20200102-05.
func generateKey(hour time.Time) string {
	return fmt.Sprintf("%s%s", hourStatusPrefix, entity.NewHourWindow(hour).Key())
}

// Save stores the status as JSON. SET with an expiry is atomic.
func (r *HourStatusRepoImpl) Save(ctx context.Context, status *entity.HourStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, generateKey(status.Hour), payload, r.ttl).Err()
}

// Find returns repository.ErrNotFound when the key is missing or expired.
func (r *HourStatusRepoImpl) Find(ctx context.Context, hour time.Time) (*entity.HourStatus, error) {
	payload, err := r.client.Get(ctx, generateKey(hour)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var status entity.HourStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return nil, fmt.Errorf("decode %s: %w", generateKey(hour), err)
	}
	return &status, nil
}
