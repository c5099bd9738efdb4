package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/user/pageview-ranker/internal/entity"
	"github.com/user/pageview-ranker/internal/repository"
)

// EventRepoImpl publishes an HourCompleted message per written hour to a durable queue.
type EventRepoImpl struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewEventRepo(url, queue string) (*EventRepoImpl, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &EventRepoImpl{conn: conn, ch: ch, queue: queue}, nil
}

func (r *EventRepoImpl) Name() string { return "rabbitmq" }

func (r *EventRepoImpl) Publish(ctx context.Context, result *repository.HourResult) error {
	body, err := json.Marshal(newHourCompleted(result, time.Now()))
	if err != nil {
		return err
	}
	return r.ch.PublishWithContext(ctx, "", r.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    result.RunID + "/" + result.Window.Key(),
		Timestamp:    time.Now(),
		Body:         body,
	})
}

func (r *EventRepoImpl) Close() error {
	if err := r.ch.Close(); err != nil {
		r.conn.Close()
		return err
	}
	return r.conn.Close()
}

func newHourCompleted(result *repository.HourResult, now time.Time) entity.HourCompleted {
	domains := make(map[string]struct{})
	for _, row := range result.Rows {
		domains[row.DomainCode] = struct{}{}
	}
	return entity.HourCompleted{
		RunID:      result.RunID,
		Hour:       result.Window.Key(),
		OutputPath: result.OutputPath,
		Rows:       len(result.Rows),
		Domains:    len(domains),
		WrittenAt:  now,
	}
}
