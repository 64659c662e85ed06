// Package events announces newly created patients to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/hdpredict/internal/models"
)

const DefaultStream = "patients:created"

type Publisher interface {
	PublishPatientCreated(ctx context.Context, patient models.StoredPatient) error
	Close() error
}

// NewPublisher returns a Redis stream publisher, or a no-op one when
// redisURL is empty.
func NewPublisher(redisURL, stream string) (Publisher, error) {
	if redisURL == "" {
		return Nop{}, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisPublisher(client, stream), nil
}

type Nop struct{}

func (Nop) PublishPatientCreated(context.Context, models.StoredPatient) error { return nil }
func (Nop) Close() error { return nil }

type RedisPublisher struct {
	redis  *redis.Client
	stream string
}

func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{redis: client, stream: stream}
}

func (p *RedisPublisher) PublishPatientCreated(ctx context.Context, patient models.StoredPatient) error {
	payload, err := json.Marshal(patient)
	if err != nil {
		return fmt.Errorf("failed to encode patient %d: %w", patient.ID, err)
	}

	err = p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"id":            patient.ID,
			"heart_disease": int(patient.HeartDisease),
			"patient":       string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish patient %d to %s: %w", patient.ID, p.stream, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	if p.redis != nil {
		return p.redis.Close()
	}
	return nil
}
