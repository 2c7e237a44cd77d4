package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/veritick/veritick/core"
	"github.com/veritick/veritick/ports"
)

// RedisLog is a Redis implementation of the AttendanceLog, for
// deployments where several verifier instances share one log. Events
// live in a Redis list trimmed to the retention cap; sequence ids come
// from an INCR counter.
type RedisLog struct {
	client   *redis.Client
	capacity int
	listKey  string
	seqKey   string
}

// NewRedisLog creates a Redis-backed bounded log.
func NewRedisLog(client *redis.Client, capacity int) *RedisLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &RedisLog{
		client:   client,
		capacity: capacity,
		listKey:  "veritick:attend-log",
		seqKey:   "veritick:attend-seq",
	}
}

// Append stores an event and trims the list back to capacity.
func (l *RedisLog) Append(ctx context.Context, event core.ScanEvent) (core.ScanEvent, error) {
	id, err := l.client.Incr(ctx, l.seqKey).Result()
	if err != nil {
		return core.ScanEvent{}, fmt.Errorf("allocating sequence id: %w", err)
	}
	event.ID = uint64(id)

	payload, err := json.Marshal(event)
	if err != nil {
		return core.ScanEvent{}, fmt.Errorf("marshalling event: %w", err)
	}

	pipe := l.client.TxPipeline()
	pipe.RPush(ctx, l.listKey, payload)
	pipe.LTrim(ctx, l.listKey, int64(-l.capacity), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return core.ScanEvent{}, fmt.Errorf("appending event: %w", err)
	}

	return event, nil
}

// Events returns all retained events, oldest first.
func (l *RedisLog) Events(ctx context.Context) ([]core.ScanEvent, error) {
	raw, err := l.client.LRange(ctx, l.listKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}

	events := make([]core.ScanEvent, 0, len(raw))
	for _, item := range raw {
		var event core.ScanEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			return nil, fmt.Errorf("unmarshalling event: %w", err)
		}
		events = append(events, event)
	}
	return events, nil
}

var _ ports.AttendanceLog = (*RedisLog)(nil)
