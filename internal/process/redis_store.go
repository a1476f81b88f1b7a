package process

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// processTTL caps how long abandoned workflow state lingers in Redis.
const processTTL = 24 * time.Hour

// RedisStore keeps process state in a Redis hash per process id, so several
// POS nodes share one view of each in-flight workflow.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Seen(ctx context.Context, processID, eventKey string) (bool, error) {
	seen, err := s.client.HExists(ctx, processKey(processID), "seen:"+eventKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check event delivery: %w", err)
	}
	return seen, nil
}

func (s *RedisStore) MarkSeen(ctx context.Context, processID, eventKey string) error {
	key := processKey(processID)
	if err := s.client.HSet(ctx, key, "seen:"+eventKey, "1").Err(); err != nil {
		return fmt.Errorf("failed to record event delivery: %w", err)
	}
	s.client.Expire(ctx, key, processTTL)
	return nil
}

func (s *RedisStore) MarkStep(ctx context.Context, processID, step string) error {
	key := processKey(processID)
	if err := s.client.HSet(ctx, key, "step:"+step, "1").Err(); err != nil {
		return fmt.Errorf("failed to mark process step: %w", err)
	}
	s.client.Expire(ctx, key, processTTL)
	return nil
}

func (s *RedisStore) Steps(ctx context.Context, processID string) (map[string]bool, error) {
	fields, err := s.client.HGetAll(ctx, processKey(processID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load process state: %w", err)
	}
	steps := make(map[string]bool)
	for k := range fields {
		if strings.HasPrefix(k, "step:") {
			steps[strings.TrimPrefix(k, "step:")] = true
		}
	}
	return steps, nil
}

func (s *RedisStore) Archive(ctx context.Context, processID string) error {
	if err := s.client.Del(ctx, processKey(processID)).Err(); err != nil {
		return fmt.Errorf("failed to archive process state: %w", err)
	}
	return nil
}

func processKey(processID string) string {
	return "process:" + processID
}
