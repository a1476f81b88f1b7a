package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tablestack/resto-pos/backend/internal/entity"
	"github.com/tablestack/resto-pos/backend/internal/repository"
)

// EventStore is an in-memory, mutex-guarded event store with the same
// strict expected-version append semantics as the Postgres one. Used by
// tests and by single-node development without a database.
type EventStore struct {
	mu      sync.Mutex
	streams map[string][]entity.EventStoreRecord
}

func NewEventStore() *EventStore {
	return &EventStore{streams: make(map[string][]entity.EventStoreRecord)}
}

func (s *EventStore) SaveEvents(ctx context.Context, streamID string, streamType string, expectedVersion int, events []entity.Event) ([]entity.EventStoreRecord, error) {
	if len(events) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	currentVersion := len(s.streams[streamID])
	if currentVersion != expectedVersion {
		return nil, &repository.ConcurrencyConflictError{StreamID: streamID, Expected: expectedVersion, Actual: currentVersion}
	}

	version := expectedVersion
	now := time.Now()
	records := make([]entity.EventStoreRecord, 0, len(events))
	for _, event := range events {
		version++

		payload, err := json.Marshal(event)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
		}

		rec := entity.EventStoreRecord{
			ID:         uuid.NewString(),
			StreamID:   streamID,
			StreamType: streamType,
			Version:    version,
			EventType:  event.EventType(),
			Payload:    payload,
			CreatedAt:  now,
		}
		records = append(records, rec)
	}

	s.streams[streamID] = append(s.streams[streamID], records...)
	return records, nil
}

func (s *EventStore) LoadEvents(ctx context.Context, streamID string) ([]entity.EventStoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[streamID]
	out := make([]entity.EventStoreRecord, len(stream))
	copy(out, stream)
	return out, nil
}
