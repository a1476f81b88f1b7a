package entity

import "time"

// EventStoreRecord represents an event stored in the database.
type EventStoreRecord struct {
	ID         string    `json:"id"`
	StreamID   string    `json:"stream_id"`
	StreamType string    `json:"stream_type"`
	Version    int       `json:"version"`
	EventType  string    `json:"event_type"`
	Payload    []byte    `json:"payload"`
	CreatedAt  time.Time `json:"created_at"`
}

// Event represents a domain event.
type Event interface {
	EventType() string
}

// Aggregate represents a domain aggregate root.
type Aggregate interface {
	GetAggregateID() string
	GetVersion() int
	ApplyEvent(event Event) error
}

// AggregateBase provides a basic implementation for an aggregate, including
// tracking of events recorded by commands but not yet appended to the store.
type AggregateBase struct {
	ID      string
	Version int

	uncommitted []Event
}

func (a *AggregateBase) GetAggregateID() string {
	return a.ID
}

func (a *AggregateBase) GetVersion() int {
	return a.Version
}

// CommittedVersion is the stream version the aggregate was rehydrated at. It
// is the expected-version token for the optimistic-concurrency append.
func (a *AggregateBase) CommittedVersion() int {
	return a.Version - len(a.uncommitted)
}

// UncommittedEvents returns events recorded by commands since rehydration.
// The caller persists them; the aggregate never touches storage itself.
func (a *AggregateBase) UncommittedEvents() []Event {
	return a.uncommitted
}

// ClearUncommitted drops the recorded events after a successful append.
func (a *AggregateBase) ClearUncommitted() {
	a.uncommitted = nil
}

func (a *AggregateBase) markUncommitted(e Event) {
	a.uncommitted = append(a.uncommitted, e)
}
