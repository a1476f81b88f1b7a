package process

import (
	"context"
	"sync"
)

// Store persists per-process workflow state: which steps completed and which
// event deliveries were already handled. Keyed by the client-supplied
// process id.
type Store interface {
	// Seen reports whether an event delivery was already fully handled for
	// this process. It never records anything itself.
	Seen(ctx context.Context, processID, eventKey string) (bool, error)
	// MarkSeen records a delivery after its handling succeeded. A delivery
	// that failed mid-handling stays unmarked and will run again when
	// redelivered.
	MarkSeen(ctx context.Context, processID, eventKey string) error
	MarkStep(ctx context.Context, processID, step string) error
	Steps(ctx context.Context, processID string) (map[string]bool, error)
	// Archive removes the process state once the order reaches a terminal
	// status.
	Archive(ctx context.Context, processID string) error
}

// MemoryStore is an in-memory Store for tests and single-node development.
type MemoryStore struct {
	mu        sync.Mutex
	processes map[string]map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{processes: make(map[string]map[string]bool)}
}

func (s *MemoryStore) Seen(ctx context.Context, processID, eventKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processes[processID]["seen:"+eventKey], nil
}

func (s *MemoryStore) MarkSeen(ctx context.Context, processID, eventKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.process(processID)["seen:"+eventKey] = true
	return nil
}

func (s *MemoryStore) MarkStep(ctx context.Context, processID, step string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.process(processID)["step:"+step] = true
	return nil
}

func (s *MemoryStore) Steps(ctx context.Context, processID string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	steps := make(map[string]bool)
	for k, v := range s.processes[processID] {
		if len(k) > 5 && k[:5] == "step:" {
			steps[k[5:]] = v
		}
	}
	return steps, nil
}

func (s *MemoryStore) Archive(ctx context.Context, processID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.processes, processID)
	return nil
}

func (s *MemoryStore) process(id string) map[string]bool {
	p, ok := s.processes[id]
	if !ok {
		p = make(map[string]bool)
		s.processes[id] = p
	}
	return p
}
