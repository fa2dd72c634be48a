package calendar

import (
	"context"
	"slices"
	"strconv"
	"sync"
)

var _ EventStore = (*MemoryStore)(nil)

// MemoryStore is an in-process EventStore.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
	nextID int
	err    error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Fail makes every subsequent call return err. A nil err clears the failure.
func (m *MemoryStore) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemoryStore) Insert(_ context.Context, ev Event) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}

	m.nextID++
	ev.ID = "mem-" + strconv.Itoa(m.nextID)
	m.events = append(m.events, ev)
	return ev.ID, nil
}

func (m *MemoryStore) Find(_ context.Context, q Query) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	var out []Event
	for _, ev := range m.events {
		if q.matches(ev) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Delete removes the event with id. Unknown IDs are ignored.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	m.events = slices.DeleteFunc(m.events, func(ev Event) bool { return ev.ID == id })
	return nil
}

// Events returns a copy of every stored event in insertion order.
func (m *MemoryStore) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}
