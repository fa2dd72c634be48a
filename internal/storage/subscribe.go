package storage

import (
	"context"

	"myday/internal/task"
)

// Subscribe returns a channel that receives the full, ordered task collection
// immediately and again after every write. Each emission is a complete
// snapshot; a slow reader only ever sees the newest one. The channel is closed
// when ctx is done or the store is closed.
func (s *Store) Subscribe(ctx context.Context) <-chan []task.Task {
	ch := make(chan []task.Task, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	if snapshot, err := s.All(ctx); err == nil {
		ch <- snapshot
	}
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			close(sub)
			delete(s.subs, id)
		}
	}()

	return ch
}

// publish sends the current snapshot to every subscriber, replacing any
// snapshot the subscriber has not read yet.
func (s *Store) publish(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || len(s.subs) == 0 {
		return
	}

	snapshot, err := s.All(context.WithoutCancel(ctx))
	if err != nil {
		return
	}
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- cloneTasks(snapshot)
	}
}

func cloneTasks(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	copy(out, tasks)
	return out
}
