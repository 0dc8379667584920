package store

import (
	"errors"
	"sync"
)

// Sentinel errors returned by Store mutations. Registries translate these
// into their own domain errors (device.ErrDeviceNotFound, etc.).
var (
	// ErrExists is returned when inserting a key that is already present.
	ErrExists = errors.New("store: key already exists")

	// ErrNotFound is returned when the requested key is absent.
	ErrNotFound = errors.New("store: key not found")
)

// Entity is the contract stored values must satisfy. Clone must return an
// independent copy so cached state never escapes by reference.
type Entity[T any] interface {
	Key() string
	Clone() T
}

// EventKind classifies a store mutation.
type EventKind string

// Event kinds emitted on the watch stream.
const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event describes a single committed mutation. Snapshot is the full ordered
// list as of immediately after the mutation.
type Event[T Entity[T]] struct {
	Kind     EventKind
	Entity   T
	Snapshot []T
}

// Store is an ordered, keyed in-memory collection with change notification.
// The zero value is not usable; create one with New.
type Store[T Entity[T]] struct {
	mu       sync.RWMutex
	byKey    map[string]T
	order    []string
	watchers map[int]chan Event[T]
	nextID   int
}

// New creates an empty Store.
func New[T Entity[T]]() *Store[T] {
	return &Store[T]{
		byKey:    make(map[string]T),
		watchers: make(map[int]chan Event[T]),
	}
}

// Insert adds a new entity. Returns ErrExists if the key is already present;
// the existing entry is never overwritten.
func (s *Store[T]) Insert(e T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := e.Key()
	if _, ok := s.byKey[key]; ok {
		return ErrExists
	}
	s.byKey[key] = e.Clone()
	s.order = append(s.order, key)
	s.notify(EventCreated, e.Clone())
	return nil
}

// Get returns a clone of the entity with the given key.
func (s *Store[T]) Get(key string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byKey[key]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return e.Clone(), nil
}

// Has reports whether the key is present.
func (s *Store[T]) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byKey[key]
	return ok
}

// List returns clones of all entities in insertion order.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Find returns clones of all entities matching the predicate, in insertion
// order.
func (s *Store[T]) Find(match func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []T
	for _, key := range s.order {
		if e := s.byKey[key]; match(e) {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Replace swaps the stored entity for the given key. The key's position in
// the insertion order is preserved. Returns ErrNotFound if absent.
func (s *Store[T]) Replace(e T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := e.Key()
	if _, ok := s.byKey[key]; !ok {
		return ErrNotFound
	}
	s.byKey[key] = e.Clone()
	s.notify(EventUpdated, e.Clone())
	return nil
}

// Remove deletes the entity with the given key. Returns ErrNotFound if
// absent.
func (s *Store[T]) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byKey[key]
	if !ok {
		return ErrNotFound
	}
	delete(s.byKey, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.notify(EventDeleted, e.Clone())
	return nil
}

// Len returns the number of stored entities.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

// Watch registers a change subscriber. Events are delivered on the returned
// channel with the given buffer size; when the buffer is full the oldest
// pending event is dropped so writers never block. The cancel function
// unregisters the subscriber and closes the channel.
func (s *Store[T]) Watch(buffer int) (<-chan Event[T], func()) {
	if buffer < 1 {
		buffer = 1
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan Event[T], buffer)
	s.watchers[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existing, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(existing)
		}
	}
	return ch, cancel
}

// snapshotLocked clones the full ordered contents. Callers must hold at
// least a read lock.
func (s *Store[T]) snapshotLocked() []T {
	out := make([]T, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byKey[key].Clone())
	}
	return out
}

// notify fans an event out to all watchers. Callers must hold the write
// lock, which serialises events in mutation order.
func (s *Store[T]) notify(kind EventKind, e T) {
	if len(s.watchers) == 0 {
		return
	}
	ev := Event[T]{Kind: kind, Entity: e, Snapshot: s.snapshotLocked()}
	for _, ch := range s.watchers {
		for {
			select {
			case ch <- ev:
			default:
				// Buffer full: drop the oldest event and retry.
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}
