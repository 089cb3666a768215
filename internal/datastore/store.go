package datastore

import (
	"sync"
	"time"

	"github.com/veloshop/storefront/internal/entity"
	"github.com/veloshop/storefront/internal/logger"
)

// Record is the externally visible state of one cached entity.
// LastFetched == nil means "must fetch on next read"; a non-nil value means
// the cache is valid indefinitely until an explicit invalidation. There is
// no TTL.
type Record struct {
	Data        []entity.Document
	IsLoading   bool
	Err         error
	LastFetched *time.Time
}

// HasData reports whether the record holds at least one document.
func (r Record) HasData() bool {
	return len(r.Data) > 0
}

// Fresh reports whether the cached data is currently authoritative.
func (r Record) Fresh() bool {
	return r.LastFetched != nil
}

type record struct {
	data        []entity.Document
	isLoading   bool
	err         error
	lastFetched *time.Time
}

// Store holds the current known state of every entity and exposes the only
// write entry points allowed to touch it. It is constructed explicitly and
// injected; there is no package-level instance.
type Store struct {
	mu            sync.RWMutex
	records       map[entity.Name]*record
	initialLoaded bool
	watchers      map[entity.Name][]chan Record
}

// NewStore creates a store with every known entity in its initial state:
// empty data, not loading, no error, never fetched.
func NewStore() *Store {
	s := &Store{
		records:  make(map[entity.Name]*record, len(entity.All())),
		watchers: make(map[entity.Name][]chan Record),
	}
	for _, n := range entity.All() {
		s.records[n] = &record{}
	}
	return s
}

// rec returns the record for a known entity, or nil after logging loudly.
// A malformed name is a programming error, not a recoverable condition.
func (s *Store) rec(name entity.Name) *record {
	r, ok := s.records[name]
	if !ok {
		logger.WithEntity("datastore", string(name)).Error("operation on unknown entity; check the entity registry")
		return nil
	}
	return r
}

// State returns a copy of the entity's current record. Data is deep-copied
// so callers can never mutate cached state. Unknown names return a zero
// Record.
func (s *Store) State(name entity.Name) Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := s.rec(name)
	if r == nil {
		return Record{}
	}
	return r.snapshot()
}

func (r *record) snapshot() Record {
	out := Record{
		Data:      entity.CloneAll(r.data),
		IsLoading: r.isLoading,
		Err:       r.err,
	}
	if r.lastFetched != nil {
		t := *r.lastFetched
		out.LastFetched = &t
	}
	return out
}

// BeginFetch marks the entity as loading and clears any previous fetch
// error. Idempotent while a fetch is already in flight.
func (s *Store) BeginFetch(name entity.Name) {
	s.mutate(name, func(r *record) {
		r.isLoading = true
		r.err = nil
	})
}

// CompleteFetch commits a finished fetch. When partial is true the result
// came from a filtered read and must not become the canonical cache: only
// the loading flag is cleared. When partial is false the data overwrites
// the canonical payload and LastFetched is stamped.
func (s *Store) CompleteFetch(name entity.Name, docs []entity.Document, partial bool) {
	s.mutate(name, func(r *record) {
		r.isLoading = false
		if partial {
			return
		}
		r.data = entity.CloneAll(docs)
		now := time.Now()
		r.lastFetched = &now
		r.err = nil
	})
}

// FailFetch records a fetch failure. Stale-but-present data is kept: a
// transient error must not blank the UI.
func (s *Store) FailFetch(name entity.Name, err error) {
	s.mutate(name, func(r *record) {
		r.isLoading = false
		r.err = err
	})
}

// Invalidate marks exactly this entity as stale. Data is kept so readers
// can keep showing last-known values while a refetch is pending; no fetch
// is triggered here.
func (s *Store) Invalidate(name entity.Name) {
	s.mutate(name, func(r *record) {
		r.lastFetched = nil
	})
}

// InvalidateAll resets every entity's freshness marker and the global
// initialization flag. This is the only full-cache reset path.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	var notify []func()
	for name, r := range s.records {
		r.lastFetched = nil
		notify = append(notify, s.notifyLocked(name, r.snapshot()))
	}
	s.initialLoaded = false
	s.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
}

// UpsertOne splices a single document into the entity's data by identity,
// replacing a match or appending. LastFetched is untouched: this is a
// low-latency local reflection, not an authoritative fetch.
func (s *Store) UpsertOne(name entity.Name, doc entity.Document) {
	doc = entity.Normalize(doc.Clone())
	id := doc.ID()
	s.mutate(name, func(r *record) {
		for i, existing := range r.data {
			if id != "" && existing.ID() == id {
				r.data[i] = doc
				return
			}
		}
		r.data = append(r.data, doc)
	})
}

// RemoveOne filters the document with the given identity out of the
// entity's data. LastFetched is untouched.
func (s *Store) RemoveOne(name entity.Name, id string) {
	s.mutate(name, func(r *record) {
		kept := r.data[:0]
		for _, existing := range r.data {
			if existing.ID() != id {
				kept = append(kept, existing)
			}
		}
		r.data = kept
	})
}

// InitialLoaded reports whether the bootstrap batch fetch has completed at
// least once.
func (s *Store) InitialLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialLoaded
}

// SetInitialLoaded flips the bootstrap flag.
func (s *Store) SetInitialLoaded(v bool) {
	s.mu.Lock()
	s.initialLoaded = v
	s.mu.Unlock()
}

// mutate applies fn under the write lock, then notifies watchers with the
// resulting snapshot outside any per-watcher blocking.
func (s *Store) mutate(name entity.Name, fn func(*record)) {
	s.mu.Lock()
	r := s.rec(name)
	if r == nil {
		s.mu.Unlock()
		return
	}
	fn(r)
	notify := s.notifyLocked(name, r.snapshot())
	s.mu.Unlock()

	notify()
}

// notifyLocked captures the watcher list for name while the lock is held
// and returns a function that performs the coalescing sends.
func (s *Store) notifyLocked(name entity.Name, snap Record) func() {
	chans := append([]chan Record(nil), s.watchers[name]...)
	return func() {
		for _, ch := range chans {
			// Coalesce: drop the stale pending snapshot, keep the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Watch subscribes to state transitions for one entity. The channel has a
// one-element buffer and is coalescing: a slow reader observes the most
// recent snapshot, not every intermediate one.
func (s *Store) Watch(name entity.Name) <-chan Record {
	ch := make(chan Record, 1)
	s.mu.Lock()
	s.watchers[name] = append(s.watchers[name], ch)
	s.mu.Unlock()
	return ch
}
