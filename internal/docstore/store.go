package docstore

import (
	"encoding/json"
	"sync"

	"github.com/veloshop/storefront/internal/catalog"
)

// Store keeps the server's in-memory copy of the storefront document. All
// handler mutations go through Mutate so the dirty flag and clone
// discipline stay in one place.
type Store struct {
	mu         sync.RWMutex
	doc        catalog.StoreDocument
	dirty      bool  // true if the store changed since last persist
	lastUpdate int64 // document's metadata.lastUpdate
}

// NewStore creates a store seeded with the loaded document.
func NewStore(doc catalog.StoreDocument) *Store {
	return &Store{doc: doc, lastUpdate: doc.Metadata.LastUpdate}
}

// MarkDirty sets the dirty flag to true.
func (s *Store) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
}

// IsDirty returns true if the store has uncommitted changes.
func (s *Store) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// ClearDirty resets the dirty flag.
func (s *Store) ClearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// GetLastUpdate returns the store's last update timestamp.
func (s *Store) GetLastUpdate() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// SetLastUpdate sets the store's last update timestamp.
func (s *Store) SetLastUpdate(ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpdate = ts
}

// Snapshot returns a deep copy of the stored document.
func (s *Store) Snapshot() (catalog.StoreDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDocument(s.doc)
}

// Replace swaps the stored document, e.g. after the data file changed on
// disk underneath us.
func (s *Store) Replace(doc catalog.StoreDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cloned, err := cloneDocument(doc)
	if err != nil {
		return err
	}
	s.doc = cloned
	s.lastUpdate = doc.Metadata.LastUpdate
	s.dirty = false

	return nil
}

// Mutate applies fn to the document under the write lock and marks the
// store dirty when fn succeeds. fn receives the live document and may edit
// it in place; the returned snapshot is a deep copy.
func (s *Store) Mutate(fn func(*catalog.StoreDocument) error) (catalog.StoreDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(&s.doc); err != nil {
		return catalog.StoreDocument{}, err
	}
	s.dirty = true

	return cloneDocument(s.doc)
}

// cloneDocument deep-copies the document to avoid shared slices between the
// store and callers.
func cloneDocument(doc catalog.StoreDocument) (catalog.StoreDocument, error) {
	bytes, err := json.Marshal(doc)
	if err != nil {
		return catalog.StoreDocument{}, err
	}
	var copy catalog.StoreDocument
	if err := json.Unmarshal(bytes, &copy); err != nil {
		return catalog.StoreDocument{}, err
	}
	return copy, nil
}
