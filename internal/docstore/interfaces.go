package docstore

import "github.com/veloshop/storefront/internal/catalog"

// ReadOnlyStore is the minimal store API for read-only handlers.
type ReadOnlyStore interface {
	Snapshot() (catalog.StoreDocument, error)
}

// MutableStore is the store API needed by write handlers.
type MutableStore interface {
	ReadOnlyStore
	Mutate(fn func(*catalog.StoreDocument) error) (catalog.StoreDocument, error)
}

// PersistableStore is the store API needed by the persistence scheduler.
type PersistableStore interface {
	IsDirty() bool
	Snapshot() (catalog.StoreDocument, error)
	ClearDirty()
	SetLastUpdate(ts int64)
}

// AppStore is the store contract the application container exposes.
// Intentionally broad: it supports handlers, the persistence scheduler
// and the data file watcher.
type AppStore interface {
	MutableStore
	PersistableStore
	GetLastUpdate() int64
	Replace(doc catalog.StoreDocument) error
	MarkDirty()
}
