package repository

import (
	"context"

	"github.com/veloshop/storefront/internal/catalog"
)

// Saver persists a StoreDocument.
// Small interface used by background jobs like the persistence scheduler.
type Saver interface {
	Save(ctx context.Context, doc *catalog.StoreDocument) error
}

// Repository abstracts persistence and watching of the data file.
// JSONRepository implements this interface.
type Repository interface {
	Saver
	Load(ctx context.Context) (*catalog.StoreDocument, error)
	StartWatcher(ctx context.Context, store WatchedStore) error
}
