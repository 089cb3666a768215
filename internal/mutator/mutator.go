// Package mutator implements the write path: a single authoritative write
// against the remote data source followed by cache invalidation and an
// immediate refetch of the mutated entity and everything related to it.
package mutator

import (
	"context"
	"fmt"
	"sync"

	"github.com/veloshop/storefront/internal/datastore"
	"github.com/veloshop/storefront/internal/entity"
	"github.com/veloshop/storefront/internal/fetcher"
	"github.com/veloshop/storefront/internal/logger"
	"github.com/veloshop/storefront/internal/remote"
)

// Config describes one mutation hook instance.
type Config struct {
	// Name is the target collection, either a remote collection name
	// (allProducts, heroBanners, ...) or a cache entity name. Resolved
	// through the alias table at construction.
	Name string
	// Endpoint overrides the URL path; defaults to the entity's endpoint.
	Endpoint string
	// OnSuccess, when set, receives the server's response payload after the
	// cache cascade has been triggered. Invoked at most once per operation.
	OnSuccess func(entity.Document)
}

// UpdatePayload carries one of the two accepted update shapes:
// {ID, Patch} issues an identity-in-path PUT with Patch as the body;
// a Doc carrying its own identity field issues a bare-endpoint PUT with the
// whole document as the body.
type UpdatePayload struct {
	ID    string
	Patch any
	Doc   entity.Document
}

// Hook performs create/update/delete operations for one entity. Each Hook
// tracks its own loading and error state locally, so independent mutations
// in flight never block each other; the shared store's error field is
// reserved for reads and is never written here.
type Hook struct {
	name      entity.Name
	path      string
	store     *datastore.Store
	client    *remote.Client
	coord     *fetcher.Coordinator
	graph     *entity.Graph
	onSuccess func(entity.Document)

	mu        sync.Mutex
	isLoading bool
	err       error
}

// New builds a mutation hook. An unresolvable entity name is a
// configuration error surfaced here, before any write can happen.
func New(store *datastore.Store, client *remote.Client, coord *fetcher.Coordinator, graph *entity.Graph, cfg Config) (*Hook, error) {
	name, err := entity.Resolve(cfg.Name)
	if err != nil {
		return nil, err
	}
	path := cfg.Endpoint
	if path == "" {
		path = remote.EndpointFor(name)
	}
	return &Hook{
		name:      name,
		path:      path,
		store:     store,
		client:    client,
		coord:     coord,
		graph:     graph,
		onSuccess: cfg.OnSuccess,
	}, nil
}

// Create POSTs a full record, then runs the invalidation cascade.
func (h *Hook) Create(ctx context.Context, payload any) (entity.Document, error) {
	return h.run(ctx, func() (entity.Document, error) {
		return h.client.Create(ctx, h.path, payload)
	})
}

// Update PUTs a record using whichever of the two payload shapes was
// supplied, then runs the invalidation cascade.
func (h *Hook) Update(ctx context.Context, payload UpdatePayload) (entity.Document, error) {
	return h.run(ctx, func() (entity.Document, error) {
		if payload.ID != "" && payload.Patch != nil {
			return h.client.Update(ctx, h.path, payload.ID, payload.Patch)
		}
		if payload.Doc == nil {
			return nil, fmt.Errorf("update payload needs either {ID, Patch} or a document carrying its identity")
		}
		if payload.Doc.ID() == "" {
			return nil, fmt.Errorf("update document has no identity field")
		}
		return h.client.Update(ctx, h.path, "", payload.Doc)
	})
}

// Delete removes a record by identity, then runs the invalidation cascade.
// The remote client handles the path-form/query-form fallback.
func (h *Hook) Delete(ctx context.Context, id string) (entity.Document, error) {
	return h.run(ctx, func() (entity.Document, error) {
		if id == "" {
			return nil, fmt.Errorf("delete needs an identity value")
		}
		return h.client.Delete(ctx, h.path, id)
	})
}

// IsLoading reports whether this hook has a write in flight.
func (h *Hook) IsLoading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.isLoading
}

// Err returns the last write failure, cleared at the start of each write.
func (h *Hook) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// run sequences one mutation: the network write completes before any
// invalidation or refetch is issued; on failure the cache is untouched.
func (h *Hook) run(ctx context.Context, write func() (entity.Document, error)) (entity.Document, error) {
	h.mu.Lock()
	h.isLoading = true
	h.err = nil
	h.mu.Unlock()

	resp, err := write()
	if err != nil {
		h.mu.Lock()
		h.isLoading = false
		h.err = err
		h.mu.Unlock()
		return nil, err
	}

	h.cascade(ctx)

	if h.onSuccess != nil {
		h.onSuccess(resp)
	}

	h.mu.Lock()
	h.isLoading = false
	h.mu.Unlock()
	return resp, nil
}

// cascade invalidates and immediately refetches the mutated entity, then
// every entity in its related set, so subscribers see fresh data without
// waiting for an unrelated read. Refetch failures are logged, not returned:
// the write itself succeeded and the store now carries the fetch error.
func (h *Hook) cascade(ctx context.Context) {
	targets := append([]entity.Name{h.name}, h.graph.Related(h.name)...)
	for _, name := range targets {
		h.store.Invalidate(name)
		if _, err := h.coord.Fetch(ctx, name, fetcher.Params{}); err != nil {
			logger.WithEntity("mutator", string(name)).Warnf("refetch after mutation failed: %v", err)
		}
	}
}
