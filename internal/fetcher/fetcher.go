package fetcher

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/veloshop/storefront/internal/datastore"
	"github.com/veloshop/storefront/internal/entity"
	"github.com/veloshop/storefront/internal/logger"
	"github.com/veloshop/storefront/internal/remote"
)

// Params scope a read. A zero Params value is the canonical, unfiltered
// shape whose result is eligible to become the entity's cached baseline.
type Params struct {
	ProductID  string
	Approved   *bool
	ActiveOnly bool
	Page       int
	Limit      int
}

// Filtered reports whether any scoping parameter is set. Filtered reads are
// returned to the caller but never cached as the "all" view.
func (p Params) Filtered() bool {
	return p.ProductID != "" || p.Approved != nil || p.ActiveOnly || p.Page > 0
}

func (p Params) query() url.Values {
	q := url.Values{}
	if p.ProductID != "" {
		q.Set("productId", p.ProductID)
	}
	if p.Approved != nil {
		q.Set("approved", strconv.FormatBool(*p.Approved))
	}
	if p.ActiveOnly {
		q.Set("active", "true")
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
		if p.Limit > 0 {
			q.Set("limit", strconv.Itoa(p.Limit))
		}
	}
	return q
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSingleflight makes overlapping canonical fetches for the same entity
// share one network request instead of racing. The default keeps the
// historical duplicate-tolerant behavior, where concurrent cold reads each
// fetch and the last commit wins.
func WithSingleflight(enabled bool) Option {
	return func(c *Coordinator) { c.dedup = enabled }
}

// Coordinator decides per read whether the store already holds a valid
// value and, if not, performs the network read and commits the result.
type Coordinator struct {
	store  *datastore.Store
	client *remote.Client
	dedup  bool
	flight singleflight.Group
}

func New(store *datastore.Store, client *remote.Client, opts ...Option) *Coordinator {
	c := &Coordinator{store: store, client: client}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the entity's documents, serving the canonical shape from
// cache when it is fresh and non-empty. Filtered reads always hit the
// network and never pollute the canonical cache.
func (c *Coordinator) Fetch(ctx context.Context, name entity.Name, params Params) ([]entity.Document, error) {
	if !entity.IsKnown(name) {
		return nil, &UnknownEntityError{Name: name}
	}

	filtered := params.Filtered()
	if !filtered {
		state := c.store.State(name)
		if state.Fresh() && state.HasData() {
			logger.WithEntity("fetcher", string(name)).Trace("cache hit")
			return state.Data, nil
		}
	}

	if c.dedup && !filtered {
		docs, err, _ := c.flight.Do(string(name), func() (any, error) {
			return c.load(ctx, name, params, filtered)
		})
		if err != nil {
			return nil, err
		}
		return docs.([]entity.Document), nil
	}

	return c.load(ctx, name, params, filtered)
}

func (c *Coordinator) load(ctx context.Context, name entity.Name, params Params, filtered bool) ([]entity.Document, error) {
	c.store.BeginFetch(name)

	docs, err := c.client.List(ctx, remote.EndpointFor(name), params.query())
	if err != nil {
		c.store.FailFetch(name, err)
		return nil, err
	}

	c.store.CompleteFetch(name, docs, filtered)
	return docs, nil
}

// FetchInitial runs the bootstrap batch: products, categories and reviews,
// concurrently, each only if not already cached. The initialization flag is
// set on completion whether or not every fetch succeeded: initialization
// is "attempted", not "guaranteed complete".
func (c *Coordinator) FetchInitial(ctx context.Context) error {
	var g errgroup.Group
	for _, name := range []entity.Name{entity.Products, entity.Categories, entity.Reviews} {
		state := c.store.State(name)
		if state.Fresh() && state.HasData() {
			continue
		}
		g.Go(func() error {
			_, err := c.Fetch(ctx, name, Params{})
			return err
		})
	}

	err := g.Wait()
	c.store.SetInitialLoaded(true)
	if err != nil {
		logger.WithComponent("fetcher").Warnf("initial data load completed with error: %v", err)
	}
	return err
}

// UnknownEntityError marks a fetch for a name outside the entity registry,
// a configuration error at the call site, not a runtime condition.
type UnknownEntityError struct {
	Name entity.Name
}

func (e *UnknownEntityError) Error() string {
	return "fetch for unknown entity " + string(e.Name)
}

// IsUnknownEntity reports whether err is an UnknownEntityError.
func IsUnknownEntity(err error) bool {
	var ue *UnknownEntityError
	return errors.As(err, &ue)
}
