// Package app wires the application container: configuration, persistence,
// the document store and the response cache, plus the background jobs that
// keep them in sync. Handlers receive their dependencies from here instead
// of reaching for globals.
package app

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/veloshop/storefront/internal/catalog"
	"github.com/veloshop/storefront/internal/config"
	"github.com/veloshop/storefront/internal/docstore"
	"github.com/veloshop/storefront/internal/logger"
	"github.com/veloshop/storefront/internal/repository"
	"github.com/veloshop/storefront/internal/respcache"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config    *config.Config
	Repo      repository.Repository
	Store     docstore.AppStore
	RespCache *respcache.Cache
	Metrics   *prometheus.Registry

	BaseCtx context.Context
	Cancel  context.CancelFunc
}

// New builds the container. All dependencies are required.
func New(cfg *config.Config, repo repository.Repository, store docstore.AppStore) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if repo == nil {
		return nil, errors.New("repo is nil")
	}
	if store == nil {
		return nil, errors.New("document store is nil")
	}

	reg := prometheus.NewRegistry()
	cache := respcache.New(respcache.DefaultMaxEntries, respcache.NewMetricsHooks(reg))

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:    cfg,
		Repo:      repo,
		Store:     store,
		RespCache: cache,
		Metrics:   reg,
		BaseCtx:   ctx,
		Cancel:    cancel,
	}, nil
}

// Shutdown cancels the lifecycle context, stopping watchers and flushing
// pending writes.
func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
}

// StartWatchers starts the data file watcher and the persistence
// scheduler. The response cache is cleared whenever the file changes on
// disk so stale list responses cannot outlive a reload.
func (a *App) StartWatchers() error {
	watched := &cacheClearingStore{AppStore: a.Store, cache: a.RespCache}
	if err := a.Repo.StartWatcher(a.BaseCtx, watched); err != nil {
		return err
	}

	docstore.StartPersistenceScheduler(a.BaseCtx, a.Store, a.Repo, a.Config.Data.PersistInterval)
	logger.WithComponent("app").Debug("watchers started")
	return nil
}

// cacheClearingStore drops cached responses whenever the watcher replaces
// the document.
type cacheClearingStore struct {
	docstore.AppStore
	cache *respcache.Cache
}

func (s *cacheClearingStore) Replace(doc catalog.StoreDocument) error {
	if err := s.AppStore.Replace(doc); err != nil {
		return err
	}
	s.cache.Clear()
	return nil
}
