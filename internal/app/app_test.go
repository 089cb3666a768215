package app

import (
	"context"
	"testing"
	"time"

	"github.com/veloshop/storefront/internal/catalog"
	"github.com/veloshop/storefront/internal/config"
	"github.com/veloshop/storefront/internal/docstore"
	"github.com/veloshop/storefront/internal/repository"
)

// mockRepository implements repository.Repository for testing.
type mockRepository struct {
	watcherStarted bool
	watched        repository.WatchedStore
	doc            catalog.StoreDocument
}

func (m *mockRepository) Load(ctx context.Context) (*catalog.StoreDocument, error) {
	return &m.doc, nil
}

func (m *mockRepository) Save(ctx context.Context, doc *catalog.StoreDocument) error {
	if doc != nil {
		m.doc = *doc
	}
	return nil
}

func (m *mockRepository) StartWatcher(ctx context.Context, store repository.WatchedStore) error {
	m.watcherStarted = true
	m.watched = store
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Data: config.DataConfig{FilePath: "store.json", PersistInterval: time.Minute},
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	store := docstore.NewStore(catalog.StoreDocument{})
	repo := &mockRepository{}

	if _, err := New(nil, repo, store); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := New(testConfig(), nil, store); err == nil {
		t.Error("expected error for nil repository")
	}
	if _, err := New(testConfig(), repo, nil); err == nil {
		t.Error("expected error for nil store")
	}

	a, err := New(testConfig(), repo, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Shutdown()

	if a.RespCache == nil || a.Metrics == nil {
		t.Fatal("expected response cache and metrics registry to be built")
	}
}

func TestStartWatchers(t *testing.T) {
	repo := &mockRepository{}
	store := docstore.NewStore(catalog.StoreDocument{})

	a, err := New(testConfig(), repo, store)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Shutdown()

	if err := a.StartWatchers(); err != nil {
		t.Fatalf("StartWatchers: %v", err)
	}
	if !repo.watcherStarted {
		t.Fatal("expected the file watcher to be started")
	}
}

func TestWatcherReplace_ClearsResponseCache(t *testing.T) {
	repo := &mockRepository{}
	store := docstore.NewStore(catalog.StoreDocument{})

	a, err := New(testConfig(), repo, store)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Shutdown()

	if err := a.StartWatchers(); err != nil {
		t.Fatal(err)
	}

	a.RespCache.Set("products:list:", []string{"stale"})

	// Simulate the watcher picking up a newer file.
	newer := catalog.StoreDocument{Metadata: catalog.Metadata{LastUpdate: 42}}
	if err := repo.watched.Replace(newer); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if size, _ := a.RespCache.Stats(); size != 0 {
		t.Fatalf("expected response cache cleared after reload, %d entries left", size)
	}
	if store.GetLastUpdate() != 42 {
		t.Fatalf("expected store lastUpdate 42, got %d", store.GetLastUpdate())
	}
}

func TestShutdown_CancelsBaseContext(t *testing.T) {
	a, err := New(testConfig(), &mockRepository{}, docstore.NewStore(catalog.StoreDocument{}))
	if err != nil {
		t.Fatal(err)
	}

	a.Shutdown()

	select {
	case <-a.BaseCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("expected base context cancelled after Shutdown")
	}
}
