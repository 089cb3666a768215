package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/veloshop/storefront/internal/config"
	"github.com/veloshop/storefront/internal/datastore"
	"github.com/veloshop/storefront/internal/entity"
	"github.com/veloshop/storefront/internal/fetcher"
	"github.com/veloshop/storefront/internal/remote"
)

// session bundles the client data layer for one CLI invocation: the cache
// store, the remote client and the fetch coordinator.
type session struct {
	store  *datastore.Store
	client *remote.Client
	coord  *fetcher.Coordinator
	graph  *entity.Graph
}

type rootOptions struct {
	baseURL string
	timeout time.Duration
	dedup   bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "storectl",
		Short:         "Inspect and mutate storefront collections from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "API base URL (defaults to remote.base_url from config)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "request timeout (defaults to remote.request_timeout from config)")
	cmd.PersistentFlags().BoolVar(&opts.dedup, "dedup", false, "collapse concurrent fetches for the same collection")

	cmd.AddCommand(
		newListCommand(opts),
		newGetCommand(opts),
		newCreateCommand(opts),
		newUpdateCommand(opts),
		newDeleteCommand(opts),
		newRefreshCommand(opts),
	)
	return cmd
}

// newSession builds a fresh client data layer; CLI runs are one-shot, so
// each invocation starts with a cold cache.
func newSession(opts *rootOptions) (*session, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	baseURL := opts.baseURL
	if baseURL == "" {
		baseURL = cfg.Remote.BaseURL
	}
	timeout := opts.timeout
	if timeout <= 0 {
		timeout = cfg.Remote.RequestTimeout
	}

	store := datastore.NewStore()
	client := remote.NewClient(baseURL, timeout)

	coord := fetcher.New(store, client,
		fetcher.WithSingleflight(opts.dedup || cfg.Remote.DedupFetches))

	return &session{
		store:  store,
		client: client,
		coord:  coord,
		graph:  entity.DefaultGraph(),
	}, nil
}
