package entity

import (
	"fmt"

	"github.com/veloshop/storefront/internal/logger"
)

// Graph declares which entities' cached data go stale as a side effect of
// mutating another entity. Edges are directional and need not be symmetric.
type Graph struct {
	edges map[Name][]Name
}

// DefaultEdges is the storefront invalidation table: category product-counts
// derive from products, product ratings derive from reviews, stock and order
// history tie orders to users and products.
func DefaultEdges() map[Name][]Name {
	return map[Name][]Name{
		Products:   {Categories},
		Reviews:    {Products},
		Orders:     {Users, Products},
		Categories: {Products},
		Sales:      {Products},
		Banners:    {},
	}
}

// NewGraph validates and builds an invalidation graph. Self-edges and
// unknown entities are rejected; a missing reverse edge is only logged,
// since one-way derivation is legitimate.
func NewGraph(edges map[Name][]Name) (*Graph, error) {
	g := &Graph{edges: make(map[Name][]Name, len(edges))}
	for from, targets := range edges {
		if !IsKnown(from) {
			return nil, fmt.Errorf("invalidation graph: unknown entity %q", from)
		}
		seen := make(map[Name]struct{}, len(targets))
		for _, to := range targets {
			if !IsKnown(to) {
				return nil, fmt.Errorf("invalidation graph: %q relates to unknown entity %q", from, to)
			}
			if to == from {
				return nil, fmt.Errorf("invalidation graph: %q invalidates itself", from)
			}
			if _, dup := seen[to]; dup {
				return nil, fmt.Errorf("invalidation graph: duplicate edge %q -> %q", from, to)
			}
			seen[to] = struct{}{}
		}
		g.edges[from] = append([]Name(nil), targets...)
	}
	g.warnMissingReverse()
	return g, nil
}

// DefaultGraph builds the storefront graph; the table is static so failure
// here is a programming error.
func DefaultGraph() *Graph {
	g, err := NewGraph(DefaultEdges())
	if err != nil {
		panic(err)
	}
	return g
}

// Related returns the entities that must be invalidated together with n.
// The returned slice is a copy.
func (g *Graph) Related(n Name) []Name {
	targets, ok := g.edges[n]
	if !ok {
		return nil
	}
	return append([]Name(nil), targets...)
}

func (g *Graph) warnMissingReverse() {
	log := logger.WithComponent("entity")
	for from, targets := range g.edges {
		for _, to := range targets {
			if !g.hasEdge(to, from) {
				log.Debugf("invalidation edge %s -> %s has no reverse edge", from, to)
			}
		}
	}
}

func (g *Graph) hasEdge(from, to Name) bool {
	for _, t := range g.edges[from] {
		if t == to {
			return true
		}
	}
	return false
}
