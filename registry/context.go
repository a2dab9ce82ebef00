package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/ngscopeclient/scopehal-sub005/cache"
	"github.com/ngscopeclient/scopehal-sub005/filtergraph"
)

// Context is the lifetime owner of one filter graph: the graph itself,
// the shared result cache every decoder's derived-measurement helpers
// consult, and the per-protocol instance counters used to auto-name new
// nodes "<Protocol>_<N>" (spec.md §4.3). Spec.md §9 resolves the open
// question of where these two pieces of shared state should live by
// lifting both into this single object, rather than scattering package
// globals that would leak state between independent captures.
type Context struct {
	Graph *filtergraph.Graph
	Cache *cache.Cache

	mu       sync.Mutex
	counters map[string]int
}

// NewContext returns a Context with an empty graph, a cache with
// opportunistic sweeping disabled (callers that want sweeping pass a
// positive interval to cache.New directly and assign it), and fresh
// auto-naming counters.
func NewContext() *Context {
	return &Context{
		Graph:    filtergraph.NewGraph(),
		Cache:    cache.New(0),
		counters: make(map[string]int),
	}
}

// NewBackgroundScope returns an independent Context sharing nothing with
// the caller: its own graph, cache, and naming counters. Spec.md §9
// models "background" filter instances (transient computations such as
// auto-range previews that must not pollute the visible graph or its
// node numbering) this way, as a separate scope, rather than tagging
// individual filter instances with an IsBackground flag.
func NewBackgroundScope() *Context {
	return NewContext()
}

// CreateNode constructs a new instance of the named protocol decoder,
// assigns it an auto-generated ID of the form "<Protocol>_<N>", adds it
// to c.Graph, and returns it.
func (c *Context) CreateNode(protocol string) (filtergraph.Node, error) {
	f, ok := lookup(protocol)
	if !ok {
		return nil, fmt.Errorf("registry: unknown protocol %q", protocol)
	}
	id := c.nextID(protocol)
	n := f(id)
	if err := c.Graph.Add(n); err != nil {
		return nil, err
	}
	return n, nil
}

func (c *Context) nextID(protocol string) filtergraph.NodeID {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.counters[protocol]
	c.counters[protocol] = n + 1
	return filtergraph.NodeID(fmt.Sprintf("%s_%d", protocol, n))
}

// cacheKeyTTL is the default sweep interval a long-lived interactive
// Context should use; callers that want it can replace c.Cache with
// cache.New(cacheKeyTTL).
const cacheKeyTTL = 2 * time.Second
