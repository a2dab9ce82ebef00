// Package registry implements the protocol-decoder registry and the
// per-run execution context of spec.md §4.3: a name->constructor table
// populated by eager registration, and a Context that owns one filter
// graph, one result cache, and the auto-naming counters for the
// decoders it creates. Tests instantiate a fresh Context and get no
// cross-contamination from any other test or run (spec.md §9).
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ngscopeclient/scopehal-sub005/filtergraph"
)

// Factory constructs one instance of a registered protocol decoder,
// bound to the given node ID.
type Factory func(id filtergraph.NodeID) filtergraph.Node

var (
	mu        sync.Mutex
	factories = make(map[string]Factory)
	order     []string
)

// Register adds a protocol decoder constructor under name. Decoder
// packages call this from an init() function, so the registry is fully
// populated before any Context is created (spec.md §4.3 "eager
// registration"). Registering the same name twice is a programming
// error and panics immediately, the same way the original's static
// registration macros abort at load time on a duplicate.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("registry: duplicate protocol registration %q", name))
	}
	factories[name] = f
	order = append(order, name)
}

// Names returns every registered protocol name in registration order.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// SortedNames returns every registered protocol name alphabetically, the
// order a UI picker would want even though Names preserves registration
// order for anything that cares about load sequence.
func SortedNames() []string {
	names := Names()
	sort.Strings(names)
	return names
}

func lookup(name string) (Factory, bool) {
	mu.Lock()
	defer mu.Unlock()
	f, ok := factories[name]
	return f, ok
}
