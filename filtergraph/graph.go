package filtergraph

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// Graph owns a set of nodes and the edges between their ports,
// resolving the weak (NodeID, stream) references in each Port during a
// topologically ordered refresh walk (spec.md §9). A fresh Graph can be
// instantiated per test with no cross-contamination between runs.
type Graph struct {
	nodes map[NodeID]Node
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[NodeID]Node)}
}

// Add registers a node with the graph. Returns an error if its ID is
// already taken.
func (g *Graph) Add(n Node) error {
	if _, exists := g.nodes[n.ID()]; exists {
		return fmt.Errorf("filtergraph: node id %q already registered", n.ID())
	}
	g.nodes[n.ID()] = n
	return nil
}

// Remove drops a node from the graph outright, without regard to
// refcount; callers that share nodes across multiple consumers should
// call Node.Release and only Remove once it reaches zero.
func (g *Graph) Remove(id NodeID) {
	delete(g.nodes, id)
}

func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Connect wires input port i of node dst to output stream of node
// upstreamID, validating the connection through dst.ValidateChannel.
func (g *Graph) Connect(dst NodeID, i int, upstreamID NodeID, stream int) error {
	dstNode, ok := g.nodes[dst]
	if !ok {
		return fmt.Errorf("filtergraph: unknown node %q", dst)
	}
	upstream, ok := g.nodes[upstreamID]
	if !ok {
		return fmt.Errorf("filtergraph: unknown upstream node %q", upstreamID)
	}
	if stream < 0 || stream >= upstream.NumOutputs() {
		return fmt.Errorf("filtergraph: node %q has no output stream %d", upstreamID, stream)
	}
	if !dstNode.ValidateChannel(i, upstream, stream) {
		return fmt.Errorf("filtergraph: node %q port %d rejects stream %d of %q", dst, i, stream, upstreamID)
	}
	dstNode.SetInput(i, upstreamID, stream)
	upstream.AddRef()
	return nil
}

// InputWaveform resolves input port i of n to the waveform currently
// held by its upstream node's output stream, or nil if the port is
// unconnected.
func (g *Graph) InputWaveform(n Node, i int) waveform.Waveform {
	port := n.InputPort(i)
	if !port.Connected() {
		return nil
	}
	upstream, ok := g.nodes[port.Upstream]
	if !ok {
		return nil
	}
	return upstream.Output(port.Stream).Waveform
}

// InputNode resolves input port i of n to its upstream node, or nil if
// the port is unconnected.
func (g *Graph) InputNode(n Node, i int) Node {
	port := n.InputPort(i)
	if !port.Connected() {
		return nil
	}
	upstream := g.nodes[port.Upstream]
	return upstream
}

// TopoOrder returns node IDs in an order where every node appears after
// all of its input dependencies, via Kahn's algorithm. Returns an error
// if the graph has a cycle.
func (g *Graph) TopoOrder() ([]NodeID, error) {
	indegree := make(map[NodeID]int, len(g.nodes))
	dependents := make(map[NodeID][]NodeID, len(g.nodes))
	for id := range g.nodes {
		indegree[id] = 0
	}
	for id, n := range g.nodes {
		for i := 0; i < n.NumInputs(); i++ {
			port := n.InputPort(i)
			if !port.Connected() {
				continue
			}
			if _, ok := g.nodes[port.Upstream]; !ok {
				continue
			}
			indegree[id]++
			dependents[port.Upstream] = append(dependents[port.Upstream], id)
		}
	}

	var queue []NodeID
	for id, deg := range indegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	var order []NodeID
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("filtergraph: cycle detected among %d unresolved nodes", len(g.nodes)-len(order))
	}
	return order, nil
}

// RefreshAll walks the graph in topological order, calling Refresh on
// every node exactly once. A node's waveform revision (spec.md §3.1) is
// the caller's signal that its output changed; RefreshAll does not
// itself inspect revisions, it only guarantees every upstream node runs
// before its downstream consumers.
func (g *Graph) RefreshAll() error {
	order, err := g.TopoOrder()
	if err != nil {
		return err
	}
	for _, id := range order {
		n := g.nodes[id]
		if err := n.Refresh(g); err != nil {
			return fmt.Errorf("filtergraph: refreshing %q: %w", id, err)
		}
	}
	return nil
}
