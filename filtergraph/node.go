package filtergraph

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/signal"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// NodeID identifies a node within a Graph. Port connections are stored
// as (NodeID, stream index) pairs rather than pointers: a decoder can be
// constructed and unit-tested with Inputs left unconnected, and the
// graph resolves the reference only when it walks the node during
// Refresh (spec.md §9 "lift both into a single context object").
type NodeID string

// Port is one input slot of a node, naming the upstream node and which
// of its output streams feeds this slot. A zero-value Port (empty
// Upstream) is unconnected.
type Port struct {
	Upstream NodeID
	Stream   int
}

func (p Port) Connected() bool { return p.Upstream != "" }

// StreamType classifies an output stream's sample domain, used by the
// graph to validate that a port is wired to a compatible upstream
// stream (spec.md §4.2 "validate_channel").
type StreamType int

const (
	StreamAnalog StreamType = iota
	StreamDigital
	StreamProtocol
)

// Node is implemented by every filter/decoder in the graph.
type Node interface {
	ID() NodeID
	Category() Category

	NumInputs() int
	InputPort(i int) Port
	SetInput(i int, upstream NodeID, stream int)

	// ValidateChannel reports whether the stream produced by upstream at
	// the given index is an acceptable input for port i. Called by the
	// graph on Connect, mirroring Filter::ValidateChannel.
	ValidateChannel(i int, upstream Node, stream int) bool

	NumOutputs() int
	Output(i int) *OutputStream

	// Refresh recomputes this node's outputs from its current inputs.
	// g is supplied so the node can resolve its input ports to upstream
	// waveforms via g.InputWaveform.
	Refresh(g *Graph) error

	AddRef() int
	Release() int
	RefCount() int
}

// Base is embedded by every concrete node and supplies the bookkeeping
// common to all of them: identity, category, parameters, ports, output
// streams, and reference counting. Concrete nodes implement Refresh and
// ValidateChannel themselves and call Base's helpers for everything
// else.
type Base struct {
	id       NodeID
	category Category
	params   map[string]*Parameter

	inputs  []Port
	outputs []OutputStream

	refcount int
}

// NewBase constructs a Base with n unconnected input ports.
func NewBase(id NodeID, cat Category, numInputs int) Base {
	return Base{
		id:       id,
		category: cat,
		params:   make(map[string]*Parameter),
		inputs:   make([]Port, numInputs),
		refcount: 1,
	}
}

func (b *Base) ID() NodeID        { return b.id }
func (b *Base) Category() Category { return b.category }

func (b *Base) NumInputs() int       { return len(b.inputs) }
func (b *Base) InputPort(i int) Port { return b.inputs[i] }
func (b *Base) SetInput(i int, upstream NodeID, stream int) {
	b.inputs[i] = Port{Upstream: upstream, Stream: stream}
}

func (b *Base) NumOutputs() int          { return len(b.outputs) }
func (b *Base) Output(i int) *OutputStream { return &b.outputs[i] }

// AddOutput appends a new, as-yet-unpopulated output stream and returns
// its index.
func (b *Base) AddOutput(name, unit string, t StreamType) int {
	b.outputs = append(b.outputs, OutputStream{Name: name, Unit: unit, Type: t})
	return len(b.outputs) - 1
}

func (b *Base) Param(name string) (*Parameter, bool) {
	p, ok := b.params[name]
	return p, ok
}

func (b *Base) SetParam(name string, p *Parameter) {
	b.params[name] = p
}

func (b *Base) ParamNames() []string {
	names := make([]string, 0, len(b.params))
	for n := range b.params {
		names = append(names, n)
	}
	return names
}

// AddRef and Release implement the shared-filter reference counting of
// spec.md §4.2: a node may feed more than one downstream consumer, and
// the graph only tears it down once the last reference is released.
func (b *Base) AddRef() int {
	b.refcount++
	return b.refcount
}

func (b *Base) Release() int {
	b.refcount--
	return b.refcount
}

func (b *Base) RefCount() int { return b.refcount }

// GetVoltageRange returns the display range for output stream i,
// auto-scaling from the stream's current waveform the first time it is
// queried (spec.md §4.2 "get_voltage_range auto-scale"), the same
// quartile-peak heuristic signal.BaseVoltage/TopVoltage was ported from.
func (b *Base) GetVoltageRange(i int) float64 {
	os := &b.outputs[i]
	if os.vrangeSet {
		return os.vrange
	}
	os.vrange = autoRange(os.Waveform)
	return os.vrange
}

func (b *Base) SetVoltageRange(i int, v float64) {
	os := &b.outputs[i]
	os.vrange = v
	os.vrangeSet = true
}

// GetOffset returns the vertical offset for output stream i, auto-scaled
// from its waveform's midpoint the first time it is queried.
func (b *Base) GetOffset(i int) float64 {
	os := &b.outputs[i]
	if os.offsetSet {
		return os.offset
	}
	os.offset = autoOffset(os.Waveform)
	return os.offset
}

func (b *Base) SetOffset(i int, v float64) {
	os := &b.outputs[i]
	os.offset = v
	os.offsetSet = true
}

func autoRange(w waveform.Waveform) float64 {
	samples, ok := waveform.AnalogSamples(w)
	if !ok || len(samples) == 0 {
		return 1
	}
	top := signal.TopVoltage(samples)
	base := signal.BaseVoltage(samples)
	r := float64(top - base)
	if r <= 0 {
		lo := signal.MinVoltage(samples)
		hi := signal.MaxVoltage(samples)
		r = float64(hi - lo)
	}
	if r <= 0 {
		r = 1
	}
	return r * 1.1
}

func autoOffset(w waveform.Waveform) float64 {
	samples, ok := waveform.AnalogSamples(w)
	if !ok || len(samples) == 0 {
		return 0
	}
	top := signal.TopVoltage(samples)
	base := signal.BaseVoltage(samples)
	return -float64(top+base) / 2
}

// ErrPortUnconnected is returned by Refresh implementations when a
// required input port has no upstream wired.
type ErrPortUnconnected struct {
	Node NodeID
	Port int
}

func (e ErrPortUnconnected) Error() string {
	return fmt.Sprintf("node %s: input port %d is not connected", e.Node, e.Port)
}
