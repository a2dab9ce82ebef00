package dpaux

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/filtergraph"
	"github.com/ngscopeclient/scopehal-sub005/packet"
	"github.com/ngscopeclient/scopehal-sub005/registry"
	"github.com/ngscopeclient/scopehal-sub005/signal"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

const ProtocolName = "DisplayPort AUX"

func init() { registry.Register(ProtocolName, New) }

const portAUX = 0

// DefaultUIWidthFS is the nominal AUX unit interval at the channel's
// 1 MHz rate (1 us), expressed in femtoseconds.
const DefaultUIWidthFS = 1_000_000_000

type Node struct {
	filtergraph.Base
	Packets []*packet.Packet
	UIWidth int64
}

func New(id filtergraph.NodeID) filtergraph.Node {
	n := &Node{Base: filtergraph.NewBase(id, filtergraph.CategoryBus, 1), UIWidth: DefaultUIWidthFS}
	n.AddOutput("aux", "", filtergraph.StreamProtocol)
	n.AddOutput("i2c", "", filtergraph.StreamProtocol)
	return n
}

func (n *Node) ValidateChannel(i int, upstream filtergraph.Node, stream int) bool {
	if i != portAUX {
		return false
	}
	return upstream.Output(stream).Type == filtergraph.StreamDigital
}

func (n *Node) Refresh(g *filtergraph.Graph) error {
	w := g.InputWaveform(n, portAUX)
	if w == nil {
		return filtergraph.ErrPortUnconnected{Node: n.ID(), Port: portAUX}
	}
	din, ok := signal.AsDigitalSource(w)
	if !ok {
		return fmt.Errorf("dpaux: input %d is not a digital waveform", portAUX)
	}

	auxCap, i2cCap, packets := Decode(din, n.UIWidth)
	auxCap.Bump()
	i2cCap.Bump()
	n.Packets = packets
	n.Output(0).Waveform = auxCap
	n.Output(1).Waveform = i2cCap
	return nil
}

var _ waveform.Symbol = Symbol{}
