package i2c

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/filtergraph"
	"github.com/ngscopeclient/scopehal-sub005/packet"
	"github.com/ngscopeclient/scopehal-sub005/registry"
	"github.com/ngscopeclient/scopehal-sub005/signal"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// ProtocolName is the registry key for this decoder.
const ProtocolName = "I2C"

func init() {
	registry.Register(ProtocolName, New)
}

// Node is the graph node wrapping Decode: two digital inputs (SDA, SCL),
// one protocol-symbol output, plus the decoded packets.
type Node struct {
	filtergraph.Base
	Packets []*packet.Packet
}

// New constructs an unconnected I2C decoder node.
func New(id filtergraph.NodeID) filtergraph.Node {
	n := &Node{Base: filtergraph.NewBase(id, filtergraph.CategoryBus, 2)}
	n.AddOutput("data", "", filtergraph.StreamProtocol)
	return n
}

func (n *Node) ValidateChannel(i int, upstream filtergraph.Node, stream int) bool {
	if i >= 2 {
		return false
	}
	return upstream.Output(stream).Type == filtergraph.StreamDigital
}

func (n *Node) Refresh(g *filtergraph.Graph) error {
	sdaW := g.InputWaveform(n, 0)
	sclW := g.InputWaveform(n, 1)
	if sdaW == nil || sclW == nil {
		return filtergraph.ErrPortUnconnected{Node: n.ID(), Port: 0}
	}
	sda, ok := signal.AsDigitalSource(sdaW)
	if !ok {
		return fmt.Errorf("i2c: sda input is not a digital waveform")
	}
	scl, ok := signal.AsDigitalSource(sclW)
	if !ok {
		return fmt.Errorf("i2c: scl input is not a digital waveform")
	}

	cap, packets := Decode(sda, scl)
	cap.Bump()
	n.Packets = packets
	n.Output(0).Waveform = cap
	return nil
}

var _ waveform.Symbol = Symbol{}
