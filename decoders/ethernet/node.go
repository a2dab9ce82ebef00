package ethernet

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/decoders/ibm8b10b"
	"github.com/ngscopeclient/scopehal-sub005/filtergraph"
	"github.com/ngscopeclient/scopehal-sub005/packet"
	"github.com/ngscopeclient/scopehal-sub005/registry"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

const (
	PageProtocolName  = "Ethernet Autonegotiation Page"
	BaseXProtocolName = "Ethernet Base-X Autonegotiation"
)

func init() {
	registry.Register(PageProtocolName, NewPageNode)
	registry.Register(BaseXProtocolName, NewBaseXNode)
}

// PageNode wraps DecodePage: a twisted-pair FLP codeword stream -> page
// symbols, plus the recognized base/message/ack/unformatted packets.
type PageNode struct {
	filtergraph.Base
	Packets []*packet.Packet
}

func NewPageNode(id filtergraph.NodeID) filtergraph.Node {
	n := &PageNode{Base: filtergraph.NewBase(id, filtergraph.CategoryBus, 1)}
	n.AddOutput("data", "", filtergraph.StreamProtocol)
	return n
}

func (n *PageNode) ValidateChannel(i int, upstream filtergraph.Node, stream int) bool {
	if i >= 1 {
		return false
	}
	return upstream.Output(stream).Type == filtergraph.StreamProtocol
}

func (n *PageNode) Refresh(g *filtergraph.Graph) error {
	w := g.InputWaveform(n, 0)
	if w == nil {
		return filtergraph.ErrPortUnconnected{Node: n.ID(), Port: 0}
	}
	codewords, ok := w.(*waveform.Sparse[uint16])
	if !ok {
		return fmt.Errorf("ethernet autoneg page: input is not a codeword stream")
	}

	cap, packets := DecodePage(codewords)
	cap.Bump()
	n.Packets = packets
	n.Output(0).Waveform = cap
	return nil
}

// BaseXNode wraps DecodeBaseX: an 8b/10b symbol stream -> Base-X/SGMII
// config-register symbols.
type BaseXNode struct {
	filtergraph.Base
}

func NewBaseXNode(id filtergraph.NodeID) filtergraph.Node {
	n := &BaseXNode{Base: filtergraph.NewBase(id, filtergraph.CategorySerial, 1)}
	n.AddOutput("data", "", filtergraph.StreamProtocol)
	return n
}

func (n *BaseXNode) ValidateChannel(i int, upstream filtergraph.Node, stream int) bool {
	if i >= 1 {
		return false
	}
	return upstream.Output(stream).Type == filtergraph.StreamProtocol
}

func (n *BaseXNode) Refresh(g *filtergraph.Graph) error {
	w := g.InputWaveform(n, 0)
	if w == nil {
		return filtergraph.ErrPortUnconnected{Node: n.ID(), Port: 0}
	}
	din, ok := w.(*waveform.Sparse[ibm8b10b.Symbol])
	if !ok {
		return fmt.Errorf("ethernet base-x autoneg: input is not an 8b/10b symbol stream")
	}

	cap := DecodeBaseX(din)
	cap.Bump()
	n.Output(0).Waveform = cap
	return nil
}
