package filtergraph

import (
	"testing"

	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// sourceNode has no inputs and emits a fixed analog waveform, standing
// in for a digitizer channel.
type sourceNode struct {
	Base
	samples []float32
}

func newSourceNode(id NodeID, samples []float32) *sourceNode {
	n := &sourceNode{Base: NewBase(id, CategoryMisc, 0), samples: samples}
	n.AddOutput("out", "V", StreamAnalog)
	return n
}

func (n *sourceNode) ValidateChannel(int, Node, int) bool { return false }

func (n *sourceNode) Refresh(g *Graph) error {
	w := n.Output(0).Waveform
	uw, ok := w.(*waveform.UniformAnalog)
	if !ok {
		uw = waveform.NewUniform[float32]()
		n.Output(0).Waveform = uw
	}
	uw.Bump()
	uw.Samples = append(uw.Samples[:0], n.samples...)
	return nil
}

// scaleNode multiplies its single input by a fixed factor.
type scaleNode struct {
	Base
	factor float32
	runs   int
}

func newScaleNode(id NodeID, factor float32) *scaleNode {
	n := &scaleNode{Base: NewBase(id, CategoryMath, 1), factor: factor}
	n.AddOutput("out", "V", StreamAnalog)
	return n
}

func (n *scaleNode) ValidateChannel(i int, upstream Node, stream int) bool {
	return upstream.Output(stream).Type == StreamAnalog
}

func (n *scaleNode) Refresh(g *Graph) error {
	n.runs++
	in := g.InputWaveform(n, 0)
	if in == nil {
		return ErrPortUnconnected{Node: n.ID(), Port: 0}
	}
	samples, _ := waveform.AnalogSamples(in)

	w := n.Output(0).Waveform
	uw, ok := w.(*waveform.UniformAnalog)
	if !ok {
		uw = waveform.NewUniform[float32]()
		n.Output(0).Waveform = uw
	}
	uw.Bump()
	uw.Samples = uw.Samples[:0]
	for _, s := range samples {
		uw.Samples = append(uw.Samples, s*n.factor)
	}
	return nil
}

func TestRefreshAllRunsInTopoOrder(t *testing.T) {
	g := NewGraph()
	src := newSourceNode("src", []float32{1, 2, 3})
	scale := newScaleNode("scale", 2)

	if err := g.Add(src); err != nil {
		t.Fatal(err)
	}
	if err := g.Add(scale); err != nil {
		t.Fatal(err)
	}
	if err := g.Connect("scale", 0, "src", 0); err != nil {
		t.Fatal(err)
	}

	if err := g.RefreshAll(); err != nil {
		t.Fatal(err)
	}

	out := scale.Output(0).Waveform.(*waveform.UniformAnalog)
	want := []float32{2, 4, 6}
	if len(out.Samples) != len(want) {
		t.Fatalf("samples = %v, want %v", out.Samples, want)
	}
	for i := range want {
		if out.Samples[i] != want[i] {
			t.Errorf("samples[%d] = %v, want %v", i, out.Samples[i], want[i])
		}
	}
}

func TestConnectRejectsIncompatibleStream(t *testing.T) {
	g := NewGraph()
	src := newSourceNode("src", []float32{1})
	scale := newScaleNode("scale", 2)
	g.Add(src)
	g.Add(scale)

	// scale -> scale would make a digital-typed request against itself;
	// instead exercise the rejection path by asking scale to validate a
	// non-analog stream type directly.
	fakeUpstream := newSourceNode("fake", nil)
	fakeUpstream.Output(0).Type = StreamDigital
	g.Add(fakeUpstream)

	if err := g.Connect("scale", 0, "fake", 0); err == nil {
		t.Fatal("expected Connect to reject a digital stream into an analog-only port")
	}
}

func TestConnectAddsRefToUpstream(t *testing.T) {
	g := NewGraph()
	src := newSourceNode("src", []float32{1})
	scale := newScaleNode("scale", 2)
	g.Add(src)
	g.Add(scale)

	before := src.RefCount()
	if err := g.Connect("scale", 0, "src", 0); err != nil {
		t.Fatal(err)
	}
	if src.RefCount() != before+1 {
		t.Errorf("RefCount() = %d, want %d", src.RefCount(), before+1)
	}
}

func TestTopoOrderDetectsCycle(t *testing.T) {
	g := NewGraph()
	a := newScaleNode("a", 1)
	b := newScaleNode("b", 1)
	g.Add(a)
	g.Add(b)
	a.SetInput(0, "b", 0)
	b.SetInput(0, "a", 0)

	if _, err := g.TopoOrder(); err == nil {
		t.Fatal("expected cycle detection error")
	}
}

func TestRefreshUnconnectedPortErrors(t *testing.T) {
	g := NewGraph()
	scale := newScaleNode("scale", 2)
	g.Add(scale)

	if err := g.RefreshAll(); err == nil {
		t.Fatal("expected error refreshing a node with an unconnected required port")
	}
}

func TestAutoRangeFollowsWaveformOnFirstQuery(t *testing.T) {
	g := NewGraph()
	src := newSourceNode("src", []float32{0, 0, 0, 1, 1, 1})
	g.Add(src)
	if err := src.Refresh(g); err != nil {
		t.Fatal(err)
	}

	r := src.GetVoltageRange(0)
	if r <= 0 {
		t.Errorf("GetVoltageRange() = %v, want > 0", r)
	}

	src.SetVoltageRange(0, 5)
	if got := src.GetVoltageRange(0); got != 5 {
		t.Errorf("GetVoltageRange() after explicit set = %v, want 5", got)
	}
}

func TestParameterEnumRoundTrip(t *testing.T) {
	p := NewEnumParameter(0)
	p.AddEnumValue("Auto", 0)
	p.AddEnumValue("Manual", 1)

	if !p.SetEnumByName("Manual") {
		t.Fatal("SetEnumByName(Manual) failed")
	}
	if p.Int() != 1 {
		t.Errorf("Int() = %d, want 1", p.Int())
	}
	name, ok := p.EnumName()
	if !ok || name != "Manual" {
		t.Errorf("EnumName() = (%q, %v), want (Manual, true)", name, ok)
	}
}

func TestParameterVersionBumpsOnSet(t *testing.T) {
	p := NewIntParameter(0)
	v0 := p.Version()
	p.SetInt(42)
	if p.Version() == v0 {
		t.Error("Version() did not change after SetInt")
	}
}
