package registry

import (
	"testing"

	"github.com/ngscopeclient/scopehal-sub005/filtergraph"
)

type stubNode struct {
	filtergraph.Base
}

func newStubNode(id filtergraph.NodeID) filtergraph.Node {
	return &stubNode{Base: filtergraph.NewBase(id, filtergraph.CategoryMisc, 0)}
}

func (n *stubNode) ValidateChannel(int, filtergraph.Node, int) bool { return false }
func (n *stubNode) Refresh(*filtergraph.Graph) error                { return nil }

func init() {
	Register("__test_stub", newStubNode)
}

func TestCreateNodeAutoNames(t *testing.T) {
	ctx := NewContext()
	n1, err := ctx.CreateNode("__test_stub")
	if err != nil {
		t.Fatal(err)
	}
	n2, err := ctx.CreateNode("__test_stub")
	if err != nil {
		t.Fatal(err)
	}
	if n1.ID() != "__test_stub_0" {
		t.Errorf("n1.ID() = %q, want __test_stub_0", n1.ID())
	}
	if n2.ID() != "__test_stub_1" {
		t.Errorf("n2.ID() = %q, want __test_stub_1", n2.ID())
	}
}

func TestCreateNodeUnknownProtocol(t *testing.T) {
	ctx := NewContext()
	if _, err := ctx.CreateNode("__does_not_exist"); err == nil {
		t.Fatal("expected error for unknown protocol")
	}
}

func TestContextsDoNotShareCounters(t *testing.T) {
	a := NewContext()
	b := NewContext()
	na, _ := a.CreateNode("__test_stub")
	nb, _ := b.CreateNode("__test_stub")
	if na.ID() != nb.ID() {
		t.Errorf("expected independent contexts to both start at _0, got %q and %q", na.ID(), nb.ID())
	}
}

func TestBackgroundScopeIsIndependent(t *testing.T) {
	main := NewContext()
	main.CreateNode("__test_stub")

	bg := NewBackgroundScope()
	n, err := bg.CreateNode("__test_stub")
	if err != nil {
		t.Fatal(err)
	}
	if n.ID() != "__test_stub_0" {
		t.Errorf("background scope node ID = %q, want __test_stub_0 (independent counters)", n.ID())
	}
	if _, ok := main.Graph.Node(n.ID()); ok {
		t.Error("background scope node leaked into the main graph")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	Register("__test_stub", newStubNode)
}

func TestNamesIncludesRegistered(t *testing.T) {
	found := false
	for _, name := range Names() {
		if name == "__test_stub" {
			found = true
		}
	}
	if !found {
		t.Error("Names() does not include __test_stub")
	}
}
