package cache

import "testing"

func TestGetMissThenPut(t *testing.T) {
	c := New(0)
	k := Key{Waveform: "wfm1", Revision: 3, Param: float32(1.5)}
	if _, ok := c.Get(k); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Put(k, []int64{1, 2, 3})
	v, ok := c.Get(k)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if got := v.([]int64); len(got) != 3 {
		t.Errorf("got %v", got)
	}
}

func TestDistinctRevisionsDistinctEntries(t *testing.T) {
	c := New(0)
	k1 := Key{Waveform: "wfm1", Revision: 1, Param: float32(0)}
	k2 := Key{Waveform: "wfm1", Revision: 2, Param: float32(0)}
	c.Put(k1, "a")
	c.Put(k2, "b")
	v1, _ := c.Get(k1)
	v2, _ := c.Get(k2)
	if v1 == v2 {
		t.Error("expected distinct cache entries for distinct revisions")
	}
}

func TestClear(t *testing.T) {
	c := New(0)
	c.Put(Key{Waveform: "w", Revision: 1, Param: 0}, "x")
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}
}
