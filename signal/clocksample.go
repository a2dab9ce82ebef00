package signal

import "github.com/ngscopeclient/scopehal-sub005/waveform"

// EdgeDirection selects which clock transitions drive a clock-sampling
// operation.
type EdgeDirection int

const (
	EdgeAny EdgeDirection = iota
	EdgeRising
	EdgeFalling
)

func edgeMatches(dir EdgeDirection, prev, cur bool) bool {
	switch dir {
	case EdgeRising:
		return cur && !prev
	case EdgeFalling:
		return !cur && prev
	default:
		return cur != prev
	}
}

// DataSource is satisfied by any waveform variant that can report a
// sample value of type T at an index; it's the generic data input to
// SampleOnEdges.
type DataSource[T any] interface {
	waveform.Waveform
	At(i int) T
}

// SampleOnEdges implements clock-driven resampling ("sample on edges",
// spec.md §4.1): for each clock transition matching dir, it advances a
// pointer into data to the last sample timestamped strictly before the
// edge time (a data sample timestamped exactly at the edge is not used
// for that edge), then emits (edge_time, value) into a sparse output.
// Durations are filled via the duration-fill primitive.
func SampleOnEdges[T any](data DataSource[T], clock DataSource[bool], dir EdgeDirection) *waveform.Sparse[T] {
	out := waveform.NewSparse[T]()
	out.CopyTimebaseFrom(clock.TimebaseOf())
	out.Timescale = 1 // output timestamps are already absolute femtoseconds

	clen := clock.Len()
	dlen := data.Len()
	if clen == 0 || dlen == 0 {
		return out
	}

	ndata := 0
	prev := clock.At(0)
	for i := 1; i < clen; i++ {
		cur := clock.At(i)
		if !edgeMatches(dir, prev, cur) {
			prev = cur
			continue
		}
		prev = cur

		edgeTS := clock.OffsetFS(i)
		for ndata+1 < dlen && data.OffsetFS(ndata+1) < edgeTS {
			ndata++
		}
		if ndata >= dlen {
			break
		}

		out.Offsets = append(out.Offsets, edgeTS)
		out.Samples = append(out.Samples, data.At(ndata))
	}
	out.FillDurations()
	return out
}

// SampleOnEdgesInterpolated is the analog variant of SampleOnEdges: it
// linearly interpolates the value at the fractional position of the
// clock edge within the bracketing data samples, instead of taking the
// last sample verbatim.
func SampleOnEdgesInterpolated(
	data DataSource[float32],
	clock DataSource[bool],
	dir EdgeDirection,
) *waveform.Sparse[float32] {
	out := waveform.NewSparse[float32]()
	out.CopyTimebaseFrom(clock.TimebaseOf())
	out.Timescale = 1

	clen := clock.Len()
	dlen := data.Len()
	if clen == 0 || dlen == 0 {
		return out
	}

	ndata := 0
	prev := clock.At(0)
	for i := 1; i < clen; i++ {
		cur := clock.At(i)
		if !edgeMatches(dir, prev, cur) {
			prev = cur
			continue
		}
		prev = cur

		edgeTS := clock.OffsetFS(i)
		for ndata+1 < dlen && data.OffsetFS(ndata+1) < edgeTS {
			ndata++
		}
		if ndata >= dlen {
			break
		}

		var value float32
		if ndata+1 < dlen {
			t0 := data.OffsetFS(ndata)
			t1 := data.OffsetFS(ndata + 1)
			var frac float64
			if t1 != t0 {
				frac = float64(edgeTS-t0) / float64(t1-t0)
			}
			value = InterpolateValue(data, ndata, frac)
		} else {
			value = data.At(ndata)
		}

		out.Offsets = append(out.Offsets, edgeTS)
		out.Samples = append(out.Samples, value)
	}
	out.FillDurations()
	return out
}
