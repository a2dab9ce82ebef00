package j1939

import "github.com/ngscopeclient/scopehal-sub005/waveform"

// Decode selects pgn on a J1939 PDU stream, concatenates the matched
// frame's payload bytes MSB-first, and emits a boolean waveform: an
// initial sample holding initial, then one sample per frame of that PGN,
// true when its payload satisfies (payload & mask) == pattern and false
// otherwise. Each sample starts at its frame and holds until the next
// frame of that PGN (or the last input symbol), so output sample
// boundaries align with frame boundaries (spec.md §4.4.11), ported from
// J1939BitmaskDecoder::Refresh.
func Decode(pdu *waveform.Sparse[PDUSymbol], pgn uint32, mask, pattern uint64, initial bool) *waveform.Sparse[bool] {
	out := waveform.NewSparse[bool]()
	out.CopyTimebaseFrom(&pdu.Timebase)

	n := pdu.Len()
	if n == 0 {
		return out
	}

	out.Append(0, 0, initial)

	const (
		stateIdle = iota
		stateData
	)
	state := stateIdle
	var frameStart int64
	var payload uint64

	for i := 0; i < n; i++ {
		s := pdu.Samples[i]

		switch state {
		case stateIdle:
			if s.Type == TypePGN && uint32(s.Data) == pgn {
				frameStart = pdu.Offsets[i]
				payload = 0
				state = stateData
			}

		case stateData:
			switch s.Type {
			case TypeData:
				payload = (payload << 8) | uint64(byte(s.Data))
				last := len(out.Offsets) - 1
				out.Durations[last] = frameStart - out.Offsets[last]

			case TypePRI:
				out.Append(frameStart, 0, (payload&mask) == pattern)
				state = stateIdle
			}
		}

		if s.Type == TypePRI {
			state = stateIdle
		}
	}

	last := len(out.Offsets) - 1
	out.Durations[last] = pdu.Offsets[n-1] - out.Offsets[last]

	return out
}
