package signal

import "github.com/ngscopeclient/scopehal-sub005/waveform"

// GetNextEventTimestamp returns the timestamp of the sample following
// index i, or fallback if i is the last sample. Ported from the
// original's Filter::GetNextEventTimestamp (spec.md §9 supplemented
// feature): callers use it together with AdvanceToTimestamp to advance a
// read pointer through a waveform in amortized O(1) total work instead
// of rescanning from the start on every query.
func GetNextEventTimestamp(w waveform.Waveform, i int, fallback int64) int64 {
	if i+1 < w.Len() {
		return w.OffsetFS(i + 1)
	}
	return fallback
}

// AdvanceToTimestamp moves *i forward while the next sample's timestamp
// is still <= timestamp, so that afterward w's sample at *i is the last
// one not after timestamp (or w.Len()-1 if the waveform ends first).
func AdvanceToTimestamp(w waveform.Waveform, i *int, timestamp int64) {
	n := w.Len()
	for *i+1 < n && w.OffsetFS(*i+1) <= timestamp {
		*i++
	}
}
