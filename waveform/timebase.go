// Package waveform defines the polymorphic waveform data model shared by
// every filter node and protocol decoder: a tagged variant over geometry
// (uniform vs. sparse) and sample type, carrying a common timebase and a
// revision counter used as a cache key.
package waveform

// Timebase is embedded in every waveform variant. It carries the
// wall-clock origin of the capture and the counters needed to convert a
// logical sample offset into an absolute femtosecond timestamp.
type Timebase struct {
	// StartTimestamp is the wall-clock origin, seconds since epoch.
	StartTimestamp int64

	// StartFs is the sub-second offset of StartTimestamp, in femtoseconds.
	StartFs int64

	// Timescale converts a logical offset into femtoseconds: fs = offset * Timescale.
	Timescale int64

	// TriggerPhase is a femtosecond bias added to every converted offset,
	// representing sub-sample alignment of the capture trigger.
	TriggerPhase int64

	// Revision is a monotonically increasing counter bumped whenever the
	// samples are modified. Cache keys include this value.
	Revision uint64
}

// CopyTimebaseFrom copies the timebase fields (everything except Revision)
// from src, the designated input waveform a decoder is deriving output
// from. Revision is left alone; the caller bumps it separately once the
// samples have actually been written.
func (t *Timebase) CopyTimebaseFrom(src *Timebase) {
	t.StartTimestamp = src.StartTimestamp
	t.StartFs = src.StartFs
	t.Timescale = src.Timescale
	t.TriggerPhase = src.TriggerPhase
}

// Bump increments the revision counter. Called after all sample writes
// complete in a refresh, per the release/acquire discipline in spec §5.
func (t *Timebase) Bump() {
	t.Revision++
}

// OffsetFS converts a uniform-geometry logical offset i into an absolute
// femtosecond timestamp.
func (t *Timebase) OffsetFS(i int64) int64 {
	return i*t.Timescale + t.TriggerPhase
}

// OffsetFSSparse converts an explicit sparse sample offset into an
// absolute femtosecond timestamp.
func (t *Timebase) OffsetFSSparse(offset int64) int64 {
	return offset*t.Timescale + t.TriggerPhase
}
