package waveform

import "errors"

// ErrOffsetsNotMonotonic is returned by Validate when a sparse waveform's
// offsets are not strictly increasing (spec.md §3.2 invariant, §8.1 #1).
var ErrOffsetsNotMonotonic = errors.New("waveform: offsets not strictly increasing")

// ErrLengthMismatch is returned by Validate when the sample, offset and
// duration slices of a sparse waveform disagree in length (spec.md §3.2
// invariant, §8.1 #2).
var ErrLengthMismatch = errors.New("waveform: samples/offsets/durations length mismatch")

// ErrDurationTooShort is returned when a sparse duration is less than 1.
var ErrDurationTooShort = errors.New("waveform: duration must be >= 1")

// ErrOverlap is returned when two consecutive sparse samples overlap in time.
var ErrOverlap = errors.New("waveform: consecutive samples overlap")

// Validate checks the sparse invariants from spec.md §3.2. It is used in
// tests and may be called defensively by decoders emitting sparse output.
func (w *Sparse[T]) Validate() error {
	n := len(w.Samples)
	if len(w.Offsets) != n || len(w.Durations) != n {
		return ErrLengthMismatch
	}
	for i := 0; i < n; i++ {
		if w.Durations[i] < 1 {
			return ErrDurationTooShort
		}
		if i+1 < n {
			if w.Offsets[i] >= w.Offsets[i+1] {
				return ErrOffsetsNotMonotonic
			}
			if w.Offsets[i]+w.Durations[i] > w.Offsets[i+1] {
				return ErrOverlap
			}
		}
	}
	return nil
}

// FillDurations computes Durations[i] = Offsets[i+1] - Offsets[i] for all
// but the last sample, and sets the last duration to 1, assuming a
// gapless capture (spec.md §4.1 "Duration fill", §8.2 #6).
func (w *Sparse[T]) FillDurations() {
	n := len(w.Offsets)
	if n == 0 {
		return
	}
	if cap(w.Durations) < n {
		w.Durations = make([]int64, n)
	} else {
		w.Durations = w.Durations[:n]
	}
	for i := 0; i < n-1; i++ {
		w.Durations[i] = w.Offsets[i+1] - w.Offsets[i]
	}
	w.Durations[n-1] = 1
}
