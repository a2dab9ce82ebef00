package waveform

// SetupUniform reuses existing if it is already a *Uniform[T], else
// allocates a fresh one. Either way, the timebase is copied from din and
// the revision is bumped, per spec.md §4.1 "Waveform setup helpers". If
// clear is true the sample buffer is truncated to length 0, keeping its
// backing array so repeated refreshes of similar size don't reallocate.
func SetupUniform[T any](existing Waveform, din Waveform, clear bool) *Uniform[T] {
	u, ok := existing.(*Uniform[T])
	if !ok {
		u = NewUniform[T]()
	}
	u.Timebase.CopyTimebaseFrom(din.TimebaseOf())
	u.Timebase.Bump()
	if clear {
		u.Reset()
	}
	return u
}

// SetupSparse reuses existing if it is already a *Sparse[T], else
// allocates a fresh one, copying the timebase from din and bumping the
// revision. If clear is true all three sample buffers are truncated to
// length 0.
func SetupSparse[T any](existing Waveform, din Waveform, clear bool) *Sparse[T] {
	s, ok := existing.(*Sparse[T])
	if !ok {
		s = NewSparse[T]()
	}
	s.Timebase.CopyTimebaseFrom(din.TimebaseOf())
	s.Timebase.Bump()
	if clear {
		s.Reset()
	}
	return s
}
