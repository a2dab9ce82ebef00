package packet

// Merger is implemented by each protocol decoder that wants to fold runs
// of consecutive packets into a single summary packet (spec.md §4.5),
// e.g. "poll with poll of same target" or "read request with its
// completion".
type Merger interface {
	// CanMerge reports whether next should be folded into the run that
	// started at first and whose most recently accepted member is
	// current. Implementations typically only look at a few header
	// fields (e.g. matching target address).
	CanMerge(first, current, next *Packet) bool

	// CreateMergedHeader builds the summary packet for a run. indexInRun
	// is the index, in the list passed to Merge, of run's first packet
	// (the packet also passed to CanMerge as first).
	CreateMergedHeader(run []*Packet, indexInRun int) *Packet
}

// Merge walks packets left-to-right, greedily folding maximal runs for
// which m.CanMerge holds between the run's first packet, its current
// tail, and the next candidate. The merge operator is associative but
// not commutative: runs are built strictly in list order (spec.md §3.4).
//
// Merge is idempotent for any well-behaved Merger: once two packets are
// folded into a summary packet, CanMerge over the merged output should
// no longer find anything to merge, so a second pass returns the same
// list (spec.md §8.3 #12).
func Merge(packets []*Packet, m Merger) []*Packet {
	n := len(packets)
	if n == 0 {
		return packets
	}

	out := make([]*Packet, 0, n)
	i := 0
	for i < n {
		runStart := i
		j := i + 1
		for j < n && m.CanMerge(packets[runStart], packets[j-1], packets[j]) {
			j++
		}
		if j-runStart == 1 {
			out = append(out, packets[runStart])
		} else {
			out = append(out, m.CreateMergedHeader(packets[runStart:j], runStart))
		}
		i = j
	}
	return out
}

// ConcatData concatenates the Data of every packet in run, the common
// building block for a decoder's CreateMergedHeader.
func ConcatData(run []*Packet) []byte {
	var total int
	for _, p := range run {
		total += len(p.Data)
	}
	out := make([]byte, 0, total)
	for _, p := range run {
		out = append(out, p.Data...)
	}
	return out
}

// SpanFS returns the offset and total length-in-femtoseconds covering
// every packet in run, from the first packet's start to the last
// packet's end.
func SpanFS(run []*Packet) (offset, length int64) {
	if len(run) == 0 {
		return 0, 0
	}
	offset = run[0].OffsetFS
	end := run[len(run)-1].End()
	return offset, end - offset
}
