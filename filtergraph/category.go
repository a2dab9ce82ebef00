// Package filtergraph implements the filter-graph execution model of
// spec.md §4.2-§4.3: nodes with typed input ports and output streams,
// a topological refresh walk that bumps waveform revisions, and the
// parameter/reference-counting contract every decoder node shares.
package filtergraph

// Category classifies a node for UI grouping and auto-naming, mirroring
// Filter::Category in the original scopehal sources.
type Category int

const (
	CategoryAnalysis Category = iota
	CategoryBus
	CategoryClock
	CategoryMath
	CategoryMeasurement
	CategoryMemory
	CategorySerial
	CategoryMisc
	CategoryPower
	CategoryRF
	CategoryGeneration
	CategoryExport
	CategoryOptical
)

func (c Category) String() string {
	switch c {
	case CategoryAnalysis:
		return "Analysis"
	case CategoryBus:
		return "Bus"
	case CategoryClock:
		return "Clock"
	case CategoryMath:
		return "Math"
	case CategoryMeasurement:
		return "Measurement"
	case CategoryMemory:
		return "Memory"
	case CategorySerial:
		return "Serial"
	case CategoryMisc:
		return "Misc"
	case CategoryPower:
		return "Power"
	case CategoryRF:
		return "RF"
	case CategoryGeneration:
		return "Generation"
	case CategoryExport:
		return "Export"
	case CategoryOptical:
		return "Optical"
	default:
		return "Unknown"
	}
}
