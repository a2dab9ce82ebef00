// Package j1939 implements the J1939 PGN bitmask filter (spec.md
// §4.4.11), ported from
// original_source/scopeprotocols/J1939BitmaskDecoder.cpp.
package j1939

// PDUSymbolType classifies one symbol of an upstream J1939 PDU (CAN
// frame) decode: the priority/arbitration field starting a new frame,
// the matched PGN, or a payload data byte.
type PDUSymbolType int

const (
	TypePRI PDUSymbolType = iota
	TypePGN
	TypeData
)

// PDUSymbol is one symbol of the J1939 PDU stream this filter consumes.
// Data holds the PGN value for a TypePGN symbol, or the byte value
// (0-255) for a TypeData symbol.
type PDUSymbol struct {
	Type PDUSymbolType
	Data uint32
}
