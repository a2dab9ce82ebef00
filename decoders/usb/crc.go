package usb

import "github.com/snksoft/crc"

// crc5USB and crc16USB are the standard CRC-5/USB and CRC-16/USB
// parameter sets (reflected in/out, per the USB 2.0 spec's token and
// data packet CRCs). Data packets are checked with crc16USB through the
// crc library; a token's CRC5 covers 11 bits rather than whole bytes, so
// checkCRC5 computes it with its own bit loop.
var crc5USB = &crc.Parameters{
	Width:      5,
	Polynomial: 0x05,
	Init:       0x1f,
	ReflectIn:  true,
	ReflectOut: true,
	FinalXor:   0x1f,
}

var crc16USB = &crc.Parameters{
	Width:      16,
	Polynomial: 0x8005,
	Init:       0xffff,
	ReflectIn:  true,
	ReflectOut: true,
	FinalXor:   0xffff,
}

// checkCRC5 computes CRC-5/USB over the 11 token bits (all 8 bits of
// payloadBits[0], then the low 3 bits of payloadBits[1]), LSB first, and
// compares it with gotCRC.
func checkCRC5(payloadBits []byte, gotCRC byte) bool {
	crc := byte(0x1f)
	for k := 0; k < 11; k++ {
		bit := (payloadBits[k/8] >> uint(k%8)) & 1
		if (crc^bit)&1 != 0 {
			crc = (crc >> 1) ^ 0x14
		} else {
			crc >>= 1
		}
	}
	return crc^0x1f == gotCRC
}

func checkCRC16(payload []byte, gotCRC uint16) bool {
	return uint16(crc.CalculateCRC(crc16USB, payload)) == gotCRC
}
