// Package ibm8b10b implements the IBM 8b/10b line code decoder (spec.md
// §4.4.5), ported from original_source/scopeprotocols/IBM8b10bDecoder.cpp.
package ibm8b10b

// code5Table maps a 6-bit received code group to its decoded 5-bit value.
var code5Table = [64]int{
	0, 0, 0, 0, 0, 23, 8, 7, //00-07
	0, 27, 4, 20, 24, 12, 28, 28, //08-0f
	0, 29, 2, 18, 31, 10, 26, 15, //10-17
	0, 6, 22, 16, 14, 1, 30, 0, //18-1f
	0, 30, 1, 17, 16, 9, 25, 0, //20-27
	15, 5, 21, 31, 13, 2, 29, 0, //28-2f
	28, 3, 19, 24, 11, 4, 27, 0, //30-37
	7, 8, 23, 0, 0, 0, 0, 0, //38-3f
}

var disp5Table = [64]int{
	0, 0, 0, 0, 0, -2, -2, 0,
	0, -2, -2, 0, -2, 0, 0, 2,
	0, -2, -2, 0, -2, 0, 0, 2,
	-2, 0, 0, 2, 0, 2, 2, 0,
	0, -2, -2, 0, -2, 0, 0, 2,
	-2, 0, 0, 2, 0, 2, 2, 0,
	-2, 0, 0, 2, 0, 2, 2, 0,
	0, 2, 2, 0, 0, 0, 0, 0,
}

var err5Table = [64]bool{
	true, true, true, true, true, false, false, false,
	true, false, false, false, false, false, false, false,
	true, false, false, false, false, false, false, false,
	false, false, false, false, false, false, false, true,
	true, false, false, false, false, false, false, false,
	false, false, false, false, false, false, false, true,
	false, false, false, false, false, false, false, true,
	false, false, false, true, true, true, true, true,
}

var ctl5Table = [64]bool{
	false, false, false, false, false, false, false, false,
	false, false, false, false, false, false, false, true,
	false, false, false, false, false, false, false, false,
	false, false, false, false, false, false, false, false,
	false, false, false, false, false, false, false, false,
	false, false, false, false, false, false, false, false,
	true, false, false, false, false, false, false, false,
	false, false, false, false, false, false, false, false,
}

var err3CtlTable = [16]bool{
	true, true, false, false, false, false, false, false,
	false, false, false, false, false, false, true, true,
}

var code3PosCtlTable = [16]int{
	0, 0, 4, 3, 0, 2, 6, 7,
	7, 1, 5, 0, 3, 4, 0, 0,
}

var code3NegCtlTable = [16]int{
	0, 0, 4, 3, 0, 5, 1, 7,
	7, 6, 2, 0, 3, 4, 0, 0,
}

var err3Table = [16]bool{
	true, false, false, false, false, false, false, false,
	false, false, false, false, false, false, false, true,
}

var code3Table = [16]int{
	0, 7, 4, 3, 0, 2, 6, 7,
	7, 1, 5, 0, 3, 4, 7, 0,
}

var disp3Table = [16]int{
	0, -2, -2, 0, -2, 0, 0, 2,
	-2, 0, 0, 2, 0, 2, 2, 0,
}

// alt3Table is true only for Dx.A7, the "alternate" 5b/6b code used by a
// handful of control characters (K.28x) that also decode as valid D
// characters.
var alt3Table = [16]bool{
	0: false, 7: true, 8: true,
}
