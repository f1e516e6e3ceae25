// Package sevenseg decodes 4 bit values to seven segment display drives.
package sevenseg

// Segments holds the drive state of one seven segment digit.
// The segments are named clockwise from the top bar, G is the middle bar.
type Segments struct {
	A, B, C, D, E, F, G bool
}

// segment bit order in the lookup table: Gfedcba, bit 0 = A
var table = [16]byte{
	0x3F, // 0
	0x06, // 1
	0x5B, // 2
	0x4F, // 3
	0x66, // 4
	0x6D, // 5
	0x7D, // 6
	0x07, // 7
	0x7F, // 8
	0x6F, // 9
	0x77, // A
	0x7C, // b
	0x39, // C
	0x5E, // d
	0x79, // E
	0x71, // F
}

// Decode maps the low nibble of b to its hexadecimal digit pattern.
func Decode(b byte) Segments {
	p := table[b&0x0F]

	return Segments{
		A: p&0x01 > 0,
		B: p&0x02 > 0,
		C: p&0x04 > 0,
		D: p&0x08 > 0,
		E: p&0x10 > 0,
		F: p&0x20 > 0,
		G: p&0x40 > 0,
	}
}

// Byte returns both digit patterns of a byte, high nibble first.
func Byte(b byte) [2]Segments {
	return [2]Segments{Decode(b >> 4), Decode(b)}
}

// String renders the digit as the character it displays.
func (s Segments) String() string {
	p := byte(0)
	for i, on := range []bool{s.A, s.B, s.C, s.D, s.E, s.F, s.G} {
		if on {
			p |= 1 << i
		}
	}

	for n, t := range table {
		if t == p {
			return string("0123456789AbCdEF"[n])
		}
	}
	return " "
}
