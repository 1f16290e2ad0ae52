package packet

// ByteOrder describes how a multi-register (32/64 bit) scalar's bytes and words are laid out on
// the wire relative to the value's natural big-endian (ABCD) representation. PLC vendors disagree
// on this, so clients must be able to pick the order a given device actually uses.
//
// Built from the same BigEndian|LittleEndian|LowWordFirst flags the rest of this package uses for
// single registers; the four named constants below are the combinations production devices use.
type ByteOrder uint8

const (
	// BigEndian stores the most significant byte of a word at the smallest address.
	BigEndian = ByteOrder(1)
	// LittleEndian stores the least significant byte of a word at the smallest address.
	LittleEndian = ByteOrder(2)
	// LowWordFirst means a double/quad register value's low-order word is transmitted first.
	// Without this flag, the high-order word is transmitted first.
	LowWordFirst = ByteOrder(4)
)

const (
	// ABCD is big-endian byte order, high word first - the value's natural big-endian representation.
	ABCD = ByteOrder(BigEndian)
	// DCBA is little-endian byte order, low word first - every byte reversed from ABCD.
	DCBA = ByteOrder(LittleEndian | LowWordFirst)
	// BADC is little-endian byte order within each word, high word first - bytes swap within each
	// word but word order is unchanged: [A,B,C,D] becomes [B,A,D,C].
	BADC = ByteOrder(LittleEndian)
	// CDAB is big-endian byte order within each word, but with the words swapped (low word first):
	// [A,B,C,D] becomes [C,D,A,B].
	CDAB = ByteOrder(BigEndian | LowWordFirst)
)

// reorderDoubleRegister rewrites a 4 byte (2 register) value from order into ABCD so the standard
// big-endian decode in Registers can be reused.
func reorderDoubleRegister(b []byte, order ByteOrder) []byte {
	a, bb, c, d := b[0], b[1], b[2], b[3]
	switch order {
	case ABCD:
		return []byte{a, bb, c, d}
	case DCBA:
		return []byte{d, c, bb, a}
	case BADC:
		return []byte{bb, a, d, c}
	case CDAB:
		return []byte{c, d, a, bb}
	default:
		return []byte{a, bb, c, d}
	}
}

// reorderQuadRegister rewrites an 8 byte (4 register) value from order into ABCD word-by-word.
// Word order reverses for CDAB and DCBA (the two orders with the low word transmitted first);
// bytes within each word swap for BADC and DCBA (the two orders with little-endian words).
func reorderQuadRegister(b []byte, order ByteOrder) []byte {
	words := [4][]byte{b[0:2], b[2:4], b[4:6], b[6:8]}
	if order == CDAB || order == DCBA {
		words[0], words[1], words[2], words[3] = words[3], words[2], words[1], words[0]
	}
	swapBytes := order == BADC || order == DCBA
	out := make([]byte, 0, 8)
	for _, w := range words {
		if swapBytes {
			out = append(out, w[1], w[0])
		} else {
			out = append(out, w[0], w[1])
		}
	}
	return out
}
