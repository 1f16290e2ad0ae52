package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Registers provides convenient typed access to the register data returned by a read response,
// addressed the same way the request addressed it (absolute register address, not a data offset).
type Registers struct {
	startAddress uint16
	endAddress   uint16 // end address is not addressable. endAddress-1 is last addressable register.
	data         []byte
}

// NewRegisters creates a new Registers view over data, starting at startAddress.
func NewRegisters(data []byte, startAddress uint16) (*Registers, error) {
	dataLen := len(data)
	if dataLen < 2 {
		return nil, errors.New("data length must be at least 2 bytes as 1 register is 2 bytes")
	}
	if dataLen%2 != 0 {
		return nil, errors.New("data length must be an even number of bytes as 1 register is 2 bytes")
	}
	return &Registers{
		startAddress: startAddress,
		endAddress:   startAddress + uint16(dataLen/2),
		data:         data,
	}, nil
}

func (r Registers) register(address uint16) ([]byte, error) {
	if address < r.startAddress {
		return nil, errors.New("address under startAddress bounds")
	}
	if address >= r.endAddress {
		return nil, errors.New("address over startAddress+quantity bounds")
	}
	startIndex := (address - r.startAddress) * 2
	endIndex := startIndex + 2
	return r.data[startIndex:endIndex], nil
}

func (r Registers) doubleRegister(address uint16) ([]byte, error) {
	if address < r.startAddress {
		return nil, errors.New("address under startAddress bounds")
	}
	if address > (r.endAddress - 2) {
		return nil, errors.New("address over startAddress+quantity bounds")
	}
	startIndex := (address - r.startAddress) * 2
	endIndex := startIndex + 4
	return r.data[startIndex:endIndex], nil
}

func (r Registers) quadRegister(address uint16) ([]byte, error) {
	if address < r.startAddress {
		return nil, errors.New("address under startAddress bounds")
	}
	if address > (r.endAddress - 4) {
		return nil, errors.New("address over startAddress+quantity bounds")
	}
	startIndex := (address - r.startAddress) * 2
	endIndex := startIndex + 8
	return r.data[startIndex:endIndex], nil
}

// Bit checks if the N-th bit is set in a register. Bits are counted from 0, right to left.
func (r Registers) Bit(address uint16, bit uint8) (bool, error) {
	if bit > 15 {
		return false, errors.New("bit value more than register (16bit) contains")
	}
	register, err := r.register(address)
	if err != nil {
		return false, err
	}
	nThByte := 1
	if bit > 7 {
		bit -= 8
		nThByte = 0
	}
	b := register[nThByte]
	return b&(1<<bit) != 0, nil
}

// Uint8 returns register data as uint8, from the high or low byte of the addressed register.
func (r Registers) Uint8(address uint16, fromHighByte bool) (uint8, error) {
	b, err := r.register(address)
	if err != nil {
		return 0, err
	}
	if fromHighByte {
		return b[0], nil
	}
	return b[1], nil
}

// Int8 returns register data as int8, from the high or low byte of the addressed register.
func (r Registers) Int8(address uint16, fromHighByte bool) (int8, error) {
	b, err := r.register(address)
	if err != nil {
		return 0, err
	}
	if fromHighByte {
		return int8(b[0]), nil
	}
	return int8(b[1]), nil
}

// Uint16 returns register data as uint16 from the given address (1 register, big-endian).
func (r Registers) Uint16(address uint16) (uint16, error) {
	b, err := r.register(address)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// Int16 returns register data as int16 from the given address (1 register, big-endian).
func (r Registers) Int16(address uint16) (int16, error) {
	b, err := r.register(address)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

// Uint32 returns register data as uint32 from the given address, ABCD (big-endian) byte order.
// Use Uint32WithByteOrder for other wire orderings.
func (r Registers) Uint32(address uint16) (uint32, error) {
	b, err := r.doubleRegister(address)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Uint32WithByteOrder returns register data as uint32 from the given address, reordered per order.
func (r Registers) Uint32WithByteOrder(address uint16, order ByteOrder) (uint32, error) {
	b, err := r.doubleRegister(address)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(reorderDoubleRegister(b, order)), nil
}

// Int32 returns register data as int32 from the given address, ABCD (big-endian) byte order.
func (r Registers) Int32(address uint16) (int32, error) {
	v, err := r.Uint32(address)
	return int32(v), err
}

// Int32WithByteOrder returns register data as int32 from the given address, reordered per order.
func (r Registers) Int32WithByteOrder(address uint16, order ByteOrder) (int32, error) {
	v, err := r.Uint32WithByteOrder(address, order)
	return int32(v), err
}

// Uint64 returns register data as uint64 from the given address, ABCD (big-endian) byte order.
func (r Registers) Uint64(address uint16) (uint64, error) {
	b, err := r.quadRegister(address)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// Uint64WithByteOrder returns register data as uint64 from the given address, reordered per order.
func (r Registers) Uint64WithByteOrder(address uint16, order ByteOrder) (uint64, error) {
	b, err := r.quadRegister(address)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(reorderQuadRegister(b, order)), nil
}

// Int64 returns register data as int64 from the given address, ABCD (big-endian) byte order.
func (r Registers) Int64(address uint16) (int64, error) {
	v, err := r.Uint64(address)
	return int64(v), err
}

// Int64WithByteOrder returns register data as int64 from the given address, reordered per order.
func (r Registers) Int64WithByteOrder(address uint16, order ByteOrder) (int64, error) {
	v, err := r.Uint64WithByteOrder(address, order)
	return int64(v), err
}

// Float32 returns register data as float32 from the given address, ABCD (big-endian) byte order.
func (r Registers) Float32(address uint16) (float32, error) {
	v, err := r.Uint32(address)
	return math.Float32frombits(v), err
}

// Float32WithByteOrder returns register data as float32 from the given address, reordered per order.
func (r Registers) Float32WithByteOrder(address uint16, order ByteOrder) (float32, error) {
	v, err := r.Uint32WithByteOrder(address, order)
	return math.Float32frombits(v), err
}

// Float64 returns register data as float64 from the given address, ABCD (big-endian) byte order.
func (r Registers) Float64(address uint16) (float64, error) {
	v, err := r.Uint64(address)
	return math.Float64frombits(v), err
}

// Float64WithByteOrder returns register data as float64 from the given address, reordered per order.
func (r Registers) Float64WithByteOrder(address uint16, order ByteOrder) (float64, error) {
	v, err := r.Uint64WithByteOrder(address, order)
	return math.Float64frombits(v), err
}

// String returns register data as a string starting at address, length bytes long, ASCII
// null-terminated, stored 2 characters per register with the first character in the register's
// low byte (the bytes of each register are swapped before reading).
func (r Registers) String(address uint16, length uint16) (string, error) {
	if address < r.startAddress {
		return "", errors.New("address under startAddress bounds")
	}
	startIndex := (address - r.startAddress) * 2
	endIndex := startIndex + length
	if length%2 != 0 {
		endIndex++
	}
	if int(endIndex) > len(r.data) {
		return "", errors.New("address over data bounds")
	}

	rawBytes := make([]byte, endIndex-startIndex)
	copy(rawBytes, r.data[startIndex:endIndex])
	for i := 1; i < len(rawBytes); i += 2 {
		rawBytes[i-1], rawBytes[i] = rawBytes[i], rawBytes[i-1]
	}

	builder := new(strings.Builder)
	builder.Grow(int(length))
	for _, b := range rawBytes[0:length] {
		if b == 0 {
			break
		}
		_, _ = fmt.Fprintf(builder, "%c", rune(b))
	}

	return builder.String(), nil
}

// PutBit returns a 2 byte register with the N-th bit set to value and every other bit cleared.
// Bits are counted from 0, right to left, matching Bit.
func PutBit(bit uint8, value bool) ([]byte, error) {
	if bit > 15 {
		return nil, errors.New("bit value more than register (16bit) contains")
	}
	if !value {
		return []byte{0, 0}, nil
	}
	if bit > 7 {
		return []byte{1 << (bit - 8), 0}, nil
	}
	return []byte{0, 1 << bit}, nil
}

// PutUint8 returns a 2 byte register with value placed in the high or low byte and the other
// byte cleared, matching Uint8.
func PutUint8(value uint8, toHighByte bool) []byte {
	if toHighByte {
		return []byte{value, 0}
	}
	return []byte{0, value}
}

// PutInt8 returns a 2 byte register with value placed in the high or low byte and the other
// byte cleared, matching Int8.
func PutInt8(value int8, toHighByte bool) []byte {
	return PutUint8(uint8(value), toHighByte)
}

// PutUint16 returns a 2 byte, big-endian register holding value, matching Uint16.
func PutUint16(value uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, value)
	return b
}

// PutInt16 returns a 2 byte, big-endian register holding value, matching Int16.
func PutInt16(value int16) []byte {
	return PutUint16(uint16(value))
}

// PutUint32 returns a 4 byte (2 register) value, ABCD (big-endian) byte order, matching Uint32.
// Use PutUint32WithByteOrder for other wire orderings.
func PutUint32(value uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, value)
	return b
}

// PutUint32WithByteOrder returns a 4 byte (2 register) value reordered per order, matching
// Uint32WithByteOrder. reorderDoubleRegister is its own inverse, so the same permutation used to
// decode a wire value back into ABCD also re-encodes an ABCD value into the wire order.
func PutUint32WithByteOrder(value uint32, order ByteOrder) []byte {
	return reorderDoubleRegister(PutUint32(value), order)
}

// PutInt32 returns a 4 byte (2 register) value, ABCD (big-endian) byte order, matching Int32.
func PutInt32(value int32) []byte {
	return PutUint32(uint32(value))
}

// PutInt32WithByteOrder returns a 4 byte (2 register) value reordered per order, matching
// Int32WithByteOrder.
func PutInt32WithByteOrder(value int32, order ByteOrder) []byte {
	return PutUint32WithByteOrder(uint32(value), order)
}

// PutUint64 returns an 8 byte (4 register) value, ABCD (big-endian) byte order, matching Uint64.
func PutUint64(value uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, value)
	return b
}

// PutUint64WithByteOrder returns an 8 byte (4 register) value reordered per order, matching
// Uint64WithByteOrder. reorderQuadRegister is its own inverse for the same reason
// reorderDoubleRegister is.
func PutUint64WithByteOrder(value uint64, order ByteOrder) []byte {
	return reorderQuadRegister(PutUint64(value), order)
}

// PutInt64 returns an 8 byte (4 register) value, ABCD (big-endian) byte order, matching Int64.
func PutInt64(value int64) []byte {
	return PutUint64(uint64(value))
}

// PutInt64WithByteOrder returns an 8 byte (4 register) value reordered per order, matching
// Int64WithByteOrder.
func PutInt64WithByteOrder(value int64, order ByteOrder) []byte {
	return PutUint64WithByteOrder(uint64(value), order)
}

// PutFloat32 returns a 4 byte (2 register) value, ABCD (big-endian) byte order, matching Float32.
func PutFloat32(value float32) []byte {
	return PutUint32(math.Float32bits(value))
}

// PutFloat32WithByteOrder returns a 4 byte (2 register) value reordered per order, matching
// Float32WithByteOrder.
func PutFloat32WithByteOrder(value float32, order ByteOrder) []byte {
	return PutUint32WithByteOrder(math.Float32bits(value), order)
}

// PutFloat64 returns an 8 byte (4 register) value, ABCD (big-endian) byte order, matching Float64.
func PutFloat64(value float64) []byte {
	return PutUint64(math.Float64bits(value))
}

// PutFloat64WithByteOrder returns an 8 byte (4 register) value reordered per order, matching
// Float64WithByteOrder.
func PutFloat64WithByteOrder(value float64, order ByteOrder) []byte {
	return PutUint64WithByteOrder(math.Float64bits(value), order)
}

// PutString encodes s as length bytes, ASCII, null-padded, stored 2 characters per register with
// the first character in the register's low byte - the same layout String expects to read back.
func PutString(s string, length uint16) []byte {
	paddedLen := length
	if paddedLen%2 != 0 {
		paddedLen++
	}
	raw := make([]byte, paddedLen)
	copy(raw, s)
	for i := 1; i < len(raw); i += 2 {
		raw[i-1], raw[i] = raw[i], raw[i-1]
	}
	return raw
}
