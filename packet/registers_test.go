package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisters_Uint16RoundTrip(t *testing.T) {
	data := PutUint16(0xBEEF)
	registers, err := NewRegisters(data, 100)
	require.NoError(t, err)

	v, err := registers.Uint16(100)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), v)
}

func TestRegisters_Int16RoundTrip(t *testing.T) {
	data := PutInt16(-1234)
	registers, err := NewRegisters(data, 0)
	require.NoError(t, err)

	v, err := registers.Int16(0)
	require.NoError(t, err)
	assert.Equal(t, int16(-1234), v)
}

func TestRegisters_Uint8RoundTrip(t *testing.T) {
	registers, err := NewRegisters(PutUint8(0xAB, true), 0)
	require.NoError(t, err)
	v, err := registers.Uint8(0, true)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), v)

	registers, err = NewRegisters(PutUint8(0xCD, false), 0)
	require.NoError(t, err)
	v, err = registers.Uint8(0, false)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xCD), v)
}

func TestRegisters_PutBitRoundTrip(t *testing.T) {
	for _, bit := range []uint8{0, 7, 8, 15} {
		data, err := PutBit(bit, true)
		require.NoError(t, err)
		registers, err := NewRegisters(data, 0)
		require.NoError(t, err)

		set, err := registers.Bit(0, bit)
		require.NoError(t, err)
		assert.True(t, set, "bit %d", bit)

		for _, other := range []uint8{0, 7, 8, 15} {
			if other == bit {
				continue
			}
			unset, err := registers.Bit(0, other)
			require.NoError(t, err)
			assert.False(t, unset, "bit %d must stay clear when only bit %d is set", other, bit)
		}
	}

	data, err := PutBit(3, false)
	require.NoError(t, err)
	registers, err := NewRegisters(data, 0)
	require.NoError(t, err)
	set, err := registers.Bit(0, 3)
	require.NoError(t, err)
	assert.False(t, set)
}

func TestRegisters_Uint32RoundTrip(t *testing.T) {
	registers, err := NewRegisters(PutUint32(0xDEADBEEF), 0)
	require.NoError(t, err)
	v, err := registers.Uint32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v)
}

func TestRegisters_Uint32WithByteOrderRoundTrip(t *testing.T) {
	for _, order := range []ByteOrder{ABCD, DCBA, BADC, CDAB} {
		registers, err := NewRegisters(PutUint32WithByteOrder(0xDEADBEEF, order), 0)
		require.NoError(t, err)
		v, err := registers.Uint32WithByteOrder(0, order)
		require.NoError(t, err)
		assert.Equal(t, uint32(0xDEADBEEF), v, "order %v", order)
	}
}

func TestRegisters_Int32WithByteOrderRoundTrip(t *testing.T) {
	for _, order := range []ByteOrder{ABCD, DCBA, BADC, CDAB} {
		registers, err := NewRegisters(PutInt32WithByteOrder(-123456, order), 0)
		require.NoError(t, err)
		v, err := registers.Int32WithByteOrder(0, order)
		require.NoError(t, err)
		assert.Equal(t, int32(-123456), v, "order %v", order)
	}
}

func TestRegisters_Uint64WithByteOrderRoundTrip(t *testing.T) {
	for _, order := range []ByteOrder{ABCD, DCBA, BADC, CDAB} {
		registers, err := NewRegisters(PutUint64WithByteOrder(0x0102030405060708, order), 0)
		require.NoError(t, err)
		v, err := registers.Uint64WithByteOrder(0, order)
		require.NoError(t, err)
		assert.Equal(t, uint64(0x0102030405060708), v, "order %v", order)
	}
}

func TestRegisters_Int64WithByteOrderRoundTrip(t *testing.T) {
	for _, order := range []ByteOrder{ABCD, DCBA, BADC, CDAB} {
		registers, err := NewRegisters(PutInt64WithByteOrder(-987654321, order), 0)
		require.NoError(t, err)
		v, err := registers.Int64WithByteOrder(0, order)
		require.NoError(t, err)
		assert.Equal(t, int64(-987654321), v, "order %v", order)
	}
}

func TestRegisters_Float32WithByteOrderRoundTrip(t *testing.T) {
	for _, order := range []ByteOrder{ABCD, DCBA, BADC, CDAB} {
		registers, err := NewRegisters(PutFloat32WithByteOrder(3.14159, order), 0)
		require.NoError(t, err)
		v, err := registers.Float32WithByteOrder(0, order)
		require.NoError(t, err)
		assert.InDelta(t, float32(3.14159), v, 0.00001, "order %v", order)
	}
}

func TestRegisters_Float64WithByteOrderRoundTrip(t *testing.T) {
	for _, order := range []ByteOrder{ABCD, DCBA, BADC, CDAB} {
		registers, err := NewRegisters(PutFloat64WithByteOrder(2.718281828, order), 0)
		require.NoError(t, err)
		v, err := registers.Float64WithByteOrder(0, order)
		require.NoError(t, err)
		assert.InDelta(t, 2.718281828, v, 0.000000001, "order %v", order)
	}
}

func TestRegisters_StringRoundTrip(t *testing.T) {
	registers, err := NewRegisters(PutString("hello", 10), 0)
	require.NoError(t, err)
	s, err := registers.String(0, 10)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}
