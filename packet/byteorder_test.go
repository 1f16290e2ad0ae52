package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReorderDoubleRegister(t *testing.T) {
	in := []byte{0xA, 0xB, 0xC, 0xD}

	assert.Equal(t, []byte{0xA, 0xB, 0xC, 0xD}, reorderDoubleRegister(in, ABCD))
	assert.Equal(t, []byte{0xD, 0xC, 0xB, 0xA}, reorderDoubleRegister(in, DCBA))
	assert.Equal(t, []byte{0xB, 0xA, 0xD, 0xC}, reorderDoubleRegister(in, BADC))
	assert.Equal(t, []byte{0xC, 0xD, 0xA, 0xB}, reorderDoubleRegister(in, CDAB))
}

func TestReorderDoubleRegister_isSelfInverse(t *testing.T) {
	in := []byte{0xA, 0xB, 0xC, 0xD}
	for _, order := range []ByteOrder{ABCD, DCBA, BADC, CDAB} {
		reordered := reorderDoubleRegister(in, order)
		assert.Equal(t, in, reorderDoubleRegister(reordered, order), "order %v must be its own inverse", order)
	}
}

func TestReorderQuadRegister(t *testing.T) {
	in := []byte{0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7, 0x8}

	assert.Equal(t, []byte{0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7, 0x8}, reorderQuadRegister(in, ABCD))
	assert.Equal(t, []byte{0x2, 0x1, 0x4, 0x3, 0x6, 0x5, 0x8, 0x7}, reorderQuadRegister(in, BADC))
	assert.Equal(t, []byte{0x7, 0x8, 0x5, 0x6, 0x3, 0x4, 0x1, 0x2}, reorderQuadRegister(in, CDAB))
	assert.Equal(t, []byte{0x8, 0x7, 0x6, 0x5, 0x4, 0x3, 0x2, 0x1}, reorderQuadRegister(in, DCBA))
}

func TestReorderQuadRegister_isSelfInverse(t *testing.T) {
	in := []byte{0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7, 0x8}
	for _, order := range []ByteOrder{ABCD, DCBA, BADC, CDAB} {
		reordered := reorderQuadRegister(in, order)
		assert.Equal(t, in, reorderQuadRegister(reordered, order), "order %v must be its own inverse", order)
	}
}
