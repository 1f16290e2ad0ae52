package server

import (
	"context"
	"testing"

	"github.com/gridtie/modbus/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRTUAssembler_ReceiveRead_unregisteredUnitIsDroppedSilently(t *testing.T) {
	units := NewUnitRegistry()
	units.Add(1, NewDataImage())
	dispatcher := NewDispatcher(units, nil)

	req, err := packet.NewReadHoldingRegistersRequestRTU(99, 0, 1)
	require.NoError(t, err)

	assembler := &RTUAssembler{Handler: dispatcher}
	resp, closeConnection := assembler.ReceiveRead(context.Background(), req.Bytes(), len(req.Bytes()))

	assert.Nil(t, resp, "an unregistered unit must get no reply on the wire")
	assert.False(t, closeConnection)
}

func TestRTUAssembler_ReceiveRead_broadcastWriteProducesNoResponse(t *testing.T) {
	units := NewUnitRegistry()
	image := NewDataImage()
	units.Add(1, image)
	dispatcher := NewDispatcher(units, nil)

	req, err := packet.NewWriteSingleRegisterRequestRTU(0, 10, 0xBEEF)
	require.NoError(t, err)

	assembler := &RTUAssembler{Handler: dispatcher}
	resp, closeConnection := assembler.ReceiveRead(context.Background(), req.Bytes(), len(req.Bytes()))

	assert.Nil(t, resp)
	assert.False(t, closeConnection)

	values, err := image.ReadHoldingRegisters(10, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0xBEEF}, values)
}
