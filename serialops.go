package modbus

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gridtie/modbus/packet"
)

// ReadCoils reads quantity coil states starting at address from this client's default unit.
func (c *SerialClient) ReadCoils(ctx context.Context, address, quantity uint16) ([]bool, error) {
	return c.ReadCoilsWithSlaveID(ctx, c.unitID, address, quantity)
}

// ReadCoilsWithSlaveID reads quantity coil states starting at address from the given unit id.
func (c *SerialClient) ReadCoilsWithSlaveID(ctx context.Context, unitID uint8, address, quantity uint16) ([]bool, error) {
	req, err := c.builder.readCoils(unitID, address, quantity)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	bits, ok := resp.(bitsResponse)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected response type %T for read coils", ErrProtocolError, resp)
	}
	return packet.BytesToCoils(bits.RawData(), quantity), nil
}

// ReadDiscreteInputs reads quantity discrete input states starting at address from this client's
// default unit.
func (c *SerialClient) ReadDiscreteInputs(ctx context.Context, address, quantity uint16) ([]bool, error) {
	return c.ReadDiscreteInputsWithSlaveID(ctx, c.unitID, address, quantity)
}

// ReadDiscreteInputsWithSlaveID reads quantity discrete input states starting at address from the
// given unit id.
func (c *SerialClient) ReadDiscreteInputsWithSlaveID(ctx context.Context, unitID uint8, address, quantity uint16) ([]bool, error) {
	req, err := c.builder.readDiscreteInputs(unitID, address, quantity)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	bits, ok := resp.(bitsResponse)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected response type %T for read discrete inputs", ErrProtocolError, resp)
	}
	return packet.BytesToCoils(bits.RawData(), quantity), nil
}

// ReadHoldingRegisters reads quantity holding registers starting at address from this client's
// default unit.
func (c *SerialClient) ReadHoldingRegisters(ctx context.Context, address, quantity uint16) ([]uint16, error) {
	return c.ReadHoldingRegistersWithSlaveID(ctx, c.unitID, address, quantity)
}

// ReadHoldingRegistersWithSlaveID reads quantity holding registers starting at address from the
// given unit id.
func (c *SerialClient) ReadHoldingRegistersWithSlaveID(ctx context.Context, unitID uint8, address, quantity uint16) ([]uint16, error) {
	req, err := c.builder.readHoldingRegisters(unitID, address, quantity)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	regs, ok := resp.(registersResponse)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected response type %T for read holding registers", ErrProtocolError, resp)
	}
	return registersFromBytes(regs.RawData()), nil
}

// ReadInputRegisters reads quantity input registers starting at address from this client's default
// unit.
func (c *SerialClient) ReadInputRegisters(ctx context.Context, address, quantity uint16) ([]uint16, error) {
	return c.ReadInputRegistersWithSlaveID(ctx, c.unitID, address, quantity)
}

// ReadInputRegistersWithSlaveID reads quantity input registers starting at address from the given
// unit id.
func (c *SerialClient) ReadInputRegistersWithSlaveID(ctx context.Context, unitID uint8, address, quantity uint16) ([]uint16, error) {
	req, err := c.builder.readInputRegisters(unitID, address, quantity)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	regs, ok := resp.(registersResponse)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected response type %T for read input registers", ErrProtocolError, resp)
	}
	return registersFromBytes(regs.RawData()), nil
}

// WriteSingleCoil sets the coil at address to state on this client's default unit.
func (c *SerialClient) WriteSingleCoil(ctx context.Context, address uint16, state bool) error {
	return c.WriteSingleCoilWithSlaveID(ctx, c.unitID, address, state)
}

// WriteSingleCoilWithSlaveID sets the coil at address to state on the given unit id.
func (c *SerialClient) WriteSingleCoilWithSlaveID(ctx context.Context, unitID uint8, address uint16, state bool) error {
	req, err := c.builder.writeSingleCoil(unitID, address, state)
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, req)
	return err
}

// WriteSingleRegister sets the holding register at address to value on this client's default unit.
func (c *SerialClient) WriteSingleRegister(ctx context.Context, address, value uint16) error {
	return c.WriteSingleRegisterWithSlaveID(ctx, c.unitID, address, value)
}

// WriteSingleRegisterWithSlaveID sets the holding register at address to value on the given unit id.
func (c *SerialClient) WriteSingleRegisterWithSlaveID(ctx context.Context, unitID uint8, address, value uint16) error {
	req, err := c.builder.writeSingleRegister(unitID, address, value)
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, req)
	return err
}

// WriteMultipleCoils sets a run of coils starting at address on this client's default unit.
func (c *SerialClient) WriteMultipleCoils(ctx context.Context, address uint16, coils []bool) error {
	return c.WriteMultipleCoilsWithSlaveID(ctx, c.unitID, address, coils)
}

// WriteMultipleCoilsWithSlaveID sets a run of coils starting at address on the given unit id.
func (c *SerialClient) WriteMultipleCoilsWithSlaveID(ctx context.Context, unitID uint8, address uint16, coils []bool) error {
	req, err := c.builder.writeMultipleCoils(unitID, address, coils)
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, req)
	return err
}

// WriteMultipleRegisters sets a run of holding registers starting at address on this client's
// default unit.
func (c *SerialClient) WriteMultipleRegisters(ctx context.Context, address uint16, values []uint16) error {
	return c.WriteMultipleRegistersWithSlaveID(ctx, c.unitID, address, values)
}

// WriteMultipleRegistersWithSlaveID sets a run of holding registers starting at address on the
// given unit id.
func (c *SerialClient) WriteMultipleRegistersWithSlaveID(ctx context.Context, unitID uint8, address uint16, values []uint16) error {
	data := make([]byte, len(values)*2)
	for i, v := range values {
		binary.BigEndian.PutUint16(data[i*2:i*2+2], v)
	}
	req, err := c.builder.writeMultipleRegisters(unitID, address, data)
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, req)
	return err
}
