package modbus

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gridtie/modbus/packet"
)

// requestBuilder holds the per-protocol request constructors a Client needs to expose the eight
// public operations below. NewTCPClientWithConfig/NewRTUClientWithConfig/NewRTUTCPClientWithConfig
// each populate this with the TCP or RTU packet constructors matching their wire format - the
// convenience methods themselves stay protocol-agnostic.
type requestBuilder struct {
	readCoils              func(unitID uint8, address, quantity uint16) (packet.Request, error)
	readDiscreteInputs     func(unitID uint8, address, quantity uint16) (packet.Request, error)
	readHoldingRegisters   func(unitID uint8, address, quantity uint16) (packet.Request, error)
	readInputRegisters     func(unitID uint8, address, quantity uint16) (packet.Request, error)
	writeSingleCoil        func(unitID uint8, address uint16, state bool) (packet.Request, error)
	writeSingleRegister    func(unitID uint8, address, value uint16) (packet.Request, error)
	writeMultipleCoils     func(unitID uint8, address uint16, coils []bool) (packet.Request, error)
	writeMultipleRegisters func(unitID uint8, address uint16, data []byte) (packet.Request, error)
}

func tcpRequestBuilder() requestBuilder {
	return requestBuilder{
		readCoils: func(unitID uint8, address, quantity uint16) (packet.Request, error) {
			return packet.NewReadCoilsRequestTCP(unitID, address, quantity)
		},
		readDiscreteInputs: func(unitID uint8, address, quantity uint16) (packet.Request, error) {
			return packet.NewReadDiscreteInputsRequestTCP(unitID, address, quantity)
		},
		readHoldingRegisters: func(unitID uint8, address, quantity uint16) (packet.Request, error) {
			return packet.NewReadHoldingRegistersRequestTCP(unitID, address, quantity)
		},
		readInputRegisters: func(unitID uint8, address, quantity uint16) (packet.Request, error) {
			return packet.NewReadInputRegistersRequestTCP(unitID, address, quantity)
		},
		writeSingleCoil: func(unitID uint8, address uint16, state bool) (packet.Request, error) {
			return packet.NewWriteSingleCoilRequestTCP(unitID, address, state)
		},
		writeSingleRegister: func(unitID uint8, address, value uint16) (packet.Request, error) {
			return packet.NewWriteSingleRegisterRequestTCP(unitID, address, value)
		},
		writeMultipleCoils: func(unitID uint8, address uint16, coils []bool) (packet.Request, error) {
			return packet.NewWriteMultipleCoilsRequestTCP(unitID, address, coils)
		},
		writeMultipleRegisters: func(unitID uint8, address uint16, data []byte) (packet.Request, error) {
			return packet.NewWriteMultipleRegistersRequestTCP(unitID, address, data)
		},
	}
}

func rtuRequestBuilder() requestBuilder {
	return requestBuilder{
		readCoils: func(unitID uint8, address, quantity uint16) (packet.Request, error) {
			return packet.NewReadCoilsRequestRTU(unitID, address, quantity)
		},
		readDiscreteInputs: func(unitID uint8, address, quantity uint16) (packet.Request, error) {
			return packet.NewReadDiscreteInputsRequestRTU(unitID, address, quantity)
		},
		readHoldingRegisters: func(unitID uint8, address, quantity uint16) (packet.Request, error) {
			return packet.NewReadHoldingRegistersRequestRTU(unitID, address, quantity)
		},
		readInputRegisters: func(unitID uint8, address, quantity uint16) (packet.Request, error) {
			return packet.NewReadInputRegistersRequestRTU(unitID, address, quantity)
		},
		writeSingleCoil: func(unitID uint8, address uint16, state bool) (packet.Request, error) {
			return packet.NewWriteSingleCoilRequestRTU(unitID, address, state)
		},
		writeSingleRegister: func(unitID uint8, address, value uint16) (packet.Request, error) {
			return packet.NewWriteSingleRegisterRequestRTU(unitID, address, value)
		},
		writeMultipleCoils: func(unitID uint8, address uint16, coils []bool) (packet.Request, error) {
			return packet.NewWriteMultipleCoilsRequestRTU(unitID, address, coils)
		},
		writeMultipleRegisters: func(unitID uint8, address uint16, data []byte) (packet.Request, error) {
			return packet.NewWriteMultipleRegistersRequestRTU(unitID, address, data)
		},
	}
}

// bitsResponse is satisfied by the four read-bits response types (via the RawData method promoted
// from packet.ReadBitsResponse), letting ReadCoils/ReadDiscreteInputs stay protocol-agnostic.
type bitsResponse interface {
	RawData() []byte
}

// registersResponse is satisfied by the four read-registers response types, analogous to bitsResponse.
type registersResponse interface {
	RawData() []byte
}

func registersFromBytes(data []byte) []uint16 {
	values := make([]uint16, len(data)/2)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(data[i*2 : i*2+2])
	}
	return values
}

// ReadCoils reads quantity coil states starting at address from this client's default unit.
func (c *Client) ReadCoils(ctx context.Context, address, quantity uint16) ([]bool, error) {
	return c.ReadCoilsWithSlaveID(ctx, c.unitID, address, quantity)
}

// ReadCoilsWithSlaveID reads quantity coil states starting at address from the given unit id.
func (c *Client) ReadCoilsWithSlaveID(ctx context.Context, unitID uint8, address, quantity uint16) ([]bool, error) {
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
func (c *Client) ReadDiscreteInputs(ctx context.Context, address, quantity uint16) ([]bool, error) {
	return c.ReadDiscreteInputsWithSlaveID(ctx, c.unitID, address, quantity)
}

// ReadDiscreteInputsWithSlaveID reads quantity discrete input states starting at address from the
// given unit id.
func (c *Client) ReadDiscreteInputsWithSlaveID(ctx context.Context, unitID uint8, address, quantity uint16) ([]bool, error) {
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
func (c *Client) ReadHoldingRegisters(ctx context.Context, address, quantity uint16) ([]uint16, error) {
	return c.ReadHoldingRegistersWithSlaveID(ctx, c.unitID, address, quantity)
}

// ReadHoldingRegistersWithSlaveID reads quantity holding registers starting at address from the
// given unit id.
func (c *Client) ReadHoldingRegistersWithSlaveID(ctx context.Context, unitID uint8, address, quantity uint16) ([]uint16, error) {
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
func (c *Client) ReadInputRegisters(ctx context.Context, address, quantity uint16) ([]uint16, error) {
	return c.ReadInputRegistersWithSlaveID(ctx, c.unitID, address, quantity)
}

// ReadInputRegistersWithSlaveID reads quantity input registers starting at address from the given
// unit id.
func (c *Client) ReadInputRegistersWithSlaveID(ctx context.Context, unitID uint8, address, quantity uint16) ([]uint16, error) {
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
func (c *Client) WriteSingleCoil(ctx context.Context, address uint16, state bool) error {
	return c.WriteSingleCoilWithSlaveID(ctx, c.unitID, address, state)
}

// WriteSingleCoilWithSlaveID sets the coil at address to state on the given unit id.
func (c *Client) WriteSingleCoilWithSlaveID(ctx context.Context, unitID uint8, address uint16, state bool) error {
	req, err := c.builder.writeSingleCoil(unitID, address, state)
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, req)
	return err
}

// WriteSingleRegister sets the holding register at address to value on this client's default unit.
func (c *Client) WriteSingleRegister(ctx context.Context, address, value uint16) error {
	return c.WriteSingleRegisterWithSlaveID(ctx, c.unitID, address, value)
}

// WriteSingleRegisterWithSlaveID sets the holding register at address to value on the given unit id.
func (c *Client) WriteSingleRegisterWithSlaveID(ctx context.Context, unitID uint8, address, value uint16) error {
	req, err := c.builder.writeSingleRegister(unitID, address, value)
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, req)
	return err
}

// WriteMultipleCoils sets a run of coils starting at address on this client's default unit.
func (c *Client) WriteMultipleCoils(ctx context.Context, address uint16, coils []bool) error {
	return c.WriteMultipleCoilsWithSlaveID(ctx, c.unitID, address, coils)
}

// WriteMultipleCoilsWithSlaveID sets a run of coils starting at address on the given unit id.
func (c *Client) WriteMultipleCoilsWithSlaveID(ctx context.Context, unitID uint8, address uint16, coils []bool) error {
	req, err := c.builder.writeMultipleCoils(unitID, address, coils)
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, req)
	return err
}

// WriteMultipleRegisters sets a run of holding registers starting at address on this client's
// default unit.
func (c *Client) WriteMultipleRegisters(ctx context.Context, address uint16, values []uint16) error {
	return c.WriteMultipleRegistersWithSlaveID(ctx, c.unitID, address, values)
}

// WriteMultipleRegistersWithSlaveID sets a run of holding registers starting at address on the
// given unit id.
func (c *Client) WriteMultipleRegistersWithSlaveID(ctx context.Context, unitID uint8, address uint16, values []uint16) error {
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
