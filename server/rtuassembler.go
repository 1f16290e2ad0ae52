package server

import (
	"bytes"
	"context"
	"errors"

	"github.com/gridtie/modbus/packet"
)

// RTUAssembler assembles bytes read from a TCP connection into complete Modbus RTU frames and
// calls the ModbusHandler once a full frame has arrived. Used for RTU-over-TCP: same byte layout
// and CRC as serial RTU, tunneled through a TCP connection instead of a serial port.
//
// RTU has no explicit frame-length field; frame boundaries are normally inferred from serial
// inter-character gaps, which a TCP stream does not preserve. This assembler instead derives the
// expected frame length from the function code and, for the two variable-length write requests,
// the byte count field - the same approach a receiver without hardware timing access must take.
type RTUAssembler struct {
	Handler  ModbusHandler
	received bytes.Buffer
}

var errRTUFrameTooShort = errors.New("rtu frame too short to determine length")

// ReceiveRead buffers received bytes until a full Modbus RTU frame has arrived, dispatches it to
// the handler, and returns the CRC-appended response frame.
func (m *RTUAssembler) ReceiveRead(ctx context.Context, received []byte, bytesRead int) (response []byte, closeConnection bool) {
	m.received.Write(received)

	n, err := expectedRTURequestLen(m.received.Bytes())
	if errors.Is(err, errRTUFrameTooShort) {
		return nil, false // wait for more data to arrive
	}
	if m.received.Len() < n {
		return nil, false
	}

	frame := m.received.Next(n)
	req, err := packet.ParseRTURequestWithCRC(frame)
	if err != nil {
		return rtuErrorBytes(err), false
	}

	resp, err := m.Handler.Handle(ctx, req)
	if err != nil {
		return rtuErrorBytes(err), false
	}
	if resp == nil {
		return nil, false // broadcast, or an unregistered unit id: the RTU server drops it silently
	}
	return resp.Bytes(), false
}

func rtuErrorBytes(err error) []byte {
	var rtuErr *packet.ErrorParseRTU
	if errors.As(err, &rtuErr) {
		return rtuErr.Bytes()
	}
	var rtuResp *packet.ErrorResponseRTU
	if errors.As(err, &rtuResp) {
		return rtuResp.Bytes()
	}
	return nil // CRC failures and generic I/O errors get no reply - the frame is dropped silently
}

// expectedRTURequestLen returns the total frame length (including CRC) a well-formed RTU request
// starting with data would have, once fully received. Returns errRTUFrameTooShort if not enough of
// the frame has arrived yet to tell.
func expectedRTURequestLen(data []byte) (int, error) {
	if len(data) < 2 {
		return 0, errRTUFrameTooShort
	}
	switch data[1] {
	case packet.FunctionReadCoils, packet.FunctionReadDiscreteInputs,
		packet.FunctionReadHoldingRegisters, packet.FunctionReadInputRegisters,
		packet.FunctionWriteSingleCoil, packet.FunctionWriteSingleRegister:
		return 8, nil // unit + function + 4 byte payload + 2 byte CRC
	case packet.FunctionWriteMultipleCoils, packet.FunctionWriteMultipleRegisters:
		if len(data) < 7 {
			return 0, errRTUFrameTooShort
		}
		byteCount := data[6]
		return 7 + int(byteCount) + 2, nil
	default:
		return 4, nil // unsupported function code: report IllegalFunction once unit+function+2 crc bytes are in
	}
}
