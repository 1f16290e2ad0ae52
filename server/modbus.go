package server

import (
	"bytes"
	"context"
	"errors"

	"github.com/gridtie/modbus/packet"
)

// ModbusTCPAssembler assembles bytes read from a connection into complete Modbus TCP packets and
// calls the ModbusHandler once a full packet has arrived.
type ModbusTCPAssembler struct {
	Handler  ModbusHandler
	received bytes.Buffer
}

// ReceiveRead buffers received bytes until a full Modbus TCP packet has arrived, dispatches it to
// the handler, and returns the encoded response bytes.
func (m *ModbusTCPAssembler) ReceiveRead(ctx context.Context, received []byte, bytesRead int) (response []byte, closeConnection bool) {
	m.received.Write(received)

	n, err := packet.LooksLikeModbusTCP(m.received.Bytes())
	if errors.Is(err, packet.ErrTCPDataTooShort) {
		return nil, false // wait for more data to arrive
	} else if err != nil {
		return errorBytes(err), true // malformed MBAP header: the stream cannot be re-synchronised
	}
	if m.received.Len() < n {
		return nil, false
	}

	req, err := packet.ParseTCPRequest(m.received.Next(n))
	if err != nil {
		return errorBytes(err), false
	}

	resp, err := m.Handler.Handle(ctx, req)
	if err != nil {
		return errorBytes(err), false
	}
	if resp == nil {
		return nil, false // broadcast: no response is transmitted
	}
	return resp.Bytes(), false
}

func errorBytes(err error) []byte {
	var tcpErr *packet.ErrorParseTCP
	if errors.As(err, &tcpErr) {
		return tcpErr.Bytes()
	}
	var tcpResp *packet.ErrorResponseTCP
	if errors.As(err, &tcpResp) {
		return tcpResp.Bytes()
	}
	return packet.NewErrorParseTCP(packet.ErrUnknown, err.Error()).Bytes()
}
