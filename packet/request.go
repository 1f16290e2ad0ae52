package packet

import (
	"fmt"
	"math/rand"
)

// Request is the common interface of every Modbus request packet.
type Request interface {
	// FunctionCode returns function code of this request
	FunctionCode() uint8
	// Bytes returns packet as bytes form
	Bytes() []byte
	// ExpectedResponseLength returns length of bytes that a valid response to this request would be
	ExpectedResponseLength() int
}

// newTransactionID picks a random, non-zero MBAP transaction id for an outgoing TCP request.
func newTransactionID() uint16 {
	return uint16(1 + rand.Intn(65534))
}

// ParseTCPRequest parses data into one of the eight supported Modbus TCP request packets.
func ParseTCPRequest(data []byte) (Request, error) {
	if len(data) < 8 {
		return nil, ErrTCPDataTooShort
	}
	functionCode := data[7]
	switch functionCode {
	case FunctionReadCoils:
		return ParseReadCoilsRequestTCP(data)
	case FunctionReadDiscreteInputs:
		return ParseReadDiscreteInputsRequestTCP(data)
	case FunctionReadHoldingRegisters:
		return ParseReadHoldingRegistersRequestTCP(data)
	case FunctionReadInputRegisters:
		return ParseReadInputRegistersRequestTCP(data)
	case FunctionWriteSingleCoil:
		return ParseWriteSingleCoilRequestTCP(data)
	case FunctionWriteSingleRegister:
		return ParseWriteSingleRegisterRequestTCP(data)
	case FunctionWriteMultipleCoils:
		return ParseWriteMultipleCoilsRequestTCP(data)
	case FunctionWriteMultipleRegisters:
		return ParseWriteMultipleRegistersRequestTCP(data)
	default:
		header, _ := ParseMBAPHeader(data)
		tmpErr := NewErrorParseTCP(ErrIllegalFunction, fmt.Sprintf("unsupported function code: %v", functionCode))
		tmpErr.Packet.TransactionID = header.TransactionID
		tmpErr.Packet.UnitID = data[6]
		tmpErr.Packet.Function = functionCode
		return nil, tmpErr
	}
}

// ParseRTURequest parses data into one of the eight supported Modbus RTU request packets.
// Does not check CRC - callers reading off a shared transport should use ParseRTURequestWithCRC.
func ParseRTURequest(data []byte) (Request, error) {
	if len(data) < 4 {
		return nil, ErrRTUDataTooShort
	}
	functionCode := data[1]
	switch functionCode {
	case FunctionReadCoils:
		return ParseReadCoilsRequestRTU(data)
	case FunctionReadDiscreteInputs:
		return ParseReadDiscreteInputsRequestRTU(data)
	case FunctionReadHoldingRegisters:
		return ParseReadHoldingRegistersRequestRTU(data)
	case FunctionReadInputRegisters:
		return ParseReadInputRegistersRequestRTU(data)
	case FunctionWriteSingleCoil:
		return ParseWriteSingleCoilRequestRTU(data)
	case FunctionWriteSingleRegister:
		return ParseWriteSingleRegisterRequestRTU(data)
	case FunctionWriteMultipleCoils:
		return ParseWriteMultipleCoilsRequestRTU(data)
	case FunctionWriteMultipleRegisters:
		return ParseWriteMultipleRegistersRequestRTU(data)
	default:
		tmpErr := NewErrorParseRTU(ErrIllegalFunction, fmt.Sprintf("unsupported function code: %v", functionCode))
		tmpErr.Packet.UnitID = data[0]
		tmpErr.Packet.Function = functionCode
		return nil, tmpErr
	}
}

// ParseRTURequestWithCRC checks the frame's trailing CRC and parses it into a request packet.
func ParseRTURequestWithCRC(data []byte) (Request, error) {
	dataLen := len(data)
	if dataLen < 4 {
		return nil, ErrRTUDataTooShort
	}
	packetCRC := uint16(data[dataLen-2]) | uint16(data[dataLen-1])<<8
	actualCRC := CRC16(data[:dataLen-2])
	if packetCRC != actualCRC {
		return nil, ErrInvalidCRC
	}
	return ParseRTURequest(data)
}
