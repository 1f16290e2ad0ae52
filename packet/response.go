package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInvalidCRC is returned when a received RTU frame's trailing CRC does not match its computed CRC.
var ErrInvalidCRC = errors.New("crc check failed")

// ErrInvalidFunctionCode is returned when a parsed PDU carries a function code outside the set
// this package supports.
var ErrInvalidFunctionCode = errors.New("unsupported function code")

// Response is the common interface of every Modbus response packet.
type Response interface {
	// FunctionCode returns function code of this response
	FunctionCode() uint8
	// Bytes returns packet as bytes form
	Bytes() []byte
}

// ParseTCPResponse parses data into one of the eight supported Modbus TCP response packets,
// or into an ErrorResponseTCP if the function code's error bit is set.
func ParseTCPResponse(data []byte) (Response, error) {
	if len(data) < 8 {
		return nil, ErrTCPDataTooShort
	}
	if err := AsTCPErrorPacket(data); err != nil {
		return nil, err
	}

	functionCode := data[7]
	switch functionCode {
	case FunctionReadCoils:
		return ParseReadCoilsResponseTCP(data)
	case FunctionReadDiscreteInputs:
		return ParseReadDiscreteInputsResponseTCP(data)
	case FunctionReadHoldingRegisters:
		return ParseReadHoldingRegistersResponseTCP(data)
	case FunctionReadInputRegisters:
		return ParseReadInputRegistersResponseTCP(data)
	case FunctionWriteSingleCoil:
		return ParseWriteSingleCoilResponseTCP(data)
	case FunctionWriteSingleRegister:
		return ParseWriteSingleRegisterResponseTCP(data)
	case FunctionWriteMultipleCoils:
		return ParseWriteMultipleCoilsResponseTCP(data)
	case FunctionWriteMultipleRegisters:
		return ParseWriteMultipleRegistersResponseTCP(data)
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidFunctionCode, functionCode)
	}
}

// ParseRTUResponseWithCRC checks the frame's trailing CRC and parses it into a response packet.
func ParseRTUResponseWithCRC(data []byte) (Response, error) {
	dataLen := len(data)
	if dataLen < 4 {
		return nil, ErrRTUDataTooShort
	}
	packetCRC := binary.LittleEndian.Uint16(data[dataLen-2:])
	actualCRC := CRC16(data[:dataLen-2])
	if packetCRC != actualCRC {
		return nil, ErrInvalidCRC
	}
	return ParseRTUResponse(data)
}

// ParseRTUResponse parses data into one of the eight supported Modbus RTU response packets,
// or into an ErrorResponseRTU if the function code's error bit is set. Does not check CRC.
func ParseRTUResponse(data []byte) (Response, error) {
	if len(data) < 4 {
		return nil, ErrRTUDataTooShort
	}
	if err := AsRTUErrorPacket(data); err != nil {
		return nil, err
	}

	functionCode := data[1]
	switch functionCode {
	case FunctionReadCoils:
		return ParseReadCoilsResponseRTU(data)
	case FunctionReadDiscreteInputs:
		return ParseReadDiscreteInputsResponseRTU(data)
	case FunctionReadHoldingRegisters:
		return ParseReadHoldingRegistersResponseRTU(data)
	case FunctionReadInputRegisters:
		return ParseReadInputRegistersResponseRTU(data)
	case FunctionWriteSingleCoil:
		return ParseWriteSingleCoilResponseRTU(data)
	case FunctionWriteSingleRegister:
		return ParseWriteSingleRegisterResponseRTU(data)
	case FunctionWriteMultipleCoils:
		return ParseWriteMultipleCoilsResponseRTU(data)
	case FunctionWriteMultipleRegisters:
		return ParseWriteMultipleRegistersResponseRTU(data)
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidFunctionCode, functionCode)
	}
}

// isBitSet checks if the N-th bit is set in data. Bits are counted from startBit, least significant bit first within each byte.
func isBitSet(data []byte, startBit uint16, bit uint16) (bool, error) {
	if bit < startBit {
		return false, errors.New("bit can not be before startBit")
	}
	targetBit := int(bit) - int(startBit)
	if len(data)*8 <= targetBit {
		return false, errors.New("bit value more than data contains bits")
	}
	nThByte := targetBit / 8
	nThBit := targetBit % 8
	b := data[nThByte]
	return b&(1<<nThBit) != 0, nil
}
