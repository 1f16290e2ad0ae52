package packet

import (
	"encoding/binary"
	"fmt"
)

// ErrCode is the Modbus exception code carried in an error response PDU.
type ErrCode = uint8

const (
	// ErrUnknown is a catchall code used for local parse failures that never reached a real server.
	ErrUnknown = ErrCode(0)
	// ErrIllegalFunction: the function code received in the query is not an allowable action for the server.
	ErrIllegalFunction = ErrCode(1)
	// ErrIllegalDataAddress: the combination of starting address and quantity is invalid for this server.
	ErrIllegalDataAddress = ErrCode(2)
	// ErrIllegalDataValue: a value in the request data field is not allowable for the server.
	ErrIllegalDataValue = ErrCode(3)
	// ErrServerFailure: an unrecoverable error occurred while the server was performing the requested action.
	ErrServerFailure = ErrCode(4)
	// ErrAcknowledge: the server accepted the request and is processing it but needs more time than a normal
	// response would take. No retry is attempted by this module's clients on receipt of this code - see DESIGN.md.
	ErrAcknowledge = ErrCode(5)
	// ErrServerBusy: the server is busy processing a long-duration command and the client should retry later.
	ErrServerBusy = ErrCode(6)
	// ErrMemoryParityError: the server detected a parity error in memory while servicing the request.
	ErrMemoryParityError = ErrCode(8)
	// ErrGatewayPathUnavailable: a gateway was unable to allocate an internal path for the request.
	ErrGatewayPathUnavailable = ErrCode(10)
	// ErrGatewayTargetedDeviceResponse: a gateway got no response from the addressed device.
	ErrGatewayTargetedDeviceResponse = ErrCode(11)
)

// IsKnownExceptionCode reports whether code is one of the Modbus exception codes this package
// recognizes. ErrUnknown is a local placeholder, never a code a real server would send, so it is
// not considered known here.
func IsKnownExceptionCode(code uint8) bool {
	switch code {
	case ErrIllegalFunction, ErrIllegalDataAddress, ErrIllegalDataValue, ErrServerFailure,
		ErrAcknowledge, ErrServerBusy, ErrMemoryParityError, ErrGatewayPathUnavailable,
		ErrGatewayTargetedDeviceResponse:
		return true
	default:
		return false
	}
}

func errorText(code uint8) string {
	switch code {
	case ErrIllegalFunction:
		return "illegal function"
	case ErrIllegalDataAddress:
		return "illegal data address"
	case ErrIllegalDataValue:
		return "illegal data value"
	case ErrServerFailure:
		return "server failure"
	case ErrAcknowledge:
		return "acknowledge"
	case ErrServerBusy:
		return "server busy"
	case ErrMemoryParityError:
		return "memory parity error"
	case ErrGatewayPathUnavailable:
		return "gateway path unavailable"
	case ErrGatewayTargetedDeviceResponse:
		return "gateway targeted device failed to respond"
	case ErrUnknown:
		fallthrough
	default:
		return fmt.Sprintf("unknown error code: %v", code)
	}
}

// NewErrorParseTCP creates a parse-time error for a Modbus TCP stream, carrying an error PDU
// that can be sent back to the client that supplied the malformed bytes.
func NewErrorParseTCP(code uint8, message string) *ErrorParseTCP {
	return &ErrorParseTCP{
		Message: message,
		Packet: ErrorResponseTCP{
			TransactionID: 0,
			UnitID:        0,
			Function:      0,
			Code:          code,
		},
	}
}

// ErrorParseTCP is a parse-time error for a malformed Modbus TCP stream.
type ErrorParseTCP struct {
	Message string
	Packet  ErrorResponseTCP
}

func (e ErrorParseTCP) Error() string {
	return e.Message
}

// Bytes returns the wrapped error PDU in its wire form.
func (e ErrorParseTCP) Bytes() []byte {
	return e.Packet.Bytes()
}

// ErrorResponseTCP is the Modbus TCP exception response PDU (function code with the error bit set,
// followed by the exception code), wrapped with the MBAP header fields needed to answer a request.
type ErrorResponseTCP struct {
	TransactionID uint16
	UnitID        uint8
	Function      uint8
	Code          uint8
}

func (re ErrorResponseTCP) Error() string {
	return errorText(re.Code)
}

// Bytes encodes the exception response as a full Modbus TCP packet.
func (re ErrorResponseTCP) Bytes() []byte {
	result := make([]byte, 9)

	binary.BigEndian.PutUint16(result[0:2], re.TransactionID)
	binary.BigEndian.PutUint16(result[2:4], 0)
	binary.BigEndian.PutUint16(result[4:6], 3)
	result[6] = re.UnitID
	result[7] = re.Function + functionCodeErrorBitmask
	result[8] = re.Code

	return result
}

// FunctionCode returns the function code the error response answers.
func (re ErrorResponseTCP) FunctionCode() uint8 {
	return re.Function
}

// NewErrorParseRTU creates a parse-time error for a Modbus RTU frame, carrying an error PDU
// that can be sent back over the same serial link or TCP-tunneled RTU stream.
func NewErrorParseRTU(code uint8, message string) *ErrorParseRTU {
	return &ErrorParseRTU{
		Message: message,
		Packet: ErrorResponseRTU{
			UnitID:   0,
			Function: 0,
			Code:     code,
		},
	}
}

// ErrorParseRTU is a parse-time error for a malformed Modbus RTU frame.
type ErrorParseRTU struct {
	Message string
	Packet  ErrorResponseRTU
}

func (e ErrorParseRTU) Error() string {
	return e.Message
}

// Bytes returns the wrapped error PDU in its wire form.
func (e ErrorParseRTU) Bytes() []byte {
	return e.Packet.Bytes()
}

// ErrorResponseRTU is the Modbus RTU exception response frame.
type ErrorResponseRTU struct {
	UnitID   uint8
	Function uint8
	Code     uint8
}

func (re ErrorResponseRTU) Error() string {
	return errorText(re.Code)
}

// Bytes encodes the exception response as a full Modbus RTU frame, CRC included.
func (re ErrorResponseRTU) Bytes() []byte {
	result := make([]byte, 3, 5)

	result[0] = re.UnitID
	result[1] = re.Function + functionCodeErrorBitmask
	result[2] = re.Code

	return appendRTUCRC(result)
}

// FunctionCode returns the function code the error response answers.
func (re ErrorResponseRTU) FunctionCode() uint8 {
	return re.Function
}

// AsTCPErrorPacket converts raw packet bytes to a Modbus TCP error response, if data looks like one.
//
// Example packet: 0xda 0x87 0x00 0x00 0x00 0x03 0x01 0x81 0x03
// 0xda 0x87 - transaction id (0,1)
// 0x00 0x00 - protocol id (2,3)
// 0x00 0x03 - length of unit id + PDU to follow (4,5)
// 0x01 - unit id (6)
// 0x81 - function code + 128 error bitmask (7)
// 0x03 - exception code (8)
func AsTCPErrorPacket(data []byte) error {
	if len(data) != 9 {
		return nil
	}
	errorFunctionCode := data[7] & functionCodeErrorBitmask
	if errorFunctionCode != 0 {
		return &ErrorResponseTCP{
			TransactionID: binary.BigEndian.Uint16(data[0:2]),
			UnitID:        data[6],
			Function:      data[7] - functionCodeErrorBitmask,
			Code:          data[8],
		}
	}
	return nil
}

// AsRTUErrorPacket converts raw frame bytes to a Modbus RTU error response, if data looks like one.
//
// Example frame: 0x0a 0x81 0x02 0xb0 0x53
// 0x0a - unit id (0)
// 0x81 - function code + 128 error bitmask (1)
// 0x02 - exception code (2)
// 0xb0 0x53 - CRC (3,4)
func AsRTUErrorPacket(data []byte) error {
	if len(data) != 5 {
		return nil
	}
	errorFunctionCode := data[1] & functionCodeErrorBitmask
	if errorFunctionCode != 0 {
		return &ErrorResponseRTU{
			UnitID:   data[0],
			Function: data[1] - functionCodeErrorBitmask,
			Code:     data[2],
		}
	}
	return nil
}
