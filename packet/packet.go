// Package packet implements the Modbus protocol data unit (PDU) model and
// the three wire codecs (RTU, TCP/MBAP, RTU-over-TCP) built on top of it.
package packet

import (
	"encoding/binary"
	"errors"
)

const (
	tcpMBAPHeaderLen         = 6
	functionCodeErrorBitmask = uint8(128)

	// MaxRegistersInReadResponse is maximum quantity of registers that can be returned by a read request (FC03/FC04)
	MaxRegistersInReadResponse = uint16(125)
	// MaxRegistersInWriteRequest is maximum quantity of registers that can be written by FC16
	MaxRegistersInWriteRequest = uint16(123)
	// MaxCoilsInReadResponse is maximum quantity of discretes/coils that can be returned by a read request (FC01/FC02)
	MaxCoilsInReadResponse = uint16(2000) // 2000/8=250 bytes
	// MaxCoilsInWriteRequest is maximum quantity of coils that can be written by FC15
	MaxCoilsInWriteRequest = uint16(1968)

	// coilOn is the wire value meaning "true" for a single coil write (FC05)
	coilOn = uint16(0xFF00)
	// coilOff is the wire value meaning "false" for a single coil write (FC05)
	coilOff = uint16(0x0000)
)

// Function codes supported by this module. Modbus defines more (diagnostics, file records,
// read/write multiple registers, device identification); this module implements only the
// eight codes spec'd for the core dispatch engine and client drivers.
const (
	// FunctionReadCoils is function code for Read Coils (FC01)
	FunctionReadCoils = uint8(0x01)
	// FunctionReadDiscreteInputs is function code for Read Discrete Inputs (FC02)
	FunctionReadDiscreteInputs = uint8(0x02)
	// FunctionReadHoldingRegisters is function code for Read Holding Registers (FC03)
	FunctionReadHoldingRegisters = uint8(0x03)
	// FunctionReadInputRegisters is function code for Read Input Registers (FC04)
	FunctionReadInputRegisters = uint8(0x04)
	// FunctionWriteSingleCoil is function code for Write Single Coil (FC05)
	FunctionWriteSingleCoil = uint8(0x05)
	// FunctionWriteSingleRegister is function code for Write Single Register (FC06)
	FunctionWriteSingleRegister = uint8(0x06)
	// FunctionWriteMultipleCoils is function code for Write Multiple Coils (FC15)
	FunctionWriteMultipleCoils = uint8(0x0F)
	// FunctionWriteMultipleRegisters is function code for Write Multiple Registers (FC16)
	FunctionWriteMultipleRegisters = uint8(0x10)
)

// supportedFunctionCodes is the set of function codes this module will parse off the wire.
// Any other received code is rejected with IllegalFunction - see error.go.
var supportedFunctionCodes = [8]uint8{
	FunctionReadCoils,
	FunctionReadDiscreteInputs,
	FunctionReadHoldingRegisters,
	FunctionReadInputRegisters,
	FunctionWriteSingleCoil,
	FunctionWriteSingleRegister,
	FunctionWriteMultipleCoils,
	FunctionWriteMultipleRegisters,
}

// IsSupportedFunctionCode reports whether code is one of the eight function codes this module implements.
func IsSupportedFunctionCode(code uint8) bool {
	for _, fc := range supportedFunctionCodes {
		if fc == code {
			return true
		}
	}
	return false
}

// MBAPHeader (Modbus Application Protocol header) holds the first 6 bytes of the 7 byte envelope of a
// Modbus TCP packet; the unit id that completes the envelope is carried by each packet type.
// Length counts the unit id, function code and data bytes.
type MBAPHeader struct {
	TransactionID uint16
	ProtocolID    uint16
	Length        uint16
}

func (h MBAPHeader) bytes(dst []byte) {
	binary.BigEndian.PutUint16(dst[0:2], h.TransactionID)
	binary.BigEndian.PutUint16(dst[2:4], h.ProtocolID)
	binary.BigEndian.PutUint16(dst[4:6], h.Length)
}

// MBAPTransactionID returns the transaction id carried in h. Every TCP request and response type
// embeds MBAPHeader, so this method promotes onto all of them - letting callers that only hold a
// packet.Request/packet.Response interface value recover the transaction id with a single type
// assertion instead of a type switch over every concrete TCP packet type.
func (h MBAPHeader) MBAPTransactionID() uint16 { return h.TransactionID }

// ErrTCPDataTooShort is returned when received data is still too short to be a Modbus TCP packet.
var ErrTCPDataTooShort = errors.New("data is too short to be a Modbus TCP packet")

// ErrRTUDataTooShort is returned when received data is still too short to be a Modbus RTU frame.
var ErrRTUDataTooShort = errors.New("data is too short to be a Modbus RTU frame")

// ParseMBAPHeader parses the 6 byte MBAP header (excluding unit id) from data.
func ParseMBAPHeader(data []byte) (MBAPHeader, error) {
	if len(data) < 6 {
		return MBAPHeader{}, ErrTCPDataTooShort
	}
	protocolID := binary.BigEndian.Uint16(data[2:4])
	if protocolID != 0 {
		return MBAPHeader{}, NewErrorParseTCP(ErrUnknown, "non-zero protocol id in MBAP header")
	}
	length := binary.BigEndian.Uint16(data[4:6])
	if length == 0 {
		return MBAPHeader{}, NewErrorParseTCP(ErrUnknown, "length in MBAP header can not be 0")
	}
	return MBAPHeader{
		TransactionID: binary.BigEndian.Uint16(data[0:2]),
		ProtocolID:    protocolID,
		Length:        length,
	}, nil
}

// LooksLikeModbusTCP checks if data starts with bytes that could be the start of a Modbus TCP packet and,
// if so, returns the total length (header + PDU) that packet would be once fully received.
func LooksLikeModbusTCP(data []byte) (expectedLen int, err error) {
	// 0x00 0x01 - transaction id (0,1)
	// 0x00 0x00 - protocol id (2,3)
	// 0x00 0x06 - length of unit id + PDU to follow (4,5)
	// 0x01      - unit id (6)
	// 0x03      - function code (7)
	if len(data) < 8 {
		return 0, ErrTCPDataTooShort
	}
	if data[2] != 0x00 || data[3] != 0x00 {
		return 0, NewErrorParseTCP(ErrUnknown, "non-zero protocol id")
	}
	length := binary.BigEndian.Uint16(data[4:6])
	if length < 2 {
		return 0, NewErrorParseTCP(ErrUnknown, "length in MBAP header too small")
	}
	return int(length) + 6, nil
}

// CRC16 calculates the Modbus cyclic redundancy check for data.
//
// Polynomial 0xA001 (reflected form of 0x8005, CRC-16/MODBUS), initial value 0xFFFF, no final XOR.
// The result is transmitted on the wire low byte first.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 == 1 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

func putReadRequestBytes(dst []byte, unitID, functionCode uint8, startAddress, quantity uint16) {
	dst[0] = unitID
	dst[1] = functionCode
	binary.BigEndian.PutUint16(dst[2:4], startAddress)
	binary.BigEndian.PutUint16(dst[4:6], quantity)
}

func putReadResponseBytes(dst []byte, unitID, functionCode uint8, data []byte) {
	dst[0] = unitID
	dst[1] = functionCode
	dst[2] = uint8(len(data))
	copy(dst[3:], data)
}

func putWriteSingleBytes(dst []byte, unitID, functionCode uint8, address, value uint16) {
	dst[0] = unitID
	dst[1] = functionCode
	binary.BigEndian.PutUint16(dst[2:4], address)
	binary.BigEndian.PutUint16(dst[4:6], value)
}

func putWriteMultipleResponseBytes(dst []byte, unitID, functionCode uint8, address, count uint16) {
	dst[0] = unitID
	dst[1] = functionCode
	binary.BigEndian.PutUint16(dst[2:4], address)
	binary.BigEndian.PutUint16(dst[4:6], count)
}

func appendRTUCRC(dst []byte) []byte {
	crc := CRC16(dst)
	return append(dst, uint8(crc), uint8(crc>>8))
}

// CoilsToBytes packs coil states LSB-first into bytes, per Modbus wire layout.
func CoilsToBytes(coils []bool) []byte {
	byteLen := len(coils) / 8
	if len(coils)%8 != 0 {
		byteLen++
	}
	result := make([]byte, byteLen)
	for i, on := range coils {
		if !on {
			continue
		}
		result[i/8] |= 1 << uint(i%8)
	}
	return result
}

// BytesToCoils unpacks count coil states from LSB-first packed data.
func BytesToCoils(data []byte, count uint16) []bool {
	result := make([]bool, count)
	for i := uint16(0); i < count; i++ {
		b := data[i/8]
		result[i] = b&(1<<uint(i%8)) != 0
	}
	return result
}

func coilByteLen(count uint16) int {
	n := int(count) / 8
	if int(count)%8 != 0 {
		n++
	}
	return n
}
