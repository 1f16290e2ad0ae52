package packet

import (
	"encoding/binary"
)

// ReadRegistersRequest is the shared request shape of Read Holding Registers (FC=03) and
// Read Input Registers (FC=04): both ask for a run of 16 bit registers starting at an address.
type ReadRegistersRequest struct {
	UnitID       uint8
	function     uint8
	StartAddress uint16
	Quantity     uint16
}

func newReadRegistersRequest(unitID, function uint8, startAddress, quantity uint16) (ReadRegistersRequest, error) {
	if quantity == 0 || quantity > MaxRegistersInReadResponse {
		return ReadRegistersRequest{}, NewErrorParseRTU(ErrIllegalDataValue, "quantity is out of range (1-125)")
	}
	return ReadRegistersRequest{UnitID: unitID, function: function, StartAddress: startAddress, Quantity: quantity}, nil
}

// FunctionCode returns the function code of this request.
func (r ReadRegistersRequest) FunctionCode() uint8 { return r.function }

// Bytes returns the request PDU (without framing) as bytes.
func (r ReadRegistersRequest) Bytes() []byte {
	return r.bytes(make([]byte, 6))
}

func (r ReadRegistersRequest) bytes(dst []byte) []byte {
	putReadRequestBytes(dst, r.UnitID, r.function, r.StartAddress, r.Quantity)
	return dst
}

// ReadHoldingRegistersRequestTCP is a TCP request for Read Holding Registers (FC=03).
//
// Example packet: 0x00 0x01 0x00 0x00 0x00 0x06 0x11 0x03 0x00 0x6B 0x00 0x03
// 0x00 0x01 - transaction id (0,1)
// 0x00 0x00 - protocol id (2,3)
// 0x00 0x06 - length of unit id + PDU to follow (4,5)
// 0x11 - unit id (6)
// 0x03 - function code (7)
// 0x00 0x6B - start address (8,9)
// 0x00 0x03 - register quantity to return (10,11)
type ReadHoldingRegistersRequestTCP struct {
	MBAPHeader
	ReadRegistersRequest
}

// ReadHoldingRegistersRequestRTU is an RTU request for Read Holding Registers (FC=03).
type ReadHoldingRegistersRequestRTU struct {
	ReadRegistersRequest
}

// ReadInputRegistersRequestTCP is a TCP request for Read Input Registers (FC=04).
type ReadInputRegistersRequestTCP struct {
	MBAPHeader
	ReadRegistersRequest
}

// ReadInputRegistersRequestRTU is an RTU request for Read Input Registers (FC=04).
type ReadInputRegistersRequestRTU struct {
	ReadRegistersRequest
}

// NewReadHoldingRegistersRequestTCP creates a new Read Holding Registers TCP request.
func NewReadHoldingRegistersRequestTCP(unitID uint8, startAddress, quantity uint16) (*ReadHoldingRegistersRequestTCP, error) {
	req, err := newReadRegistersRequest(unitID, FunctionReadHoldingRegisters, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	return &ReadHoldingRegistersRequestTCP{
		MBAPHeader:           MBAPHeader{TransactionID: newTransactionID(), Length: 6},
		ReadRegistersRequest: req,
	}, nil
}

// NewReadHoldingRegistersRequestRTU creates a new Read Holding Registers RTU request.
func NewReadHoldingRegistersRequestRTU(unitID uint8, startAddress, quantity uint16) (*ReadHoldingRegistersRequestRTU, error) {
	req, err := newReadRegistersRequest(unitID, FunctionReadHoldingRegisters, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	return &ReadHoldingRegistersRequestRTU{ReadRegistersRequest: req}, nil
}

// NewReadInputRegistersRequestTCP creates a new Read Input Registers TCP request.
func NewReadInputRegistersRequestTCP(unitID uint8, startAddress, quantity uint16) (*ReadInputRegistersRequestTCP, error) {
	req, err := newReadRegistersRequest(unitID, FunctionReadInputRegisters, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	return &ReadInputRegistersRequestTCP{
		MBAPHeader:           MBAPHeader{TransactionID: newTransactionID(), Length: 6},
		ReadRegistersRequest: req,
	}, nil
}

// NewReadInputRegistersRequestRTU creates a new Read Input Registers RTU request.
func NewReadInputRegistersRequestRTU(unitID uint8, startAddress, quantity uint16) (*ReadInputRegistersRequestRTU, error) {
	req, err := newReadRegistersRequest(unitID, FunctionReadInputRegisters, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	return &ReadInputRegistersRequestRTU{ReadRegistersRequest: req}, nil
}

// Bytes returns the request as a full Modbus TCP packet.
func (r ReadHoldingRegistersRequestTCP) Bytes() []byte {
	result := make([]byte, tcpMBAPHeaderLen+6)
	r.MBAPHeader.bytes(result[0:6])
	r.ReadRegistersRequest.bytes(result[6:])
	return result
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be.
func (r ReadHoldingRegistersRequestTCP) ExpectedResponseLength() int {
	return 6 + 3 + int(r.Quantity)*2
}

// Bytes returns the request as a full Modbus RTU frame, CRC included.
func (r ReadHoldingRegistersRequestRTU) Bytes() []byte {
	return appendRTUCRC(r.ReadRegistersRequest.bytes(make([]byte, 6)))
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be.
func (r ReadHoldingRegistersRequestRTU) ExpectedResponseLength() int {
	return 3 + int(r.Quantity)*2 + 2
}

// Bytes returns the request as a full Modbus TCP packet.
func (r ReadInputRegistersRequestTCP) Bytes() []byte {
	result := make([]byte, tcpMBAPHeaderLen+6)
	r.MBAPHeader.bytes(result[0:6])
	r.ReadRegistersRequest.bytes(result[6:])
	return result
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be.
func (r ReadInputRegistersRequestTCP) ExpectedResponseLength() int {
	return 6 + 3 + int(r.Quantity)*2
}

// Bytes returns the request as a full Modbus RTU frame, CRC included.
func (r ReadInputRegistersRequestRTU) Bytes() []byte {
	return appendRTUCRC(r.ReadRegistersRequest.bytes(make([]byte, 6)))
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be.
func (r ReadInputRegistersRequestRTU) ExpectedResponseLength() int {
	return 3 + int(r.Quantity)*2 + 2
}

func parseReadRegistersRequestTCP(data []byte, function uint8) (MBAPHeader, ReadRegistersRequest, error) {
	header, err := ParseMBAPHeader(data)
	if err != nil {
		return MBAPHeader{}, ReadRegistersRequest{}, err
	}
	unitID := data[6]
	if data[7] != function {
		tmpErr := NewErrorParseTCP(ErrIllegalFunction, "received function code does not match")
		tmpErr.Packet.TransactionID = header.TransactionID
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = function
		return MBAPHeader{}, ReadRegistersRequest{}, tmpErr
	}
	quantity := binary.BigEndian.Uint16(data[10:12])
	if quantity < 1 || quantity > MaxRegistersInReadResponse {
		tmpErr := NewErrorParseTCP(ErrIllegalDataValue, "invalid quantity, valid range 1..125")
		tmpErr.Packet.TransactionID = header.TransactionID
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = function
		return MBAPHeader{}, ReadRegistersRequest{}, tmpErr
	}
	return header, ReadRegistersRequest{
		UnitID:       unitID,
		function:     function,
		StartAddress: binary.BigEndian.Uint16(data[8:10]),
		Quantity:     quantity,
	}, nil
}

func parseReadRegistersRequestRTU(data []byte, function uint8) (ReadRegistersRequest, error) {
	dLen := len(data)
	if dLen != 6 && dLen != 8 {
		return ReadRegistersRequest{}, NewErrorParseRTU(ErrIllegalDataValue, "invalid data length to be valid packet")
	}
	unitID := data[0]
	if data[1] != function {
		tmpErr := NewErrorParseRTU(ErrIllegalFunction, "received function code does not match")
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = function
		return ReadRegistersRequest{}, tmpErr
	}
	quantity := binary.BigEndian.Uint16(data[4:6])
	if quantity < 1 || quantity > MaxRegistersInReadResponse {
		tmpErr := NewErrorParseRTU(ErrIllegalDataValue, "invalid quantity, valid range 1..125")
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = function
		return ReadRegistersRequest{}, tmpErr
	}
	return ReadRegistersRequest{
		UnitID:       unitID,
		function:     function,
		StartAddress: binary.BigEndian.Uint16(data[2:4]),
		Quantity:     quantity,
	}, nil
}

// ParseReadHoldingRegistersRequestTCP parses data into a ReadHoldingRegistersRequestTCP.
func ParseReadHoldingRegistersRequestTCP(data []byte) (*ReadHoldingRegistersRequestTCP, error) {
	header, req, err := parseReadRegistersRequestTCP(data, FunctionReadHoldingRegisters)
	if err != nil {
		return nil, err
	}
	return &ReadHoldingRegistersRequestTCP{MBAPHeader: header, ReadRegistersRequest: req}, nil
}

// ParseReadHoldingRegistersRequestRTU parses data into a ReadHoldingRegistersRequestRTU. Does not check CRC.
func ParseReadHoldingRegistersRequestRTU(data []byte) (*ReadHoldingRegistersRequestRTU, error) {
	req, err := parseReadRegistersRequestRTU(data, FunctionReadHoldingRegisters)
	if err != nil {
		return nil, err
	}
	return &ReadHoldingRegistersRequestRTU{ReadRegistersRequest: req}, nil
}

// ParseReadInputRegistersRequestTCP parses data into a ReadInputRegistersRequestTCP.
func ParseReadInputRegistersRequestTCP(data []byte) (*ReadInputRegistersRequestTCP, error) {
	header, req, err := parseReadRegistersRequestTCP(data, FunctionReadInputRegisters)
	if err != nil {
		return nil, err
	}
	return &ReadInputRegistersRequestTCP{MBAPHeader: header, ReadRegistersRequest: req}, nil
}

// ParseReadInputRegistersRequestRTU parses data into a ReadInputRegistersRequestRTU. Does not check CRC.
func ParseReadInputRegistersRequestRTU(data []byte) (*ReadInputRegistersRequestRTU, error) {
	req, err := parseReadRegistersRequestRTU(data, FunctionReadInputRegisters)
	if err != nil {
		return nil, err
	}
	return &ReadInputRegistersRequestRTU{ReadRegistersRequest: req}, nil
}

// ReadRegistersResponse is the shared response shape of Read Holding Registers (FC=03) and
// Read Input Registers (FC=04).
type ReadRegistersResponse struct {
	UnitID   uint8
	function uint8
	Data     []byte
}

// FunctionCode returns the function code of this response.
func (r ReadRegistersResponse) FunctionCode() uint8 { return r.function }

// Bytes returns the response PDU (without framing) as bytes.
func (r ReadRegistersResponse) Bytes() []byte {
	return r.bytes(make([]byte, 3+len(r.Data)))
}

func (r ReadRegistersResponse) bytes(dst []byte) []byte {
	putReadResponseBytes(dst, r.UnitID, r.function, r.Data)
	return dst
}

// AsRegisters returns a Registers view over the response data, addressed from startAddress.
func (r ReadRegistersResponse) AsRegisters(startAddress uint16) (*Registers, error) {
	return NewRegisters(r.Data, startAddress)
}

// RawData returns the big-endian register bytes carried by the response. Promoted onto every
// TCP/RTU read-registers response type so callers holding only a packet.Response can recover the
// payload without a type switch over the four concrete response types.
func (r ReadRegistersResponse) RawData() []byte { return r.Data }

// NewReadHoldingRegistersResponseTCP creates a Read Holding Registers TCP response carrying data bytes.
func NewReadHoldingRegistersResponseTCP(transactionID uint16, unitID uint8, data []byte) *ReadHoldingRegistersResponseTCP {
	return &ReadHoldingRegistersResponseTCP{
		MBAPHeader:            MBAPHeader{TransactionID: transactionID, Length: uint16(3 + len(data))},
		ReadRegistersResponse: ReadRegistersResponse{UnitID: unitID, function: FunctionReadHoldingRegisters, Data: data},
	}
}

// NewReadHoldingRegistersResponseRTU creates a Read Holding Registers RTU response carrying data bytes.
func NewReadHoldingRegistersResponseRTU(unitID uint8, data []byte) *ReadHoldingRegistersResponseRTU {
	return &ReadHoldingRegistersResponseRTU{ReadRegistersResponse: ReadRegistersResponse{UnitID: unitID, function: FunctionReadHoldingRegisters, Data: data}}
}

// NewReadInputRegistersResponseTCP creates a Read Input Registers TCP response carrying data bytes.
func NewReadInputRegistersResponseTCP(transactionID uint16, unitID uint8, data []byte) *ReadInputRegistersResponseTCP {
	return &ReadInputRegistersResponseTCP{
		MBAPHeader:            MBAPHeader{TransactionID: transactionID, Length: uint16(3 + len(data))},
		ReadRegistersResponse: ReadRegistersResponse{UnitID: unitID, function: FunctionReadInputRegisters, Data: data},
	}
}

// NewReadInputRegistersResponseRTU creates a Read Input Registers RTU response carrying data bytes.
func NewReadInputRegistersResponseRTU(unitID uint8, data []byte) *ReadInputRegistersResponseRTU {
	return &ReadInputRegistersResponseRTU{ReadRegistersResponse: ReadRegistersResponse{UnitID: unitID, function: FunctionReadInputRegisters, Data: data}}
}

// ReadHoldingRegistersResponseTCP is a TCP response for Read Holding Registers (FC=03).
type ReadHoldingRegistersResponseTCP struct {
	MBAPHeader
	ReadRegistersResponse
}

// ReadHoldingRegistersResponseRTU is an RTU response for Read Holding Registers (FC=03).
type ReadHoldingRegistersResponseRTU struct {
	ReadRegistersResponse
}

// ReadInputRegistersResponseTCP is a TCP response for Read Input Registers (FC=04).
type ReadInputRegistersResponseTCP struct {
	MBAPHeader
	ReadRegistersResponse
}

// ReadInputRegistersResponseRTU is an RTU response for Read Input Registers (FC=04).
type ReadInputRegistersResponseRTU struct {
	ReadRegistersResponse
}

// Bytes returns the response as a full Modbus TCP packet.
func (r ReadHoldingRegistersResponseTCP) Bytes() []byte {
	result := make([]byte, tcpMBAPHeaderLen+3+len(r.Data))
	r.MBAPHeader.bytes(result[0:6])
	r.ReadRegistersResponse.bytes(result[6:])
	return result
}

// Bytes returns the response as a full Modbus RTU frame, CRC included.
func (r ReadHoldingRegistersResponseRTU) Bytes() []byte {
	return appendRTUCRC(r.ReadRegistersResponse.bytes(make([]byte, 3+len(r.Data))))
}

// Bytes returns the response as a full Modbus TCP packet.
func (r ReadInputRegistersResponseTCP) Bytes() []byte {
	result := make([]byte, tcpMBAPHeaderLen+3+len(r.Data))
	r.MBAPHeader.bytes(result[0:6])
	r.ReadRegistersResponse.bytes(result[6:])
	return result
}

// Bytes returns the response as a full Modbus RTU frame, CRC included.
func (r ReadInputRegistersResponseRTU) Bytes() []byte {
	return appendRTUCRC(r.ReadRegistersResponse.bytes(make([]byte, 3+len(r.Data))))
}

func parseReadRegistersResponseTCP(data []byte, function uint8) (MBAPHeader, ReadRegistersResponse, error) {
	dLen := len(data)
	if dLen < 9 {
		return MBAPHeader{}, ReadRegistersResponse{}, ErrTCPDataTooShort
	}
	byteLen := data[8]
	if dLen != 9+int(byteLen) {
		return MBAPHeader{}, ReadRegistersResponse{}, NewErrorParseTCP(ErrUnknown, "received data length does not match byte len in packet")
	}
	header := MBAPHeader{
		TransactionID: binary.BigEndian.Uint16(data[0:2]),
		Length:        binary.BigEndian.Uint16(data[4:6]),
	}
	return header, ReadRegistersResponse{UnitID: data[6], function: function, Data: data[9 : 9+byteLen]}, nil
}

func parseReadRegistersResponseRTU(data []byte, function uint8) (ReadRegistersResponse, error) {
	dLen := len(data)
	if dLen < 5 {
		return ReadRegistersResponse{}, ErrRTUDataTooShort
	}
	byteLen := data[2]
	if dLen != 3+int(byteLen) && dLen != 3+int(byteLen)+2 {
		return ReadRegistersResponse{}, NewErrorParseRTU(ErrUnknown, "received data length does not match byte len in packet")
	}
	return ReadRegistersResponse{UnitID: data[0], function: function, Data: data[3 : 3+byteLen]}, nil
}

// ParseReadHoldingRegistersResponseTCP parses data into a ReadHoldingRegistersResponseTCP.
func ParseReadHoldingRegistersResponseTCP(data []byte) (*ReadHoldingRegistersResponseTCP, error) {
	header, resp, err := parseReadRegistersResponseTCP(data, FunctionReadHoldingRegisters)
	if err != nil {
		return nil, err
	}
	return &ReadHoldingRegistersResponseTCP{MBAPHeader: header, ReadRegistersResponse: resp}, nil
}

// ParseReadHoldingRegistersResponseRTU parses data into a ReadHoldingRegistersResponseRTU. Does not check CRC.
func ParseReadHoldingRegistersResponseRTU(data []byte) (*ReadHoldingRegistersResponseRTU, error) {
	resp, err := parseReadRegistersResponseRTU(data, FunctionReadHoldingRegisters)
	if err != nil {
		return nil, err
	}
	return &ReadHoldingRegistersResponseRTU{ReadRegistersResponse: resp}, nil
}

// ParseReadInputRegistersResponseTCP parses data into a ReadInputRegistersResponseTCP.
func ParseReadInputRegistersResponseTCP(data []byte) (*ReadInputRegistersResponseTCP, error) {
	header, resp, err := parseReadRegistersResponseTCP(data, FunctionReadInputRegisters)
	if err != nil {
		return nil, err
	}
	return &ReadInputRegistersResponseTCP{MBAPHeader: header, ReadRegistersResponse: resp}, nil
}

// ParseReadInputRegistersResponseRTU parses data into a ReadInputRegistersResponseRTU. Does not check CRC.
func ParseReadInputRegistersResponseRTU(data []byte) (*ReadInputRegistersResponseRTU, error) {
	resp, err := parseReadRegistersResponseRTU(data, FunctionReadInputRegisters)
	if err != nil {
		return nil, err
	}
	return &ReadInputRegistersResponseRTU{ReadRegistersResponse: resp}, nil
}
