package packet

import (
	"encoding/binary"
)

// ReadCoilsRequestTCP is a TCP request for Read Coils (FC=01).
//
// Example packet: 0x81 0x80 0x00 0x00 0x00 0x06 0x10 0x01 0x00 0x6B 0x00 0x03
// 0x81 0x80 - transaction id (0,1)
// 0x00 0x00 - protocol id (2,3)
// 0x00 0x06 - length of unit id + PDU to follow (4,5)
// 0x10 - unit id (6)
// 0x01 - function code (7)
// 0x00 0x6B - start address (8,9)
// 0x00 0x03 - coil quantity to return (10,11)
type ReadCoilsRequestTCP struct {
	MBAPHeader
	ReadBitsRequest
}

// ReadCoilsRequestRTU is an RTU request for Read Coils (FC=01).
type ReadCoilsRequestRTU struct {
	ReadBitsRequest
}

// ReadDiscreteInputsRequestTCP is a TCP request for Read Discrete Inputs (FC=02).
type ReadDiscreteInputsRequestTCP struct {
	MBAPHeader
	ReadBitsRequest
}

// ReadDiscreteInputsRequestRTU is an RTU request for Read Discrete Inputs (FC=02).
type ReadDiscreteInputsRequestRTU struct {
	ReadBitsRequest
}

// ReadBitsRequest is the shared request shape of Read Coils (FC=01) and Read Discrete Inputs (FC=02):
// both ask for a run of single-bit values starting at an address.
type ReadBitsRequest struct {
	UnitID       uint8
	function     uint8
	StartAddress uint16
	Quantity     uint16
}

func newReadBitsRequest(unitID, function uint8, startAddress, quantity uint16) (ReadBitsRequest, error) {
	if quantity == 0 || quantity > MaxCoilsInReadResponse {
		return ReadBitsRequest{}, NewErrorParseRTU(ErrIllegalDataValue, "quantity is out of range (1-2000)")
	}
	return ReadBitsRequest{UnitID: unitID, function: function, StartAddress: startAddress, Quantity: quantity}, nil
}

// FunctionCode returns the function code of this request.
func (r ReadBitsRequest) FunctionCode() uint8 { return r.function }

// Bytes returns the unit id and request PDU (without framing) as bytes.
func (r ReadBitsRequest) Bytes() []byte {
	return r.bytes(make([]byte, 6))
}

func (r ReadBitsRequest) bytes(dst []byte) []byte {
	putReadRequestBytes(dst, r.UnitID, r.function, r.StartAddress, r.Quantity)
	return dst
}

func (r ReadBitsRequest) coilByteLength() int {
	return coilByteLen(r.Quantity)
}

// NewReadCoilsRequestTCP creates a new Read Coils TCP request.
func NewReadCoilsRequestTCP(unitID uint8, startAddress, quantity uint16) (*ReadCoilsRequestTCP, error) {
	req, err := newReadBitsRequest(unitID, FunctionReadCoils, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	return &ReadCoilsRequestTCP{
		MBAPHeader:      MBAPHeader{TransactionID: newTransactionID(), Length: 6},
		ReadBitsRequest: req,
	}, nil
}

// NewReadCoilsRequestRTU creates a new Read Coils RTU request.
func NewReadCoilsRequestRTU(unitID uint8, startAddress, quantity uint16) (*ReadCoilsRequestRTU, error) {
	req, err := newReadBitsRequest(unitID, FunctionReadCoils, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	return &ReadCoilsRequestRTU{ReadBitsRequest: req}, nil
}

// NewReadDiscreteInputsRequestTCP creates a new Read Discrete Inputs TCP request.
func NewReadDiscreteInputsRequestTCP(unitID uint8, startAddress, quantity uint16) (*ReadDiscreteInputsRequestTCP, error) {
	req, err := newReadBitsRequest(unitID, FunctionReadDiscreteInputs, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	return &ReadDiscreteInputsRequestTCP{
		MBAPHeader:      MBAPHeader{TransactionID: newTransactionID(), Length: 6},
		ReadBitsRequest: req,
	}, nil
}

// NewReadDiscreteInputsRequestRTU creates a new Read Discrete Inputs RTU request.
func NewReadDiscreteInputsRequestRTU(unitID uint8, startAddress, quantity uint16) (*ReadDiscreteInputsRequestRTU, error) {
	req, err := newReadBitsRequest(unitID, FunctionReadDiscreteInputs, startAddress, quantity)
	if err != nil {
		return nil, err
	}
	return &ReadDiscreteInputsRequestRTU{ReadBitsRequest: req}, nil
}

// Bytes returns the request as a full Modbus TCP packet.
func (r ReadCoilsRequestTCP) Bytes() []byte {
	result := make([]byte, tcpMBAPHeaderLen+6)
	r.MBAPHeader.bytes(result[0:6])
	r.ReadBitsRequest.bytes(result[6:])
	return result
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be.
func (r ReadCoilsRequestTCP) ExpectedResponseLength() int {
	return 6 + 3 + r.coilByteLength()
}

// Bytes returns the request as a full Modbus RTU frame, CRC included.
func (r ReadCoilsRequestRTU) Bytes() []byte {
	return appendRTUCRC(r.ReadBitsRequest.bytes(make([]byte, 6)))
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be.
func (r ReadCoilsRequestRTU) ExpectedResponseLength() int {
	return 3 + r.coilByteLength() + 2
}

// Bytes returns the request as a full Modbus TCP packet.
func (r ReadDiscreteInputsRequestTCP) Bytes() []byte {
	result := make([]byte, tcpMBAPHeaderLen+6)
	r.MBAPHeader.bytes(result[0:6])
	r.ReadBitsRequest.bytes(result[6:])
	return result
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be.
func (r ReadDiscreteInputsRequestTCP) ExpectedResponseLength() int {
	return 6 + 3 + r.coilByteLength()
}

// Bytes returns the request as a full Modbus RTU frame, CRC included.
func (r ReadDiscreteInputsRequestRTU) Bytes() []byte {
	return appendRTUCRC(r.ReadBitsRequest.bytes(make([]byte, 6)))
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be.
func (r ReadDiscreteInputsRequestRTU) ExpectedResponseLength() int {
	return 3 + r.coilByteLength() + 2
}

func parseReadBitsRequestTCP(data []byte, function uint8) (MBAPHeader, ReadBitsRequest, error) {
	header, err := ParseMBAPHeader(data)
	if err != nil {
		return MBAPHeader{}, ReadBitsRequest{}, err
	}
	unitID := data[6]
	if data[7] != function {
		tmpErr := NewErrorParseTCP(ErrIllegalFunction, "received function code does not match")
		tmpErr.Packet.TransactionID = header.TransactionID
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = function
		return MBAPHeader{}, ReadBitsRequest{}, tmpErr
	}
	quantity := binary.BigEndian.Uint16(data[10:12])
	if quantity < 1 || quantity > MaxCoilsInReadResponse {
		tmpErr := NewErrorParseTCP(ErrIllegalDataValue, "invalid quantity, valid range 1..2000")
		tmpErr.Packet.TransactionID = header.TransactionID
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = function
		return MBAPHeader{}, ReadBitsRequest{}, tmpErr
	}
	return header, ReadBitsRequest{
		UnitID:       unitID,
		function:     function,
		StartAddress: binary.BigEndian.Uint16(data[8:10]),
		Quantity:     quantity,
	}, nil
}

func parseReadBitsRequestRTU(data []byte, function uint8) (ReadBitsRequest, error) {
	dLen := len(data)
	if dLen != 6 && dLen != 8 {
		return ReadBitsRequest{}, NewErrorParseRTU(ErrIllegalDataValue, "invalid data length to be valid packet")
	}
	unitID := data[0]
	if data[1] != function {
		tmpErr := NewErrorParseRTU(ErrIllegalFunction, "received function code does not match")
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = function
		return ReadBitsRequest{}, tmpErr
	}
	quantity := binary.BigEndian.Uint16(data[4:6])
	if quantity < 1 || quantity > MaxCoilsInReadResponse {
		tmpErr := NewErrorParseRTU(ErrIllegalDataValue, "invalid quantity, valid range 1..2000")
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = function
		return ReadBitsRequest{}, tmpErr
	}
	return ReadBitsRequest{
		UnitID:       unitID,
		function:     function,
		StartAddress: binary.BigEndian.Uint16(data[2:4]),
		Quantity:     quantity,
	}, nil
}

// ParseReadCoilsRequestTCP parses data into a ReadCoilsRequestTCP.
func ParseReadCoilsRequestTCP(data []byte) (*ReadCoilsRequestTCP, error) {
	header, req, err := parseReadBitsRequestTCP(data, FunctionReadCoils)
	if err != nil {
		return nil, err
	}
	return &ReadCoilsRequestTCP{MBAPHeader: header, ReadBitsRequest: req}, nil
}

// ParseReadCoilsRequestRTU parses data into a ReadCoilsRequestRTU. Does not check CRC.
func ParseReadCoilsRequestRTU(data []byte) (*ReadCoilsRequestRTU, error) {
	req, err := parseReadBitsRequestRTU(data, FunctionReadCoils)
	if err != nil {
		return nil, err
	}
	return &ReadCoilsRequestRTU{ReadBitsRequest: req}, nil
}

// ParseReadDiscreteInputsRequestTCP parses data into a ReadDiscreteInputsRequestTCP.
func ParseReadDiscreteInputsRequestTCP(data []byte) (*ReadDiscreteInputsRequestTCP, error) {
	header, req, err := parseReadBitsRequestTCP(data, FunctionReadDiscreteInputs)
	if err != nil {
		return nil, err
	}
	return &ReadDiscreteInputsRequestTCP{MBAPHeader: header, ReadBitsRequest: req}, nil
}

// ParseReadDiscreteInputsRequestRTU parses data into a ReadDiscreteInputsRequestRTU. Does not check CRC.
func ParseReadDiscreteInputsRequestRTU(data []byte) (*ReadDiscreteInputsRequestRTU, error) {
	req, err := parseReadBitsRequestRTU(data, FunctionReadDiscreteInputs)
	if err != nil {
		return nil, err
	}
	return &ReadDiscreteInputsRequestRTU{ReadBitsRequest: req}, nil
}

// ReadBitsResponse is the shared response shape of Read Coils (FC=01) and Read Discrete Inputs (FC=02).
type ReadBitsResponse struct {
	UnitID   uint8
	function uint8
	Data     []byte
}

// FunctionCode returns the function code of this response.
func (r ReadBitsResponse) FunctionCode() uint8 { return r.function }

// Bytes returns the response PDU (without framing) as bytes.
func (r ReadBitsResponse) Bytes() []byte {
	return r.bytes(make([]byte, 3+len(r.Data)))
}

func (r ReadBitsResponse) bytes(dst []byte) []byte {
	putReadResponseBytes(dst, r.UnitID, r.function, r.Data)
	return dst
}

// IsSet checks if the N-th bit is set in the response data. Bits are counted from startAddress.
func (r ReadBitsResponse) IsSet(startAddress, address uint16) (bool, error) {
	return isBitSet(r.Data, startAddress, address)
}

// RawData returns the packed coil/discrete-input bytes carried by the response, LSB-first.
// Promoted onto every TCP/RTU read-bits response type so callers holding only a packet.Response
// can recover the payload without a type switch over the four concrete response types.
func (r ReadBitsResponse) RawData() []byte { return r.Data }

// NewReadCoilsResponseTCP creates a Read Coils TCP response carrying the given coil data bytes.
func NewReadCoilsResponseTCP(transactionID uint16, unitID uint8, data []byte) *ReadCoilsResponseTCP {
	return &ReadCoilsResponseTCP{
		MBAPHeader:       MBAPHeader{TransactionID: transactionID, Length: uint16(3 + len(data))},
		ReadBitsResponse: ReadBitsResponse{UnitID: unitID, function: FunctionReadCoils, Data: data},
	}
}

// NewReadCoilsResponseRTU creates a Read Coils RTU response carrying the given coil data bytes.
func NewReadCoilsResponseRTU(unitID uint8, data []byte) *ReadCoilsResponseRTU {
	return &ReadCoilsResponseRTU{ReadBitsResponse: ReadBitsResponse{UnitID: unitID, function: FunctionReadCoils, Data: data}}
}

// NewReadDiscreteInputsResponseTCP creates a Read Discrete Inputs TCP response carrying data bytes.
func NewReadDiscreteInputsResponseTCP(transactionID uint16, unitID uint8, data []byte) *ReadDiscreteInputsResponseTCP {
	return &ReadDiscreteInputsResponseTCP{
		MBAPHeader:       MBAPHeader{TransactionID: transactionID, Length: uint16(3 + len(data))},
		ReadBitsResponse: ReadBitsResponse{UnitID: unitID, function: FunctionReadDiscreteInputs, Data: data},
	}
}

// NewReadDiscreteInputsResponseRTU creates a Read Discrete Inputs RTU response carrying data bytes.
func NewReadDiscreteInputsResponseRTU(unitID uint8, data []byte) *ReadDiscreteInputsResponseRTU {
	return &ReadDiscreteInputsResponseRTU{ReadBitsResponse: ReadBitsResponse{UnitID: unitID, function: FunctionReadDiscreteInputs, Data: data}}
}

// ReadCoilsResponseTCP is a TCP response for Read Coils (FC=01).
type ReadCoilsResponseTCP struct {
	MBAPHeader
	ReadBitsResponse
}

// ReadCoilsResponseRTU is an RTU response for Read Coils (FC=01).
type ReadCoilsResponseRTU struct {
	ReadBitsResponse
}

// ReadDiscreteInputsResponseTCP is a TCP response for Read Discrete Inputs (FC=02).
type ReadDiscreteInputsResponseTCP struct {
	MBAPHeader
	ReadBitsResponse
}

// ReadDiscreteInputsResponseRTU is an RTU response for Read Discrete Inputs (FC=02).
type ReadDiscreteInputsResponseRTU struct {
	ReadBitsResponse
}

// Bytes returns the response as a full Modbus TCP packet.
func (r ReadCoilsResponseTCP) Bytes() []byte {
	result := make([]byte, tcpMBAPHeaderLen+3+len(r.Data))
	r.MBAPHeader.bytes(result[0:6])
	r.ReadBitsResponse.bytes(result[6:])
	return result
}

// Bytes returns the response as a full Modbus RTU frame, CRC included.
func (r ReadCoilsResponseRTU) Bytes() []byte {
	return appendRTUCRC(r.ReadBitsResponse.bytes(make([]byte, 3+len(r.Data))))
}

// Bytes returns the response as a full Modbus TCP packet.
func (r ReadDiscreteInputsResponseTCP) Bytes() []byte {
	result := make([]byte, tcpMBAPHeaderLen+3+len(r.Data))
	r.MBAPHeader.bytes(result[0:6])
	r.ReadBitsResponse.bytes(result[6:])
	return result
}

// Bytes returns the response as a full Modbus RTU frame, CRC included.
func (r ReadDiscreteInputsResponseRTU) Bytes() []byte {
	return appendRTUCRC(r.ReadBitsResponse.bytes(make([]byte, 3+len(r.Data))))
}

func parseReadBitsResponseTCP(data []byte, function uint8) (MBAPHeader, ReadBitsResponse, error) {
	dLen := len(data)
	if dLen < 9 {
		return MBAPHeader{}, ReadBitsResponse{}, ErrTCPDataTooShort
	}
	if dLen < 6+int(binary.BigEndian.Uint16(data[4:6])) {
		return MBAPHeader{}, ReadBitsResponse{}, ErrTCPDataTooShort
	}
	byteLen := data[8]
	if dLen != 9+int(byteLen) {
		return MBAPHeader{}, ReadBitsResponse{}, NewErrorParseTCP(ErrUnknown, "received data length does not match byte len in packet")
	}
	header := MBAPHeader{
		TransactionID: binary.BigEndian.Uint16(data[0:2]),
		Length:        binary.BigEndian.Uint16(data[4:6]),
	}
	return header, ReadBitsResponse{UnitID: data[6], function: function, Data: data[9 : 9+byteLen]}, nil
}

func parseReadBitsResponseRTU(data []byte, function uint8) (ReadBitsResponse, error) {
	dLen := len(data)
	if dLen < 5 {
		return ReadBitsResponse{}, ErrRTUDataTooShort
	}
	byteLen := data[2]
	if dLen != 3+int(byteLen) && dLen != 3+int(byteLen)+2 {
		return ReadBitsResponse{}, NewErrorParseRTU(ErrUnknown, "received data length does not match byte len in packet")
	}
	return ReadBitsResponse{UnitID: data[0], function: function, Data: data[3 : 3+byteLen]}, nil
}

// ParseReadCoilsResponseTCP parses data into a ReadCoilsResponseTCP.
func ParseReadCoilsResponseTCP(data []byte) (*ReadCoilsResponseTCP, error) {
	header, resp, err := parseReadBitsResponseTCP(data, FunctionReadCoils)
	if err != nil {
		return nil, err
	}
	return &ReadCoilsResponseTCP{MBAPHeader: header, ReadBitsResponse: resp}, nil
}

// ParseReadCoilsResponseRTU parses data into a ReadCoilsResponseRTU. Does not check CRC.
func ParseReadCoilsResponseRTU(data []byte) (*ReadCoilsResponseRTU, error) {
	resp, err := parseReadBitsResponseRTU(data, FunctionReadCoils)
	if err != nil {
		return nil, err
	}
	return &ReadCoilsResponseRTU{ReadBitsResponse: resp}, nil
}

// ParseReadDiscreteInputsResponseTCP parses data into a ReadDiscreteInputsResponseTCP.
func ParseReadDiscreteInputsResponseTCP(data []byte) (*ReadDiscreteInputsResponseTCP, error) {
	header, resp, err := parseReadBitsResponseTCP(data, FunctionReadDiscreteInputs)
	if err != nil {
		return nil, err
	}
	return &ReadDiscreteInputsResponseTCP{MBAPHeader: header, ReadBitsResponse: resp}, nil
}

// ParseReadDiscreteInputsResponseRTU parses data into a ReadDiscreteInputsResponseRTU. Does not check CRC.
func ParseReadDiscreteInputsResponseRTU(data []byte) (*ReadDiscreteInputsResponseRTU, error) {
	resp, err := parseReadBitsResponseRTU(data, FunctionReadDiscreteInputs)
	if err != nil {
		return nil, err
	}
	return &ReadDiscreteInputsResponseRTU{ReadBitsResponse: resp}, nil
}
