package packet

import (
	"encoding/binary"
)

// WriteMultipleCoilsRequestTCP is a TCP request for Write Multiple Coils (FC=15/0x0F).
//
// Example packet: 0x00 0x01 0x00 0x00 0x00 0x09 0x11 0x0F 0x00 0x13 0x00 0x0A 0x02 0xCD 0x01
// 0x00 0x01 - transaction id (0,1)
// 0x00 0x00 - protocol id (2,3)
// 0x00 0x09 - length of unit id + PDU to follow (4,5)
// 0x11 - unit id (6)
// 0x0F - function code (7)
// 0x00 0x13 - start address (8,9)
// 0x00 0x0A - coil quantity (10,11)
// 0x02 - coil byte count (12)
// 0xCD 0x01 - coil data (13,14,...)
type WriteMultipleCoilsRequestTCP struct {
	MBAPHeader
	WriteMultipleCoilsRequest
}

// WriteMultipleCoilsRequestRTU is an RTU request for Write Multiple Coils (FC=15/0x0F).
type WriteMultipleCoilsRequestRTU struct {
	WriteMultipleCoilsRequest
}

// WriteMultipleCoilsRequest is the request for Write Multiple Coils (FC=15/0x0F).
type WriteMultipleCoilsRequest struct {
	UnitID       uint8
	StartAddress uint16
	Quantity     uint16
	Data         []byte
}

// NewWriteMultipleCoilsRequestTCP creates a new Write Multiple Coils TCP request from coil states.
func NewWriteMultipleCoilsRequestTCP(unitID uint8, startAddress uint16, coils []bool) (*WriteMultipleCoilsRequestTCP, error) {
	req, err := newWriteMultipleCoilsRequest(unitID, startAddress, coils)
	if err != nil {
		return nil, err
	}
	return &WriteMultipleCoilsRequestTCP{
		MBAPHeader:                MBAPHeader{TransactionID: newTransactionID(), Length: uint16(7 + len(req.Data))},
		WriteMultipleCoilsRequest: req,
	}, nil
}

// NewWriteMultipleCoilsRequestRTU creates a new Write Multiple Coils RTU request from coil states.
func NewWriteMultipleCoilsRequestRTU(unitID uint8, startAddress uint16, coils []bool) (*WriteMultipleCoilsRequestRTU, error) {
	req, err := newWriteMultipleCoilsRequest(unitID, startAddress, coils)
	if err != nil {
		return nil, err
	}
	return &WriteMultipleCoilsRequestRTU{WriteMultipleCoilsRequest: req}, nil
}

func newWriteMultipleCoilsRequest(unitID uint8, startAddress uint16, coils []bool) (WriteMultipleCoilsRequest, error) {
	quantity := uint16(len(coils))
	if quantity == 0 || quantity > MaxCoilsInWriteRequest {
		return WriteMultipleCoilsRequest{}, NewErrorParseRTU(ErrIllegalDataValue, "quantity is out of range (1-1968)")
	}
	return WriteMultipleCoilsRequest{
		UnitID:       unitID,
		StartAddress: startAddress,
		Quantity:     quantity,
		Data:         CoilsToBytes(coils),
	}, nil
}

// FunctionCode returns the function code of this request.
func (r WriteMultipleCoilsRequest) FunctionCode() uint8 { return FunctionWriteMultipleCoils }

// Bytes returns the request PDU (without framing) as bytes.
func (r WriteMultipleCoilsRequest) Bytes() []byte {
	return r.bytes(make([]byte, 7+len(r.Data)))
}

func (r WriteMultipleCoilsRequest) bytes(dst []byte) []byte {
	dst[0] = r.UnitID
	dst[1] = FunctionWriteMultipleCoils
	binary.BigEndian.PutUint16(dst[2:4], r.StartAddress)
	binary.BigEndian.PutUint16(dst[4:6], r.Quantity)
	dst[6] = uint8(len(r.Data))
	copy(dst[7:], r.Data)
	return dst
}

// Bytes returns the request as a full Modbus TCP packet.
func (r WriteMultipleCoilsRequestTCP) Bytes() []byte {
	result := make([]byte, tcpMBAPHeaderLen+7+len(r.Data))
	r.MBAPHeader.bytes(result[0:6])
	r.WriteMultipleCoilsRequest.bytes(result[6:])
	return result
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be.
func (r WriteMultipleCoilsRequestTCP) ExpectedResponseLength() int { return 6 + 6 }

// Bytes returns the request as a full Modbus RTU frame, CRC included.
func (r WriteMultipleCoilsRequestRTU) Bytes() []byte {
	return appendRTUCRC(r.WriteMultipleCoilsRequest.bytes(make([]byte, 7+len(r.Data))))
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be.
func (r WriteMultipleCoilsRequestRTU) ExpectedResponseLength() int { return 6 + 2 }

// ParseWriteMultipleCoilsRequestTCP parses data into a WriteMultipleCoilsRequestTCP.
func ParseWriteMultipleCoilsRequestTCP(data []byte) (*WriteMultipleCoilsRequestTCP, error) {
	header, err := ParseMBAPHeader(data)
	if err != nil {
		return nil, err
	}
	unitID := data[6]
	if data[7] != FunctionWriteMultipleCoils {
		tmpErr := NewErrorParseTCP(ErrIllegalFunction, "received function code in packet is not 0x0F")
		tmpErr.Packet.TransactionID = header.TransactionID
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = FunctionWriteMultipleCoils
		return nil, tmpErr
	}
	quantity := binary.BigEndian.Uint16(data[10:12])
	byteLen := data[12]
	if quantity < 1 || quantity > MaxCoilsInWriteRequest || int(byteLen) != coilByteLen(quantity) || len(data) != 13+int(byteLen) {
		tmpErr := NewErrorParseTCP(ErrIllegalDataValue, "invalid quantity or byte count")
		tmpErr.Packet.TransactionID = header.TransactionID
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = FunctionWriteMultipleCoils
		return nil, tmpErr
	}
	return &WriteMultipleCoilsRequestTCP{
		MBAPHeader: header,
		WriteMultipleCoilsRequest: WriteMultipleCoilsRequest{
			UnitID:       unitID,
			StartAddress: binary.BigEndian.Uint16(data[8:10]),
			Quantity:     quantity,
			Data:         data[13 : 13+byteLen],
		},
	}, nil
}

// ParseWriteMultipleCoilsRequestRTU parses data into a WriteMultipleCoilsRequestRTU. Does not check CRC.
func ParseWriteMultipleCoilsRequestRTU(data []byte) (*WriteMultipleCoilsRequestRTU, error) {
	unitID := data[0]
	if len(data) < 7 {
		return nil, NewErrorParseRTU(ErrIllegalDataValue, "invalid data length to be valid packet")
	}
	if data[1] != FunctionWriteMultipleCoils {
		tmpErr := NewErrorParseRTU(ErrIllegalFunction, "received function code in packet is not 0x0F")
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = FunctionWriteMultipleCoils
		return nil, tmpErr
	}
	quantity := binary.BigEndian.Uint16(data[4:6])
	byteLen := data[6]
	dLen := len(data)
	if quantity < 1 || quantity > MaxCoilsInWriteRequest || int(byteLen) != coilByteLen(quantity) ||
		(dLen != 7+int(byteLen) && dLen != 7+int(byteLen)+2) {
		tmpErr := NewErrorParseRTU(ErrIllegalDataValue, "invalid quantity or byte count")
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = FunctionWriteMultipleCoils
		return nil, tmpErr
	}
	return &WriteMultipleCoilsRequestRTU{
		WriteMultipleCoilsRequest: WriteMultipleCoilsRequest{
			UnitID:       unitID,
			StartAddress: binary.BigEndian.Uint16(data[2:4]),
			Quantity:     quantity,
			Data:         data[7 : 7+byteLen],
		},
	}, nil
}

// WriteMultipleCoilsResponse is the Write Multiple Coils response shape: unit id, start address and
// quantity, echoed back on success (FC=15/0x0F).
type WriteMultipleCoilsResponse struct {
	UnitID       uint8
	StartAddress uint16
	Quantity     uint16
}

// FunctionCode returns the function code of this response.
func (r WriteMultipleCoilsResponse) FunctionCode() uint8 { return FunctionWriteMultipleCoils }

// Bytes returns the response PDU (without framing) as bytes.
func (r WriteMultipleCoilsResponse) Bytes() []byte {
	return r.bytes(make([]byte, 6))
}

func (r WriteMultipleCoilsResponse) bytes(dst []byte) []byte {
	putWriteMultipleResponseBytes(dst, r.UnitID, FunctionWriteMultipleCoils, r.StartAddress, r.Quantity)
	return dst
}

// WriteMultipleCoilsResponseTCP is a TCP response for Write Multiple Coils (FC=15/0x0F).
type WriteMultipleCoilsResponseTCP struct {
	MBAPHeader
	WriteMultipleCoilsResponse
}

// WriteMultipleCoilsResponseRTU is an RTU response for Write Multiple Coils (FC=15/0x0F).
type WriteMultipleCoilsResponseRTU struct {
	WriteMultipleCoilsResponse
}

// Bytes returns the response as a full Modbus TCP packet.
func (r WriteMultipleCoilsResponseTCP) Bytes() []byte {
	result := make([]byte, tcpMBAPHeaderLen+6)
	r.MBAPHeader.bytes(result[0:6])
	r.WriteMultipleCoilsResponse.bytes(result[6:])
	return result
}

// Bytes returns the response as a full Modbus RTU frame, CRC included.
func (r WriteMultipleCoilsResponseRTU) Bytes() []byte {
	return appendRTUCRC(r.WriteMultipleCoilsResponse.bytes(make([]byte, 6)))
}

func parseWriteMultipleCoilsResponseTCP(data []byte) (MBAPHeader, WriteMultipleCoilsResponse, error) {
	if len(data) != 12 {
		return MBAPHeader{}, WriteMultipleCoilsResponse{}, ErrTCPDataTooShort
	}
	header, err := ParseMBAPHeader(data)
	if err != nil {
		return MBAPHeader{}, WriteMultipleCoilsResponse{}, err
	}
	return header, WriteMultipleCoilsResponse{
		UnitID:       data[6],
		StartAddress: binary.BigEndian.Uint16(data[8:10]),
		Quantity:     binary.BigEndian.Uint16(data[10:12]),
	}, nil
}

// ParseWriteMultipleCoilsResponseTCP parses data into a WriteMultipleCoilsResponseTCP.
func ParseWriteMultipleCoilsResponseTCP(data []byte) (*WriteMultipleCoilsResponseTCP, error) {
	header, resp, err := parseWriteMultipleCoilsResponseTCP(data)
	if err != nil {
		return nil, err
	}
	return &WriteMultipleCoilsResponseTCP{MBAPHeader: header, WriteMultipleCoilsResponse: resp}, nil
}

// ParseWriteMultipleCoilsResponseRTU parses data into a WriteMultipleCoilsResponseRTU. Does not check CRC.
func ParseWriteMultipleCoilsResponseRTU(data []byte) (*WriteMultipleCoilsResponseRTU, error) {
	if len(data) != 6 && len(data) != 8 {
		return nil, ErrRTUDataTooShort
	}
	return &WriteMultipleCoilsResponseRTU{
		WriteMultipleCoilsResponse: WriteMultipleCoilsResponse{
			UnitID:       data[0],
			StartAddress: binary.BigEndian.Uint16(data[2:4]),
			Quantity:     binary.BigEndian.Uint16(data[4:6]),
		},
	}, nil
}

// WriteMultipleRegistersRequestTCP is a TCP request for Write Multiple Registers (FC=16/0x10).
type WriteMultipleRegistersRequestTCP struct {
	MBAPHeader
	WriteMultipleRegistersRequest
}

// WriteMultipleRegistersRequestRTU is an RTU request for Write Multiple Registers (FC=16/0x10).
type WriteMultipleRegistersRequestRTU struct {
	WriteMultipleRegistersRequest
}

// WriteMultipleRegistersRequest is the request for Write Multiple Registers (FC=16/0x10).
type WriteMultipleRegistersRequest struct {
	UnitID       uint8
	StartAddress uint16
	Data         []byte // big-endian register values, 2 bytes each
}

// NewWriteMultipleRegistersRequestTCP creates a new Write Multiple Registers TCP request.
func NewWriteMultipleRegistersRequestTCP(unitID uint8, startAddress uint16, data []byte) (*WriteMultipleRegistersRequestTCP, error) {
	req, err := newWriteMultipleRegistersRequest(unitID, startAddress, data)
	if err != nil {
		return nil, err
	}
	return &WriteMultipleRegistersRequestTCP{
		MBAPHeader:                    MBAPHeader{TransactionID: newTransactionID(), Length: uint16(7 + len(data))},
		WriteMultipleRegistersRequest: req,
	}, nil
}

// NewWriteMultipleRegistersRequestRTU creates a new Write Multiple Registers RTU request.
func NewWriteMultipleRegistersRequestRTU(unitID uint8, startAddress uint16, data []byte) (*WriteMultipleRegistersRequestRTU, error) {
	req, err := newWriteMultipleRegistersRequest(unitID, startAddress, data)
	if err != nil {
		return nil, err
	}
	return &WriteMultipleRegistersRequestRTU{WriteMultipleRegistersRequest: req}, nil
}

func newWriteMultipleRegistersRequest(unitID uint8, startAddress uint16, data []byte) (WriteMultipleRegistersRequest, error) {
	if len(data) == 0 || len(data)%2 != 0 {
		return WriteMultipleRegistersRequest{}, NewErrorParseRTU(ErrIllegalDataValue, "data must be a non-zero, even number of bytes")
	}
	quantity := uint16(len(data) / 2)
	if quantity > MaxRegistersInWriteRequest {
		return WriteMultipleRegistersRequest{}, NewErrorParseRTU(ErrIllegalDataValue, "quantity is out of range (1-123)")
	}
	return WriteMultipleRegistersRequest{UnitID: unitID, StartAddress: startAddress, Data: data}, nil
}

// Quantity returns the number of registers being written.
func (r WriteMultipleRegistersRequest) Quantity() uint16 { return uint16(len(r.Data) / 2) }

// FunctionCode returns the function code of this request.
func (r WriteMultipleRegistersRequest) FunctionCode() uint8 { return FunctionWriteMultipleRegisters }

// Bytes returns the request PDU (without framing) as bytes.
func (r WriteMultipleRegistersRequest) Bytes() []byte {
	return r.bytes(make([]byte, 7+len(r.Data)))
}

func (r WriteMultipleRegistersRequest) bytes(dst []byte) []byte {
	dst[0] = r.UnitID
	dst[1] = FunctionWriteMultipleRegisters
	binary.BigEndian.PutUint16(dst[2:4], r.StartAddress)
	binary.BigEndian.PutUint16(dst[4:6], r.Quantity())
	dst[6] = uint8(len(r.Data))
	copy(dst[7:], r.Data)
	return dst
}

// Bytes returns the request as a full Modbus TCP packet.
func (r WriteMultipleRegistersRequestTCP) Bytes() []byte {
	result := make([]byte, tcpMBAPHeaderLen+7+len(r.Data))
	r.MBAPHeader.bytes(result[0:6])
	r.WriteMultipleRegistersRequest.bytes(result[6:])
	return result
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be.
func (r WriteMultipleRegistersRequestTCP) ExpectedResponseLength() int { return 6 + 6 }

// Bytes returns the request as a full Modbus RTU frame, CRC included.
func (r WriteMultipleRegistersRequestRTU) Bytes() []byte {
	return appendRTUCRC(r.WriteMultipleRegistersRequest.bytes(make([]byte, 7+len(r.Data))))
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be.
func (r WriteMultipleRegistersRequestRTU) ExpectedResponseLength() int { return 6 + 2 }

// ParseWriteMultipleRegistersRequestTCP parses data into a WriteMultipleRegistersRequestTCP.
func ParseWriteMultipleRegistersRequestTCP(data []byte) (*WriteMultipleRegistersRequestTCP, error) {
	header, err := ParseMBAPHeader(data)
	if err != nil {
		return nil, err
	}
	unitID := data[6]
	if data[7] != FunctionWriteMultipleRegisters {
		tmpErr := NewErrorParseTCP(ErrIllegalFunction, "received function code in packet is not 0x10")
		tmpErr.Packet.TransactionID = header.TransactionID
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = FunctionWriteMultipleRegisters
		return nil, tmpErr
	}
	quantity := binary.BigEndian.Uint16(data[10:12])
	byteLen := data[12]
	if quantity < 1 || quantity > MaxRegistersInWriteRequest || int(byteLen) != int(quantity)*2 || len(data) != 13+int(byteLen) {
		tmpErr := NewErrorParseTCP(ErrIllegalDataValue, "invalid quantity or byte count")
		tmpErr.Packet.TransactionID = header.TransactionID
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = FunctionWriteMultipleRegisters
		return nil, tmpErr
	}
	return &WriteMultipleRegistersRequestTCP{
		MBAPHeader: header,
		WriteMultipleRegistersRequest: WriteMultipleRegistersRequest{
			UnitID:       unitID,
			StartAddress: binary.BigEndian.Uint16(data[8:10]),
			Data:         data[13 : 13+byteLen],
		},
	}, nil
}

// ParseWriteMultipleRegistersRequestRTU parses data into a WriteMultipleRegistersRequestRTU. Does not check CRC.
func ParseWriteMultipleRegistersRequestRTU(data []byte) (*WriteMultipleRegistersRequestRTU, error) {
	if len(data) < 7 {
		return nil, NewErrorParseRTU(ErrIllegalDataValue, "invalid data length to be valid packet")
	}
	unitID := data[0]
	if data[1] != FunctionWriteMultipleRegisters {
		tmpErr := NewErrorParseRTU(ErrIllegalFunction, "received function code in packet is not 0x10")
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = FunctionWriteMultipleRegisters
		return nil, tmpErr
	}
	quantity := binary.BigEndian.Uint16(data[4:6])
	byteLen := data[6]
	dLen := len(data)
	if quantity < 1 || quantity > MaxRegistersInWriteRequest || int(byteLen) != int(quantity)*2 ||
		(dLen != 7+int(byteLen) && dLen != 7+int(byteLen)+2) {
		tmpErr := NewErrorParseRTU(ErrIllegalDataValue, "invalid quantity or byte count")
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = FunctionWriteMultipleRegisters
		return nil, tmpErr
	}
	return &WriteMultipleRegistersRequestRTU{
		WriteMultipleRegistersRequest: WriteMultipleRegistersRequest{
			UnitID:       unitID,
			StartAddress: binary.BigEndian.Uint16(data[2:4]),
			Data:         data[7 : 7+byteLen],
		},
	}, nil
}

// WriteMultipleRegistersResponse is the Write Multiple Registers response shape: unit id, start
// address and quantity, echoed back on success (FC=16/0x10).
type WriteMultipleRegistersResponse struct {
	UnitID       uint8
	StartAddress uint16
	Quantity     uint16
}

// FunctionCode returns the function code of this response.
func (r WriteMultipleRegistersResponse) FunctionCode() uint8 { return FunctionWriteMultipleRegisters }

// Bytes returns the response PDU (without framing) as bytes.
func (r WriteMultipleRegistersResponse) Bytes() []byte {
	return r.bytes(make([]byte, 6))
}

func (r WriteMultipleRegistersResponse) bytes(dst []byte) []byte {
	putWriteMultipleResponseBytes(dst, r.UnitID, FunctionWriteMultipleRegisters, r.StartAddress, r.Quantity)
	return dst
}

// WriteMultipleRegistersResponseTCP is a TCP response for Write Multiple Registers (FC=16/0x10).
type WriteMultipleRegistersResponseTCP struct {
	MBAPHeader
	WriteMultipleRegistersResponse
}

// WriteMultipleRegistersResponseRTU is an RTU response for Write Multiple Registers (FC=16/0x10).
type WriteMultipleRegistersResponseRTU struct {
	WriteMultipleRegistersResponse
}

// Bytes returns the response as a full Modbus TCP packet.
func (r WriteMultipleRegistersResponseTCP) Bytes() []byte {
	result := make([]byte, tcpMBAPHeaderLen+6)
	r.MBAPHeader.bytes(result[0:6])
	r.WriteMultipleRegistersResponse.bytes(result[6:])
	return result
}

// Bytes returns the response as a full Modbus RTU frame, CRC included.
func (r WriteMultipleRegistersResponseRTU) Bytes() []byte {
	return appendRTUCRC(r.WriteMultipleRegistersResponse.bytes(make([]byte, 6)))
}

// ParseWriteMultipleRegistersResponseTCP parses data into a WriteMultipleRegistersResponseTCP.
func ParseWriteMultipleRegistersResponseTCP(data []byte) (*WriteMultipleRegistersResponseTCP, error) {
	if len(data) != 12 {
		return nil, ErrTCPDataTooShort
	}
	header, err := ParseMBAPHeader(data)
	if err != nil {
		return nil, err
	}
	return &WriteMultipleRegistersResponseTCP{
		MBAPHeader: header,
		WriteMultipleRegistersResponse: WriteMultipleRegistersResponse{
			UnitID:       data[6],
			StartAddress: binary.BigEndian.Uint16(data[8:10]),
			Quantity:     binary.BigEndian.Uint16(data[10:12]),
		},
	}, nil
}

// ParseWriteMultipleRegistersResponseRTU parses data into a WriteMultipleRegistersResponseRTU. Does not check CRC.
func ParseWriteMultipleRegistersResponseRTU(data []byte) (*WriteMultipleRegistersResponseRTU, error) {
	if len(data) != 6 && len(data) != 8 {
		return nil, ErrRTUDataTooShort
	}
	return &WriteMultipleRegistersResponseRTU{
		WriteMultipleRegistersResponse: WriteMultipleRegistersResponse{
			UnitID:       data[0],
			StartAddress: binary.BigEndian.Uint16(data[2:4]),
			Quantity:     binary.BigEndian.Uint16(data[4:6]),
		},
	}, nil
}
