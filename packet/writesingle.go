package packet

import (
	"encoding/binary"
)

// WriteSingleCoilRequestTCP is a TCP request for Write Single Coil (FC=05).
//
// Data part of the packet is always 4 bytes: 2 for address, 2 for coil status (0xFF00 = on, 0x0000 = off).
//
// Example packet: 0x00 0x01 0x00 0x00 0x00 0x06 0x11 0x05 0x00 0x6B 0xFF 0x00
// 0x00 0x01 - transaction id (0,1)
// 0x00 0x00 - protocol id (2,3)
// 0x00 0x06 - length of unit id + PDU to follow (4,5)
// 0x11 - unit id (6)
// 0x05 - function code (7)
// 0x00 0x6B - address (8,9)
// 0xFF 0x00 - coil state (10,11)
type WriteSingleCoilRequestTCP struct {
	MBAPHeader
	WriteSingleCoilRequest
}

// WriteSingleCoilRequestRTU is an RTU request for Write Single Coil (FC=05).
type WriteSingleCoilRequestRTU struct {
	WriteSingleCoilRequest
}

// WriteSingleCoilRequest is the request for Write Single Coil (FC=05).
type WriteSingleCoilRequest struct {
	UnitID    uint8
	Address   uint16
	CoilState bool
}

// FunctionCode returns the function code of this request.
func (r WriteSingleCoilRequest) FunctionCode() uint8 { return FunctionWriteSingleCoil }

// Bytes returns the request PDU (without framing) as bytes.
func (r WriteSingleCoilRequest) Bytes() []byte {
	return r.bytes(make([]byte, 6))
}

func (r WriteSingleCoilRequest) bytes(dst []byte) []byte {
	coilState := coilOff
	if r.CoilState {
		coilState = coilOn
	}
	putWriteSingleBytes(dst, r.UnitID, FunctionWriteSingleCoil, r.Address, coilState)
	return dst
}

// NewWriteSingleCoilRequestTCP creates a new Write Single Coil TCP request.
func NewWriteSingleCoilRequestTCP(unitID uint8, address uint16, coilState bool) (*WriteSingleCoilRequestTCP, error) {
	return &WriteSingleCoilRequestTCP{
		MBAPHeader:             MBAPHeader{TransactionID: newTransactionID(), Length: 6},
		WriteSingleCoilRequest: WriteSingleCoilRequest{UnitID: unitID, Address: address, CoilState: coilState},
	}, nil
}

// NewWriteSingleCoilRequestRTU creates a new Write Single Coil RTU request.
func NewWriteSingleCoilRequestRTU(unitID uint8, address uint16, coilState bool) (*WriteSingleCoilRequestRTU, error) {
	return &WriteSingleCoilRequestRTU{
		WriteSingleCoilRequest: WriteSingleCoilRequest{UnitID: unitID, Address: address, CoilState: coilState},
	}, nil
}

// Bytes returns the request as a full Modbus TCP packet.
func (r WriteSingleCoilRequestTCP) Bytes() []byte {
	result := make([]byte, tcpMBAPHeaderLen+6)
	r.MBAPHeader.bytes(result[0:6])
	r.WriteSingleCoilRequest.bytes(result[6:])
	return result
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be
// (write-single responses echo the request exactly).
func (r WriteSingleCoilRequestTCP) ExpectedResponseLength() int { return 6 + 6 }

// Bytes returns the request as a full Modbus RTU frame, CRC included.
func (r WriteSingleCoilRequestRTU) Bytes() []byte {
	return appendRTUCRC(r.WriteSingleCoilRequest.bytes(make([]byte, 6)))
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be.
func (r WriteSingleCoilRequestRTU) ExpectedResponseLength() int { return 6 + 2 }

// ParseWriteSingleCoilRequestTCP parses data into a WriteSingleCoilRequestTCP.
func ParseWriteSingleCoilRequestTCP(data []byte) (*WriteSingleCoilRequestTCP, error) {
	header, err := ParseMBAPHeader(data)
	if err != nil {
		return nil, err
	}
	unitID := data[6]
	if data[7] != FunctionWriteSingleCoil {
		tmpErr := NewErrorParseTCP(ErrIllegalFunction, "received function code in packet is not 0x05")
		tmpErr.Packet.TransactionID = header.TransactionID
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = FunctionWriteSingleCoil
		return nil, tmpErr
	}
	coilStateRaw := binary.BigEndian.Uint16(data[10:12])
	if coilStateRaw != coilOn && coilStateRaw != coilOff {
		tmpErr := NewErrorParseTCP(ErrIllegalDataValue, "coil state has invalid value")
		tmpErr.Packet.TransactionID = header.TransactionID
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = FunctionWriteSingleCoil
		return nil, tmpErr
	}
	return &WriteSingleCoilRequestTCP{
		MBAPHeader: header,
		WriteSingleCoilRequest: WriteSingleCoilRequest{
			UnitID:    unitID,
			Address:   binary.BigEndian.Uint16(data[8:10]),
			CoilState: coilStateRaw == coilOn,
		},
	}, nil
}

// ParseWriteSingleCoilRequestRTU parses data into a WriteSingleCoilRequestRTU. Does not check CRC.
func ParseWriteSingleCoilRequestRTU(data []byte) (*WriteSingleCoilRequestRTU, error) {
	dLen := len(data)
	if dLen != 6 && dLen != 8 {
		return nil, NewErrorParseRTU(ErrIllegalDataValue, "invalid data length to be valid packet")
	}
	unitID := data[0]
	if data[1] != FunctionWriteSingleCoil {
		tmpErr := NewErrorParseRTU(ErrIllegalFunction, "received function code in packet is not 0x05")
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = FunctionWriteSingleCoil
		return nil, tmpErr
	}
	coilStateRaw := binary.BigEndian.Uint16(data[4:6])
	if coilStateRaw != coilOn && coilStateRaw != coilOff {
		tmpErr := NewErrorParseRTU(ErrIllegalDataValue, "coil state has invalid value")
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = FunctionWriteSingleCoil
		return nil, tmpErr
	}
	return &WriteSingleCoilRequestRTU{
		WriteSingleCoilRequest: WriteSingleCoilRequest{
			UnitID:    unitID,
			Address:   binary.BigEndian.Uint16(data[2:4]),
			CoilState: coilStateRaw == coilOn,
		},
	}, nil
}

// WriteSingleCoilResponseTCP is a TCP response for Write Single Coil (FC=05). The server echoes
// the request unchanged on success.
type WriteSingleCoilResponseTCP struct {
	MBAPHeader
	WriteSingleCoilRequest
}

// WriteSingleCoilResponseRTU is an RTU response for Write Single Coil (FC=05).
type WriteSingleCoilResponseRTU struct {
	WriteSingleCoilRequest
}

// ParseWriteSingleCoilResponseTCP parses data into a WriteSingleCoilResponseTCP.
func ParseWriteSingleCoilResponseTCP(data []byte) (*WriteSingleCoilResponseTCP, error) {
	req, err := ParseWriteSingleCoilRequestTCP(data)
	if err != nil {
		return nil, err
	}
	return &WriteSingleCoilResponseTCP{MBAPHeader: req.MBAPHeader, WriteSingleCoilRequest: req.WriteSingleCoilRequest}, nil
}

// ParseWriteSingleCoilResponseRTU parses data into a WriteSingleCoilResponseRTU. Does not check CRC.
func ParseWriteSingleCoilResponseRTU(data []byte) (*WriteSingleCoilResponseRTU, error) {
	req, err := ParseWriteSingleCoilRequestRTU(data)
	if err != nil {
		return nil, err
	}
	return &WriteSingleCoilResponseRTU{WriteSingleCoilRequest: req.WriteSingleCoilRequest}, nil
}

// WriteSingleRegisterRequestTCP is a TCP request for Write Single Register (FC=06).
type WriteSingleRegisterRequestTCP struct {
	MBAPHeader
	WriteSingleRegisterRequest
}

// WriteSingleRegisterRequestRTU is an RTU request for Write Single Register (FC=06).
type WriteSingleRegisterRequestRTU struct {
	WriteSingleRegisterRequest
}

// WriteSingleRegisterRequest is the request for Write Single Register (FC=06).
type WriteSingleRegisterRequest struct {
	UnitID  uint8
	Address uint16
	Value   uint16
}

// FunctionCode returns the function code of this request.
func (r WriteSingleRegisterRequest) FunctionCode() uint8 { return FunctionWriteSingleRegister }

// Bytes returns the request PDU (without framing) as bytes.
func (r WriteSingleRegisterRequest) Bytes() []byte {
	return r.bytes(make([]byte, 6))
}

func (r WriteSingleRegisterRequest) bytes(dst []byte) []byte {
	putWriteSingleBytes(dst, r.UnitID, FunctionWriteSingleRegister, r.Address, r.Value)
	return dst
}

// NewWriteSingleRegisterRequestTCP creates a new Write Single Register TCP request.
func NewWriteSingleRegisterRequestTCP(unitID uint8, address, value uint16) (*WriteSingleRegisterRequestTCP, error) {
	return &WriteSingleRegisterRequestTCP{
		MBAPHeader:                 MBAPHeader{TransactionID: newTransactionID(), Length: 6},
		WriteSingleRegisterRequest: WriteSingleRegisterRequest{UnitID: unitID, Address: address, Value: value},
	}, nil
}

// NewWriteSingleRegisterRequestRTU creates a new Write Single Register RTU request.
func NewWriteSingleRegisterRequestRTU(unitID uint8, address, value uint16) (*WriteSingleRegisterRequestRTU, error) {
	return &WriteSingleRegisterRequestRTU{
		WriteSingleRegisterRequest: WriteSingleRegisterRequest{UnitID: unitID, Address: address, Value: value},
	}, nil
}

// Bytes returns the request as a full Modbus TCP packet.
func (r WriteSingleRegisterRequestTCP) Bytes() []byte {
	result := make([]byte, tcpMBAPHeaderLen+6)
	r.MBAPHeader.bytes(result[0:6])
	r.WriteSingleRegisterRequest.bytes(result[6:])
	return result
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be.
func (r WriteSingleRegisterRequestTCP) ExpectedResponseLength() int { return 6 + 6 }

// Bytes returns the request as a full Modbus RTU frame, CRC included.
func (r WriteSingleRegisterRequestRTU) Bytes() []byte {
	return appendRTUCRC(r.WriteSingleRegisterRequest.bytes(make([]byte, 6)))
}

// ExpectedResponseLength returns the length, in bytes, a valid response to this request would be.
func (r WriteSingleRegisterRequestRTU) ExpectedResponseLength() int { return 6 + 2 }

// ParseWriteSingleRegisterRequestTCP parses data into a WriteSingleRegisterRequestTCP.
func ParseWriteSingleRegisterRequestTCP(data []byte) (*WriteSingleRegisterRequestTCP, error) {
	header, err := ParseMBAPHeader(data)
	if err != nil {
		return nil, err
	}
	unitID := data[6]
	if data[7] != FunctionWriteSingleRegister {
		tmpErr := NewErrorParseTCP(ErrIllegalFunction, "received function code in packet is not 0x06")
		tmpErr.Packet.TransactionID = header.TransactionID
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = FunctionWriteSingleRegister
		return nil, tmpErr
	}
	return &WriteSingleRegisterRequestTCP{
		MBAPHeader: header,
		WriteSingleRegisterRequest: WriteSingleRegisterRequest{
			UnitID:  unitID,
			Address: binary.BigEndian.Uint16(data[8:10]),
			Value:   binary.BigEndian.Uint16(data[10:12]),
		},
	}, nil
}

// ParseWriteSingleRegisterRequestRTU parses data into a WriteSingleRegisterRequestRTU. Does not check CRC.
func ParseWriteSingleRegisterRequestRTU(data []byte) (*WriteSingleRegisterRequestRTU, error) {
	dLen := len(data)
	if dLen != 6 && dLen != 8 {
		return nil, NewErrorParseRTU(ErrIllegalDataValue, "invalid data length to be valid packet")
	}
	unitID := data[0]
	if data[1] != FunctionWriteSingleRegister {
		tmpErr := NewErrorParseRTU(ErrIllegalFunction, "received function code in packet is not 0x06")
		tmpErr.Packet.UnitID = unitID
		tmpErr.Packet.Function = FunctionWriteSingleRegister
		return nil, tmpErr
	}
	return &WriteSingleRegisterRequestRTU{
		WriteSingleRegisterRequest: WriteSingleRegisterRequest{
			UnitID:  unitID,
			Address: binary.BigEndian.Uint16(data[2:4]),
			Value:   binary.BigEndian.Uint16(data[4:6]),
		},
	}, nil
}

// WriteSingleRegisterResponseTCP is a TCP response for Write Single Register (FC=06). The server
// echoes the request unchanged on success.
type WriteSingleRegisterResponseTCP struct {
	MBAPHeader
	WriteSingleRegisterRequest
}

// WriteSingleRegisterResponseRTU is an RTU response for Write Single Register (FC=06).
type WriteSingleRegisterResponseRTU struct {
	WriteSingleRegisterRequest
}

// ParseWriteSingleRegisterResponseTCP parses data into a WriteSingleRegisterResponseTCP.
func ParseWriteSingleRegisterResponseTCP(data []byte) (*WriteSingleRegisterResponseTCP, error) {
	req, err := ParseWriteSingleRegisterRequestTCP(data)
	if err != nil {
		return nil, err
	}
	return &WriteSingleRegisterResponseTCP{MBAPHeader: req.MBAPHeader, WriteSingleRegisterRequest: req.WriteSingleRegisterRequest}, nil
}

// ParseWriteSingleRegisterResponseRTU parses data into a WriteSingleRegisterResponseRTU. Does not check CRC.
func ParseWriteSingleRegisterResponseRTU(data []byte) (*WriteSingleRegisterResponseRTU, error) {
	req, err := ParseWriteSingleRegisterRequestRTU(data)
	if err != nil {
		return nil, err
	}
	return &WriteSingleRegisterResponseRTU{WriteSingleRegisterRequest: req.WriteSingleRegisterRequest}, nil
}
