package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gridtie/modbus/packet"
)

// Dispatcher implements ModbusHandler: it decodes the unit id from an incoming request, looks up
// that unit's DataImage in Units, executes the request's operation, and encodes a response of the
// same wire kind (TCP or RTU) the request arrived as. Unknown unit ids on TCP and out-of-range
// addresses become Modbus exception responses rather than connection errors; on RTU an unknown
// unit id gets no reply. Only a TCP request with a malformed MBAP header (rejected before Handle
// is ever called) closes the connection.
type Dispatcher struct {
	Units *UnitRegistry
	Log   *slog.Logger
}

// NewDispatcher creates a Dispatcher backed by units, logging dispatch exceptions to log.
// If log is nil, slog.Default() is used.
func NewDispatcher(units *UnitRegistry, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{Units: units, Log: log}
}

// Handle executes req against the addressed unit's DataImage and returns the Modbus response PDU,
// wrapped in whichever framing (TCP/MBAP or RTU) req itself used. A nil, nil return means no
// response should be transmitted at all (broadcast, or an unregistered unit id on RTU).
func (d *Dispatcher) Handle(ctx context.Context, req packet.Request) (packet.Response, error) {
	meta := requestMetaFor(req)

	if meta.unitID == 0 {
		d.handleBroadcast(ctx, req, meta)
		return nil, nil
	}

	image, ok := d.Units.Get(meta.unitID)
	if !ok {
		d.Log.WarnContext(ctx, "dispatch: unknown unit id", "unit_id", meta.unitID, "function", meta.function)
		if !meta.isTCP {
			// the RTU server is not a gateway; it only answers for its registered units.
			return nil, nil
		}
		return nil, meta.exception(packet.ErrGatewayTargetedDeviceResponse)
	}

	resp, excCode := execute(image, req, meta)
	if excCode != 0 {
		d.Log.InfoContext(ctx, "dispatch: exception response", "unit_id", meta.unitID, "function", meta.function, "code", excCode)
		return nil, meta.exception(excCode)
	}
	return resp, nil
}

// handleBroadcast executes a unit_id==0 request against every registered unit's image. Broadcast
// is valid only for write function codes; a broadcast read has no single response to give back, so
// it is dropped without being executed against any unit.
func (d *Dispatcher) handleBroadcast(ctx context.Context, req packet.Request, meta requestMeta) {
	if !isWriteFunction(meta.function) {
		d.Log.WarnContext(ctx, "dispatch: dropping broadcast read", "function", meta.function)
		return
	}
	for _, unitID := range d.Units.List() {
		image, ok := d.Units.Get(unitID)
		if !ok {
			continue
		}
		if _, excCode := execute(image, req, meta); excCode != 0 {
			d.Log.WarnContext(ctx, "dispatch: broadcast exception", "unit_id", unitID, "function", meta.function, "code", excCode)
		}
	}
}

func isWriteFunction(function uint8) bool {
	switch function {
	case packet.FunctionWriteSingleCoil, packet.FunctionWriteSingleRegister,
		packet.FunctionWriteMultipleCoils, packet.FunctionWriteMultipleRegisters:
		return true
	default:
		return false
	}
}

// requestMeta describes the envelope details shared by every request shape, plus the framing kind
// (TCP/MBAP vs RTU) needed to build a matching response or exception.
type requestMeta struct {
	unitID        uint8
	function      uint8
	transactionID uint16
	isTCP         bool
}

func (m requestMeta) exception(code uint8) error {
	if m.isTCP {
		return &packet.ErrorResponseTCP{TransactionID: m.transactionID, UnitID: m.unitID, Function: m.function, Code: code}
	}
	return &packet.ErrorResponseRTU{UnitID: m.unitID, Function: m.function, Code: code}
}

func requestMetaOf(unitID, function uint8, header *packet.MBAPHeader) requestMeta {
	if header != nil {
		return requestMeta{unitID: unitID, function: function, transactionID: header.TransactionID, isTCP: true}
	}
	return requestMeta{unitID: unitID, function: function}
}

func requestMetaFor(req packet.Request) requestMeta {
	switch r := req.(type) {
	case *packet.ReadCoilsRequestTCP:
		return requestMetaOf(r.UnitID, r.FunctionCode(), &r.MBAPHeader)
	case *packet.ReadCoilsRequestRTU:
		return requestMetaOf(r.UnitID, r.FunctionCode(), nil)
	case *packet.ReadDiscreteInputsRequestTCP:
		return requestMetaOf(r.UnitID, r.FunctionCode(), &r.MBAPHeader)
	case *packet.ReadDiscreteInputsRequestRTU:
		return requestMetaOf(r.UnitID, r.FunctionCode(), nil)
	case *packet.ReadHoldingRegistersRequestTCP:
		return requestMetaOf(r.UnitID, r.FunctionCode(), &r.MBAPHeader)
	case *packet.ReadHoldingRegistersRequestRTU:
		return requestMetaOf(r.UnitID, r.FunctionCode(), nil)
	case *packet.ReadInputRegistersRequestTCP:
		return requestMetaOf(r.UnitID, r.FunctionCode(), &r.MBAPHeader)
	case *packet.ReadInputRegistersRequestRTU:
		return requestMetaOf(r.UnitID, r.FunctionCode(), nil)
	case *packet.WriteSingleCoilRequestTCP:
		return requestMetaOf(r.UnitID, r.FunctionCode(), &r.MBAPHeader)
	case *packet.WriteSingleCoilRequestRTU:
		return requestMetaOf(r.UnitID, r.FunctionCode(), nil)
	case *packet.WriteSingleRegisterRequestTCP:
		return requestMetaOf(r.UnitID, r.FunctionCode(), &r.MBAPHeader)
	case *packet.WriteSingleRegisterRequestRTU:
		return requestMetaOf(r.UnitID, r.FunctionCode(), nil)
	case *packet.WriteMultipleCoilsRequestTCP:
		return requestMetaOf(r.UnitID, r.FunctionCode(), &r.MBAPHeader)
	case *packet.WriteMultipleCoilsRequestRTU:
		return requestMetaOf(r.UnitID, r.FunctionCode(), nil)
	case *packet.WriteMultipleRegistersRequestTCP:
		return requestMetaOf(r.UnitID, r.FunctionCode(), &r.MBAPHeader)
	case *packet.WriteMultipleRegistersRequestRTU:
		return requestMetaOf(r.UnitID, r.FunctionCode(), nil)
	default:
		return requestMeta{function: req.FunctionCode()}
	}
}

func execute(image *DataImage, req packet.Request, meta requestMeta) (packet.Response, uint8) {
	switch r := req.(type) {
	case *packet.ReadCoilsRequestTCP:
		return readBitsResponse(image.ReadCoils, r.StartAddress, r.Quantity, meta, packet.FunctionReadCoils)
	case *packet.ReadCoilsRequestRTU:
		return readBitsResponse(image.ReadCoils, r.StartAddress, r.Quantity, meta, packet.FunctionReadCoils)
	case *packet.ReadDiscreteInputsRequestTCP:
		return readBitsResponse(image.ReadDiscreteInputs, r.StartAddress, r.Quantity, meta, packet.FunctionReadDiscreteInputs)
	case *packet.ReadDiscreteInputsRequestRTU:
		return readBitsResponse(image.ReadDiscreteInputs, r.StartAddress, r.Quantity, meta, packet.FunctionReadDiscreteInputs)
	case *packet.ReadHoldingRegistersRequestTCP:
		return readRegistersResponse(image.ReadHoldingRegisters, r.StartAddress, r.Quantity, meta, packet.FunctionReadHoldingRegisters)
	case *packet.ReadHoldingRegistersRequestRTU:
		return readRegistersResponse(image.ReadHoldingRegisters, r.StartAddress, r.Quantity, meta, packet.FunctionReadHoldingRegisters)
	case *packet.ReadInputRegistersRequestTCP:
		return readRegistersResponse(image.ReadInputRegisters, r.StartAddress, r.Quantity, meta, packet.FunctionReadInputRegisters)
	case *packet.ReadInputRegistersRequestRTU:
		return readRegistersResponse(image.ReadInputRegisters, r.StartAddress, r.Quantity, meta, packet.FunctionReadInputRegisters)

	case *packet.WriteSingleCoilRequestTCP:
		if err := image.WriteSingleCoil(r.Address, r.CoilState); err != nil {
			return nil, exceptionCode(err)
		}
		return &packet.WriteSingleCoilResponseTCP{MBAPHeader: r.MBAPHeader, WriteSingleCoilRequest: r.WriteSingleCoilRequest}, 0
	case *packet.WriteSingleCoilRequestRTU:
		if err := image.WriteSingleCoil(r.Address, r.CoilState); err != nil {
			return nil, exceptionCode(err)
		}
		return &packet.WriteSingleCoilResponseRTU{WriteSingleCoilRequest: r.WriteSingleCoilRequest}, 0

	case *packet.WriteSingleRegisterRequestTCP:
		if err := image.WriteSingleRegister(r.Address, r.Value); err != nil {
			return nil, exceptionCode(err)
		}
		return &packet.WriteSingleRegisterResponseTCP{MBAPHeader: r.MBAPHeader, WriteSingleRegisterRequest: r.WriteSingleRegisterRequest}, 0
	case *packet.WriteSingleRegisterRequestRTU:
		if err := image.WriteSingleRegister(r.Address, r.Value); err != nil {
			return nil, exceptionCode(err)
		}
		return &packet.WriteSingleRegisterResponseRTU{WriteSingleRegisterRequest: r.WriteSingleRegisterRequest}, 0

	case *packet.WriteMultipleCoilsRequestTCP:
		coils := packet.BytesToCoils(r.Data, r.Quantity)
		if err := image.WriteMultipleCoils(r.StartAddress, coils); err != nil {
			return nil, exceptionCode(err)
		}
		resp := packet.WriteMultipleCoilsResponse{UnitID: r.UnitID, StartAddress: r.StartAddress, Quantity: r.Quantity}
		return &packet.WriteMultipleCoilsResponseTCP{MBAPHeader: packet.MBAPHeader{TransactionID: meta.transactionID, Length: 6}, WriteMultipleCoilsResponse: resp}, 0
	case *packet.WriteMultipleCoilsRequestRTU:
		coils := packet.BytesToCoils(r.Data, r.Quantity)
		if err := image.WriteMultipleCoils(r.StartAddress, coils); err != nil {
			return nil, exceptionCode(err)
		}
		resp := packet.WriteMultipleCoilsResponse{UnitID: r.UnitID, StartAddress: r.StartAddress, Quantity: r.Quantity}
		return &packet.WriteMultipleCoilsResponseRTU{WriteMultipleCoilsResponse: resp}, 0

	case *packet.WriteMultipleRegistersRequestTCP:
		values, err := decodeRegisterValues(r.Data)
		if err != nil {
			return nil, packet.ErrIllegalDataValue
		}
		if err := image.WriteMultipleRegisters(r.StartAddress, values); err != nil {
			return nil, exceptionCode(err)
		}
		resp := packet.WriteMultipleRegistersResponse{UnitID: r.UnitID, StartAddress: r.StartAddress, Quantity: r.Quantity()}
		return &packet.WriteMultipleRegistersResponseTCP{MBAPHeader: packet.MBAPHeader{TransactionID: meta.transactionID, Length: 6}, WriteMultipleRegistersResponse: resp}, 0
	case *packet.WriteMultipleRegistersRequestRTU:
		values, err := decodeRegisterValues(r.Data)
		if err != nil {
			return nil, packet.ErrIllegalDataValue
		}
		if err := image.WriteMultipleRegisters(r.StartAddress, values); err != nil {
			return nil, exceptionCode(err)
		}
		resp := packet.WriteMultipleRegistersResponse{UnitID: r.UnitID, StartAddress: r.StartAddress, Quantity: r.Quantity()}
		return &packet.WriteMultipleRegistersResponseRTU{WriteMultipleRegistersResponse: resp}, 0

	default:
		return nil, packet.ErrIllegalFunction
	}
}

func decodeRegisterValues(data []byte) ([]uint16, error) {
	if len(data)%2 != 0 {
		return nil, errors.New("register data must be an even number of bytes")
	}
	values := make([]uint16, len(data)/2)
	for i := range values {
		values[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return values, nil
}

func readBitsResponse(read func(address, quantity uint16) ([]bool, error), address, quantity uint16, meta requestMeta, function uint8) (packet.Response, uint8) {
	values, err := read(address, quantity)
	if err != nil {
		return nil, exceptionCode(err)
	}
	data := packet.CoilsToBytes(values)
	if meta.isTCP {
		if function == packet.FunctionReadCoils {
			return packet.NewReadCoilsResponseTCP(meta.transactionID, meta.unitID, data), 0
		}
		return packet.NewReadDiscreteInputsResponseTCP(meta.transactionID, meta.unitID, data), 0
	}
	if function == packet.FunctionReadCoils {
		return packet.NewReadCoilsResponseRTU(meta.unitID, data), 0
	}
	return packet.NewReadDiscreteInputsResponseRTU(meta.unitID, data), 0
}

func readRegistersResponse(read func(address, quantity uint16) ([]uint16, error), address, quantity uint16, meta requestMeta, function uint8) (packet.Response, uint8) {
	values, err := read(address, quantity)
	if err != nil {
		return nil, exceptionCode(err)
	}
	data := make([]byte, len(values)*2)
	for i, v := range values {
		data[2*i] = byte(v >> 8)
		data[2*i+1] = byte(v)
	}
	if meta.isTCP {
		if function == packet.FunctionReadHoldingRegisters {
			return packet.NewReadHoldingRegistersResponseTCP(meta.transactionID, meta.unitID, data), 0
		}
		return packet.NewReadInputRegistersResponseTCP(meta.transactionID, meta.unitID, data), 0
	}
	if function == packet.FunctionReadHoldingRegisters {
		return packet.NewReadHoldingRegistersResponseRTU(meta.unitID, data), 0
	}
	return packet.NewReadInputRegistersResponseRTU(meta.unitID, data), 0
}

// exceptionCode maps an image-level error to the Modbus exception code it should surface as.
func exceptionCode(err error) uint8 {
	if errors.Is(err, packet.ErrIllegalDataValue) {
		return packet.ErrIllegalDataValue
	}
	return packet.ErrIllegalDataAddress
}
