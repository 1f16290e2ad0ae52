package modbus

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/gridtie/modbus/packet"
)

// The sentinel errors below classify what went wrong with a Do call so callers can branch with
// errors.Is instead of inspecting ClientError.Err directly. They wrap (rather than replace)
// ClientError and the packet-level error values, so existing errors.As(err, &packet.ErrorResponseTCP{})
// style checks keep working unchanged.
var (
	// ErrInvalidFunctionCode is returned when a received PDU carries a function code this client
	// does not support.
	ErrInvalidFunctionCode = packet.ErrInvalidFunctionCode
	// ErrInvalidExceptionCode is returned when a received exception response carries an exception
	// code outside the set this module recognizes.
	ErrInvalidExceptionCode = errors.New("modbus: invalid exception code")
	// ErrInvalidDataLength is returned when received data is too short to be a complete Modbus TCP
	// packet or RTU frame. A response whose byte count field does not match the data actually
	// present is returned as the packet parse error, without this sentinel.
	ErrInvalidDataLength = errors.New("modbus: invalid data length")
	// ErrCrcCheckFailed is returned when a received RTU frame's CRC does not match its payload.
	ErrCrcCheckFailed = packet.ErrInvalidCRC
	// ErrProtocolError is returned for malformed responses that do not fit any of the more
	// specific categories above; the session should be closed rather than retried.
	ErrProtocolError = errors.New("modbus: protocol error")
	// ErrTimeout is returned when a request did not receive a complete response within its
	// configured read timeout.
	ErrTimeout = errors.New("modbus: timeout")
	// ErrIoError is returned for a network or serial I/O failure other than a timeout.
	ErrIoError = errors.New("modbus: i/o error")
	// ErrSerialError is returned when opening a serial port fails.
	ErrSerialError = errors.New("modbus: serial error")
	// ErrNetworkError is returned when a TCP dial or connection operation fails.
	ErrNetworkError = errors.New("modbus: network error")
)

// AsException reports whether err is (or wraps) a Modbus exception response, returning the
// exception code and true if so.
func AsException(err error) (code uint8, ok bool) {
	var tcpExc *packet.ErrorResponseTCP
	if errors.As(err, &tcpExc) {
		return tcpExc.Code, true
	}
	var rtuExc *packet.ErrorResponseRTU
	if errors.As(err, &rtuExc) {
		return rtuExc.Code, true
	}
	return 0, false
}

// classifyError wraps err with the sentinel that best describes it, for use by callers that want
// errors.Is-style classification instead of inspecting concrete types.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, packet.ErrInvalidCRC) {
		return fmt.Errorf("%w: %w", ErrCrcCheckFailed, err)
	}
	if errors.Is(err, packet.ErrTCPDataTooShort) || errors.Is(err, packet.ErrRTUDataTooShort) {
		return fmt.Errorf("%w: %w", ErrInvalidDataLength, err)
	}
	if code, ok := AsException(err); ok {
		if !packet.IsKnownExceptionCode(code) {
			return fmt.Errorf("%w: %w", ErrInvalidExceptionCode, err)
		}
		return err // exception responses are returned as-is; callers use AsException
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		if errors.Is(err, ErrPacketTooLong) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrIoError, err)
	}
	return err
}
