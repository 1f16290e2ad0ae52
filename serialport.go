package modbus

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// SerialPortConfig describes how to open a physical RTU serial port.
type SerialPortConfig struct {
	// Name is the OS device name, e.g. "/dev/ttyUSB0" or "COM3".
	Name string
	// Baud is the connection speed in bits per second, e.g. 9600, 19200, 115200.
	Baud int
	// ReadTimeout bounds a single Read call on the port. Defaults to 500ms when zero.
	ReadTimeout time.Duration
	// Size is the number of data bits. Defaults to 8 when zero.
	Size byte
	// Parity is the parity mode. Defaults to serial.ParityNone when unset.
	Parity serial.Parity
	// StopBits is the number of stop bits. Defaults to serial.Stop1 when unset.
	StopBits serial.StopBits
}

// OpenSerialPort opens the serial device described by conf using github.com/tarm/serial.
func OpenSerialPort(conf SerialPortConfig) (*serial.Port, error) {
	readTimeout := conf.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 500 * time.Millisecond
	}
	size := conf.Size
	if size == 0 {
		size = 8
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        conf.Name,
		Baud:        conf.Baud,
		ReadTimeout: readTimeout,
		Size:        size,
		Parity:      conf.Parity,
		StopBits:    conf.StopBits,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open serial port %q: %v", ErrSerialError, conf.Name, err)
	}
	return port, nil
}

// NewSerialClientForPort opens conf's serial device and returns a ready-to-use SerialClient for it.
func NewSerialClientForPort(conf SerialPortConfig, opts ...SerialClientOptionFunc) (*SerialClient, error) {
	port, err := OpenSerialPort(conf)
	if err != nil {
		return nil, err
	}
	return NewSerialClient(port, opts...), nil
}
