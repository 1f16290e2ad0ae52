package server

import (
	"context"
	"errors"
	"io"
	"os"
	"time"
)

// SerialServer serves Modbus RTU requests arriving on a single serial port session. Unlike Server,
// which accepts many concurrent TCP connections, a serial line has exactly one peer, so there is no
// accept loop or per-connection goroutine - just one read/dispatch/write cycle running until the
// context is cancelled or the port errors out.
type SerialServer struct {
	// ReadTimeout bounds each individual Read call on Port; expired deadlines are not fatal, they
	// just give the context-cancellation check a chance to run.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing a response back to Port.
	WriteTimeout time.Duration

	// OnErrorFunc is called with non-fatal errors encountered while serving, e.g. malformed frames.
	OnErrorFunc func(err error)
}

// deadliner is implemented by serial ports (and net.Conn) that support per-call read/write deadlines.
// Plain io.ReadWriteCloser implementations that don't support deadlines still work; ReadTimeout and
// WriteTimeout are simply not enforced.
type deadliner interface {
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Serve reads RTU frames from port, dispatches them to handler, and writes back the encoded
// response, until ctx is cancelled or a fatal I/O error occurs.
func (s *SerialServer) Serve(ctx context.Context, port io.ReadWriteCloser, handler ModbusHandler) error {
	onError := s.OnErrorFunc
	if onError == nil {
		onError = func(err error) {}
	}

	assembler := &RTUAssembler{Handler: handler}
	dl, supportsDeadline := port.(deadliner)

	readTimeout := s.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = readTimeout500ms
	}
	writeTimeout := s.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = readTimeout500ms
	}

	received := make([]byte, 300)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if supportsDeadline {
			_ = dl.SetReadDeadline(time.Now().Add(readTimeout))
		}
		n, err := port.Read(received)
		if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
			if errors.Is(err, io.EOF) {
				return nil
			}
			onError(err)
			return err
		}
		if n == 0 {
			continue
		}

		toSend, closeSession := assembler.ReceiveRead(ctx, received[0:n], n)
		if toSend != nil {
			if supportsDeadline {
				_ = dl.SetWriteDeadline(time.Now().Add(writeTimeout))
			}
			if _, err := port.Write(toSend); err != nil {
				onError(err)
				return err
			}
		}
		if closeSession {
			return nil
		}
	}
}

const readTimeout500ms = 500 * time.Millisecond
