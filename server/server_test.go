package server

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"testing"
	"time"

	"github.com/gridtie/modbus"
	"github.com/gridtie/modbus/packet"
	"github.com/stretchr/testify/assert"
)

func TestRequestToServer(t *testing.T) {
	units := NewUnitRegistry()
	image := NewDataImage()
	image.SeedHoldingRegister(10, 0x0001)
	image.SeedHoldingRegister(11, 0x0102)
	units.Add(1, image)
	dispatcher := NewDispatcher(units, nil)

	serverAddrCh := make(chan string)
	s := Server{
		OnServeFunc: func(addr net.Addr) {
			serverAddrCh <- addr.String()
		},
		OnErrorFunc:      nil,
		OnAcceptConnFunc: nil,
	}

	tCtx, tCancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer tCancel()
	ctx, cancel := signal.NotifyContext(tCtx, os.Kill, os.Interrupt)
	defer cancel()

	// we start the server and listen for incoming connections/data in separate goroutine. ListenAndServe is blocking call.
	go func() {
		err := s.ListenAndServe(ctx, "localhost:5020", dispatcher)
		if err != nil && !errors.Is(err, ErrServerClosed) {
			assert.NoError(t, err)
		}
	}()

	select {
	case <-ctx.Done():
		return
	case serverAddr := <-serverAddrCh: // wait for server to "start"
		register11, err := doRequest(ctx, serverAddr)
		assert.NoError(t, err)
		assert.Equal(t, uint16(258), register11)
	}

	graceful, gCancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer gCancel()
	if err := s.Shutdown(graceful); err != nil {
		assert.NoError(t, err)
	}
}

func doRequest(ctx context.Context, serverAddress string) (uint16, error) {
	client := modbus.NewTCPClientWithConfig(modbus.ClientConfig{
		WriteTimeout: 2 * time.Second,
		ReadTimeout:  2 * time.Second,
	})
	if err := client.Connect(ctx, serverAddress); err != nil {
		return 0, err
	}
	defer client.Close()

	startAddress := uint16(10)
	values, err := client.ReadHoldingRegistersWithSlaveID(ctx, 1, startAddress, 2)
	if err != nil {
		return 0, err
	}
	return values[1], nil
}

func TestRequestToServer_unknownUnit(t *testing.T) {
	units := NewUnitRegistry()
	units.Add(1, NewDataImage())
	dispatcher := NewDispatcher(units, nil)

	serverAddrCh := make(chan string)
	s := Server{
		OnServeFunc: func(addr net.Addr) {
			serverAddrCh <- addr.String()
		},
	}

	tCtx, tCancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer tCancel()
	ctx, cancel := signal.NotifyContext(tCtx, os.Kill, os.Interrupt)
	defer cancel()

	go func() {
		err := s.ListenAndServe(ctx, "localhost:5021", dispatcher)
		if err != nil && !errors.Is(err, ErrServerClosed) {
			assert.NoError(t, err)
		}
	}()

	select {
	case <-ctx.Done():
		return
	case serverAddr := <-serverAddrCh:
		client := modbus.NewTCPClientWithConfig(modbus.ClientConfig{
			WriteTimeout: 2 * time.Second,
			ReadTimeout:  2 * time.Second,
		})
		if !assert.NoError(t, client.Connect(ctx, serverAddr)) {
			return
		}
		defer client.Close()

		_, err := client.ReadHoldingRegistersWithSlaveID(ctx, 99, 0, 1)
		assert.Error(t, err)
		code, ok := modbus.AsException(err)
		assert.True(t, ok)
		assert.Equal(t, uint8(packet.ErrGatewayTargetedDeviceResponse), code)
	}

	graceful, gCancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer gCancel()
	if err := s.Shutdown(graceful); err != nil {
		assert.NoError(t, err)
	}
}

func TestServer_Addr(t *testing.T) {
	listener, err := net.Listen("tcp", ":0")
	if !assert.NoError(t, err) {
		return
	}
	defer listener.Close()

	lAddr := listener.Addr().String()

	s := Server{
		listener: listener,
	}
	assert.Equal(t, lAddr, s.Addr().String())
}
