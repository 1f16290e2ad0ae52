package modbus_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/gridtie/modbus"
	"github.com/gridtie/modbus/packet"
	"github.com/gridtie/modbus/server"
	"github.com/stretchr/testify/assert"
)

func TestReadCoilsRequestTCP(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	addr := startServer(ctx, t)

	client := modbus.NewTCPClient()
	if err := client.Connect(context.Background(), addr); err != nil {
		return
	}
	defer client.Close()

	req, err := packet.NewReadCoilsRequestTCP(1, 10, 9)
	assert.NoError(t, err)

	clientCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	resp, err := client.Do(clientCtx, req)

	assert.NoError(t, err)
	assert.Equal(t, packet.FunctionReadCoils, resp.FunctionCode())
}

func startServer(ctx context.Context, t *testing.T) string {
	units := server.NewUnitRegistry()
	image := server.NewDataImage()
	image.SeedCoil(10, true)
	image.SeedCoil(12, true)
	units.Add(1, image)
	dispatcher := server.NewDispatcher(units, nil)

	addrCh := make(chan string, 1)
	s := server.Server{
		OnServeFunc: func(addr net.Addr) {
			addrCh <- addr.String()
		},
	}
	go func() {
		err := s.ListenAndServe(ctx, "localhost:0", dispatcher)
		if err != nil && !errors.Is(err, server.ErrServerClosed) {
			t.Logf("ListenAndServe end: %v", err)
		}
	}()

	select {
	case addr := <-addrCh:
		return addr
	case <-ctx.Done():
		t.Fatal("server did not start in time")
		return ""
	}
}
