package modbus

import "github.com/gridtie/modbus/packet"

// NewRTUTCPClient creates a new Client for Modbus RTU-over-TCP: RTU framing (including CRC), carried
// over a plain TCP connection instead of a serial port. Useful for serial-to-Ethernet gateways that
// tunnel RTU frames verbatim rather than re-encoding them as Modbus TCP/MBAP.
func NewRTUTCPClient() *Client {
	return NewRTUTCPClientWithConfig(ClientConfig{})
}

// NewRTUTCPClientWithConfig creates a new RTU-over-TCP Client with given configuration options.
func NewRTUTCPClientWithConfig(conf ClientConfig) *Client {
	client := defaultClient(conf)
	if conf.AsProtocolErrorFunc == nil {
		client.asProtocolErrorFunc = packet.AsRTUErrorPacket
	}
	if conf.ParseResponseFunc == nil {
		client.parseResponseFunc = packet.ParseRTUResponseWithCRC
	}
	client.builder = rtuRequestBuilder()
	return client
}
