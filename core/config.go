package core

import "usbuart/protocol"

// Default configuration values
const (
	DefaultRxBufferSize = 256
	DefaultTxBufferSize = 256
	DefaultTxMaxReject  = 8
	DefaultTickRateHz   = 2000
)

// Config holds the adapter's build-time constants.
type Config struct {
	RxBufferSize   int  `json:"rx_buffer_size" yaml:"rx_buffer_size"`
	TxBufferSize   int  `json:"tx_buffer_size" yaml:"tx_buffer_size"`
	USBFSDevice    int  `json:"usbfs_device" yaml:"usbfs_device"`
	LineTerminator byte `json:"line_terminator" yaml:"line_terminator"`
	TxMaxReject    int  `json:"tx_max_reject" yaml:"tx_max_reject"`
	TickRateHz     int  `json:"tick_rate_hz" yaml:"tick_rate_hz"`

	// Messages enables GetMessage / PutMessage
	Messages     bool `json:"messages" yaml:"messages"`
	MsgFirstByte byte `json:"msg_first_byte" yaml:"msg_first_byte"`
	MsgLastByte  byte `json:"msg_last_byte" yaml:"msg_last_byte"`
}

// DefaultConfig returns the default adapter configuration
func DefaultConfig() Config {
	return Config{
		RxBufferSize:   DefaultRxBufferSize,
		TxBufferSize:   DefaultTxBufferSize,
		LineTerminator: protocol.LineTerminator,
		TxMaxReject:    DefaultTxMaxReject,
		TickRateHz:     DefaultTickRateHz,
		Messages:       true,
		MsgFirstByte:   protocol.DefaultFirstByte,
		MsgLastByte:    protocol.DefaultLastByte,
	}
}

// WithDefaults returns c with zero sizes, limits and bytes replaced by
// defaults. Messages is a switch and is kept as given, so a partial Config
// has messages off; start from DefaultConfig to get them on.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.RxBufferSize <= 0 {
		c.RxBufferSize = d.RxBufferSize
	}
	if c.TxBufferSize <= 0 {
		c.TxBufferSize = d.TxBufferSize
	}
	if c.LineTerminator == 0 {
		c.LineTerminator = d.LineTerminator
	}
	if c.TxMaxReject <= 0 {
		c.TxMaxReject = d.TxMaxReject
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = d.TickRateHz
	}
	if c.MsgFirstByte == 0 && c.MsgLastByte == 0 {
		c.MsgFirstByte = d.MsgFirstByte
		c.MsgLastByte = d.MsgLastByte
	}
	return c
}

// Framing returns the message sentinels
func (c Config) Framing() protocol.Framing {
	return protocol.Framing{First: c.MsgFirstByte, Last: c.MsgLastByte}
}
