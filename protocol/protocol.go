// Package protocol implements the byte-stream framing used between the
// USB CDC adapter and its host: ring buffers, newline-terminated lines and
// length-prefixed messages.
package protocol

import "errors"

// Version represents the usbuart protocol version
const Version = "1.1.0"

// Line framing
const (
	// LineTerminator ends a line of data (limited to a single byte)
	LineTerminator = '\n'
)

// Message framing
//
//	+------------+--------+---------------------+-----------+
//	| FIRST_BYTE | LENGTH |    payload bytes    | LAST_BYTE |
//	|  (1 byte)  | (1 B)  | (LENGTH - 3 bytes)  |  (1 byte) |
//	+------------+--------+---------------------+-----------+
//
// LENGTH is the total frame length, header and footer included.
const (
	MessageHeaderLength    = 2 // first byte + length
	MessageFooterLength    = 1 // last byte
	MessageStructureLength = MessageHeaderLength + MessageFooterLength
	MessageLengthOffset    = 1 // offset of LENGTH from FIRST_BYTE
	MessageLengthMax       = 255
	MessagePayloadMax      = MessageLengthMax - MessageStructureLength

	// Default sentinels, ASCII STX / ETX
	DefaultFirstByte = 0x02
	DefaultLastByte  = 0x03
)

var (
	// ErrEmptyPayload is returned when encoding a message with no payload.
	ErrEmptyPayload = errors.New("empty message payload")

	// ErrPayloadTooLong is returned when a payload does not fit a frame.
	ErrPayloadTooLong = errors.New("message payload too long")
)
