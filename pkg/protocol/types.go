package protocol

import (
	"errors"
	"fmt"
)

// Protocol constants
const (
	// HeaderSize is the fixed header length; shorter packets are malformed
	HeaderSize = 8

	// EOM terminates every frame on the stream
	EOM byte = 0x04

	// Escape prefixes an escaped EOM or Escape byte inside a frame
	Escape byte = 0x1B

	// escapeMask is XORed into the byte following Escape
	escapeMask byte = 0x20

	// DefaultMaxFrameSize bounds a single unescaped frame
	DefaultMaxFrameSize = 64 * 1024
)

// Packet type tags (header byte 0)
const (
	TypeAssign        uint8 = 0xF0
	TypeMessage       uint8 = 0xF1
	TypeAssignRequest uint8 = 0xF2
	TypeNameRequest   uint8 = 0xF3
	TypeNameResponse  uint8 = 0xF4
	TypeHandshake     uint8 = 0xF5
)

var (
	ErrMalformedPacket = errors.New("malformed packet")
	ErrUnknownType     = errors.New("unknown packet type")
	ErrFrameTooLarge   = errors.New("frame too large")
	ErrBadEscape       = errors.New("invalid escape sequence")
)

// TypeName returns a printable name for a type tag
func TypeName(t uint8) string {
	switch t {
	case TypeAssign:
		return "Assign"
	case TypeMessage:
		return "Message"
	case TypeAssignRequest:
		return "AssignRequest"
	case TypeNameRequest:
		return "NameRequest"
	case TypeNameResponse:
		return "NameResponse"
	case TypeHandshake:
		return "Handshake"
	default:
		return fmt.Sprintf("0x%02x", t)
	}
}

// HandshakeStatus is the status byte of a Handshake packet
type HandshakeStatus uint8

const (
	HandshakeRequest     HandshakeStatus = 0x00
	HandshakeResponse    HandshakeStatus = 0x01
	HandshakeNotFound    HandshakeStatus = 0x02
	HandshakeServerError HandshakeStatus = 0x03
)

func (s HandshakeStatus) String() string {
	switch s {
	case HandshakeRequest:
		return "Request"
	case HandshakeResponse:
		return "Response"
	case HandshakeNotFound:
		return "NotFound"
	case HandshakeServerError:
		return "ServerError"
	default:
		return fmt.Sprintf("HandshakeStatus(%d)", uint8(s))
	}
}

func (s HandshakeStatus) valid() bool {
	return s <= HandshakeServerError
}

// NameStatus is the status byte of a NameResponse packet
type NameStatus uint8

const (
	NameSuccess NameStatus = 0x00
	NameFailure NameStatus = 0x01
)

// Reasons carried by NameResponse failures
const (
	ReasonNameTaken   = "Name taken."
	ReasonUnknownID   = "ID not in database."
	ReasonInvalidName = "Invalid name."
	ReasonServerError = "Server error."
)
