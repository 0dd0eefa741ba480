package protocol

import "fmt"

// Header represents the 8-byte packet header
type Header struct {
	Type     uint8   // Packet type tag
	Reserved [7]byte // Reserved for future use
}

// Encode encodes the header to bytes. Reserved bytes are always written as zero.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = h.Type
	return buf
}

// Decode decodes the header from bytes, keeping the reserved bytes as sent
func (h *Header) Decode(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("%w: %d bytes is below the %d byte header", ErrMalformedPacket, len(buf), HeaderSize)
	}

	h.Type = buf[0]
	copy(h.Reserved[:], buf[1:HeaderSize])

	return nil
}

// Validate validates the header
func (h *Header) Validate() error {
	switch h.Type {
	case TypeAssign, TypeMessage, TypeAssignRequest, TypeNameRequest, TypeNameResponse, TypeHandshake:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownType, TypeName(h.Type))
}

// HasReserved reports whether any reserved byte is non-zero
func (h *Header) HasReserved() bool {
	return h.Reserved != [7]byte{}
}
