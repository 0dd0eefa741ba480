package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeaderEncodeDecode(t *testing.T) {
	tests := []struct {
		name   string
		header *Header
	}{
		{
			name:   "assign request header",
			header: &Header{Type: TypeAssignRequest},
		},
		{
			name:   "message header",
			header: &Header{Type: TypeMessage},
		},
		{
			name:   "handshake header",
			header: &Header{Type: TypeHandshake},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Encode
			encoded := tt.header.Encode()

			// Verify encoded size
			if len(encoded) != HeaderSize {
				t.Errorf("Encode() length = %d, want %d", len(encoded), HeaderSize)
			}

			// Decode
			decoded := &Header{}
			err := decoded.Decode(encoded)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if decoded.Type != tt.header.Type {
				t.Errorf("Type = %x, want %x", decoded.Type, tt.header.Type)
			}
			if decoded.HasReserved() {
				t.Errorf("Reserved = %x, want zero", decoded.Reserved)
			}
		})
	}
}

func TestHeaderEncodeZeroesReserved(t *testing.T) {
	h := &Header{Type: TypeMessage, Reserved: [7]byte{1, 2, 3, 4, 5, 6, 7}}

	encoded := h.Encode()
	if !bytes.Equal(encoded[1:], make([]byte, 7)) {
		t.Errorf("Encode() reserved = %x, want zeros", encoded[1:])
	}
}

func TestHeaderDecodeKeepsReserved(t *testing.T) {
	buf := []byte{TypeNameRequest, 0, 0, 9, 0, 0, 0, 1}

	h := &Header{}
	if err := h.Decode(buf); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !h.HasReserved() {
		t.Error("HasReserved() = false, want true")
	}
	if h.Reserved != [7]byte{0, 0, 9, 0, 0, 0, 1} {
		t.Errorf("Reserved = %x", h.Reserved)
	}
}

func TestHeaderDecodeTooShort(t *testing.T) {
	shortBuf := make([]byte, HeaderSize-1)

	header := &Header{}
	err := header.Decode(shortBuf)
	if !errors.Is(err, ErrMalformedPacket) {
		t.Errorf("Decode() error = %v, want %v", err, ErrMalformedPacket)
	}
}

func TestHeaderValidate(t *testing.T) {
	tests := []struct {
		name    string
		typ     uint8
		wantErr error
	}{
		{"assign", TypeAssign, nil},
		{"message", TypeMessage, nil},
		{"assign request", TypeAssignRequest, nil},
		{"name request", TypeNameRequest, nil},
		{"name response", TypeNameResponse, nil},
		{"handshake", TypeHandshake, nil},
		{"zero", 0x00, ErrUnknownType},
		{"just below range", 0xEF, ErrUnknownType},
		{"just above range", 0xF6, ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Header{Type: tt.typ}
			err := h.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
