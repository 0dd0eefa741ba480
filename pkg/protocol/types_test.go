package protocol

import "testing"

func TestPacketTypeConstants(t *testing.T) {
	tests := []struct {
		name     string
		typ      uint8
		expected uint8
	}{
		{"Assign", TypeAssign, 0xF0},
		{"Message", TypeMessage, 0xF1},
		{"AssignRequest", TypeAssignRequest, 0xF2},
		{"NameRequest", TypeNameRequest, 0xF3},
		{"NameResponse", TypeNameResponse, 0xF4},
		{"Handshake", TypeHandshake, 0xF5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.typ != tt.expected {
				t.Errorf("%s = 0x%02x, want 0x%02x", tt.name, tt.typ, tt.expected)
			}
		})
	}
}

func TestFramingConstants(t *testing.T) {
	if EOM != 0x04 {
		t.Errorf("EOM = 0x%02x, want 0x04", EOM)
	}
	if Escape != 0x1B {
		t.Errorf("Escape = 0x%02x, want 0x1B", Escape)
	}
	if HeaderSize != 8 {
		t.Errorf("HeaderSize = %d, want 8", HeaderSize)
	}
}

func TestHandshakeStatusString(t *testing.T) {
	tests := []struct {
		status HandshakeStatus
		want   string
	}{
		{HandshakeRequest, "Request"},
		{HandshakeResponse, "Response"},
		{HandshakeNotFound, "NotFound"},
		{HandshakeServerError, "ServerError"},
		{HandshakeStatus(9), "HandshakeStatus(9)"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		if tt.status.valid() != (tt.status <= HandshakeServerError) {
			t.Errorf("valid(%d) mismatch", tt.status)
		}
	}
}
