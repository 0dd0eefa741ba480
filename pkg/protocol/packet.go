package protocol

import (
	"encoding/binary"
	"fmt"
)

// Packet is one of the six protocol packet variants
type Packet interface {
	// Type returns the header type tag
	Type() uint8

	encodeBody() []byte
	decodeBody(buf []byte) error
}

// User identifies the source of a Handshake. Empty fields mean unknown.
type User struct {
	ID   string
	Name string
}

// ===== ASSIGNMENT =====

// AssignRequest carries the client's RSA public parameters
type AssignRequest struct {
	E []byte // Public exponent, big-endian
	N []byte // Modulus, big-endian
}

func (p *AssignRequest) Type() uint8 { return TypeAssignRequest }

func (p *AssignRequest) encodeBody() []byte {
	var w fieldWriter
	w.bytes(p.E)
	w.bytes(p.N)
	return w.buf
}

func (p *AssignRequest) decodeBody(buf []byte) error {
	r := fieldReader{buf: buf}
	p.E = r.bytes()
	p.N = r.bytes()
	return r.done()
}

// Assign tells a client its identifier and session key
type Assign struct {
	ID     string
	AESKey []byte
}

func (p *Assign) Type() uint8 { return TypeAssign }

func (p *Assign) encodeBody() []byte {
	var w fieldWriter
	w.string(p.ID)
	w.bytes(p.AESKey)
	return w.buf
}

func (p *Assign) decodeBody(buf []byte) error {
	r := fieldReader{buf: buf}
	p.ID = r.string()
	p.AESKey = r.bytes()
	return r.done()
}

// ===== USERNAMES =====

// NameRequest claims Content as the sender's username
type NameRequest struct {
	Content string
}

func (p *NameRequest) Type() uint8 { return TypeNameRequest }

func (p *NameRequest) encodeBody() []byte {
	var w fieldWriter
	w.string(p.Content)
	return w.buf
}

func (p *NameRequest) decodeBody(buf []byte) error {
	r := fieldReader{buf: buf}
	p.Content = r.string()
	return r.done()
}

// NameResponse answers a NameRequest. Reason is empty on success.
type NameResponse struct {
	Status NameStatus
	Reason string
}

// NameSucceeded builds a successful NameResponse
func NameSucceeded() *NameResponse {
	return &NameResponse{Status: NameSuccess}
}

// NameFailed builds a failed NameResponse
func NameFailed(reason string) *NameResponse {
	return &NameResponse{Status: NameFailure, Reason: reason}
}

func (p *NameResponse) Type() uint8 { return TypeNameResponse }

func (p *NameResponse) encodeBody() []byte {
	var w fieldWriter
	w.byte(uint8(p.Status))
	w.string(p.Reason)
	return w.buf
}

func (p *NameResponse) decodeBody(buf []byte) error {
	r := fieldReader{buf: buf}
	p.Status = NameStatus(r.byte())
	p.Reason = r.string()
	if err := r.done(); err != nil {
		return err
	}
	if p.Status != NameSuccess && p.Status != NameFailure {
		return fmt.Errorf("%w: name status %d", ErrMalformedPacket, p.Status)
	}
	return nil
}

// ===== RELAYED =====

// Handshake relays peer key material between two users
type Handshake struct {
	Status HandshakeStatus
	Src    User
	Dst    string // Identifier or username; empty once forwarded
	E      []byte
	N      []byte
	AESKey []byte // Key blob encrypted for the peer
}

func (p *Handshake) Type() uint8 { return TypeHandshake }

func (p *Handshake) encodeBody() []byte {
	var w fieldWriter
	w.byte(uint8(p.Status))
	w.string(p.Src.ID)
	w.string(p.Src.Name)
	w.string(p.Dst)
	w.bytes(p.E)
	w.bytes(p.N)
	w.bytes(p.AESKey)
	return w.buf
}

func (p *Handshake) decodeBody(buf []byte) error {
	r := fieldReader{buf: buf}
	p.Status = HandshakeStatus(r.byte())
	p.Src.ID = r.string()
	p.Src.Name = r.string()
	p.Dst = r.string()
	p.E = r.bytes()
	p.N = r.bytes()
	p.AESKey = r.bytes()
	if err := r.done(); err != nil {
		return err
	}
	if !p.Status.valid() {
		return fmt.Errorf("%w: handshake status %d", ErrMalformedPacket, p.Status)
	}
	return nil
}

// Message is a chat message. Sender is filled in by the relay.
type Message struct {
	Sender   string
	Receiver string
	Content  []byte
}

func (p *Message) Type() uint8 { return TypeMessage }

func (p *Message) encodeBody() []byte {
	var w fieldWriter
	w.string(p.Sender)
	w.string(p.Receiver)
	w.bytes(p.Content)
	return w.buf
}

func (p *Message) decodeBody(buf []byte) error {
	r := fieldReader{buf: buf}
	p.Sender = r.string()
	p.Receiver = r.string()
	p.Content = r.bytes()
	return r.done()
}

// ===== CODEC =====

// Marshal encodes a packet to header + body, without framing
func Marshal(p Packet) []byte {
	header := &Header{Type: p.Type()}
	return append(header.Encode(), p.encodeBody()...)
}

// Unmarshal decodes header + body bytes into a packet
func Unmarshal(buf []byte) (Packet, error) {
	_, p, err := UnmarshalWithHeader(buf)
	return p, err
}

// UnmarshalWithHeader decodes a packet and also returns its header, which
// keeps whatever the peer put in the reserved bytes
func UnmarshalWithHeader(buf []byte) (*Header, Packet, error) {
	header := &Header{}
	if err := header.Decode(buf); err != nil {
		return nil, nil, err
	}
	if err := header.Validate(); err != nil {
		return header, nil, err
	}

	p := newPacket(header.Type)
	if err := p.decodeBody(buf[HeaderSize:]); err != nil {
		return header, nil, fmt.Errorf("decode %s: %w", TypeName(header.Type), err)
	}

	return header, p, nil
}

// Encode marshals and frames a packet, ready to be written to a stream
func Encode(p Packet) []byte {
	return Frame(Marshal(p))
}

// Decode unframes and unmarshals a single frame (with or without its EOM)
func Decode(frame []byte) (Packet, error) {
	if n := len(frame); n > 0 && frame[n-1] == EOM {
		frame = frame[:n-1]
	}
	raw, err := Unescape(frame)
	if err != nil {
		return nil, err
	}
	return Unmarshal(raw)
}

func newPacket(t uint8) Packet {
	switch t {
	case TypeAssignRequest:
		return &AssignRequest{}
	case TypeAssign:
		return &Assign{}
	case TypeNameRequest:
		return &NameRequest{}
	case TypeNameResponse:
		return &NameResponse{}
	case TypeHandshake:
		return &Handshake{}
	case TypeMessage:
		return &Message{}
	}
	return nil
}

// ===== FIELD HELPERS =====

type fieldWriter struct {
	buf []byte
}

func (w *fieldWriter) byte(b uint8) {
	w.buf = append(w.buf, b)
}

func (w *fieldWriter) bytes(b []byte) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *fieldWriter) string(s string) {
	w.bytes([]byte(s))
}

// fieldReader reads fields until the first error, which done reports
type fieldReader struct {
	buf    []byte
	offset int
	err    error
}

func (r *fieldReader) byte() uint8 {
	if r.err != nil {
		return 0
	}
	if r.offset >= len(r.buf) {
		r.err = fmt.Errorf("%w: truncated at offset %d", ErrMalformedPacket, r.offset)
		return 0
	}
	b := r.buf[r.offset]
	r.offset++
	return b
}

func (r *fieldReader) bytes() []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf)-r.offset < 4 {
		r.err = fmt.Errorf("%w: truncated length at offset %d", ErrMalformedPacket, r.offset)
		return nil
	}
	n := binary.BigEndian.Uint32(r.buf[r.offset:])
	r.offset += 4

	if uint64(n) > uint64(len(r.buf)-r.offset) {
		r.err = fmt.Errorf("%w: field of %d bytes exceeds packet", ErrMalformedPacket, n)
		return nil
	}
	if n == 0 {
		return nil
	}

	out := make([]byte, n)
	copy(out, r.buf[r.offset:r.offset+int(n)])
	r.offset += int(n)
	return out
}

func (r *fieldReader) string() string {
	return string(r.bytes())
}

func (r *fieldReader) done() error {
	if r.err != nil {
		return r.err
	}
	if r.offset != len(r.buf) {
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformedPacket, len(r.buf)-r.offset)
	}
	return nil
}
