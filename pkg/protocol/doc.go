// Package protocol implements the chatrelay wire protocol.
//
// # Packet Layout
//
// Every packet starts with an 8-byte header:
//
//	byte 0     type tag
//	bytes 1-7  reserved, written as zero, preserved when decoding
//
// The header is followed by a type specific body made of length-prefixed
// fields (uint32 big endian length, then the bytes) and single byte status
// fields.
//
// # Packet Types
//
//   - Assign (0xF0): server to client, the new identifier and session key
//   - Message (0xF1): chat message routed by identifier or username
//   - AssignRequest (0xF2): client RSA public parameters
//   - NameRequest (0xF3): claim a username
//   - NameResponse (0xF4): result of a name claim
//   - Handshake (0xF5): peer to peer key material routed through the relay
//
// # Framing
//
// On the stream every packet (or its ciphertext) travels as one frame
// terminated by the end-of-message byte 0x04. Occurrences of 0x04 and of the
// escape byte 0x1B inside a frame are written as 0x1B followed by the byte
// XOR 0x20, so the terminator never appears inside a frame.
//
// The codec does not know about encryption. Assign and AssignRequest are
// framed as plaintext (Assign is RSA encrypted by the caller), every later
// frame carries an AES-GCM sealed packet.
package protocol
