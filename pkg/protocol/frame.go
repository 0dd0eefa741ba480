package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Frame escapes payload and appends the EOM terminator
func Frame(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+1)
	for _, b := range payload {
		if b == EOM || b == Escape {
			out = append(out, Escape, b^escapeMask)
			continue
		}
		out = append(out, b)
	}
	return append(out, EOM)
}

// Unescape reverses the escaping done by Frame. The EOM must already be stripped.
func Unescape(frame []byte) ([]byte, error) {
	out := make([]byte, 0, len(frame))
	for i := 0; i < len(frame); i++ {
		b := frame[i]
		if b != Escape {
			out = append(out, b)
			continue
		}
		i++
		if i == len(frame) {
			return nil, ErrBadEscape
		}
		orig := frame[i] ^ escapeMask
		if orig != EOM && orig != Escape {
			return nil, fmt.Errorf("%w: 0x%02x", ErrBadEscape, frame[i])
		}
		out = append(out, orig)
	}
	return out, nil
}

// WriteFrame frames payload and writes it in a single Write call
func WriteFrame(w io.Writer, payload []byte) error {
	_, err := w.Write(Frame(payload))
	return err
}

// FrameReader reads EOM terminated frames from a stream.
//
// A read that fails part way through a frame (typically a deadline used for
// polling) keeps the bytes read so far; the next ReadFrame call continues the
// same frame.
type FrameReader struct {
	br      *bufio.Reader
	maxSize int
	pending []byte
	discard bool
}

// NewFrameReader creates a frame reader. maxSize <= 0 selects DefaultMaxFrameSize.
func NewFrameReader(r io.Reader, maxSize int) *FrameReader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}
	return &FrameReader{
		br:      bufio.NewReader(r),
		maxSize: maxSize,
	}
}

// ReadFrame returns the next unescaped frame payload.
//
// Errors from the underlying reader are returned unchanged. A frame larger
// than the limit is skipped up to its terminator and reported as
// ErrFrameTooLarge; a bad escape sequence is reported as ErrBadEscape. Both
// leave the reader positioned at the next frame.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	for {
		chunk, err := fr.br.ReadSlice(EOM)
		if !fr.discard {
			fr.pending = append(fr.pending, chunk...)
		}

		// Escaping can at most double the size of a frame
		if !fr.discard && len(fr.pending) > 2*fr.maxSize+1 {
			fr.pending = nil
			fr.discard = true
		}

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if fr.discard {
			fr.discard = false
			return nil, ErrFrameTooLarge
		}

		frame := fr.pending[:len(fr.pending)-1]
		fr.pending = nil

		payload, err := Unescape(frame)
		if err != nil {
			return nil, err
		}
		if len(payload) > fr.maxSize {
			return nil, ErrFrameTooLarge
		}
		return payload, nil
	}
}

// Buffered reports whether a partial frame is being held
func (fr *FrameReader) Buffered() bool {
	return len(fr.pending) > 0 || fr.br.Buffered() > 0
}
