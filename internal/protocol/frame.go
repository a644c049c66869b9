package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Frame format (SLIP-style byte stuffing):
//
//	[escaped record bytes][0xC0]
//
// Inside a frame 0xC0 is written as 0xDB 0xDC and 0xDB as 0xDB 0xDD, so the
// terminator never appears before the end of a frame.
const (
	frameEnd byte = 0xC0
	frameEsc byte = 0xDB
	escEnd   byte = 0xDC
	escEsc   byte = 0xDD
)

// DefaultMaxFrameSize bounds the escaped size of a single inbound frame.
const DefaultMaxFrameSize = 64 << 10

// AppendFrame appends the framed form of payload to dst.
func AppendFrame(dst, payload []byte) []byte {
	for _, b := range payload {
		switch b {
		case frameEnd:
			dst = append(dst, frameEsc, escEnd)
		case frameEsc:
			dst = append(dst, frameEsc, escEsc)
		default:
			dst = append(dst, b)
		}
	}
	return append(dst, frameEnd)
}

// WriteFrame writes payload as one frame with a single Write call.
func WriteFrame(w io.Writer, payload []byte) error {
	_, err := w.Write(AppendFrame(make([]byte, 0, len(payload)+8), payload))
	return err
}

// FrameReader splits a byte stream into frames regardless of how the
// underlying reads fragment or coalesce them.
type FrameReader struct {
	r   *bufio.Reader
	max int
	buf []byte
}

func NewFrameReader(r io.Reader, maxSize int) *FrameReader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}
	return &FrameReader{r: bufio.NewReader(r), max: maxSize}
}

// ReadFrame returns the next unescaped frame payload. Empty frames are
// skipped. Oversized frames and bad escape sequences return an error
// wrapping ErrMalformed with the reader already positioned at the next
// frame. A clean end of stream returns io.EOF; a stream that ends inside a
// frame returns io.ErrUnexpectedEOF.
func (f *FrameReader) ReadFrame() ([]byte, error) {
	for {
		f.buf = f.buf[:0]
		tooLarge := false

		for {
			chunk, err := f.r.ReadSlice(frameEnd)
			n := len(f.buf) + len(chunk)
			if err == nil {
				n-- // terminator
			}
			if !tooLarge {
				if n > f.max {
					tooLarge = true
					f.buf = f.buf[:0]
				} else {
					f.buf = append(f.buf, chunk...)
				}
			}

			if err == nil {
				break
			}
			if errors.Is(err, bufio.ErrBufferFull) {
				continue
			}
			if errors.Is(err, io.EOF) {
				if len(f.buf) == 0 && !tooLarge {
					return nil, io.EOF
				}
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		if tooLarge {
			return nil, fmt.Errorf("%w: frame exceeds %d bytes", ErrMalformed, f.max)
		}

		raw := f.buf[:len(f.buf)-1]
		if len(raw) == 0 {
			continue
		}
		return unstuff(raw)
	}
}

func unstuff(raw []byte) ([]byte, error) {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b != frameEsc {
			out = append(out, b)
			continue
		}
		i++
		if i == len(raw) {
			return nil, malformed("dangling escape byte")
		}
		switch raw[i] {
		case escEnd:
			out = append(out, frameEnd)
		case escEsc:
			out = append(out, frameEsc)
		default:
			return nil, malformed("invalid escape sequence 0x%02x", raw[i])
		}
	}
	return out, nil
}
