package protocol

import "io"

// Reader reads framed records from a stream.
type Reader struct {
	frames *FrameReader
}

func NewReader(r io.Reader, maxFrameSize int) *Reader {
	return &Reader{frames: NewFrameReader(r, maxFrameSize)}
}

// ReadClient returns the next client message. Errors wrapping ErrMalformed
// leave the stream usable; any other error is terminal.
func (r *Reader) ReadClient() (ClientMessage, error) {
	payload, err := r.frames.ReadFrame()
	if err != nil {
		return nil, err
	}
	return DecodeClient(payload)
}

// ReadServer returns the next server message.
func (r *Reader) ReadServer() (ServerMessage, error) {
	payload, err := r.frames.ReadFrame()
	if err != nil {
		return nil, err
	}
	return DecodeServer(payload)
}

func WriteClient(w io.Writer, m ClientMessage) error {
	payload, err := EncodeClient(m)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

func WriteServer(w io.Writer, m ServerMessage) error {
	payload, err := EncodeServer(m)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}
