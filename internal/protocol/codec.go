package protocol

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrMalformed is wrapped by every decode and framing error caused by bad
// input bytes. Such errors are recoverable: the offending record is dropped
// and the stream stays usable.
var ErrMalformed = errors.New("protocol: malformed message")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// Record layout: msgpack array [tag, field1, field2, ...], fields in
// declaration order. UUIDs are 16-byte bin values.

// EncodeClient returns the record encoding of m.
func EncodeClient(m ClientMessage) ([]byte, error) {
	var buf bytes.Buffer
	e := newEncoder(&buf)

	switch v := m.(type) {
	case AnswerPassword:
		e.head(uint8(TagAnswerPassword), 1)
		e.str(v.Password)
	case GetOpponents:
		e.head(uint8(TagGetOpponents), 0)
	case RequestMatch:
		e.head(uint8(TagRequestMatch), 2)
		e.id(v.Opponent)
		e.str(v.Word)
	case GuessAttempt:
		e.head(uint8(TagGuessAttempt), 2)
		e.id(v.Match)
		e.str(v.Guess)
	case SendHint:
		e.head(uint8(TagSendHint), 2)
		e.id(v.Match)
		e.str(v.Hint)
	case GiveUp:
		e.head(uint8(TagGiveUp), 1)
		e.id(v.Match)
	case LeaveGame:
		e.head(uint8(TagLeaveGame), 0)
	default:
		return nil, fmt.Errorf("protocol: unknown client message type %T", m)
	}

	if e.err != nil {
		return nil, e.err
	}
	return buf.Bytes(), nil
}

// EncodeServer returns the record encoding of m.
func EncodeServer(m ServerMessage) ([]byte, error) {
	var buf bytes.Buffer
	e := newEncoder(&buf)

	switch v := m.(type) {
	case AskPassword:
		e.head(uint8(TagAskPassword), 0)
	case WrongPassword:
		e.head(uint8(TagWrongPassword), 0)
	case AssignID:
		e.head(uint8(TagAssignID), 1)
		e.id(v.Player)
	case BadRequest:
		e.head(uint8(TagBadRequest), 1)
		e.uint(uint64(v.Reason))
	case ListOpponents:
		e.head(uint8(TagListOpponents), 1)
		e.ids(v.Players)
	case MatchAccepted:
		e.head(uint8(TagMatchAccepted), 1)
		e.id(v.Match)
	case MatchStarted:
		e.head(uint8(TagMatchStarted), 1)
		e.id(v.Match)
	case MatchAttempt:
		e.head(uint8(TagMatchAttempt), 4)
		e.id(v.Match)
		e.uint(uint64(v.Attempts))
		e.uint(uint64(v.Hints))
		e.str(v.Guess)
	case IncorrectGuess:
		e.head(uint8(TagIncorrectGuess), 2)
		e.id(v.Match)
		e.uint(uint64(v.Attempts))
	case MatchHint:
		e.head(uint8(TagMatchHint), 2)
		e.id(v.Match)
		e.str(v.Hint)
	case MatchEnded:
		e.head(uint8(TagMatchEnded), 4)
		e.id(v.Match)
		e.uint(uint64(v.Attempts))
		e.uint(uint64(v.Hints))
		e.boolean(v.Solved)
	case Disconnect:
		e.head(uint8(TagDisconnect), 0)
	default:
		return nil, fmt.Errorf("protocol: unknown server message type %T", m)
	}

	if e.err != nil {
		return nil, e.err
	}
	return buf.Bytes(), nil
}

// DecodeClient parses one client record. Any input that is not the exact
// encoding of a client message is rejected with an ErrMalformed error.
func DecodeClient(b []byte) (ClientMessage, error) {
	r := bytes.NewReader(b)
	d := newDecoder(r)

	tag, fields := d.head()
	if d.err != nil {
		return nil, d.err
	}

	var msg ClientMessage
	switch ClientTag(tag) {
	case TagAnswerPassword:
		d.expect(fields, 1)
		msg = AnswerPassword{Password: d.str()}
	case TagGetOpponents:
		d.expect(fields, 0)
		msg = GetOpponents{}
	case TagRequestMatch:
		d.expect(fields, 2)
		opp := d.id()
		msg = RequestMatch{Opponent: opp, Word: d.str()}
	case TagGuessAttempt:
		d.expect(fields, 2)
		id := d.id()
		msg = GuessAttempt{Match: id, Guess: d.str()}
	case TagSendHint:
		d.expect(fields, 2)
		id := d.id()
		msg = SendHint{Match: id, Hint: d.str()}
	case TagGiveUp:
		d.expect(fields, 1)
		msg = GiveUp{Match: d.id()}
	case TagLeaveGame:
		d.expect(fields, 0)
		msg = LeaveGame{}
	default:
		return nil, malformed("unknown client tag %d", tag)
	}

	if err := d.finish(r); err != nil {
		return nil, err
	}
	if canon, err := EncodeClient(msg); err != nil || !bytes.Equal(canon, b) {
		return nil, malformed("non-canonical encoding of client tag %d", tag)
	}
	return msg, nil
}

// DecodeServer parses one server record.
func DecodeServer(b []byte) (ServerMessage, error) {
	r := bytes.NewReader(b)
	d := newDecoder(r)

	tag, fields := d.head()
	if d.err != nil {
		return nil, d.err
	}

	var msg ServerMessage
	switch ServerTag(tag) {
	case TagAskPassword:
		d.expect(fields, 0)
		msg = AskPassword{}
	case TagWrongPassword:
		d.expect(fields, 0)
		msg = WrongPassword{}
	case TagAssignID:
		d.expect(fields, 1)
		msg = AssignID{Player: d.id()}
	case TagBadRequest:
		d.expect(fields, 1)
		msg = BadRequest{Reason: d.reason()}
	case TagListOpponents:
		d.expect(fields, 1)
		msg = ListOpponents{Players: d.ids()}
	case TagMatchAccepted:
		d.expect(fields, 1)
		msg = MatchAccepted{Match: d.id()}
	case TagMatchStarted:
		d.expect(fields, 1)
		msg = MatchStarted{Match: d.id()}
	case TagMatchAttempt:
		d.expect(fields, 4)
		id := d.id()
		attempts := d.u32()
		hints := d.u32()
		msg = MatchAttempt{Match: id, Attempts: attempts, Hints: hints, Guess: d.str()}
	case TagIncorrectGuess:
		d.expect(fields, 2)
		id := d.id()
		msg = IncorrectGuess{Match: id, Attempts: d.u32()}
	case TagMatchHint:
		d.expect(fields, 2)
		id := d.id()
		msg = MatchHint{Match: id, Hint: d.str()}
	case TagMatchEnded:
		d.expect(fields, 4)
		id := d.id()
		attempts := d.u32()
		hints := d.u32()
		msg = MatchEnded{Match: id, Attempts: attempts, Hints: hints, Solved: d.boolean()}
	case TagDisconnect:
		d.expect(fields, 0)
		msg = Disconnect{}
	default:
		return nil, malformed("unknown server tag %d", tag)
	}

	if err := d.finish(r); err != nil {
		return nil, err
	}
	if canon, err := EncodeServer(msg); err != nil || !bytes.Equal(canon, b) {
		return nil, malformed("non-canonical encoding of server tag %d", tag)
	}
	return msg, nil
}

// --- encoder ---

// encoder keeps the first error so encode paths read as a flat field list.
type encoder struct {
	enc *msgpack.Encoder
	err error
}

func newEncoder(buf *bytes.Buffer) *encoder {
	return &encoder{enc: msgpack.NewEncoder(buf)}
}

func (e *encoder) head(tag uint8, fields int) {
	if e.err == nil {
		e.err = e.enc.EncodeArrayLen(fields + 1)
	}
	e.uint(uint64(tag))
}

func (e *encoder) uint(n uint64) {
	if e.err == nil {
		e.err = e.enc.EncodeUint(n)
	}
}

func (e *encoder) str(s string) {
	if e.err == nil {
		e.err = e.enc.EncodeString(s)
	}
}

func (e *encoder) boolean(v bool) {
	if e.err == nil {
		e.err = e.enc.EncodeBool(v)
	}
}

func (e *encoder) id(v uuid.UUID) {
	if e.err == nil {
		e.err = e.enc.EncodeBytes(v[:])
	}
}

func (e *encoder) ids(v []uuid.UUID) {
	if e.err == nil {
		e.err = e.enc.EncodeArrayLen(len(v))
	}
	for _, id := range v {
		e.id(id)
	}
}

// --- decoder ---

type decoder struct {
	dec *msgpack.Decoder
	err error
}

func newDecoder(r *bytes.Reader) *decoder {
	return &decoder{dec: msgpack.NewDecoder(r)}
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

func (d *decoder) head() (tag uint8, fields int) {
	n, err := d.dec.DecodeArrayLen()
	if err != nil {
		d.fail(err)
		return 0, 0
	}
	if n < 1 {
		d.err = malformed("record is not a tagged array")
		return 0, 0
	}
	t, err := d.dec.DecodeUint64()
	if err != nil {
		d.fail(err)
		return 0, 0
	}
	if t > 0xff {
		d.err = malformed("tag %d out of range", t)
		return 0, 0
	}
	return uint8(t), n - 1
}

func (d *decoder) expect(got, want int) {
	if d.err == nil && got != want {
		d.err = malformed("got %d fields, want %d", got, want)
	}
}

func (d *decoder) str() string {
	if d.err != nil {
		return ""
	}
	s, err := d.dec.DecodeString()
	if err != nil {
		d.fail(err)
	}
	return s
}

func (d *decoder) u64() uint64 {
	if d.err != nil {
		return 0
	}
	n, err := d.dec.DecodeUint64()
	if err != nil {
		d.fail(err)
	}
	return n
}

func (d *decoder) u32() uint32 {
	n := d.u64()
	if n > 0xffffffff && d.err == nil {
		d.err = malformed("counter %d out of range", n)
	}
	return uint32(n)
}

func (d *decoder) boolean() bool {
	if d.err != nil {
		return false
	}
	v, err := d.dec.DecodeBool()
	if err != nil {
		d.fail(err)
	}
	return v
}

func (d *decoder) reason() Reason {
	n := d.u64()
	if d.err == nil && n > uint64(PermissionDenied) {
		d.err = malformed("unknown reason %d", n)
	}
	return Reason(n)
}

func (d *decoder) id() uuid.UUID {
	if d.err != nil {
		return uuid.Nil
	}
	b, err := d.dec.DecodeBytes()
	if err != nil {
		d.fail(err)
		return uuid.Nil
	}
	id, err := uuid.FromBytes(b)
	if err != nil {
		d.fail(err)
		return uuid.Nil
	}
	return id
}

func (d *decoder) ids() []uuid.UUID {
	if d.err != nil {
		return nil
	}
	n, err := d.dec.DecodeArrayLen()
	if err != nil {
		d.fail(err)
		return nil
	}
	if n < 0 {
		d.err = malformed("nil id list")
		return nil
	}
	var out []uuid.UUID
	for i := 0; i < n && d.err == nil; i++ {
		out = append(out, d.id())
	}
	return out
}

// finish reports the first decode error, or trailing bytes after the record.
func (d *decoder) finish(r *bytes.Reader) error {
	if d.err != nil {
		return d.err
	}
	if r.Len() != 0 {
		return malformed("%d trailing bytes", r.Len())
	}
	return nil
}
