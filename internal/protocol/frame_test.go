package protocol

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendFrame_EscapesReservedBytes(t *testing.T) {
	got := AppendFrame(nil, []byte{0x01, 0xC0, 0xDB, 0x02})
	assert.Equal(t, []byte{0x01, 0xDB, 0xDC, 0xDB, 0xDD, 0x02, 0xC0}, got)
	assert.Equal(t, 1, bytes.Count(got, []byte{frameEnd}))
}

func TestFrameReader_Scenarios(t *testing.T) {
	cases := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "coalesced frames in one read",
			run: func(t *testing.T) {
				var stream []byte
				stream = AppendFrame(stream, []byte("one"))
				stream = AppendFrame(stream, []byte{0xC0, 0xDB})
				stream = AppendFrame(stream, []byte("three"))

				fr := NewFrameReader(bytes.NewReader(stream), 0)
				for _, want := range [][]byte{[]byte("one"), {0xC0, 0xDB}, []byte("three")} {
					got, err := fr.ReadFrame()
					require.NoError(t, err)
					assert.Equal(t, want, got)
				}
				_, err := fr.ReadFrame()
				assert.ErrorIs(t, err, io.EOF)
			},
		},
		{
			name: "frame split across one-byte reads",
			run: func(t *testing.T) {
				payload := bytes.Repeat([]byte{0xC0, 'a', 0xDB}, 100)
				fr := NewFrameReader(iotest.OneByteReader(bytes.NewReader(AppendFrame(nil, payload))), 0)

				got, err := fr.ReadFrame()
				require.NoError(t, err)
				assert.Equal(t, payload, got)
			},
		},
		{
			name: "empty frames are skipped",
			run: func(t *testing.T) {
				stream := append([]byte{frameEnd, frameEnd}, AppendFrame(nil, []byte("x"))...)
				got, err := NewFrameReader(bytes.NewReader(stream), 0).ReadFrame()
				require.NoError(t, err)
				assert.Equal(t, []byte("x"), got)
			},
		},
		{
			name: "oversized frame is dropped and reader recovers",
			run: func(t *testing.T) {
				var stream []byte
				stream = AppendFrame(stream, bytes.Repeat([]byte("z"), 10000))
				stream = AppendFrame(stream, []byte("ok"))

				fr := NewFrameReader(bytes.NewReader(stream), 64)
				_, err := fr.ReadFrame()
				require.ErrorIs(t, err, ErrMalformed)

				got, err := fr.ReadFrame()
				require.NoError(t, err)
				assert.Equal(t, []byte("ok"), got)
			},
		},
		{
			name: "frame at exactly the limit is accepted",
			run: func(t *testing.T) {
				payload := bytes.Repeat([]byte("y"), 64)
				got, err := NewFrameReader(bytes.NewReader(AppendFrame(nil, payload)), 64).ReadFrame()
				require.NoError(t, err)
				assert.Equal(t, payload, got)
			},
		},
		{
			name: "bad escape is malformed but not fatal",
			run: func(t *testing.T) {
				stream := []byte{'a', frameEsc, 'q', frameEnd}
				stream = AppendFrame(stream, []byte("next"))

				fr := NewFrameReader(bytes.NewReader(stream), 0)
				_, err := fr.ReadFrame()
				require.ErrorIs(t, err, ErrMalformed)

				got, err := fr.ReadFrame()
				require.NoError(t, err)
				assert.Equal(t, []byte("next"), got)
			},
		},
		{
			name: "dangling escape",
			run: func(t *testing.T) {
				_, err := NewFrameReader(bytes.NewReader([]byte{'a', frameEsc, frameEnd}), 0).ReadFrame()
				require.ErrorIs(t, err, ErrMalformed)
			},
		},
		{
			name: "stream ends inside a frame",
			run: func(t *testing.T) {
				_, err := NewFrameReader(bytes.NewReader([]byte("partial")), 0).ReadFrame()
				require.ErrorIs(t, err, io.ErrUnexpectedEOF)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, tc.run)
	}
}

func TestReader_SkipsMalformedRecord(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte{0x91, 0x63}))
	require.NoError(t, WriteClient(&buf, GiveUp{Match: awkward}))

	r := NewReader(&buf, 0)
	_, err := r.ReadClient()
	require.ErrorIs(t, err, ErrMalformed)

	msg, err := r.ReadClient()
	require.NoError(t, err)
	assert.Equal(t, GiveUp{Match: awkward}, msg)
}

func TestReader_ServerMessagesOverHalfReads(t *testing.T) {
	var buf bytes.Buffer
	m := uuid.New()
	require.NoError(t, WriteServer(&buf, MatchStarted{Match: m}))
	require.NoError(t, WriteServer(&buf, Disconnect{}))

	r := NewReader(iotest.HalfReader(&buf), 0)
	first, err := r.ReadServer()
	require.NoError(t, err)
	assert.Equal(t, MatchStarted{Match: m}, first)

	second, err := r.ReadServer()
	require.NoError(t, err)
	assert.Equal(t, Disconnect{}, second)
}
