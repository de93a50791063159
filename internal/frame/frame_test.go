package frame

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode_Layout(t *testing.T) {
	req := require.New(t)

	u, err := New("alice", "hi")
	req.NoError(err)

	raw, err := Encode(u)
	req.NoError(err)
	req.Equal([]byte{5, 2, 'a', 'l', 'i', 'c', 'e', 'h', 'i'}, raw)
	req.Len(raw, u.Len())
}

func TestEncode_Approval(t *testing.T) {
	req := require.New(t)

	raw, err := Approval.MarshalBinary()
	req.NoError(err)
	req.Equal(append([]byte{6, 8}, "serverapproved"...), raw)
}

func TestDecode_RoundTrip(t *testing.T) {
	cases := []struct {
		name, sender, body string
	}{
		{"empty", "", ""},
		{"handshake", "bob", ""},
		{"ascii", "alice", "hello there"},
		{"multibyte", "世界", "Привет, ⌘!"},
		{"max sender", strings.Repeat("s", MaxFieldLen), "x"},
		{"max both", strings.Repeat("s", MaxFieldLen), strings.Repeat("b", MaxFieldLen)},
		{"max multibyte", strings.Repeat("é", 127) + "e", strings.Repeat("⌘", 85)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := require.New(t)

			u, err := New(c.sender, c.body)
			req.NoError(err)
			raw, err := Encode(u)
			req.NoError(err)

			decoded, err := Decode(bytes.NewReader(raw))
			req.NoError(err)
			req.Equal(c.sender, decoded.Sender())
			req.Equal(c.body, decoded.Body())
			req.Equal(u, decoded)
		})
	}
}

func TestDecode_Sequence(t *testing.T) {
	req := require.New(t)
	var stream bytes.Buffer

	// Given three frames written back to back
	for _, body := range []string{"one", "", "three"} {
		req.NoError(Write(&stream, Must("carol", body)))
	}

	// Then they are read back one by one, and the stream ends cleanly
	for _, body := range []string{"one", "", "three"} {
		u, err := Decode(&stream)
		req.NoError(err)
		req.Equal(body, u.Body())
	}
	_, err := Decode(&stream)
	req.ErrorIs(err, io.EOF)
	req.False(errors.Is(err, io.ErrUnexpectedEOF))
}

func TestNew_LengthGuard(t *testing.T) {
	req := require.New(t)

	_, err := New(strings.Repeat("a", MaxFieldLen+1), "")
	req.ErrorIs(err, ErrFieldTooLong)
	req.ErrorIs(err, ErrProtocol)

	_, err = New("alice", strings.Repeat("a", MaxFieldLen+1))
	req.ErrorIs(err, ErrFieldTooLong)

	// 128 characters but 256 encoded bytes: the length byte cannot describe it
	_, err = New("alice", strings.Repeat("é", 128))
	req.ErrorIs(err, ErrFieldTooLong)

	_, err = Handshake(strings.Repeat("名", 100))
	req.ErrorIs(err, ErrFieldTooLong)
}

func TestEncode_RejectsHandBuiltUnit(t *testing.T) {
	req := require.New(t)

	u := Unit{sender: "x", body: strings.Repeat("z", 300)}
	_, err := Encode(u)
	req.ErrorIs(err, ErrFieldTooLong)
	req.ErrorIs(Write(io.Discard, u), ErrFieldTooLong)
}

func TestDecode_Truncated(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
	}{
		{"half header", []byte{3}},
		{"no payload", []byte{3, 2}},
		{"short payload", []byte{3, 2, 'a', 'b', 'c', 'd'}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(c.raw))
			require.ErrorIs(t, err, io.ErrUnexpectedEOF)
		})
	}
}

func TestUnit_String(t *testing.T) {
	req := require.New(t)
	req.Equal("alice> hi", Must("alice", "hi").String())
	req.True(Approval.IsApproval())
	req.False(Rejection.IsApproval())
}
