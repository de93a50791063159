// internal/frame/frame.go
// Contains the chat unit exchanged between clients and server and its fixed binary framing.
package frame

import (
	"fmt"
	"io"
)

const (
	// MaxFieldLen is the largest encoded size of sender or body, bounded by the single length byte.
	MaxFieldLen = 255

	headerSize = 2

	// ServerName is the sender used for units generated by the server itself.
	ServerName = "server"
	// Approved is the body of the handshake approval unit.
	Approved = "approved"
	// Rejected is the body of the opt-in handshake rejection unit.
	Rejected = "rejected"
	// Separator is reserved: it separates sender and body on display and is never allowed in a name.
	Separator = ">"
)

// Unit is one chat message: who sent it and what they said.
// Values are never mutated after construction.
type Unit struct {
	sender string
	body   string
}

// New builds a Unit, failing when either field does not fit its length byte.
func New(sender, body string) (Unit, error) {
	if err := checkField("sender", sender); err != nil {
		return Unit{}, err
	}
	if err := checkField("body", body); err != nil {
		return Unit{}, err
	}
	return Unit{sender: sender, body: body}, nil
}

// Must is like New but panics on error. Only for constant units.
func Must(sender, body string) Unit {
	u, err := New(sender, body)
	if err != nil {
		panic(err)
	}
	return u
}

var (
	// Approval is sent by the server once a proposed name has been registered.
	Approval = Must(ServerName, Approved)
	// Rejection is sent for an invalid name only when explicit rejection replies are enabled.
	Rejection = Must(ServerName, Rejected)
)

// Handshake builds the name proposal unit. The body is empty by convention.
func Handshake(name string) (Unit, error) {
	return New(name, "")
}

func checkField(field, value string) error {
	// len() counts UTF-8 bytes, which is what the length byte describes.
	if len(value) > MaxFieldLen {
		return fmt.Errorf("%w: %s is %d bytes, max %d", ErrFieldTooLong, field, len(value), MaxFieldLen)
	}
	return nil
}

// Sender returns the display name of the author.
func (u Unit) Sender() string { return u.sender }

// Body returns the message text.
func (u Unit) Body() string { return u.body }

// String renders the unit the way clients display it.
func (u Unit) String() string {
	return u.sender + Separator + " " + u.body
}

// IsApproval reports whether u is a handshake approval.
func (u Unit) IsApproval() bool {
	return u.body == Approved
}

// Len returns the encoded size of u in bytes.
func (u Unit) Len() int {
	return headerSize + len(u.sender) + len(u.body)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (u Unit) MarshalBinary() ([]byte, error) {
	return Encode(u)
}

// Encode produces [headerLen][bodyLen][sender][body] with no padding or terminator.
func Encode(u Unit) ([]byte, error) {
	if err := checkField("sender", u.sender); err != nil {
		return nil, err
	}
	if err := checkField("body", u.body); err != nil {
		return nil, err
	}
	buf := make([]byte, u.Len())
	buf[0] = byte(len(u.sender))
	buf[1] = byte(len(u.body))
	n := copy(buf[headerSize:], u.sender)
	copy(buf[headerSize+n:], u.body)
	return buf, nil
}

// Decode reads exactly one unit from r.
// io.EOF is returned only when the stream ends cleanly before a new frame starts;
// a stream ending inside a frame yields an error wrapping io.ErrUnexpectedEOF.
func Decode(r io.Reader) (Unit, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return Unit{}, io.EOF
		}
		return Unit{}, fmt.Errorf("frame: read header: %w", err)
	}
	senderLen, bodyLen := int(header[0]), int(header[1])
	payload := make([]byte, senderLen+bodyLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Unit{}, fmt.Errorf("frame: read payload (%d bytes): %w", len(payload), err)
	}
	return Unit{
		sender: string(payload[:senderLen]),
		body:   string(payload[senderLen:]),
	}, nil
}

// Write encodes u and writes it with a single Write call, so a frame is never
// split across writes on a connection.
func Write(w io.Writer, u Unit) error {
	raw, err := Encode(u)
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	return err
}
