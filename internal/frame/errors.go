// internal/frame/errors.go
package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocol is the root of all framing validation failures.
	ErrProtocol = errors.New("frame: protocol error")

	// ErrFieldTooLong is returned when sender or body exceeds MaxFieldLen encoded bytes.
	ErrFieldTooLong = fmt.Errorf("%w: field too long", ErrProtocol)
)
