// internal/hub/errors.go
package hub

import (
	"errors"
	"fmt"

	"github.com/erilali/framechat/internal/frame"
)

var (
	// ErrInvalidName is the root of handshake name rejections.
	ErrInvalidName = errors.New("hub: invalid name")

	// ErrNameTaken - the proposed name is already registered.
	ErrNameTaken = fmt.Errorf("%w: already registered", ErrInvalidName)

	// ErrReservedName - the proposed name contains the reserved separator.
	ErrReservedName = fmt.Errorf("%w: contains reserved %q", ErrInvalidName, frame.Separator)

	// ErrClientClosed - the client connection is closed, nothing more can be queued for it.
	ErrClientClosed = errors.New("hub: client closed")

	// ErrQueueFull - the client send queue can not take the approval frame.
	ErrQueueFull = errors.New("hub: client send queue full")

	// ErrHubClosed - the hub is shut down and does not accept new connections.
	ErrHubClosed = errors.New("hub: closed")
)
