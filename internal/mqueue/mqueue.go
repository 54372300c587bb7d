package mqueue

import (
	"errors"
	"fmt"

	"github.com/danmuck/mqmesh/internal/identity"
	"go.uber.org/multierr"
)

const (
	// DefaultCapacity is the number of pending messages a channel holds.
	DefaultCapacity = 10
	// DefaultMessageSize is a native process handle plus 20 bytes of text.
	DefaultMessageSize = 4 + 20
)

var (
	ErrResource      = errors.New("mqueue: resource error")
	ErrCommunication = errors.New("mqueue: communication error")

	ErrNotFound    = fmt.Errorf("%w: channel does not exist", ErrResource)
	ErrClosed      = fmt.Errorf("%w: channel handle closed", ErrResource)
	ErrUnsupported = fmt.Errorf("%w: message queues unsupported on this platform", ErrResource)
	ErrMessageSize = fmt.Errorf("%w: message size out of range", ErrCommunication)

	// ErrEmpty and ErrFull are the would-block conditions of a non-blocking
	// channel. They are not failures.
	ErrEmpty = errors.New("mqueue: no message available")
	ErrFull  = errors.New("mqueue: channel full")
)

// Attr describes a channel's bounds.
type Attr struct {
	Capacity    int
	MessageSize int
}

func DefaultAttr() Attr {
	return Attr{Capacity: DefaultCapacity, MessageSize: DefaultMessageSize}
}

// WithDefaults fills zero fields.
func (a Attr) WithDefaults() Attr {
	if a.Capacity <= 0 {
		a.Capacity = DefaultCapacity
	}
	if a.MessageSize <= 0 {
		a.MessageSize = DefaultMessageSize
	}
	return a
}

// Channel is an open handle to one named queue.
type Channel interface {
	ID() identity.ID
	// Send enqueues msg without blocking; ErrFull when at capacity.
	Send(msg []byte) error
	// Receive dequeues the oldest message without blocking; ErrEmpty when
	// nothing is pending.
	Receive() ([]byte, error)
	// Len reports the number of pending messages.
	Len() (int, error)
	// Arm requests one wake-up on Wake. It fires as soon as the channel
	// holds a message, immediately if it already does. Each wake-up
	// consumes the arm.
	Arm() error
	Wake() <-chan struct{}
	// Close releases the handle. The name stays in the namespace.
	Close() error
}

// Namespace creates, opens and removes named channels.
type Namespace interface {
	// OpenOwn creates the channel if absent and opens it.
	OpenOwn(id identity.ID) (Channel, error)
	// OpenRemote opens an existing channel; ErrNotFound when absent.
	OpenRemote(id identity.ID) (Channel, error)
	// Unlink removes the name. Open handles keep working until closed.
	Unlink(id identity.ID) error
}

// Destroy closes ch and removes its name.
func Destroy(ns Namespace, ch Channel) error {
	return multierr.Append(ch.Close(), ns.Unlink(ch.ID()))
}

// IsWouldBlock reports whether err is a would-block condition.
func IsWouldBlock(err error) bool {
	return errors.Is(err, ErrEmpty) || errors.Is(err, ErrFull)
}

// notify performs a non-blocking wake-up on a buffered wake channel.
func notify(wake chan struct{}) {
	select {
	case wake <- struct{}{}:
	default:
	}
}
