// Package envelope owns the messages exchanged over mesh channels.
//
// Wire layout (at most MaxSize bytes):
//
//	kind:u8 | tlv fields...
//
// Field FieldSender (string) names the process that produced the envelope.
// A payload that starts with a decimal digit is the legacy bare-pid
// announcement and decodes as KindAnnounce.
package envelope

import (
	"errors"
	"fmt"

	"github.com/danmuck/mqmesh/internal/identity"
	"github.com/danmuck/mqmesh/internal/protocol/tlv"
)

const (
	// HandleSize is the size of a native process handle (pid_t).
	HandleSize = 4
	// MaxTextLen bounds free text carried next to a handle.
	MaxTextLen = 20
	// MaxSize is the largest message a channel accepts.
	MaxSize = HandleSize + MaxTextLen
)

const FieldSender uint8 = 1

type Kind uint8

const (
	KindAnnounce  Kind = 0x01
	KindInterrupt Kind = 0x02
)

func (k Kind) String() string {
	switch k {
	case KindAnnounce:
		return "announce"
	case KindInterrupt:
		return "interrupt"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var (
	ErrProtocol     = errors.New("envelope: protocol error")
	ErrTooLarge     = fmt.Errorf("%w: message too large", ErrProtocol)
	ErrEmpty        = fmt.Errorf("%w: empty message", ErrProtocol)
	ErrUnknownKind  = fmt.Errorf("%w: unknown kind", ErrProtocol)
	ErrMissingField = fmt.Errorf("%w: missing sender", ErrProtocol)
)

// Envelope is one decoded channel message.
type Envelope struct {
	Kind   Kind
	Sender identity.ID
}

// Announce means "register sender as your neighbour".
func Announce(sender identity.ID) Envelope {
	return Envelope{Kind: KindAnnounce, Sender: sender}
}

// Interrupt asks the receiver to terminate; Sender is the cascade origin.
func Interrupt(sender identity.ID) Envelope {
	return Envelope{Kind: KindInterrupt, Sender: sender}
}

func Encode(env Envelope) ([]byte, error) {
	if env.Kind != KindAnnounce && env.Kind != KindInterrupt {
		return nil, ErrUnknownKind
	}
	if env.Sender.IsNone() {
		return nil, ErrMissingField
	}
	fields := []tlv.Field{{ID: FieldSender, Type: tlv.TypeString, Value: []byte(env.Sender)}}
	if 1+tlv.EncodedLen(fields) > MaxSize {
		return nil, fmt.Errorf("%w: sender %q", ErrTooLarge, env.Sender)
	}
	body, err := tlv.EncodeFields(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	out := make([]byte, 0, 1+len(body))
	out = append(out, byte(env.Kind))
	return append(out, body...), nil
}

func Decode(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, ErrEmpty
	}
	if len(b) > MaxSize {
		return Envelope{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(b))
	}
	if b[0] >= '0' && b[0] <= '9' {
		id, err := identity.Parse(string(b))
		if err != nil {
			return Envelope{}, fmt.Errorf("%w: %v", ErrProtocol, err)
		}
		return Announce(id), nil
	}

	kind := Kind(b[0])
	if kind != KindAnnounce && kind != KindInterrupt {
		return Envelope{}, fmt.Errorf("%w: %d", ErrUnknownKind, b[0])
	}
	fields, err := tlv.DecodeFields(b[1:])
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	f, ok := tlv.GetField(fields, FieldSender)
	if !ok {
		return Envelope{}, ErrMissingField
	}
	if err := tlv.MustType(f, tlv.TypeString); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	id, err := identity.Parse(string(f.Value))
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return Envelope{Kind: kind, Sender: id}, nil
}
