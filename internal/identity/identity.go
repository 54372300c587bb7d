// Package identity names mesh participants.
//
// An ID is the decimal OS process id of a participant kept as an opaque
// token. It doubles as the participant's channel name. The only place it is
// turned back into a number is PID, for signal delivery.
package identity

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// MaxLen bounds an ID so an announcement always fits one queue message.
const MaxLen = 20

// None marks the absence of an originating peer.
const None ID = ""

var (
	ErrEmpty   = errors.New("identity: empty id")
	ErrTooLong = errors.New("identity: id too long")
	ErrInvalid = errors.New("identity: invalid id")
	ErrNotPID  = errors.New("identity: id is not a process id")
)

type ID string

// Self returns the identity of the running process.
func Self() ID {
	return ID(strconv.Itoa(os.Getpid()))
}

// Parse validates raw as an ID. Leading and trailing space is ignored.
func Parse(raw string) (ID, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return None, ErrEmpty
	}
	if len(v) > MaxLen {
		return None, fmt.Errorf("%w: %d bytes", ErrTooLong, len(v))
	}
	for _, r := range v {
		if r == '/' || r <= ' ' || r == 0x7f {
			return None, fmt.Errorf("%w: %q", ErrInvalid, v)
		}
	}
	return ID(v), nil
}

// IsNone reports whether id carries no origin. The kernel reports "0" as the
// sender of interrupts that did not come from a user process, so "0" counts.
func (id ID) IsNone() bool {
	return id == None || id == "0"
}

// ChannelName is the system-namespace name of the id's channel.
func (id ID) ChannelName() string {
	return "/" + string(id)
}

// PID converts the id back to a process id.
func (id ID) PID() (int, error) {
	pid, err := strconv.Atoi(string(id))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNotPID, string(id))
	}
	return pid, nil
}

func (id ID) String() string {
	return string(id)
}
