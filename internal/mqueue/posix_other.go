//go:build !linux

package mqueue

import "github.com/danmuck/mqmesh/internal/identity"

// POSIX is unavailable off Linux; every call reports ErrUnsupported.
type POSIX struct{}

func NewPOSIX(Attr) *POSIX {
	return &POSIX{}
}

func (p *POSIX) OpenOwn(identity.ID) (Channel, error) {
	return nil, ErrUnsupported
}

func (p *POSIX) OpenRemote(identity.ID) (Channel, error) {
	return nil, ErrUnsupported
}

func (p *POSIX) Unlink(identity.ID) error {
	return ErrUnsupported
}
