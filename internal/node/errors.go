package node

import (
	"errors"
	"fmt"

	"github.com/danmuck/mqmesh/internal/protocol/envelope"
)

var (
	ErrNotStarted     = errors.New("node: own channel not open")
	ErrAlreadyStarted = errors.New("node: already started")
	ErrTerminating    = errors.New("node: already terminating")
	ErrSelfTarget     = errors.New("node: cannot connect to self")
	ErrPeerGone       = errors.New("node: peer process not reachable")

	ErrInvalidInput     = fmt.Errorf("%w: invalid console input", envelope.ErrProtocol)
	ErrUnknownNeighbour = errors.New("node: unknown neighbour")
)
