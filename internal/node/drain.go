package node

import (
	"errors"
	"fmt"

	"github.com/danmuck/mqmesh/internal/identity"
	"github.com/danmuck/mqmesh/internal/mqueue"
	"github.com/danmuck/mqmesh/internal/observability"
	"github.com/danmuck/mqmesh/internal/protocol/envelope"
	"github.com/danmuck/mqmesh/internal/registry"
)

// Drain handles one wake-up of the own channel. It re-arms first, so a
// message arriving mid-drain produces another wake-up, then consumes every
// pending message. An interrupt envelope stops the drain and is returned
// with its origin.
func (n *Node) Drain() (identity.ID, bool) {
	if n.own == nil {
		return identity.None, false
	}
	self := n.cfg.Self.String()
	observability.RecordWakeup(self)
	if err := n.own.Arm(); err != nil {
		n.logger.Warn().Err(err).Msg("node.Drain re-arm failed")
	}

	for {
		raw, err := n.own.Receive()
		if err != nil {
			if !errors.Is(err, mqueue.ErrEmpty) {
				n.logger.Warn().Err(err).Msg("node.Drain receive failed")
			}
			return identity.None, false
		}
		env, err := envelope.Decode(raw)
		if err != nil {
			observability.RecordAnnouncement(self, observability.ResultMalformed, n.registry.Len())
			n.logger.Warn().Err(err).Int("bytes", len(raw)).Msg("node.Drain dropped malformed message")
			continue
		}
		switch env.Kind {
		case envelope.KindInterrupt:
			return env.Sender, true
		case envelope.KindAnnounce:
			n.admit(env.Sender)
		}
	}
}

func (n *Node) admit(id identity.ID) {
	self := n.cfg.Self.String()
	if id == n.cfg.Self {
		observability.RecordAnnouncement(self, observability.ResultMalformed, n.registry.Len())
		n.logger.Warn().Msg("node.admit ignored self announcement")
		return
	}

	err := n.registry.Add(id)
	switch {
	case err == nil:
		observability.RecordAnnouncement(self, observability.ResultAccepted, n.registry.Len())
		n.logger.Info().Str("neighbour", id.String()).Int("size", n.registry.Len()).Msg("node.admit neighbour added")
		fmt.Fprint(n.out, n.registry.Format()+"\n")
		n.prompt()
	case errors.Is(err, registry.ErrCapacity):
		observability.RecordAnnouncement(self, observability.ResultCapacity, n.registry.Len())
		n.logger.Warn().Err(err).Str("neighbour", id.String()).Msg("node.admit announcement dropped")
		fmt.Fprintln(n.out, "Maximal number of clients reached!")
	case errors.Is(err, registry.ErrDuplicate):
		observability.RecordAnnouncement(self, observability.ResultDuplicate, n.registry.Len())
		n.logger.Warn().Err(err).Str("neighbour", id.String()).Msg("node.admit announcement dropped")
	default:
		observability.RecordAnnouncement(self, observability.ResultMalformed, n.registry.Len())
		n.logger.Warn().Err(err).Str("neighbour", id.String()).Msg("node.admit announcement dropped")
	}
}
