package node

import (
	"fmt"

	"github.com/danmuck/mqmesh/internal/identity"
	"github.com/danmuck/mqmesh/internal/protocol/envelope"
)

// Connect announces this node to target once. There is no acknowledgment
// and target is not added to the local registry. Failures are warnings:
// the caller keeps running without the bootstrap link.
func (n *Node) Connect(target identity.ID) error {
	if target.IsNone() {
		return nil
	}
	if target == n.cfg.Self {
		return ErrSelfTarget
	}
	msg, err := envelope.Encode(envelope.Announce(n.cfg.Self))
	if err != nil {
		return fmt.Errorf("node: connect %s: %w", target, err)
	}

	ch, err := n.ns.OpenRemote(target)
	if err != nil {
		n.logger.Warn().Err(err).Str("target", target.String()).Msg("node.Connect open failed")
		return fmt.Errorf("node: connect %s: %w", target, err)
	}
	defer func() {
		if err := ch.Close(); err != nil {
			n.logger.Warn().Err(err).Str("target", target.String()).Msg("node.Connect close failed")
		}
	}()

	fmt.Fprintf(n.out, "Sending message from [%s] to [%s]\n", n.cfg.Self, target)
	if err := ch.Send(msg); err != nil {
		n.logger.Warn().Err(err).Str("target", target.String()).Msg("node.Connect send failed")
		return fmt.Errorf("node: connect %s: %w", target, err)
	}
	n.logger.Info().Str("target", target.String()).Msg("node.Connect announced")
	return nil
}
