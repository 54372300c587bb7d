package node

import (
	"errors"
	"fmt"

	"github.com/danmuck/mqmesh/internal/identity"
	"github.com/danmuck/mqmesh/internal/mqueue"
	"github.com/danmuck/mqmesh/internal/observability"
	"github.com/danmuck/mqmesh/internal/protocol/envelope"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// CascadeReport records one termination cascade.
type CascadeReport struct {
	Origin identity.ID
	// Attempted lists every neighbour visited, in registry order.
	Attempted []identity.ID
	Delivered []identity.ID
	Failed    []identity.ID
	// Err combines the per-neighbour and own-channel failures.
	Err error
}

// Cascade terminates the node. The origin, when known, is removed first so
// the interrupt is not reflected straight back; every remaining neighbour
// is then visited in order. One failing neighbour never stops the rest.
// Finally the own channel is closed and unlinked. A second call returns
// ErrTerminating without side effects.
func (n *Node) Cascade(origin identity.ID) CascadeReport {
	if !n.state.CompareAndSwap(int32(StateRunning), int32(StateTerminating)) {
		return CascadeReport{Origin: origin, Err: ErrTerminating}
	}
	self := n.cfg.Self.String()
	report := CascadeReport{Origin: origin}

	if !origin.IsNone() && n.registry.Remove(origin) {
		observability.RecordNeighbours(self, n.registry.Len())
		fmt.Fprint(n.out, n.registry.Format()+"\n")
	}

	for _, peer := range n.registry.Snapshot() {
		report.Attempted = append(report.Attempted, peer)
		fmt.Fprintf(n.out, "Sending terminate signal to [%s]\n", peer)

		result, err := n.forward(peer)
		observability.RecordInterrupt(self, result)
		if err != nil {
			n.logger.Warn().Err(err).Str("neighbour", peer.String()).Msg("node.Cascade forward failed")
			report.Failed = append(report.Failed, peer)
			report.Err = multierr.Append(report.Err, err)
			continue
		}
		report.Delivered = append(report.Delivered, peer)
	}

	if n.own != nil {
		if err := mqueue.Destroy(n.ns, n.own); err != nil {
			n.logger.Warn().Err(err).Msg("node.Cascade release own channel failed")
			report.Err = multierr.Append(report.Err, err)
		}
	}
	fmt.Fprintln(n.out, "Terminating...")
	n.logger.Info().
		Str("origin", origin.String()).
		Int("attempted", len(report.Attempted)).
		Int("failed", len(report.Failed)).
		Msg("node.Cascade complete")
	return report
}

// forward delivers an interrupt tagged with this node's id through the
// peer's channel. A full channel falls back to a plain SIGINT, which loses
// the origin tag.
func (n *Node) forward(peer identity.ID) (string, error) {
	pid, err := peer.PID()
	if err != nil {
		return observability.ResultFailed, fmt.Errorf("node: forward to %s: %w", peer, err)
	}
	if err := n.signals.Signal(pid, 0); err != nil {
		return observability.ResultFailed, fmt.Errorf("%w: %s: %v", ErrPeerGone, peer, err)
	}
	msg, err := envelope.Encode(envelope.Interrupt(n.cfg.Self))
	if err != nil {
		return observability.ResultFailed, fmt.Errorf("node: forward to %s: %w", peer, err)
	}

	ch, err := n.ns.OpenRemote(peer)
	if err != nil {
		return observability.ResultFailed, fmt.Errorf("node: forward to %s: %w", peer, err)
	}
	defer n.release(ch)

	err = ch.Send(msg)
	switch {
	case err == nil:
		return observability.ResultDelivered, nil
	case errors.Is(err, mqueue.ErrFull):
		if serr := n.signals.Signal(pid, unix.SIGINT); serr != nil {
			return observability.ResultFailed, fmt.Errorf("node: forward to %s: channel full, signal: %w", peer, serr)
		}
		n.logger.Warn().Str("neighbour", peer.String()).Msg("node.forward channel full, sent bare SIGINT")
		return observability.ResultFallback, nil
	default:
		return observability.ResultFailed, fmt.Errorf("node: forward to %s: %w", peer, err)
	}
}

// release drops the handle to a peer channel. The name is the peer's and
// stays linked unless UnlinkPeerChannels is set.
func (n *Node) release(ch mqueue.Channel) {
	var err error
	if n.cfg.UnlinkPeerChannels {
		err = mqueue.Destroy(n.ns, ch)
	} else {
		err = ch.Close()
	}
	if err != nil {
		n.logger.Warn().Err(err).Str("neighbour", ch.ID().String()).Msg("node.release peer channel treated as gone")
	}
}
