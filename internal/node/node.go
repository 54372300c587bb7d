package node

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/danmuck/mqmesh/internal/identity"
	"github.com/danmuck/mqmesh/internal/mqueue"
	"github.com/danmuck/mqmesh/internal/observability"
	"github.com/danmuck/mqmesh/internal/registry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type State int32

const (
	StateRunning State = iota
	StateTerminating
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateTerminating:
		return "terminating"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config configures one mesh participant.
type Config struct {
	Self identity.ID

	// Target is announced to once at startup; None skips bootstrap.
	Target identity.ID

	NeighbourLimit int

	// UnlinkPeerChannels removes a neighbour's channel name after
	// forwarding an interrupt to it. Off by default: only the own
	// channel is ever unlinked.
	UnlinkPeerChannels bool

	Console bool
}

func DefaultConfig() Config {
	return Config{
		Self:           identity.Self(),
		NeighbourLimit: registry.DefaultLimit,
		Console:        true,
	}
}

// Node is one mesh participant.
type Node struct {
	cfg      Config
	ns       mqueue.Namespace
	signals  Signaller
	registry *registry.Registry
	out      io.Writer
	logger   zerolog.Logger

	own   mqueue.Channel
	state atomic.Int32
}

func New(cfg Config, ns mqueue.Namespace, signals Signaller, out io.Writer) *Node {
	if cfg.Self.IsNone() {
		cfg.Self = identity.Self()
	}
	if out == nil {
		out = io.Discard
	}
	return &Node{
		cfg:      cfg,
		ns:       ns,
		signals:  signals,
		registry: registry.New(cfg.NeighbourLimit),
		out:      out,
		logger:   log.With().Str("node", cfg.Self.String()).Logger(),
	}
}

func (n *Node) Self() identity.ID {
	return n.cfg.Self
}

func (n *Node) Registry() *registry.Registry {
	return n.registry
}

func (n *Node) State() State {
	return State(n.state.Load())
}

// Start opens and arms the own channel. Any error is fatal to the node.
func (n *Node) Start() error {
	if n.own != nil {
		return ErrAlreadyStarted
	}
	ch, err := n.ns.OpenOwn(n.cfg.Self)
	if err != nil {
		return fmt.Errorf("node: open own channel %s: %w", n.cfg.Self.ChannelName(), err)
	}
	if err := ch.Arm(); err != nil {
		_ = mqueue.Destroy(n.ns, ch)
		return fmt.Errorf("node: arm own channel %s: %w", n.cfg.Self.ChannelName(), err)
	}
	n.own = ch
	observability.RecordNeighbours(n.cfg.Self.String(), 0)
	fmt.Fprintf(n.out, "PID: [%s]\n\n", n.cfg.Self)
	n.logger.Info().Str("channel", n.cfg.Self.ChannelName()).Msg("node.Start ready")
	return nil
}

// Run is the event loop. It returns once the cascade completed, either
// because ctx ended (operator interrupt, no origin) or because a neighbour
// forwarded an interrupt through the own channel.
func (n *Node) Run(ctx context.Context, lines <-chan string) (CascadeReport, error) {
	if n.own == nil {
		return CascadeReport{}, ErrNotStarted
	}
	n.prompt()
	for {
		select {
		case <-ctx.Done():
			n.logger.Info().Msg("node.Run operator interrupt")
			return n.Cascade(identity.None), nil
		case <-n.own.Wake():
			if origin, interrupted := n.Drain(); interrupted {
				n.logger.Info().Str("origin", origin.String()).Msg("node.Run forwarded interrupt")
				return n.Cascade(origin), nil
			}
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if err := n.HandleLine(line); err != nil {
				n.logger.Debug().Err(err).Msg("node.Run console input rejected")
			}
			n.prompt()
		}
	}
}
