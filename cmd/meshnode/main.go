package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/mqmesh/internal/identity"
	"github.com/danmuck/mqmesh/internal/logging"
	"github.com/danmuck/mqmesh/internal/mqueue"
	"github.com/danmuck/mqmesh/internal/node"
	"github.com/danmuck/mqmesh/internal/observability"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "optional TOML config path")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config path] [neighbour-id]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logging.ConfigureRuntime()
	if err := run(*configPath, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "meshnode: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	cfg, err := loadRuntimeConfig(configPath)
	if err != nil {
		return err
	}
	target, err := parseTarget(args)
	if err != nil {
		return err
	}
	cfg.Node.Target = target

	// The first SIGINT/SIGTERM starts the cascade; later ones are swallowed
	// until the process exits.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := observability.ServeMetrics(ctx, cfg.MetricsAddr); err != nil {
				log.Warn().Err(err).Str("addr", cfg.MetricsAddr).Msg("meshnode metrics listener stopped")
			}
		}()
	}

	n := node.New(cfg.Node, mqueue.NewPOSIX(mqueue.DefaultAttr()), node.ProcessSignaller{}, os.Stdout)
	if err := n.Start(); err != nil {
		return err
	}
	if err := n.Connect(cfg.Node.Target); err != nil {
		log.Warn().Err(err).Str("target", cfg.Node.Target.String()).Msg("meshnode bootstrap skipped")
	}

	var lines <-chan string
	if cfg.Node.Console {
		lines = node.ReadLines(ctx, os.Stdin)
	}
	report, err := n.Run(ctx, lines)
	if err != nil {
		return err
	}
	if report.Err != nil {
		log.Warn().Err(report.Err).Int("failed", len(report.Failed)).Msg("meshnode cascade finished with failures")
	}
	return nil
}

func parseTarget(args []string) (identity.ID, error) {
	switch len(args) {
	case 0:
		return identity.None, nil
	case 1:
		id, err := identity.Parse(args[0])
		if err != nil {
			return identity.None, fmt.Errorf("parse neighbour-id: %w", err)
		}
		return id, nil
	default:
		return identity.None, fmt.Errorf("expected at most one neighbour-id, got %d arguments", len(args))
	}
}
