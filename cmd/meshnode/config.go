package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/mqmesh/internal/node"
)

type fileConfig struct {
	NeighbourLimit     int    `toml:"neighbour_limit"`
	UnlinkPeerChannels bool   `toml:"unlink_peer_channels"`
	Console            bool   `toml:"console"`
	MetricsAddr        string `toml:"metrics_addr"`
}

// runtimeConfig is the node config plus process-level settings.
type runtimeConfig struct {
	Node        node.Config
	MetricsAddr string
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{Node: node.DefaultConfig()}
}

// loadRuntimeConfig applies the keys present in path over the defaults.
// An empty path yields the defaults.
func loadRuntimeConfig(path string) (runtimeConfig, error) {
	cfg := defaultRuntimeConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runtimeConfig{}, fmt.Errorf("load meshnode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return runtimeConfig{}, fmt.Errorf("load meshnode config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("neighbour_limit") {
		if raw.NeighbourLimit <= 0 {
			return runtimeConfig{}, fmt.Errorf("parse neighbour_limit: must be positive, got %d", raw.NeighbourLimit)
		}
		cfg.Node.NeighbourLimit = raw.NeighbourLimit
	}

	if meta.IsDefined("unlink_peer_channels") {
		cfg.Node.UnlinkPeerChannels = raw.UnlinkPeerChannels
	}

	if meta.IsDefined("console") {
		cfg.Node.Console = raw.Console
	}

	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	return cfg, nil
}
