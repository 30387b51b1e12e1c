// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"fmt"
	"strings"

	"github.com/pion/webrtc/v4"
)

// ICEConfig holds ICE server configuration for PeerConnections.
type ICEConfig struct {
	// Servers is the list of ICE servers (STUN and TURN) used during
	// candidate gathering. An empty list gathers host candidates only,
	// which is enough for same-machine testing.
	Servers []webrtc.ICEServer
}

// ICEServer is one configured STUN or TURN server.
type ICEServer struct {
	URLs       []string
	Username   string
	Credential string
}

// ICEConfigFromServers converts configured servers to an ICEConfig.
// Every URL must use the stun, stuns, turn, or turns scheme, and TURN
// servers need credentials.
func ICEConfigFromServers(servers []ICEServer) (ICEConfig, error) {
	config := ICEConfig{}
	for index, server := range servers {
		if len(server.URLs) == 0 {
			return ICEConfig{}, fmt.Errorf("ice server %d has no urls", index)
		}
		for _, url := range server.URLs {
			scheme, _, found := strings.Cut(url, ":")
			if !found {
				return ICEConfig{}, fmt.Errorf("ice server url %q has no scheme", url)
			}
			switch scheme {
			case "stun", "stuns":
			case "turn", "turns":
				if server.Username == "" || server.Credential == "" {
					return ICEConfig{}, fmt.Errorf("turn server %q requires username and credential", url)
				}
			default:
				return ICEConfig{}, fmt.Errorf("ice server url %q: unsupported scheme %q", url, scheme)
			}
		}
		config.Servers = append(config.Servers, webrtc.ICEServer{
			URLs:       server.URLs,
			Username:   server.Username,
			Credential: server.Credential,
		})
	}
	return config, nil
}
