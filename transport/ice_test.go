// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"strings"
	"testing"
)

func TestICEConfigFromServers_Empty(t *testing.T) {
	config, err := ICEConfigFromServers(nil)
	if err != nil {
		t.Fatalf("ICEConfigFromServers(nil): %v", err)
	}
	if len(config.Servers) != 0 {
		t.Errorf("expected host-only config, got %d servers", len(config.Servers))
	}
}

func TestICEConfigFromServers_WithCredentials(t *testing.T) {
	config, err := ICEConfigFromServers([]ICEServer{
		{URLs: []string{"stun:stun.example.com:3478"}},
		{
			URLs:       []string{"turn:turn.example.com:3478?transport=udp", "turns:turn.example.com:5349"},
			Username:   "1234:operator",
			Credential: "secret",
		},
	})
	if err != nil {
		t.Fatalf("ICEConfigFromServers: %v", err)
	}
	if len(config.Servers) != 2 {
		t.Fatalf("expected 2 ICE server entries, got %d", len(config.Servers))
	}
	turn := config.Servers[1]
	if len(turn.URLs) != 2 {
		t.Errorf("expected 2 URLs, got %d", len(turn.URLs))
	}
	if turn.Username != "1234:operator" {
		t.Errorf("username = %q, want %q", turn.Username, "1234:operator")
	}
	if turn.Credential != "secret" {
		t.Errorf("credential = %v, want %q", turn.Credential, "secret")
	}
}

func TestICEConfigFromServers_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		server  ICEServer
		message string
	}{
		{"no urls", ICEServer{}, "no urls"},
		{"no scheme", ICEServer{URLs: []string{"stun.example.com"}}, "no scheme"},
		{"http scheme", ICEServer{URLs: []string{"http://stun.example.com"}}, "unsupported scheme"},
		{"turn without credentials", ICEServer{URLs: []string{"turn:turn.example.com"}}, "requires username"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ICEConfigFromServers([]ICEServer{test.server})
			if err == nil || !strings.Contains(err.Error(), test.message) {
				t.Errorf("error = %v, want containing %q", err, test.message)
			}
		})
	}
}
