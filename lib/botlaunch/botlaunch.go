// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package botlaunch submits a session configuration to the bot-launch
// endpoint (POST {API_URL}/api/start) and returns the parameters the
// transport needs to reach the launched bot.
//
// The endpoint answers with the signaling location for the new session:
//
//	{"webrtcRequestParams": {"endpoint": "http://host/api/offer?session_id=..."}}
//
// Older servers answer with {"webrtcUrl": "..."}; both are accepted.
// Relative endpoints are resolved against the API URL.
package botlaunch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bureau-foundation/voice-sandbox/lib/netutil"
	"github.com/bureau-foundation/voice-sandbox/lib/sessionconfig"
	"github.com/bureau-foundation/voice-sandbox/lib/version"
	"github.com/bureau-foundation/voice-sandbox/transport"
)

// DefaultAPIURL is the bot-launch server used when none is configured.
const DefaultAPIURL = "http://localhost:7860"

// startPath is appended to the API URL.
const startPath = "/api/start"

// ErrNoEndpoint is returned when a successful launch response does not
// say where to connect.
var ErrNoEndpoint = errors.New("launch response did not include a WebRTC endpoint")

// Client talks to one bot-launch server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// New returns a Client for apiURL (scheme and host required; a path
// prefix is kept). A nil httpClient selects http.DefaultClient.
func New(apiURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(apiURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing API URL %q: %w", apiURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("API URL %q must use http or https", apiURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("API URL %q has no host", apiURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    parsed,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// StartURL returns the full URL the launch request is sent to.
func (c *Client) StartURL() string {
	return c.baseURL.String() + startPath
}

// startResponse covers both the current and the legacy response shape.
type startResponse struct {
	WebRTCRequestParams *struct {
		Endpoint string            `json:"endpoint"`
		Headers  map[string]string `json:"headers"`
	} `json:"webrtcRequestParams"`
	WebRTCURL string `json:"webrtcUrl"`
}

// Start submits config and returns where the transport should send its
// offer. config is sent as-is; the caller passes a snapshot.
func (c *Client) Start(ctx context.Context, config sessionconfig.SessionConfig) (transport.RequestParams, error) {
	startURL := c.StartURL()

	var response startResponse
	if err := netutil.PostJSON(ctx, c.httpClient, startURL, http.Header{"User-Agent": {version.UserAgent()}}, config, &response); err != nil {
		return transport.RequestParams{}, fmt.Errorf("starting bot: %w", err)
	}

	params := transport.RequestParams{}
	switch {
	case response.WebRTCRequestParams != nil && response.WebRTCRequestParams.Endpoint != "":
		params.Endpoint = response.WebRTCRequestParams.Endpoint
		params.Headers = response.WebRTCRequestParams.Headers
	case response.WebRTCURL != "":
		params.Endpoint = response.WebRTCURL
	default:
		return transport.RequestParams{}, ErrNoEndpoint
	}

	endpoint, err := c.resolve(params.Endpoint)
	if err != nil {
		return transport.RequestParams{}, err
	}
	params.Endpoint = endpoint

	c.logger.Info("bot launched",
		"mode", config.Mode,
		"providers", config.ActiveProviders(),
		"endpoint", params.Endpoint,
	)
	return params, nil
}

// resolve turns a possibly relative endpoint into an absolute URL.
func (c *Client) resolve(endpoint string) (string, error) {
	reference, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing WebRTC endpoint %q: %w", endpoint, err)
	}
	if reference.IsAbs() {
		return reference.String(), nil
	}
	base := *c.baseURL
	base.Path = base.Path + "/"
	return base.ResolveReference(reference).String(), nil
}
