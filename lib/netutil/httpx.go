// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP I/O helpers shared by the
// bot-launch client and the WebRTC signaling exchange.
//
// Response reads are capped at [MaxResponseSize]. Both endpoints return
// small JSON documents (a launch acknowledgement, an SDP answer); the
// cap only guards against a misbehaving server.
//
// [PostJSON] performs the JSON request/response round-trip both callers
// need and reports non-2xx responses as [*StatusError].
package netutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxResponseSize bounds JSON response body reads: 4 MB.
const MaxResponseSize int64 = 4 << 20

// maxErrorBody bounds how much of an error response is kept for
// diagnostics.
const maxErrorBody = 512

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// ReadResponse reads a response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a response body (up to MaxResponseSize bytes)
// and JSON-decodes it into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an error response body for diagnostics, trimmed to a
// short single-line string. Read errors yield whatever was read.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	return strings.TrimSpace(string(data))
}

// PostJSON encodes request as JSON, POSTs it to url with the extra
// header fields, and decodes a 2xx response into response (which may be
// nil to discard the body).
func PostJSON(ctx context.Context, client *http.Client, url string, header http.Header, request, response any) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	for name, values := range header {
		for _, value := range values {
			httpRequest.Header.Add(name, value)
		}
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "application/json")

	httpResponse, err := client.Do(httpRequest)
	if err != nil {
		return err
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		return &StatusError{
			Method:     http.MethodPost,
			URL:        url,
			StatusCode: httpResponse.StatusCode,
			Body:       ErrorBody(httpResponse.Body),
		}
	}

	if response == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResponse.Body, MaxResponseSize))
		return nil
	}
	if err := DecodeResponse(httpResponse.Body, response); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}
