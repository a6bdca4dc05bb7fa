// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils provides http.RoundTripper decorators for outbound
// clients.
package httputils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"
)

const redacted = "REDACTED"

// LoggingRoundTripper dumps each request and response to Writer. Query
// parameters listed in RedactParams and the Authorization header are masked.
type LoggingRoundTripper struct {
	Transport    http.RoundTripper
	Writer       io.Writer
	DumpBody     bool
	RedactParams []string
}

func transport(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}

	return rt
}

// abbreviate prefixes the lines and caps their number and length.
func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 2048, 512

	for i, line := range lines {
		if i >= maxLines {
			break
		}

		lines[i] = fmt.Sprintf("%c %s", prefix, line)
	}

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines = append(lines, "…")
	}

	for i, line := range lines {
		if len(line) > maxChars {
			lines[i] = line[0:maxChars] + "…"
		}
	}

	return lines
}

// redact returns a copy of req safe to print.
func (t *LoggingRoundTripper) redact(req *http.Request) *http.Request {
	out := req.Clone(req.Context())

	if len(t.RedactParams) > 0 {
		q := out.URL.Query()
		for _, p := range t.RedactParams {
			if q.Has(p) {
				q.Set(p, redacted)
			}
		}

		out.URL.RawQuery = q.Encode()
	}

	if out.Header.Get("Authorization") != "" {
		out.Header.Set("Authorization", redacted)
	}

	return out
}

func (t *LoggingRoundTripper) dumpRequest(req *http.Request) error {
	// bodies are never dumped for requests; the oracle only issues GETs
	dump, err := httputil.DumpRequestOut(t.redact(req), false)
	if err != nil {
		return fmt.Errorf("tracing HTTP request: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '>')
	lines = append(lines, "")
	_, err = fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

func (t *LoggingRoundTripper) dumpResponse(resp *http.Response, duration time.Duration) error {
	dump, err := httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '<')

	_, err = fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", duration)
	if err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	lines = append(lines, "")
	_, err = fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

// RoundTrip implements the http.RoundTripper interface.
func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return transport(t.Transport).RoundTrip(req)
	}

	if err := t.dumpRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := transport(t.Transport).RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if err := t.dumpResponse(resp, time.Since(start)); err != nil {
		return nil, err
	}

	return resp, nil
}

// AppendRequestHeadersRoundTripper adds headers to every request.
type AppendRequestHeadersRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *AppendRequestHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.Headers) > 0 {
		req = req.Clone(req.Context())
		for k, v := range t.Headers {
			req.Header.Set(k, v)
		}
	}

	return transport(t.Transport).RoundTrip(req)
}
