// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
)

// dummyRoundTripper records the last request and returns a canned body.
type dummyRoundTripper struct {
	body        string
	lastRequest *http.Request
}

func (d *dummyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	d.lastRequest = req

	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(d.body)),
	}, nil
}

func TestLoggingRoundTripper(t *testing.T) {
	var logBuffer bytes.Buffer

	drt := &dummyRoundTripper{body: `{"status":"OK"}`}
	lt := &LoggingRoundTripper{
		Transport:    drt,
		Writer:       &logBuffer,
		DumpBody:     true,
		RedactParams: []string{"key"},
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.com/geocode/json?latlng=11.28,125.06&key=secret", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer token")

	if _, err := lt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	logContent := logBuffer.String()
	if !strings.Contains(logContent, "> GET /geocode/json?") {
		t.Errorf("log does not contain request info. Got: %s", logContent)
	}

	if !strings.Contains(logContent, "< RESPONSE: [") {
		t.Errorf("log does not contain response header with timing info. Got: %s", logContent)
	}

	if !strings.Contains(logContent, `{"status":"OK"}`) {
		t.Errorf("log does not contain response body. Got: %s", logContent)
	}

	if strings.Contains(logContent, "secret") || strings.Contains(logContent, "Bearer token") {
		t.Errorf("log leaks credentials. Got: %s", logContent)
	}

	// the request sent upstream keeps its real key
	if got := drt.lastRequest.URL.Query().Get("key"); got != "secret" {
		t.Errorf("upstream key = %q, want %q", got, "secret")
	}
}

func TestLoggingRoundTripperWithoutWriter(t *testing.T) {
	drt := &dummyRoundTripper{}
	lt := &LoggingRoundTripper{Transport: drt}

	req, err := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if _, err := lt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	if drt.lastRequest != req {
		t.Errorf("request was not passed through unchanged")
	}
}

func TestAppendRequestHeadersRoundTripper(t *testing.T) {
	dummy := &dummyRoundTripper{}
	atr := &AppendRequestHeadersRoundTripper{
		Transport: dummy,
		Headers: map[string]string{
			"User-Agent": "pasahe/test",
		},
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.org", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if _, err := atr.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	if dummy.lastRequest == nil {
		t.Fatalf("dummy transport did not receive any request")
	}

	if got := dummy.lastRequest.Header.Get("User-Agent"); got != "pasahe/test" {
		t.Errorf("expected header User-Agent to have value 'pasahe/test', but got '%s'", got)
	}

	if req.Header.Get("User-Agent") != "" {
		t.Errorf("caller's request must not be mutated")
	}
}
