package tts

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingTransport logs method, URL, status and latency of each outgoing
// synthesis request. Bodies and query strings (which may hold an API key)
// are not logged.
type loggingTransport struct {
	base http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	rt := t.base
	if rt == nil {
		rt = http.DefaultTransport
	}

	resp, err := rt.RoundTrip(req)
	if err != nil {
		slog.Debug("tts request failed",
			"method", req.Method,
			"url", req.URL.Host+req.URL.Path,
			"error", err,
			"elapsed", time.Since(start).String(),
		)
		return resp, err
	}

	slog.Debug("tts request",
		"method", req.Method,
		"url", req.URL.Host+req.URL.Path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start).String(),
	)
	return resp, nil
}
