// ABOUTME: HTTP beacon sink posting view events to the backend analytics endpoint
// ABOUTME: Detached delivery with TTL dedupe so one page view emits one signal

package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const (
	viewPath = "/api/widget/analytics/view"

	// beaconTimeout bounds the detached delivery attempt
	beaconTimeout = 5 * time.Second

	// dedupeTTL suppresses repeat view signals for the same
	// widget/visitor/page combination
	dedupeTTL = 10 * time.Minute
)

// HTTPSink delivers view events to the backend with a detached,
// fire-and-forget POST. The send runs on its own goroutine with its own
// timeout so it survives whatever happens to the caller, mirroring
// navigator.sendBeacon surviving page navigation.
type HTTPSink struct {
	baseURL string
	http    *http.Client
	seen    *dedupeCache
	logger  *slog.Logger
}

// NewHTTPSink creates a beacon sink for the given backend base URL.
// Pass nil logger for default.
func NewHTTPSink(baseURL string, logger *slog.Logger) *HTTPSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPSink{
		baseURL: baseURL,
		http:    &http.Client{Timeout: beaconTimeout},
		seen:    newDedupeCache(dedupeTTL),
		logger:  logger.With("component", "analytics"),
	}
}

// Emit implements Sink. It returns immediately; delivery happens in the
// background and is never retried.
func (s *HTTPSink) Emit(event ViewEvent) {
	key := event.WidgetID + "|" + event.VisitorID + "|" + event.URL
	if s.seen.checkAndMark(key) {
		s.logger.Debug("duplicate view beacon suppressed", "widget_id", event.WidgetID)
		return
	}

	go s.deliver(event)
}

func (s *HTTPSink) deliver(event ViewEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), beaconTimeout)
	defer cancel()

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Debug("encoding view beacon failed", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+viewPath, bytes.NewReader(payload))
	if err != nil {
		s.logger.Debug("building view beacon failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		s.logger.Debug("view beacon dropped", "error", err)
		return
	}
	resp.Body.Close()
}
