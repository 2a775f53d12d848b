// ABOUTME: Analytics sink capability for the widget view beacon
// ABOUTME: Fire-and-forget by contract; a dropped signal is an acceptable loss

package analytics

// ViewEvent is the single usage signal the widget emits, once at bootstrap.
type ViewEvent struct {
	WidgetID  string `json:"widget_id"`
	VisitorID string `json:"visitor_id"`
	URL       string `json:"url"`
}

// Sink receives view events. Implementations must never block the caller
// and must never surface delivery failures; the chat function does not
// depend on analytics.
type Sink interface {
	Emit(event ViewEvent)
}

// NopSink discards every event. Used when analytics are disabled and in
// tests.
type NopSink struct{}

// Emit implements Sink.
func (NopSink) Emit(ViewEvent) {}
