// Package api implements the REST contract the widget engine consumes:
// session init, history fetch, message send, guest registration and
// validation. All bodies are JSON; any transport failure or non-2xx status
// is returned as a *BackendError with no status-specific branching.
package api
