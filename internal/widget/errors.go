// ABOUTME: Error taxonomy and fixed user-facing fallback strings
// ABOUTME: No async failure ever escapes the engine into the embedding host

package widget

import (
	"errors"
	"fmt"
)

// Fixed user-visible fallback strings. These are the only failure text the
// chat surface ever shows; raw backend errors stay in the logs.
const (
	SendFailedMessage       = "Sorry, there was a problem processing your request. Please try again."
	InitFailedMessage       = "Failed to initialize chat. Please try again later."
	GuestRegisterFailedText = "Sorry, we could not register your details. Please try again."
	WelcomeMessageFormat    = "Welcome, %s! How can I help you today?"
)

// ErrSessionNotInitialized is raised when a message send is attempted
// before a session exists. It is always caught inside the engine and
// surfaced as the send fallback message; the UI normally prevents this by
// disabling input until init completes.
var ErrSessionNotInitialized = errors.New("session not initialized")

// ErrGuestRegistrationFailed is returned by RegisterGuest when the backend
// call fails. Callers display GuestRegisterFailedText; state is unchanged.
var ErrGuestRegistrationFailed = errors.New("guest registration failed")

// ValidationError reports a guest form field that failed local validation.
// The backend is never called when one of these is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
