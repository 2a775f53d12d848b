// ABOUTME: Session manager: guest gate resolution, registration, session init
// ABOUTME: Establishes the identity under which messages are exchanged

package widget

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/2389/embedchat/internal/api"
	"github.com/2389/embedchat/internal/kvstore"
)

// emailPattern accepts the usual something@domain.tld shape. This is a
// plausibility check, not RFC 5322.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// GuestProfile is the visitor-supplied contact form input. It is validated,
// submitted, and then discarded; only the returned guest session id is kept.
type GuestProfile struct {
	FullName string
	Email    string // optional
	Phone    string
}

// resolveGuestGate attempts a silent restore of a persisted guest session.
// Any failure along the way (missing key, network error, backend says
// invalid) leaves the instance gated with the persisted value cleaned up;
// nothing surfaces to the caller.
func (w *Instance) resolveGuestGate(ctx context.Context) {
	stored, err := w.identity.Get(ctx, w.cfg.WidgetID)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			w.logger.Warn("reading persisted guest session failed", "error", err)
		}
		w.setPhase(PhaseGuestGatePending)
		return
	}

	valid, err := w.backend.ValidateGuestSession(ctx, stored)
	if err != nil || !valid {
		if err != nil {
			w.logger.Warn("guest session validation failed", "error", err)
		} else {
			w.logger.Debug("persisted guest session no longer valid")
		}
		if delErr := w.identity.Delete(ctx, w.cfg.WidgetID); delErr != nil {
			w.logger.Warn("deleting stale guest session failed", "error", delErr)
		}
		w.setPhase(PhaseGuestGatePending)
		return
	}

	w.mu.Lock()
	w.state.IsGuestRegistered = true
	w.state.GuestSessionID = stored
	w.setPhaseLocked(PhaseInitializing)
	w.mu.Unlock()

	w.logger.Debug("guest session restored")
}

// RegisterGuest validates the profile locally, registers it with the
// backend, persists the returned guest session id, and returns the
// personalized welcome line for display.
//
// Field failures return a *ValidationError without any backend call.
// Backend failures return ErrGuestRegistrationFailed with state unchanged;
// the UI shows GuestRegisterFailedText and leaves the form up.
func (w *Instance) RegisterGuest(ctx context.Context, profile GuestProfile) (string, error) {
	if err := validateGuestProfile(profile); err != nil {
		return "", err
	}

	fullName := strings.TrimSpace(profile.FullName)
	guestID, err := w.backend.RegisterGuest(ctx, &api.RegisterGuestRequest{
		FullName: fullName,
		Email:    strings.TrimSpace(profile.Email),
		Phone:    strings.TrimSpace(profile.Phone),
		WidgetID: w.cfg.WidgetID,
	})
	if err != nil {
		w.logger.Warn("guest registration failed", "error", err)
		return "", ErrGuestRegistrationFailed
	}

	if err := w.identity.Set(ctx, w.cfg.WidgetID, guestID); err != nil {
		// Registration succeeded; losing persistence only costs the
		// visitor a re-registration on their next visit
		w.logger.Warn("persisting guest session failed", "error", err)
	}

	welcome := fmt.Sprintf(WelcomeMessageFormat, fullName)

	w.mu.Lock()
	w.state.IsGuestRegistered = true
	w.state.GuestSessionID = guestID
	w.setPhaseLocked(PhaseInitializing)
	w.emitLocked(Delta{Kind: DeltaGuestRegistered, Text: welcome})
	open := w.state.IsOpen
	w.mu.Unlock()

	w.logger.Info("guest registered")

	// The gate is satisfied; if the widget is open the visitor is waiting,
	// so bring the session up now
	if open {
		w.InitSession(ctx)
	}

	return welcome, nil
}

func validateGuestProfile(p GuestProfile) error {
	if strings.TrimSpace(p.FullName) == "" {
		return &ValidationError{Field: "fullname", Reason: "required"}
	}
	if strings.TrimSpace(p.Phone) == "" {
		return &ValidationError{Field: "phone", Reason: "required"}
	}
	if email := strings.TrimSpace(p.Email); email != "" && !emailPattern.MatchString(email) {
		return &ValidationError{Field: "email", Reason: "invalid email address"}
	}
	return nil
}

// InitSession establishes the backend session. It runs at most once
// successfully per instance; after a failure it may be called again (the
// next Open retries it). Callable only once the guest gate is satisfied.
// On failure the fixed init error line is appended to the transcript and
// no error is returned to the caller.
func (w *Instance) InitSession(ctx context.Context) {
	w.mu.Lock()
	if w.shutdown || w.state.Phase != PhaseInitializing || w.initInFlight {
		w.mu.Unlock()
		return
	}
	w.initInFlight = true
	guestID := w.state.GuestSessionID
	w.mu.Unlock()

	sessionID, err := w.backend.InitSession(ctx, &api.InitSessionRequest{
		WidgetID:  w.cfg.WidgetID,
		VisitorID: w.cfg.VisitorID,
		Metadata: api.PageMetadata{
			URL:       w.env.PageURL,
			Referrer:  w.env.Referrer,
			UserAgent: w.env.UserAgent,
			Language:  w.env.Language,
		},
		GuestSessionID: guestID,
	})

	w.mu.Lock()
	w.initInFlight = false
	if err != nil {
		w.logger.Error("session init failed", "error", err)
		w.appendMessageLocked(RoleAssistant, InitFailedMessage)
		w.mu.Unlock()
		return
	}
	w.state.SessionID = sessionID
	w.setPhaseLocked(PhaseActive)
	w.emitLocked(Delta{Kind: DeltaSessionReady})
	w.mu.Unlock()

	w.logger.Info("session initialized", "session_id", sessionID)

	// Hydrate immediately, before any user message can be sent, so the
	// wholesale transcript replacement can never race a send
	w.HydrateHistory(ctx)
}
