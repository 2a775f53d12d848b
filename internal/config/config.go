// ABOUTME: WidgetConfig construction from host-page embed attributes
// ABOUTME: Applies documented defaults, validates, and derives the backend base URL

package config

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// Position is the corner of the host page the widget anchors to
type Position string

// Valid widget positions
const (
	PositionBottomRight Position = "bottom-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionTopRight    Position = "top-right"
	PositionTopLeft     Position = "top-left"
)

// Defaults applied when the host page omits an attribute
const (
	DefaultPrimaryColor     = "#0084ff"
	DefaultBorderRadius     = "12px"
	DefaultHeaderTitle      = "Chat with us"
	DefaultInitialMessage   = "Hello! How can I help you today?"
	DefaultInputPlaceholder = "Type your message..."
	DefaultSendButtonText   = "Send"
	DefaultChatIconSize     = 60
)

// ConfigError indicates the embed attributes cannot produce a usable
// configuration. It is fatal: the widget does not render.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid widget config: %s: %s", e.Field, e.Reason)
}

// WidgetConfig is the immutable configuration of one widget embed. It is
// built once from host-page attributes and never mutated afterwards.
type WidgetConfig struct {
	WidgetID  string
	VisitorID string

	// Appearance
	PrimaryColor string
	BorderRadius string
	Position     Position
	ChatIconSize int

	// Copy
	HeaderTitle      string
	InitialMessage   string
	InputPlaceholder string
	SendButtonText   string

	// Behavior
	RequireGuestInfo bool
	AutoOpenDelay    int // seconds; 0 disables auto-open

	// BaseURL is the origin all backend calls are issued against, derived
	// once from the widget script's own load URL so the widget works when
	// the backend and the embedding page are different origins.
	BaseURL string
}

// FromAttributes builds a WidgetConfig from the attribute map a host page
// supplies (data-* attributes on the script tag or attributes on the custom
// element — both surfaces collapse to the same keys here). scriptURL is the
// URL the widget script itself was loaded from.
func FromAttributes(attrs map[string]string, scriptURL string) (*WidgetConfig, error) {
	widgetID := attrs["widget-id"]
	if widgetID == "" {
		return nil, &ConfigError{Field: "widget-id", Reason: "required"}
	}

	baseURL, err := DeriveBaseURL(scriptURL)
	if err != nil {
		return nil, &ConfigError{Field: "script-url", Reason: err.Error()}
	}

	cfg := &WidgetConfig{
		WidgetID:         widgetID,
		VisitorID:        attrs["visitor-id"],
		PrimaryColor:     orDefault(attrs["primary-color"], DefaultPrimaryColor),
		BorderRadius:     orDefault(attrs["border-radius"], DefaultBorderRadius),
		Position:         PositionBottomRight,
		ChatIconSize:     DefaultChatIconSize,
		HeaderTitle:      orDefault(attrs["header-title"], DefaultHeaderTitle),
		InitialMessage:   orDefault(attrs["initial-message"], DefaultInitialMessage),
		InputPlaceholder: orDefault(attrs["input-placeholder"], DefaultInputPlaceholder),
		SendButtonText:   orDefault(attrs["send-button-text"], DefaultSendButtonText),
		RequireGuestInfo: attrs["require-guest-info"] == "true",
		BaseURL:          baseURL,
	}

	// Visitor id is a soft analytics correlator, not a credential. Generate
	// one when the host page doesn't supply it; it lives only as long as the
	// widget instance unless the host persists the attribute itself.
	if cfg.VisitorID == "" {
		cfg.VisitorID = uuid.New().String()
	}

	if pos := attrs["position"]; pos != "" {
		p := Position(pos)
		switch p {
		case PositionBottomRight, PositionBottomLeft, PositionTopRight, PositionTopLeft:
			cfg.Position = p
		default:
			return nil, &ConfigError{Field: "position", Reason: fmt.Sprintf("unknown position %q", pos)}
		}
	}

	if size := attrs["chat-icon-size"]; size != "" {
		n, err := strconv.Atoi(size)
		if err != nil || n <= 0 {
			return nil, &ConfigError{Field: "chat-icon-size", Reason: "must be a positive integer"}
		}
		cfg.ChatIconSize = n
	}

	if delay := attrs["auto-open-delay"]; delay != "" {
		n, err := strconv.Atoi(delay)
		if err != nil || n < 0 {
			return nil, &ConfigError{Field: "auto-open-delay", Reason: "must be a non-negative integer"}
		}
		cfg.AutoOpenDelay = n
	}

	return cfg, nil
}

// DeriveBaseURL extracts the origin (scheme://host) from the widget script's
// load URL. This is a pure derivation computed exactly once at bootstrap.
func DeriveBaseURL(scriptURL string) (string, error) {
	u, err := url.Parse(scriptURL)
	if err != nil {
		return "", fmt.Errorf("parsing script URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("script URL %q has no origin", scriptURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
