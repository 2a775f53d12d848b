// Package config builds the immutable WidgetConfig from host-page embed
// attributes and loads YAML profiles for the CLI harness.
//
// # Embed attributes
//
// Both embedding surfaces (data-* attributes on a script tag, attributes on
// the custom element) arrive as the same flat attribute map:
//
//	widget-id            required; the widget does not render without it
//	visitor-id           optional; generated per instance when absent
//	primary-color        default "#0084ff"
//	border-radius        default "12px"
//	position             bottom-right (default), bottom-left, top-right, top-left
//	header-title         default "Chat with us"
//	initial-message      default "Hello! How can I help you today?"
//	input-placeholder    default "Type your message..."
//	send-button-text     default "Send"
//	chat-icon-size       default 60
//	require-guest-info   "true" enables the guest gate
//	auto-open-delay      seconds; 0 (default) disables auto-open
//
// The backend base URL is not an attribute: it is derived once from the
// origin of the script's own load URL.
//
// # Profiles
//
// Profiles are YAML with ${VAR_NAME} environment expansion:
//
//	widget:
//	  script_url: "https://chat.example.com/static/widget.js"
//	  attributes:
//	    widget-id: "${EMBEDCHAT_WIDGET_ID}"
//	    require-guest-info: "true"
//	store:
//	  driver: sqlite
//	  path: "~/.local/share/embedchat/identity.db"
//	api:
//	  timeout: "30s"
//	logging:
//	  level: info
//	  format: text
package config
