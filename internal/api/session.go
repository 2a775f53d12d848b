// ABOUTME: Session init call against POST /api/chat/session/init
// ABOUTME: Exchanges widget/visitor identity and page metadata for a session id

package api

import "context"

// PageMetadata describes the embedding environment, captured once at
// session init time.
type PageMetadata struct {
	URL       string `json:"url"`
	Referrer  string `json:"referrer"`
	UserAgent string `json:"userAgent"`
	Language  string `json:"language"`
}

// InitSessionRequest is the session init payload
type InitSessionRequest struct {
	WidgetID       string       `json:"widget_id"`
	VisitorID      string       `json:"visitor_id"`
	Metadata       PageMetadata `json:"metadata"`
	GuestSessionID string       `json:"guest_session_id,omitempty"`
}

type initSessionResponse struct {
	SessionID string `json:"session_id"`
}

// InitSession establishes a backend session and returns its id.
func (c *Client) InitSession(ctx context.Context, req *InitSessionRequest) (string, error) {
	var resp initSessionResponse
	if err := c.postJSON(ctx, "init session", "/api/chat/session/init", req, &resp); err != nil {
		return "", err
	}
	return resp.SessionID, nil
}
