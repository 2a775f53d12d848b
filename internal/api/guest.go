// ABOUTME: Guest registration and validation calls for the guest gate
// ABOUTME: POST /api/guest/register and POST /api/guest/validate

package api

import "context"

// RegisterGuestRequest is the guest registration payload. Field validation
// happens in the engine before this call is made.
type RegisterGuestRequest struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	WidgetID string `json:"widget_id"`
}

type registerGuestResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
}

// RegisterGuest submits a guest profile and returns the guest session id
// to persist.
func (c *Client) RegisterGuest(ctx context.Context, req *RegisterGuestRequest) (string, error) {
	var resp registerGuestResponse
	if err := c.postJSON(ctx, "register guest", "/api/guest/register", req, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", &BackendError{Op: "register guest", StatusCode: 200}
	}
	return resp.SessionID, nil
}

type validateGuestRequest struct {
	SessionID string `json:"session_id"`
}

type validateGuestResponse struct {
	Valid bool `json:"valid"`
}

// ValidateGuestSession asks the backend whether a persisted guest session
// id is still usable.
func (c *Client) ValidateGuestSession(ctx context.Context, sessionID string) (bool, error) {
	var resp validateGuestResponse
	if err := c.postJSON(ctx, "validate guest session", "/api/guest/validate", &validateGuestRequest{SessionID: sessionID}, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}
