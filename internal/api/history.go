// ABOUTME: History fetch against GET /api/chat/history
// ABOUTME: Returns the backend's authoritative transcript for a session

package api

import (
	"context"
	"net/url"
)

// HistoryMessage is one transcript entry as the backend returns it
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FetchHistory returns the full transcript for the session, oldest first.
func (c *Client) FetchHistory(ctx context.Context, sessionID string) ([]HistoryMessage, error) {
	path := "/api/chat/history?session_id=" + url.QueryEscape(sessionID)

	var messages []HistoryMessage
	if err := c.getJSON(ctx, "fetch history", path, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
