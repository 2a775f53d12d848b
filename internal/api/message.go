// ABOUTME: Message send call against POST /api/chat/message
// ABOUTME: Dispatches user text with page metadata, returns the assistant reply

package api

import (
	"context"
	"time"
)

// MessageMetadata accompanies every user message
type MessageMetadata struct {
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
}

type sendMessageRequest struct {
	SessionID string          `json:"session_id"`
	Message   string          `json:"message"`
	Metadata  MessageMetadata `json:"metadata"`
}

type sendMessageResponse struct {
	Message string `json:"message"`
}

// SendMessage dispatches a user message and returns the assistant reply
// text. The timestamp is the client's send time in RFC 3339.
func (c *Client) SendMessage(ctx context.Context, sessionID, message, pageURL string) (string, error) {
	req := &sendMessageRequest{
		SessionID: sessionID,
		Message:   message,
		Metadata: MessageMetadata{
			URL:       pageURL,
			Timestamp: time.Now().Format(time.RFC3339),
		},
	}

	var resp sendMessageResponse
	if err := c.postJSON(ctx, "send message", "/api/chat/message", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
