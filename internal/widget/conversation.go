// ABOUTME: Conversation engine: message send sequencing and history hydration
// ABOUTME: Typing state is always cleared before the assistant reply is appended

package widget

import (
	"context"
	"strings"
)

// SendUserMessage sequences one user message exchange:
//
//  1. the user message is appended to the transcript immediately
//  2. the typing indicator turns on
//  3. the message is dispatched to the backend
//  4. typing turns off, then the assistant reply is appended
//
// On any failure (no session, transport error, non-2xx) step 4 appends the
// fixed fallback line instead; the user's message is never rolled back. A
// whitespace-only message is a no-op. While a send is in flight further
// sends are ignored, matching the disabled input affordance.
func (w *Instance) SendUserMessage(ctx context.Context, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	w.mu.Lock()
	if w.shutdown {
		w.mu.Unlock()
		return
	}
	if w.state.IsTyping {
		w.logger.Debug("send ignored, another send is in flight")
		w.mu.Unlock()
		return
	}
	w.appendMessageLocked(RoleUser, trimmed)
	w.setTypingLocked(true)
	sessionID := w.state.SessionID
	w.mu.Unlock()

	if sessionID == "" {
		// Input should be disabled until init completes, but the contract
		// holds even when called out of order
		w.logger.Error("send attempted before session init", "error", ErrSessionNotInitialized)
		w.finishSend(SendFailedMessage)
		return
	}

	reply, err := w.backend.SendMessage(ctx, sessionID, trimmed, w.env.PageURL)
	if err != nil {
		w.logger.Warn("message send failed", "error", err)
		w.finishSend(SendFailedMessage)
		return
	}
	w.finishSend(reply)
}

// finishSend completes an exchange: typing off first, assistant line
// second, both under one lock so no subscriber can observe them reordered
// or overlapping.
func (w *Instance) finishSend(content string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.setTypingLocked(false)
	w.appendMessageLocked(RoleAssistant, content)
}

// HydrateHistory replaces the in-memory transcript wholesale with the
// backend's authoritative history. It is a full resync, not a merge:
// render adapters clear and rebuild their message list from the delta.
// Failures are logged and leave the transcript as-is; hydration is
// best-effort and never fatal.
func (w *Instance) HydrateHistory(ctx context.Context) {
	w.mu.Lock()
	sessionID := w.state.SessionID
	w.mu.Unlock()

	if sessionID == "" {
		w.logger.Debug("hydration skipped, no session")
		return
	}

	history, err := w.backend.FetchHistory(ctx, sessionID)
	if err != nil {
		w.logger.Warn("history hydration failed", "error", err)
		return
	}

	messages := make([]Message, 0, len(history))
	for _, h := range history {
		role := RoleAssistant
		if h.Role == string(RoleUser) {
			role = RoleUser
		}
		messages = append(messages, Message{Role: role, Content: h.Content})
	}

	w.mu.Lock()
	w.state.Messages = messages
	snapshot := make([]Message, len(messages))
	copy(snapshot, messages)
	w.emitLocked(Delta{Kind: DeltaTranscriptReplaced, Messages: snapshot})
	w.mu.Unlock()

	w.logger.Debug("transcript hydrated", "messages", len(messages))
}
