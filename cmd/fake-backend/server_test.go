// ABOUTME: Tests for the fake backend handlers
// ABOUTME: Exercises the full REST surface through an httptest server

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	r := chi.NewRouter()
	newServer("", nil).RegisterRoutes(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func initSession(t *testing.T, ts *httptest.Server) string {
	resp := postJSON(t, ts.URL+"/api/chat/session/init", map[string]string{
		"widget_id":  "w-1",
		"visitor_id": "v-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	require.NotEmpty(t, body["session_id"])
	return body["session_id"]
}

func TestInitSession_RequiresWidgetID(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/chat/session/init", map[string]string{"visitor_id": "v-1"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMessage_EchoAndTranscript(t *testing.T) {
	ts := newTestServer(t)
	sessionID := initSession(t, ts)

	resp := postJSON(t, ts.URL+"/api/chat/message", map[string]string{
		"session_id": sessionID,
		"message":    "hello there",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "You said: hello there", body["message"])

	histResp, err := http.Get(fmt.Sprintf("%s/api/chat/history?session_id=%s", ts.URL, sessionID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, histResp.StatusCode)
	history := decodeBody[[]storedMessage](t, histResp)
	require.Len(t, history, 2)
	assert.Equal(t, storedMessage{Role: "user", Content: "hello there"}, history[0])
	assert.Equal(t, storedMessage{Role: "assistant", Content: "You said: hello there"}, history[1])
}

func TestMessage_UnknownSession(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/chat/message", map[string]string{
		"session_id": "nope",
		"message":    "hi",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHistory_UnknownSession(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/chat/history?session_id=nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegisterGuest_IssuesValidatableID(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/guest/register", map[string]string{
		"fullname":  "Jane Doe",
		"email":     "jane@example.com",
		"phone":     "+15551234567",
		"widget_id": "w-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	require.Equal(t, true, body["success"])
	guestID := body["session_id"].(string)
	require.NotEmpty(t, guestID)

	// The id we just issued validates, an arbitrary one does not
	vResp := postJSON(t, ts.URL+"/api/guest/validate", map[string]string{"session_id": guestID})
	assert.Equal(t, map[string]bool{"valid": true}, decodeBody[map[string]bool](t, vResp))

	vResp = postJSON(t, ts.URL+"/api/guest/validate", map[string]string{"session_id": "bogus"})
	assert.Equal(t, map[string]bool{"valid": false}, decodeBody[map[string]bool](t, vResp))
}

func TestRegisterGuest_MissingFieldsFail(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/guest/register", map[string]string{
		"fullname": "Jane Doe",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, false, body["success"])
	assert.NotContains(t, body, "session_id")
}

func TestAnalyticsView_Accepted(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/widget/analytics/view", map[string]string{
		"widget_id":  "w-1",
		"visitor_id": "v-1",
		"url":        "https://host.example.com/pricing",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestFixedReply(t *testing.T) {
	r := chi.NewRouter()
	newServer("canned answer", nil).RegisterRoutes(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	sessionID := initSession(t, ts)
	resp := postJSON(t, ts.URL+"/api/chat/message", map[string]string{
		"session_id": sessionID,
		"message":    "anything",
	})
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "canned answer", body["message"])
}
