// ABOUTME: Test doubles and lifecycle tests for the widget Instance
// ABOUTME: Covers bootstrap, guest gate restore, open/close, unread, auto-open

package widget

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/embedchat/internal/analytics"
	"github.com/2389/embedchat/internal/api"
	"github.com/2389/embedchat/internal/config"
	"github.com/2389/embedchat/internal/kvstore"
)

// mockBackend implements Backend for testing and records call order
type mockBackend struct {
	mu    sync.Mutex
	calls []string

	sessionID   string
	initErr     error
	history     []api.HistoryMessage
	historyErr  error
	reply       string
	sendErr     error
	guestID     string
	registerErr error
	valid       bool
	validateErr error

	lastInit     *api.InitSessionRequest
	lastRegister *api.RegisterGuestRequest
	lastMessage  string
}

func (m *mockBackend) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockBackend) callCount(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (m *mockBackend) InitSession(ctx context.Context, req *api.InitSessionRequest) (string, error) {
	m.record("init")
	m.mu.Lock()
	m.lastInit = req
	m.mu.Unlock()
	if m.initErr != nil {
		return "", m.initErr
	}
	return m.sessionID, nil
}

func (m *mockBackend) FetchHistory(ctx context.Context, sessionID string) ([]api.HistoryMessage, error) {
	m.record("history")
	return m.history, m.historyErr
}

func (m *mockBackend) SendMessage(ctx context.Context, sessionID, message, pageURL string) (string, error) {
	m.record("send")
	m.mu.Lock()
	m.lastMessage = message
	m.mu.Unlock()
	if m.sendErr != nil {
		return "", m.sendErr
	}
	return m.reply, nil
}

func (m *mockBackend) RegisterGuest(ctx context.Context, req *api.RegisterGuestRequest) (string, error) {
	m.record("register")
	m.mu.Lock()
	m.lastRegister = req
	m.mu.Unlock()
	if m.registerErr != nil {
		return "", m.registerErr
	}
	return m.guestID, nil
}

func (m *mockBackend) ValidateGuestSession(ctx context.Context, sessionID string) (bool, error) {
	m.record("validate")
	return m.valid, m.validateErr
}

func testConfig(t *testing.T, extra map[string]string) *config.WidgetConfig {
	attrs := map[string]string{"widget-id": "w-test"}
	for k, v := range extra {
		attrs[k] = v
	}
	cfg, err := config.FromAttributes(attrs, "https://chat.example.com/widget.js")
	require.NoError(t, err)
	return cfg
}

func testEnv() Environment {
	return Environment{
		PageURL:   "https://host.example.com/pricing",
		Referrer:  "https://host.example.com/",
		UserAgent: "test-agent",
		Language:  "en-US",
	}
}

func newTestInstance(t *testing.T, cfg *config.WidgetConfig, backend *mockBackend, identity IdentityStore) *Instance {
	if identity == nil {
		identity = kvstore.NewMemoryStore()
	}
	w := New(cfg, testEnv(), backend, identity, analytics.NopSink{}, nil)
	t.Cleanup(w.Shutdown)
	return w
}

// drainDeltas returns every delta currently buffered on the channel
func drainDeltas(ch <-chan Delta) []Delta {
	var out []Delta
	for {
		select {
		case d, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, d)
		default:
			return out
		}
	}
}

func deltaKinds(deltas []Delta) []DeltaKind {
	kinds := make([]DeltaKind, len(deltas))
	for i, d := range deltas {
		kinds[i] = d.Kind
	}
	return kinds
}

func TestOpen_InitThenHydrateExactlyOnce(t *testing.T) {
	backend := &mockBackend{sessionID: "s-1"}
	w := newTestInstance(t, testConfig(t, nil), backend, nil)

	ctx := context.Background()
	w.Bootstrap(ctx)
	w.Open(ctx)

	assert.Equal(t, []string{"init", "history"}, backend.calls, "one init then one hydration, in that order")
	assert.Equal(t, PhaseActive, w.Snapshot().Phase)
	assert.Equal(t, "s-1", w.Snapshot().SessionID)

	// Close and reopen: the active session is reused, no second init
	w.Close()
	w.Open(ctx)
	assert.Equal(t, 1, backend.callCount("init"))
}

func TestInitFailure_AppendsFixedLineAndStaysRetryable(t *testing.T) {
	backend := &mockBackend{initErr: assert.AnError}
	w := newTestInstance(t, testConfig(t, nil), backend, nil)

	ctx := context.Background()
	w.Bootstrap(ctx)
	w.Open(ctx)

	snap := w.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, RoleAssistant, snap.Messages[0].Role)
	assert.Equal(t, InitFailedMessage, snap.Messages[0].Content)
	assert.Equal(t, PhaseInitializing, snap.Phase)

	// Next open retries and succeeds
	backend.initErr = nil
	backend.sessionID = "s-2"
	w.Close()
	w.Open(ctx)

	assert.Equal(t, 2, backend.callCount("init"))
	assert.Equal(t, "s-2", w.Snapshot().SessionID)
}

func TestInitSession_SendsIdentityAndMetadata(t *testing.T) {
	backend := &mockBackend{sessionID: "s-1"}
	cfg := testConfig(t, map[string]string{"visitor-id": "v-7"})
	w := newTestInstance(t, cfg, backend, nil)

	ctx := context.Background()
	w.Bootstrap(ctx)
	w.Open(ctx)

	require.NotNil(t, backend.lastInit)
	assert.Equal(t, "w-test", backend.lastInit.WidgetID)
	assert.Equal(t, "v-7", backend.lastInit.VisitorID)
	assert.Equal(t, "https://host.example.com/pricing", backend.lastInit.Metadata.URL)
	assert.Equal(t, "en-US", backend.lastInit.Metadata.Language)
	assert.Empty(t, backend.lastInit.GuestSessionID)
}

func TestOpen_ResetsUnreadCount(t *testing.T) {
	backend := &mockBackend{sessionID: "s-1", reply: "reply"}
	w := newTestInstance(t, testConfig(t, nil), backend, nil)

	ctx := context.Background()
	w.Bootstrap(ctx)
	w.Open(ctx)
	w.Close()

	// Two assistant replies land while the widget is closed
	w.SendUserMessage(ctx, "first")
	w.SendUserMessage(ctx, "second")
	assert.Equal(t, 2, w.Snapshot().UnreadCount)

	ch := w.Subscribe()
	w.Open(ctx)

	assert.Equal(t, 0, w.Snapshot().UnreadCount)

	deltas := drainDeltas(ch)
	require.NotEmpty(t, deltas)
	assert.Contains(t, deltaKinds(deltas), DeltaUnreadChanged)
	for _, d := range deltas {
		if d.Kind == DeltaUnreadChanged {
			assert.Equal(t, 0, d.Unread)
		}
	}
}

func TestGuestRestore_InvalidPersistedSessionIsDeleted(t *testing.T) {
	identity := kvstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, identity.Set(ctx, "w-test", "g-stale"))

	backend := &mockBackend{valid: false}
	cfg := testConfig(t, map[string]string{"require-guest-info": "true"})
	w := newTestInstance(t, cfg, backend, identity)

	w.Bootstrap(ctx)

	assert.Equal(t, 1, backend.callCount("validate"))
	assert.Equal(t, PhaseGuestGatePending, w.Snapshot().Phase)

	_, err := identity.Get(ctx, "w-test")
	assert.ErrorIs(t, err, kvstore.ErrNotFound, "stale guest session should be deleted")

	// The gate form is shown again on open, with no init call
	ch := w.Subscribe()
	w.Open(ctx)
	assert.Contains(t, deltaKinds(drainDeltas(ch)), DeltaGuestGateShown)
	assert.Zero(t, backend.callCount("init"))
}

func TestGuestRestore_ValidPersistedSessionSkipsGate(t *testing.T) {
	identity := kvstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, identity.Set(ctx, "w-test", "g-good"))

	backend := &mockBackend{valid: true, sessionID: "s-1"}
	cfg := testConfig(t, map[string]string{"require-guest-info": "true"})
	w := newTestInstance(t, cfg, backend, identity)

	w.Bootstrap(ctx)
	snap := w.Snapshot()
	assert.True(t, snap.IsGuestRegistered)
	assert.Equal(t, "g-good", snap.GuestSessionID)
	assert.Equal(t, PhaseInitializing, snap.Phase)

	w.Open(ctx)
	require.NotNil(t, backend.lastInit)
	assert.Equal(t, "g-good", backend.lastInit.GuestSessionID)
}

func TestGuestRestore_ValidationNetworkErrorStaysGated(t *testing.T) {
	identity := kvstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, identity.Set(ctx, "w-test", "g-unknown"))

	backend := &mockBackend{validateErr: assert.AnError}
	cfg := testConfig(t, map[string]string{"require-guest-info": "true"})
	w := newTestInstance(t, cfg, backend, identity)

	// Must not panic or surface the error
	w.Bootstrap(ctx)
	assert.Equal(t, PhaseGuestGatePending, w.Snapshot().Phase)
}

func TestAutoOpen_FiresExactlyOnce(t *testing.T) {
	backend := &mockBackend{sessionID: "s-1"}
	w := newTestInstance(t, testConfig(t, nil), backend, nil)

	w.setPhase(PhaseInitializing)
	w.armAutoOpen(20 * time.Millisecond)

	require.Eventually(t, func() bool {
		return w.Snapshot().IsOpen
	}, time.Second, 5*time.Millisecond)

	// Closing afterwards does not re-trigger it
	w.Close()
	time.Sleep(50 * time.Millisecond)
	assert.False(t, w.Snapshot().IsOpen)
}

func TestAutoOpen_SkippedWhenAlreadyOpen(t *testing.T) {
	backend := &mockBackend{sessionID: "s-1"}
	w := newTestInstance(t, testConfig(t, nil), backend, nil)

	ctx := context.Background()
	w.Bootstrap(ctx)
	w.Open(ctx)
	initCalls := backend.callCount("init")

	w.armAutoOpen(10 * time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, initCalls, backend.callCount("init"), "auto-open on an open widget is a no-op")
}

func TestShutdown_StopsAutoOpenAndClosesSubscribers(t *testing.T) {
	backend := &mockBackend{}
	w := newTestInstance(t, testConfig(t, nil), backend, nil)

	ch := w.Subscribe()
	w.armAutoOpen(20 * time.Millisecond)
	w.Shutdown()

	_, open := <-ch
	assert.False(t, open, "subscriber channel should close on shutdown")

	time.Sleep(50 * time.Millisecond)
	assert.False(t, w.Snapshot().IsOpen, "auto-open must not fire after shutdown")
}

func TestBootstrap_EmitsViewBeacon(t *testing.T) {
	sink := &recordingSink{}
	cfg := testConfig(t, map[string]string{"visitor-id": "v-9"})
	w := New(cfg, testEnv(), &mockBackend{}, kvstore.NewMemoryStore(), sink, nil)
	defer w.Shutdown()

	w.Bootstrap(context.Background())

	require.Len(t, sink.events, 1)
	assert.Equal(t, "w-test", sink.events[0].WidgetID)
	assert.Equal(t, "v-9", sink.events[0].VisitorID)
	assert.Equal(t, "https://host.example.com/pricing", sink.events[0].URL)
}

type recordingSink struct {
	mu     sync.Mutex
	events []analytics.ViewEvent
}

func (s *recordingSink) Emit(ev analytics.ViewEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}
