// ABOUTME: Instance owns one widget embed: config, session state, dependencies
// ABOUTME: All state mutation happens through its methods under a single mutex

package widget

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/embedchat/internal/analytics"
	"github.com/2389/embedchat/internal/api"
	"github.com/2389/embedchat/internal/config"
)

const (
	// subscriberBufferSize is the channel buffer for each render subscriber
	subscriberBufferSize = 64
)

// Backend defines what the engine needs from the REST layer
type Backend interface {
	InitSession(ctx context.Context, req *api.InitSessionRequest) (string, error)
	FetchHistory(ctx context.Context, sessionID string) ([]api.HistoryMessage, error)
	SendMessage(ctx context.Context, sessionID, message, pageURL string) (string, error)
	RegisterGuest(ctx context.Context, req *api.RegisterGuestRequest) (string, error)
	ValidateGuestSession(ctx context.Context, sessionID string) (bool, error)
}

// IdentityStore defines what the engine needs from persisted storage.
// Satisfied by kvstore.Store.
type IdentityStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Environment describes the host page the widget is embedded in. A browser
// fills this from window.location and navigator; other embeddings supply
// whatever they have.
type Environment struct {
	PageURL   string
	Referrer  string
	UserAgent string
	Language  string
}

// Instance is one embedded widget: immutable config plus mutable session
// state, with explicit dependencies instead of ambient globals. Construct
// with New, then call Bootstrap once.
type Instance struct {
	cfg       *config.WidgetConfig
	env       Environment
	backend   Backend
	identity  IdentityStore
	analytics analytics.Sink
	logger    *slog.Logger

	mu           sync.Mutex
	state        SessionState
	subscribers  map[string]chan Delta
	autoOpen     *time.Timer
	initInFlight bool
	shutdown     bool
}

// New creates a widget instance. The config must come from
// config.FromAttributes so required fields and defaults are already
// settled. Pass nil logger for default; a nil sink disables analytics.
func New(cfg *config.WidgetConfig, env Environment, backend Backend, identity IdentityStore, sink analytics.Sink, logger *slog.Logger) *Instance {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = analytics.NopSink{}
	}
	return &Instance{
		cfg:         cfg,
		env:         env,
		backend:     backend,
		identity:    identity,
		analytics:   sink,
		logger:      logger.With("component", "widget", "widget_id", cfg.WidgetID),
		state:       SessionState{Phase: PhaseUninitialized},
		subscribers: make(map[string]chan Delta),
	}
}

// Config returns the immutable widget configuration.
func (w *Instance) Config() *config.WidgetConfig {
	return w.cfg
}

// Snapshot returns a copy of the current session state. The transcript
// slice is copied so callers can hold it across engine calls.
func (w *Instance) Snapshot() SessionState {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := w.state
	snap.Messages = make([]Message, len(w.state.Messages))
	copy(snap.Messages, w.state.Messages)
	return snap
}

// Subscribe registers a render subscriber and returns a channel of deltas
// in emission order. The channel is closed on Shutdown. Slow subscribers
// lose deltas rather than blocking the engine; a render adapter that falls
// behind should resync from Snapshot.
func (w *Instance) Subscribe() <-chan Delta {
	ch := make(chan Delta, subscriberBufferSize)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.shutdown {
		close(ch)
		return ch
	}
	w.subscribers[uuid.New().String()] = ch
	return ch
}

// Bootstrap performs the one-time startup sequence: fires the view beacon,
// resolves the guest gate from persisted identity, and arms the auto-open
// timer. It never returns an error; every failure inside is absorbed and
// leaves the instance in a usable phase.
func (w *Instance) Bootstrap(ctx context.Context) {
	// Best-effort view signal, detached from this call
	w.analytics.Emit(analytics.ViewEvent{
		WidgetID:  w.cfg.WidgetID,
		VisitorID: w.cfg.VisitorID,
		URL:       w.env.PageURL,
	})

	if w.cfg.RequireGuestInfo {
		w.resolveGuestGate(ctx)
	} else {
		w.setPhase(PhaseInitializing)
	}

	if w.cfg.AutoOpenDelay > 0 {
		w.armAutoOpen(time.Duration(w.cfg.AutoOpenDelay) * time.Second)
	}
}

// Open marks the widget open, resets the unread count, and drives the
// session forward: it triggers session init the first time the gate is
// satisfied, and re-triggers it after an earlier init failure.
func (w *Instance) Open(ctx context.Context) {
	w.mu.Lock()
	if w.shutdown || w.state.IsOpen {
		w.mu.Unlock()
		return
	}
	w.state.IsOpen = true
	w.state.UnreadCount = 0
	w.emitLocked(Delta{Kind: DeltaOpened})
	w.emitLocked(Delta{Kind: DeltaUnreadChanged, Unread: 0})

	phase := w.state.Phase
	if phase == PhaseGuestGatePending {
		w.emitLocked(Delta{Kind: DeltaGuestGateShown})
	}
	w.mu.Unlock()

	if phase == PhaseInitializing {
		w.InitSession(ctx)
	}
}

// Close marks the widget closed. The session and transcript survive;
// reopening does not re-initialize an active session.
func (w *Instance) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.state.IsOpen {
		return
	}
	w.state.IsOpen = false
	w.emitLocked(Delta{Kind: DeltaClosed})
}

// Shutdown tears the instance down: the auto-open timer is stopped and all
// subscriber channels are closed. The instance ignores calls afterwards.
func (w *Instance) Shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.shutdown {
		return
	}
	w.shutdown = true

	if w.autoOpen != nil {
		w.autoOpen.Stop()
		w.autoOpen = nil
	}
	for id, ch := range w.subscribers {
		close(ch)
		delete(w.subscribers, id)
	}
}

// armAutoOpen schedules the one-shot auto-open. If the widget is already
// open when the timer fires, nothing happens; the timer never rearms.
func (w *Instance) armAutoOpen(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.shutdown {
		return
	}
	w.autoOpen = time.AfterFunc(delay, func() {
		w.mu.Lock()
		skip := w.shutdown || w.state.IsOpen
		w.mu.Unlock()
		if skip {
			return
		}
		w.logger.Debug("auto-open firing")
		w.Open(context.Background())
	})
}

// setPhase updates the lifecycle phase under lock.
func (w *Instance) setPhase(phase Phase) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setPhaseLocked(phase)
}

func (w *Instance) setPhaseLocked(phase Phase) {
	if w.state.Phase == phase {
		return
	}
	w.logger.Debug("phase transition", "from", w.state.Phase, "to", phase)
	w.state.Phase = phase
}

// appendMessageLocked appends to the transcript and emits the delta. An
// assistant message arriving while the widget is closed bumps the unread
// count. Must be called with mu held.
func (w *Instance) appendMessageLocked(role Role, content string) {
	msg := Message{Role: role, Content: content, Timestamp: time.Now()}
	w.state.Messages = append(w.state.Messages, msg)
	w.emitLocked(Delta{Kind: DeltaMessageAppended, Message: &msg})

	if role == RoleAssistant && !w.state.IsOpen {
		w.state.UnreadCount++
		w.emitLocked(Delta{Kind: DeltaUnreadChanged, Unread: w.state.UnreadCount})
	}
}

// setTypingLocked flips the typing indicator and emits the delta.
// Must be called with mu held.
func (w *Instance) setTypingLocked(typing bool) {
	if w.state.IsTyping == typing {
		return
	}
	w.state.IsTyping = typing
	w.emitLocked(Delta{Kind: DeltaTypingChanged, Typing: typing})
}

// emitLocked fans a delta out to all subscribers. Must be called with mu
// held; sends never block the engine.
func (w *Instance) emitLocked(d Delta) {
	for id, ch := range w.subscribers {
		select {
		case ch <- d:
		default:
			w.logger.Warn("subscriber buffer full, dropping delta",
				"sub_id", id,
				"kind", d.Kind)
		}
	}
}
