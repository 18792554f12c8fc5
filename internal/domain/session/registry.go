package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/zettelhub/hub/internal/infrastructure/logging"
	"github.com/zettelhub/hub/internal/shared/id"
	"github.com/zettelhub/hub/internal/shared/types"
	"github.com/zettelhub/hub/internal/store"
)

// storageKey is the namespaced key holding the serialized session
// collection. The version suffix guards against incompatible layouts.
const storageKey = "zettel-chats-v3"

var (
	// ErrSessionNotFound signals a select or mutation against an id
	// that is not in the registry.
	ErrSessionNotFound = errors.New("session not found")

	// ErrEmptyFocusPrompt signals an attempt to create a focused
	// session without a focus criterion.
	ErrEmptyFocusPrompt = errors.New("focused session requires a focus prompt")

	// ErrNoPending signals a reconciliation against a transcript that
	// does not end with a placeholder message.
	ErrNoPending = errors.New("no pending message to reconcile")
)

// Registry owns the ordered session collection and the active-session
// id. All access is serialized through its methods.
type Registry struct {
	store  store.Store
	logger *logging.Logger

	mu       sync.RWMutex
	sessions []*types.Session // newest-first
	activeID string
	degraded bool // last persist failed; in-memory state still correct

	onPersistFailure func()
}

// OnPersistFailure registers a callback invoked whenever a persistence
// write fails, typically to bump a metric.
func (r *Registry) OnPersistFailure(fn func()) {
	r.onPersistFailure = fn
}

// NewRegistry creates a registry backed by st.
func NewRegistry(st store.Store, logger *logging.Logger) *Registry {
	return &Registry{
		store:  st,
		logger: logger,
	}
}

// Load reads the session collection from the store. An absent or
// corrupt value yields an empty collection: losing history must never
// block startup.
func (r *Registry) Load(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = []*types.Session{}

	data, ok, err := r.store.Get(ctx, storageKey)
	if err != nil {
		r.logger.Warn("Failed to read stored sessions, starting empty", zap.Error(err))
		return
	}
	if !ok {
		return
	}

	var sessions []*types.Session
	if err := sonic.Unmarshal(data, &sessions); err != nil {
		r.logger.Warn("Stored sessions are corrupt, starting empty", zap.Error(err))
		return
	}

	r.sessions = sessions
	r.logger.Info("Loaded sessions", zap.Int("count", len(sessions)))
}

// Create constructs a new session, inserts it at the front of the
// collection (newest-first), persists, and returns a copy. A focused
// session starts with one assistant message announcing the focus.
func (r *Registry) Create(ctx context.Context, focused bool, focusPrompt string) (*types.Session, error) {
	focusPrompt = strings.TrimSpace(focusPrompt)
	if focused && focusPrompt == "" {
		return nil, ErrEmptyFocusPrompt
	}
	if !focused {
		focusPrompt = ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	general := 0
	for _, s := range r.sessions {
		if !s.Focused {
			general++
		}
	}
	title := fmt.Sprintf("General Chat #%d", general+1)

	sess := types.NewSession(id.NewSessionID().String(), title, focused, focusPrompt)
	if focused {
		sess.Append(types.NewAIMessage("This chat is focused on: **" + focusPrompt + "**"))
	}

	r.sessions = append([]*types.Session{sess}, r.sessions...)
	// Creation survives a persistence failure; the degraded flag carries it
	_ = r.persistLocked(ctx)

	return sess.Clone(), nil
}

// Select sets the active session. It has no effect on persisted data.
func (r *Registry) Select(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findLocked(sessionID) == nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	r.activeID = sessionID
	return nil
}

// Active returns a copy of the active session, or ok=false when none
// is selected.
func (r *Registry) Active() (*types.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess := r.findLocked(r.activeID)
	if sess == nil {
		return nil, false
	}
	return sess.Clone(), true
}

// ActiveID returns the active session id, or "" when none is selected.
func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// Get returns a copy of the identified session.
func (r *Registry) Get(sessionID string) (*types.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess := r.findLocked(sessionID)
	if sess == nil {
		return nil, false
	}
	return sess.Clone(), true
}

// Sessions returns copies of all sessions, newest-first.
func (r *Registry) Sessions() []*types.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*types.Session, len(r.sessions))
	for i, s := range r.sessions {
		out[i] = s.Clone()
	}
	return out
}

// Summaries returns the history-list view of the collection.
func (r *Registry) Summaries() []types.SessionSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.SessionSummary, len(r.sessions))
	for i, s := range r.sessions {
		out[i] = types.SessionSummary{
			ID:      s.ID,
			Title:   s.DisplayTitle(),
			Focused: s.Focused,
			Active:  s.ID == r.activeID,
		}
	}
	return out
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Degraded reports whether the last persistence write failed.
func (r *Registry) Degraded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.degraded
}

// Append adds messages to the end of a session's transcript. The
// caller persists when its operation completes.
func (r *Registry) Append(sessionID string, msgs ...types.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess := r.findLocked(sessionID)
	if sess == nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	for _, m := range msgs {
		sess.Append(m)
	}
	return nil
}

// ReconcilePending rewrites the trailing placeholder message of a
// session in place. This is the only in-place mutation the transcript
// permits, and it happens at most once per placeholder.
func (r *Registry) ReconcilePending(sessionID string, final types.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess := r.findLocked(sessionID)
	if sess == nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	pending := sess.LastPending()
	if pending == nil {
		return ErrNoPending
	}
	*pending = final
	return nil
}

// Persist serializes the full ordered collection to the store. On
// failure the registry flags itself degraded and the error is returned;
// in-memory state stays authoritative either way.
func (r *Registry) Persist(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persistLocked(ctx)
}

func (r *Registry) persistLocked(ctx context.Context) error {
	data, err := sonic.Marshal(r.sessions)
	if err != nil {
		r.degraded = true
		if r.onPersistFailure != nil {
			r.onPersistFailure()
		}
		r.logger.Error("Failed to serialize sessions", zap.Error(err))
		return fmt.Errorf("failed to serialize sessions: %w", err)
	}

	if err := r.store.Put(ctx, storageKey, data); err != nil {
		r.degraded = true
		if r.onPersistFailure != nil {
			r.onPersistFailure()
		}
		r.logger.Warn("Failed to persist sessions, continuing in-memory", zap.Error(err))
		return fmt.Errorf("failed to persist sessions: %w", err)
	}

	r.degraded = false
	return nil
}

func (r *Registry) findLocked(sessionID string) *types.Session {
	if sessionID == "" {
		return nil
	}
	for _, s := range r.sessions {
		if s.ID == sessionID {
			return s
		}
	}
	return nil
}
