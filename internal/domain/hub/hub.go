package hub

import (
	"context"
	"sync"

	"github.com/zettelhub/hub/internal/domain/exchange"
	"github.com/zettelhub/hub/internal/domain/focus"
	"github.com/zettelhub/hub/internal/domain/session"
	"github.com/zettelhub/hub/internal/infrastructure/logging"
	"github.com/zettelhub/hub/internal/infrastructure/monitoring"
	"github.com/zettelhub/hub/internal/remote"
	"github.com/zettelhub/hub/internal/shared/types"
	"github.com/zettelhub/hub/internal/store"
	"go.uber.org/zap"
)

// Hub composes the session registry, the focus filter, and the
// message exchange into the single state container the API serves.
// All mutations flow through intent methods; readers get immutable
// snapshots.
type Hub struct {
	registry *session.Registry
	focus    *focus.Controller
	exchange *exchange.Controller
	client   *remote.Client
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	mu          sync.Mutex
	subscribers map[chan types.Snapshot]struct{}
}

// New wires a hub from its dependencies. The metrics argument may be
// nil when observation is not wanted, for example in tests.
func New(st store.Store, client *remote.Client, logger *logging.Logger, metrics *monitoring.Metrics) *Hub {
	registry := session.NewRegistry(st, logger)
	focusCtrl := focus.NewController(client, logger)

	h := &Hub{
		registry:    registry,
		focus:       focusCtrl,
		client:      client,
		logger:      logger,
		metrics:     metrics,
		subscribers: make(map[chan types.Snapshot]struct{}),
	}

	h.exchange = exchange.NewController(registry, focusCtrl, client, logger)
	h.exchange.OnUpdate(h.broadcast)
	if metrics != nil {
		h.exchange.WithObserver(metrics)
		focusCtrl.OnSuperseded(func() { metrics.FilterSuperseded.Inc() })
		registry.OnPersistFailure(func() { metrics.PersistFailures.Inc() })
	}
	return h
}

// Bootstrap restores persisted sessions and fetches the document
// library. An unreachable document service is tolerated: the hub
// starts with an empty library and the panel reports the failure.
func (h *Hub) Bootstrap(ctx context.Context) {
	h.registry.Load(ctx)
	h.RefreshLibrary(ctx)

	if active, ok := h.registry.Active(); ok {
		if err := h.focus.Apply(ctx, active.Focused, active.FocusPrompt); err != nil {
			h.logger.Warn("Initial focus not applied", zap.Error(err))
		}
	}
	if h.metrics != nil {
		h.metrics.SessionsTotal.Set(float64(h.registry.Len()))
	}
}

// RefreshLibrary re-reads the document listing from the service.
func (h *Hub) RefreshLibrary(ctx context.Context) {
	docs, err := h.client.ListDocuments(ctx)
	if err != nil {
		h.logger.Warn("Document listing unavailable", zap.Error(err))
		return
	}
	h.focus.SetLibrary(docs)
	h.broadcast()
}

// CreateSession opens a new session, makes it active, and synchronizes
// the document filter with its focus. A focused session whose filter
// request fails is still created; the library panel carries the error.
func (h *Hub) CreateSession(ctx context.Context, focused bool, focusPrompt string) (*types.Session, error) {
	sess, err := h.registry.Create(ctx, focused, focusPrompt)
	if err != nil {
		return nil, err
	}
	if err := h.registry.Select(sess.ID); err != nil {
		return nil, err
	}
	if h.metrics != nil {
		h.metrics.RecordSessionCreated(h.registry.Len())
	}
	h.broadcast()

	if err := h.focus.Apply(ctx, sess.Focused, sess.FocusPrompt); err != nil {
		h.logger.Warn("Focus filter failed",
			zap.String("session_id", sess.ID),
			zap.Error(err))
	}
	h.broadcast()
	return sess, nil
}

// SelectSession activates an existing session and re-applies its
// focus to the document filter.
func (h *Hub) SelectSession(ctx context.Context, sessionID string) error {
	if err := h.registry.Select(sessionID); err != nil {
		return err
	}
	sess, _ := h.registry.Get(sessionID)
	h.broadcast()

	if err := h.focus.Apply(ctx, sess.Focused, sess.FocusPrompt); err != nil {
		h.logger.Warn("Focus filter failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
	h.broadcast()
	return nil
}

// Send submits a question on the active session.
func (h *Hub) Send(ctx context.Context, question string) error {
	return h.exchange.Send(ctx, question)
}

// Snapshot assembles the current view of everything the renderer
// needs. The returned value shares no memory with hub state.
func (h *Hub) Snapshot() types.Snapshot {
	snap := types.Snapshot{
		Sessions: h.registry.Summaries(),
		ActiveID: h.registry.ActiveID(),
		Library:  h.focus.View(),
		Degraded: h.registry.Degraded(),
	}
	if active, ok := h.registry.Active(); ok {
		snap.Transcript = active.Messages
	} else {
		snap.Transcript = []types.Message{}
	}
	if snap.Sessions == nil {
		snap.Sessions = []types.SessionSummary{}
	}
	return snap
}

// Subscribe registers a snapshot listener. Slow listeners miss
// intermediate snapshots rather than blocking mutations.
func (h *Hub) Subscribe() chan types.Snapshot {
	ch := make(chan types.Snapshot, 8)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (h *Hub) Unsubscribe(ch chan types.Snapshot) {
	h.mu.Lock()
	if _, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast() {
	snap := h.Snapshot()
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}
