package exchange

import (
	"context"
	"strings"
	"sync"

	"github.com/zettelhub/hub/internal/infrastructure/logging"
	"github.com/zettelhub/hub/internal/remote"
	"github.com/zettelhub/hub/internal/shared/types"
	"go.uber.org/zap"
)

const (
	noDocumentsMessage = "Error: No relevant documents found to answer the question."
	unreachableMessage = "Error: Could not reach the server."
)

// Sessions is the slice of the registry an exchange needs: the active
// transcript plus the pending-message lifecycle.
type Sessions interface {
	Active() (*types.Session, bool)
	Append(id string, msgs ...types.Message) error
	ReconcilePending(id string, final types.Message) error
	Persist(ctx context.Context) error
}

// Documents supplies the visible subset and the full library.
type Documents interface {
	Visible() []string
	Library() []string
}

// AnswerService produces an answer to a question grounded in a
// single document.
type AnswerService interface {
	Answer(ctx context.Context, filename, question string) (string, error)
}

// Observer is notified about completed exchanges for metrics.
type Observer interface {
	RecordExchange(outcome string)
}

// Controller runs the question/answer exchange: it appends the user's
// question together with a pending placeholder, resolves the grounding
// document, and reconciles the placeholder with exactly one outcome.
type Controller struct {
	sessions Sessions
	docs     Documents
	service  AnswerService
	logger   *logging.Logger
	observer Observer
	notify   func()

	// sendMu serializes exchanges: reconciliation targets the trailing
	// pending message, so at most one placeholder may be outstanding.
	sendMu sync.Mutex
}

func NewController(sessions Sessions, docs Documents, service AnswerService, logger *logging.Logger) *Controller {
	return &Controller{
		sessions: sessions,
		docs:     docs,
		service:  service,
		logger:   logger,
	}
}

// WithObserver attaches an exchange observer.
func (c *Controller) WithObserver(obs Observer) *Controller {
	c.observer = obs
	return c
}

// OnUpdate registers a callback invoked whenever the transcript
// changes, both at the optimistic append and at reconciliation.
func (c *Controller) OnUpdate(fn func()) {
	c.notify = fn
}

// Send submits a question on the active session. A blank question or
// the absence of an active session is ignored. The transcript always
// ends in a final state: pending placeholders never outlive the call.
// Concurrent calls are serialized; a second question waits for the
// first exchange to reconcile.
func (c *Controller) Send(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	active, ok := c.sessions.Active()
	if !ok {
		return nil
	}

	if err := c.sessions.Append(active.ID, types.NewUserMessage(question), types.NewPendingMessage()); err != nil {
		return err
	}
	c.changed()

	err := c.resolve(ctx, active.ID, question)

	if perr := c.sessions.Persist(ctx); perr != nil {
		c.logger.Warn("Transcript not persisted", zap.Error(perr))
	}
	c.changed()
	return err
}

func (c *Controller) resolve(ctx context.Context, sessionID, question string) error {
	filename, ok := c.contextDocument()
	if !ok {
		c.record("no_documents")
		return c.sessions.ReconcilePending(sessionID,
			types.NewFailedMessage(types.FailureNoDocuments, noDocumentsMessage))
	}

	answer, err := c.service.Answer(ctx, filename, question)
	if err != nil {
		switch remote.Classify(err) {
		case types.FailureApplication:
			c.record("application_error")
			return c.sessions.ReconcilePending(sessionID,
				types.NewFailedMessage(types.FailureApplication, "Server Error: "+remote.ReasonOf(err)))
		default:
			c.record("transport_error")
			return c.sessions.ReconcilePending(sessionID,
				types.NewFailedMessage(types.FailureTransport, unreachableMessage))
		}
	}

	c.record("success")
	return c.sessions.ReconcilePending(sessionID, types.NewAIMessage(answer))
}

// contextDocument picks the document that grounds the answer: the
// first visible document, falling back to the first of the full
// library when nothing is visible.
func (c *Controller) contextDocument() (string, bool) {
	if visible := c.docs.Visible(); len(visible) > 0 {
		return visible[0], true
	}
	if library := c.docs.Library(); len(library) > 0 {
		return library[0], true
	}
	return "", false
}

func (c *Controller) record(outcome string) {
	if c.observer != nil {
		c.observer.RecordExchange(outcome)
	}
}

func (c *Controller) changed() {
	if c.notify != nil {
		c.notify()
	}
}
