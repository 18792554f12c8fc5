package focus

import (
	"context"
	"strings"
	"sync"

	"github.com/zettelhub/hub/internal/infrastructure/logging"
	"github.com/zettelhub/hub/internal/remote"
	"github.com/zettelhub/hub/internal/shared/types"
	"go.uber.org/zap"
)

// FilterService narrows the document library to the subset relevant
// to a focus prompt.
type FilterService interface {
	FilterDocuments(ctx context.Context, prompt string) ([]string, error)
}

// Controller owns the visible document subset. Switching sessions
// re-applies the active session's focus; responses that arrive after a
// newer request has been issued are discarded.
type Controller struct {
	service FilterService
	logger  *logging.Logger

	mu      sync.Mutex
	seq     uint64
	library []string
	view    types.LibraryView

	onSuperseded func()
}

func NewController(service FilterService, logger *logging.Logger) *Controller {
	return &Controller{
		service: service,
		logger:  logger,
		view:    types.LibraryView{State: types.LibraryUnfiltered},
	}
}

// OnSuperseded registers a callback invoked whenever a stale filter
// response is discarded.
func (c *Controller) OnSuperseded(fn func()) {
	c.onSuperseded = fn
}

// SetLibrary replaces the full document library. While no filter is
// applied the whole library is visible.
func (c *Controller) SetLibrary(docs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.library = copyDocs(docs)
	if c.view.State == types.LibraryUnfiltered {
		c.view.Documents = copyDocs(c.library)
	}
}

// Library returns the full document library.
func (c *Controller) Library() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyDocs(c.library)
}

// Apply synchronizes the visible subset with a session's focus. A
// non-focused session (or a blank prompt) restores the full library
// without touching the network. A focused session issues a filter
// request; only the most recently issued request may commit its
// outcome.
func (c *Controller) Apply(ctx context.Context, focused bool, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if !focused || prompt == "" {
		c.mu.Lock()
		c.seq++
		c.view = types.LibraryView{
			State:     types.LibraryUnfiltered,
			Documents: copyDocs(c.library),
		}
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.seq++
	ticket := c.seq
	c.view.State = types.LibraryFiltering
	c.mu.Unlock()

	files, err := c.service.FilterDocuments(ctx, prompt)

	c.mu.Lock()
	defer c.mu.Unlock()

	if ticket != c.seq {
		c.logger.Debug("Discarding superseded filter response",
			zap.Uint64("ticket", ticket),
			zap.Uint64("current", c.seq))
		if c.onSuperseded != nil {
			c.onSuperseded()
		}
		return nil
	}

	if err != nil {
		switch remote.Classify(err) {
		case types.FailureApplication:
			// The service rejected the prompt: nothing is relevant.
			c.view = types.LibraryView{
				State:     types.LibraryError,
				Documents: []string{},
				Failure:   types.FailureApplication,
				Reason:    "Filter Error: " + remote.ReasonOf(err),
			}
		default:
			// The service never saw the request; keep whatever
			// subset was visible before.
			c.view.State = types.LibraryError
			c.view.Failure = types.FailureTransport
			c.view.Reason = "Server not reachable."
		}
		return err
	}

	c.view = types.LibraryView{
		State:     types.LibraryFiltered,
		Documents: copyDocs(files),
	}
	return nil
}

// Visible returns the documents currently available for answering.
func (c *Controller) Visible() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyDocs(c.view.Documents)
}

// View returns the library pane state for snapshots.
func (c *Controller) View() types.LibraryView {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.view
	v.Documents = copyDocs(c.view.Documents)
	return v
}

// copyDocs always yields a non-nil slice so snapshots serialize an
// empty list, not null.
func copyDocs(docs []string) []string {
	cp := make([]string, len(docs))
	copy(cp, docs)
	return cp
}
