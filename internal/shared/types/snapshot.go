package types

// LibraryState tags what the library panel is showing. The Renderer
// must be able to tell "no filter ran" apart from "filter ran and
// matched nothing" and from "filter failed".
type LibraryState string

const (
	// LibraryUnfiltered: no focused session selected, the full library
	// is visible.
	LibraryUnfiltered LibraryState = "unfiltered"
	// LibraryFiltering: a resolution is in flight.
	LibraryFiltering LibraryState = "filtering"
	// LibraryFiltered: the focus filter resolved; Documents holds the
	// subset, possibly empty ("no relevant documents" is not an error).
	LibraryFiltered LibraryState = "filtered"
	// LibraryError: the filter call failed; Failure and Reason say how.
	LibraryError LibraryState = "error"
)

// LibraryView is the library panel portion of a snapshot.
type LibraryView struct {
	State     LibraryState `json:"state"`
	Documents []string     `json:"documents"`
	Failure   FailureKind  `json:"failure,omitempty"`
	Reason    string       `json:"reason,omitempty"`
}

// SessionSummary is one row of the history list.
type SessionSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Focused bool   `json:"focused"`
	Active  bool   `json:"active"`
}

// Snapshot is the immutable state view handed to the Renderer after
// every core operation. The Renderer never mutates it; it only forwards
// user intents back into the hub.
type Snapshot struct {
	Sessions   []SessionSummary `json:"sessions"`
	ActiveID   string           `json:"active_id,omitempty"`
	Transcript []Message        `json:"transcript"`
	Library    LibraryView      `json:"library"`

	// Degraded is set when the last persistence write failed: in-memory
	// state is still correct but durability is not guaranteed until the
	// next successful write.
	Degraded bool `json:"degraded,omitempty"`
}
