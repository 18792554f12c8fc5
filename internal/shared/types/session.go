package types

import "time"

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// MessageState tags the lifecycle of an assistant message. A pending
// message is the optimistic placeholder inserted right after the user
// message; it is reconciled exactly once, to final or failed.
type MessageState string

const (
	StateFinal   MessageState = "final"
	StatePending MessageState = "pending"
	StateFailed  MessageState = "failed"
)

// FailureKind distinguishes why a message or filter resolution failed.
type FailureKind string

const (
	// FailureApplication: the remote service answered with a non-success
	// status and a human-readable reason.
	FailureApplication FailureKind = "application"
	// FailureTransport: the remote service was unreachable, timed out, or
	// returned a malformed response.
	FailureTransport FailureKind = "transport"
	// FailureNoDocuments: no document was available to ground the answer.
	FailureNoDocuments FailureKind = "no_documents"
)

// PendingContent is the sentinel body of a placeholder message. The
// Renderer shows it as the thinking indicator.
const PendingContent = "..."

// Message is a single transcript entry. User messages are always final;
// only the most recently appended AI message may be pending, and it is
// rewritten in place exactly once when the exchange settles.
type Message struct {
	Role    Role         `json:"role"`
	Content string       `json:"content"`
	State   MessageState `json:"state,omitempty"`
	Failure FailureKind  `json:"failure,omitempty"`
}

// NewUserMessage creates a final user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, State: StateFinal}
}

// NewAIMessage creates a final assistant message.
func NewAIMessage(content string) Message {
	return Message{Role: RoleAI, Content: content, State: StateFinal}
}

// NewPendingMessage creates the placeholder assistant message.
func NewPendingMessage() Message {
	return Message{Role: RoleAI, Content: PendingContent, State: StatePending}
}

// NewFailedMessage creates a reconciled assistant message carrying an
// error description distinguishable from a successful answer.
func NewFailedMessage(kind FailureKind, content string) Message {
	return Message{Role: RoleAI, Content: content, State: StateFailed, Failure: kind}
}

// IsPending reports whether the message is an unreconciled placeholder.
func (m Message) IsPending() bool {
	return m.State == StatePending
}

// Session is one chat thread. Focused sessions narrow the document
// library to a filtered subset; general sessions always see everything.
// All fields except Messages are immutable after creation.
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Focused     bool      `json:"focused"`
	FocusPrompt string    `json:"focus_prompt,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Messages    []Message `json:"messages"`
}

// NewSession creates a session. Focused sessions carry a non-empty
// focus prompt; general sessions carry none.
func NewSession(id, title string, focused bool, focusPrompt string) *Session {
	return &Session{
		ID:          id,
		Title:       title,
		Focused:     focused,
		FocusPrompt: focusPrompt,
		CreatedAt:   time.Now(),
		Messages:    []Message{},
	}
}

// DisplayTitle returns the label the Renderer shows in the history list.
func (s *Session) DisplayTitle() string {
	if s.Focused {
		return "Focused: " + s.FocusPrompt
	}
	return s.Title
}

// Append adds a message to the end of the transcript.
func (s *Session) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
}

// LastPending returns a pointer to the trailing placeholder message, or
// nil if the transcript does not end with one. Only the final slot is
// ever rewritable.
func (s *Session) LastPending() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	last := &s.Messages[len(s.Messages)-1]
	if !last.IsPending() {
		return nil
	}
	return last
}

// Clone returns a deep copy safe to hand to readers.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Messages = make([]Message, len(s.Messages))
	copy(cp.Messages, s.Messages)
	return &cp
}
