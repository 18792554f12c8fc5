package exchange

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zettelhub/hub/internal/domain/session"
	"github.com/zettelhub/hub/internal/infrastructure/logging"
	"github.com/zettelhub/hub/internal/remote"
	"github.com/zettelhub/hub/internal/shared/types"
	"github.com/zettelhub/hub/internal/store"
)

type fixedDocs struct {
	visible []string
	library []string
}

func (d fixedDocs) Visible() []string { return d.visible }
func (d fixedDocs) Library() []string { return d.library }

type stubAnswers struct {
	answer   string
	err      error
	filename string
	question string
	calls    int
}

func (s *stubAnswers) Answer(_ context.Context, filename, question string) (string, error) {
	s.calls++
	s.filename = filename
	s.question = question
	return s.answer, s.err
}

type countingObserver struct {
	outcomes map[string]int
}

func (o *countingObserver) RecordExchange(outcome string) {
	if o.outcomes == nil {
		o.outcomes = make(map[string]int)
	}
	o.outcomes[outcome]++
}

func activeRegistry(t *testing.T) *session.Registry {
	t.Helper()
	reg := session.NewRegistry(store.NewMemory(), logging.NewNop())
	sess, err := reg.Create(context.Background(), false, "")
	require.NoError(t, err)
	require.NoError(t, reg.Select(sess.ID))
	return reg
}

func lastMessage(t *testing.T, reg *session.Registry) types.Message {
	t.Helper()
	active, ok := reg.Active()
	require.True(t, ok)
	require.NotEmpty(t, active.Messages)
	return active.Messages[len(active.Messages)-1]
}

func TestSendSuccess(t *testing.T) {
	reg := activeRegistry(t)
	svc := &stubAnswers{answer: "$42"}
	docs := fixedDocs{visible: []string{"q1.pdf"}, library: []string{"q1.pdf", "notes.pdf"}}

	var updates int
	c := NewController(reg, docs, svc, logging.NewNop())
	c.OnUpdate(func() { updates++ })

	require.NoError(t, c.Send(context.Background(), "What is the total?"))

	assert.Equal(t, "q1.pdf", svc.filename)
	assert.Equal(t, "What is the total?", svc.question)

	active, _ := reg.Active()
	require.Len(t, active.Messages, 2)
	assert.Equal(t, types.RoleUser, active.Messages[0].Role)
	assert.Equal(t, "What is the total?", active.Messages[0].Content)
	assert.Equal(t, types.RoleAI, active.Messages[1].Role)
	assert.Equal(t, "$42", active.Messages[1].Content)
	assert.Equal(t, types.StateFinal, active.Messages[1].State)
	assert.Equal(t, 2, updates, "optimistic append and reconciliation each notify")
}

func TestSendBlankQuestionIgnored(t *testing.T) {
	reg := activeRegistry(t)
	svc := &stubAnswers{answer: "unused"}
	c := NewController(reg, fixedDocs{library: []string{"a.pdf"}}, svc, logging.NewNop())

	require.NoError(t, c.Send(context.Background(), "   "))

	active, _ := reg.Active()
	assert.Empty(t, active.Messages)
	assert.Zero(t, svc.calls)
}

func TestSendNoActiveSessionIgnored(t *testing.T) {
	reg := session.NewRegistry(store.NewMemory(), logging.NewNop())
	svc := &stubAnswers{}
	c := NewController(reg, fixedDocs{library: []string{"a.pdf"}}, svc, logging.NewNop())

	require.NoError(t, c.Send(context.Background(), "hello"))
	assert.Zero(t, svc.calls)
}

func TestSendFallsBackToFullLibrary(t *testing.T) {
	reg := activeRegistry(t)
	svc := &stubAnswers{answer: "ok"}
	docs := fixedDocs{visible: []string{}, library: []string{"first.pdf", "second.pdf"}}
	c := NewController(reg, docs, svc, logging.NewNop())

	require.NoError(t, c.Send(context.Background(), "hello"))
	assert.Equal(t, "first.pdf", svc.filename)
}

func TestSendNoDocumentsAtAll(t *testing.T) {
	reg := activeRegistry(t)
	svc := &stubAnswers{}
	obs := &countingObserver{}
	c := NewController(reg, fixedDocs{}, svc, logging.NewNop()).WithObserver(obs)

	require.NoError(t, c.Send(context.Background(), "hello"))

	assert.Zero(t, svc.calls, "no remote call without a grounding document")
	last := lastMessage(t, reg)
	assert.Equal(t, "Error: No relevant documents found to answer the question.", last.Content)
	assert.Equal(t, types.StateFailed, last.State)
	assert.Equal(t, types.FailureNoDocuments, last.Failure)
	assert.Equal(t, 1, obs.outcomes["no_documents"])
}

func TestSendApplicationError(t *testing.T) {
	reg := activeRegistry(t)
	svc := &stubAnswers{err: remote.NewApplicationError("model overloaded")}
	obs := &countingObserver{}
	c := NewController(reg, fixedDocs{library: []string{"a.pdf"}}, svc, logging.NewNop()).WithObserver(obs)

	err := c.Send(context.Background(), "hello")
	require.NoError(t, err, "reconciliation succeeded even though the turn failed")

	last := lastMessage(t, reg)
	assert.Equal(t, "Server Error: model overloaded", last.Content)
	assert.Equal(t, types.FailureApplication, last.Failure)
	assert.Equal(t, 1, obs.outcomes["application_error"])
}

func TestSendTransportError(t *testing.T) {
	reg := activeRegistry(t)
	svc := &stubAnswers{err: remote.NewTransportError("dial tcp: connection refused")}
	c := NewController(reg, fixedDocs{library: []string{"a.pdf"}}, svc, logging.NewNop())

	require.NoError(t, c.Send(context.Background(), "hello"))

	last := lastMessage(t, reg)
	assert.Equal(t, "Error: Could not reach the server.", last.Content)
	assert.Equal(t, types.FailureTransport, last.Failure)
}

func TestSendPersistsTranscript(t *testing.T) {
	mem := store.NewMemory()
	reg := session.NewRegistry(mem, logging.NewNop())
	sess, err := reg.Create(context.Background(), false, "")
	require.NoError(t, err)
	require.NoError(t, reg.Select(sess.ID))

	svc := &stubAnswers{answer: "fine"}
	c := NewController(reg, fixedDocs{library: []string{"a.pdf"}}, svc, logging.NewNop())
	require.NoError(t, c.Send(context.Background(), "hello"))

	reloaded := session.NewRegistry(mem, logging.NewNop())
	reloaded.Load(context.Background())
	got, ok := reloaded.Get(sess.ID)
	require.True(t, ok)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "fine", got.Messages[1].Content)
}

func TestSendPersistFailureStillReconciles(t *testing.T) {
	mem := store.NewMemory()
	reg := session.NewRegistry(mem, logging.NewNop())
	sess, err := reg.Create(context.Background(), false, "")
	require.NoError(t, err)
	require.NoError(t, reg.Select(sess.ID))
	mem.FailPuts = assert.AnError

	svc := &stubAnswers{answer: "fine"}
	c := NewController(reg, fixedDocs{library: []string{"a.pdf"}}, svc, logging.NewNop())

	require.NoError(t, c.Send(context.Background(), "hello"))
	assert.Equal(t, "fine", lastMessage(t, reg).Content)
	assert.True(t, reg.Degraded())
}

// echoAnswers answers every question with a deterministic echo after a
// short delay, long enough for other senders to pile up behind it.
type echoAnswers struct{}

func (echoAnswers) Answer(_ context.Context, _, question string) (string, error) {
	time.Sleep(time.Millisecond)
	return "answer to: " + question, nil
}

func TestConcurrentSendsKeepQuestionAnswerPairing(t *testing.T) {
	reg := activeRegistry(t)
	c := NewController(reg, fixedDocs{library: []string{"a.pdf"}}, echoAnswers{}, logging.NewNop())

	const senders = 8
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, c.Send(context.Background(), fmt.Sprintf("question %d", n)))
		}(i)
	}
	wg.Wait()

	active, ok := reg.Active()
	require.True(t, ok)
	require.Len(t, active.Messages, 2*senders)

	for i := 0; i < len(active.Messages); i += 2 {
		q, a := active.Messages[i], active.Messages[i+1]
		assert.Equal(t, types.RoleUser, q.Role)
		assert.Equal(t, types.RoleAI, a.Role)
		assert.Equal(t, types.StateFinal, a.State, "no placeholder may outlive its exchange")
		assert.Equal(t, "answer to: "+q.Content, a.Content)
	}
}
