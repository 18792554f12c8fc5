package session

import (
	"context"
	"errors"
	"testing"

	"github.com/zettelhub/hub/internal/infrastructure/logging"
	"github.com/zettelhub/hub/internal/shared/types"
	"github.com/zettelhub/hub/internal/store"
)

func newRegistry() (*Registry, *store.Memory) {
	mem := store.NewMemory()
	return NewRegistry(mem, logging.NewNop()), mem
}

func TestCreateAssignsUniqueIDsNewestFirst(t *testing.T) {
	r, _ := newRegistry()
	ctx := context.Background()

	seen := make(map[string]bool)
	var lastID string
	for i := 0; i < 5; i++ {
		sess, err := r.Create(ctx, false, "")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if seen[sess.ID] {
			t.Errorf("Duplicate session id: %s", sess.ID)
		}
		seen[sess.ID] = true
		lastID = sess.ID
	}

	sessions := r.Sessions()
	if len(sessions) != 5 {
		t.Fatalf("Expected 5 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != lastID {
		t.Error("Newest session should be first")
	}
}

func TestCreateGeneralTitleSequence(t *testing.T) {
	r, _ := newRegistry()
	ctx := context.Background()

	first, _ := r.Create(ctx, false, "")
	if first.Title != "General Chat #1" {
		t.Errorf("Expected 'General Chat #1', got %q", first.Title)
	}

	// Focused sessions do not advance the general sequence
	r.Create(ctx, true, "budgets")

	second, _ := r.Create(ctx, false, "")
	if second.Title != "General Chat #2" {
		t.Errorf("Expected 'General Chat #2', got %q", second.Title)
	}
}

func TestCreateFocusedSeedsAnnouncement(t *testing.T) {
	r, _ := newRegistry()

	sess, err := r.Create(context.Background(), true, "budgets")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !sess.Focused {
		t.Error("Session should be focused")
	}
	if sess.FocusPrompt != "budgets" {
		t.Errorf("Expected focus prompt 'budgets', got %q", sess.FocusPrompt)
	}
	if len(sess.Messages) != 1 {
		t.Fatalf("Focused session should start with one message, got %d", len(sess.Messages))
	}
	seed := sess.Messages[0]
	if seed.Role != types.RoleAI || seed.Content != "This chat is focused on: **budgets**" {
		t.Errorf("Unexpected seed message: %+v", seed)
	}
	if sess.DisplayTitle() != "Focused: budgets" {
		t.Errorf("Unexpected display title: %q", sess.DisplayTitle())
	}
}

func TestCreateFocusedRequiresPrompt(t *testing.T) {
	r, _ := newRegistry()

	if _, err := r.Create(context.Background(), true, "   "); !errors.Is(err, ErrEmptyFocusPrompt) {
		t.Errorf("Expected ErrEmptyFocusPrompt, got %v", err)
	}
}

func TestCreateGeneralStartsEmpty(t *testing.T) {
	r, _ := newRegistry()

	sess, _ := r.Create(context.Background(), false, "")
	if len(sess.Messages) != 0 {
		t.Errorf("General session should start empty, got %d messages", len(sess.Messages))
	}
	if sess.FocusPrompt != "" {
		t.Errorf("General session should have no focus prompt, got %q", sess.FocusPrompt)
	}
}

func TestSelect(t *testing.T) {
	r, _ := newRegistry()
	ctx := context.Background()

	sess, _ := r.Create(ctx, false, "")

	if err := r.Select(sess.ID); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	active, ok := r.Active()
	if !ok || active.ID != sess.ID {
		t.Error("Active session should be the selected one")
	}

	if err := r.Select("sess_missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	// A failed select leaves the active session unchanged
	if r.ActiveID() != sess.ID {
		t.Error("Failed select should not change the active session")
	}
}

func TestActiveNoneSelected(t *testing.T) {
	r, _ := newRegistry()

	if _, ok := r.Active(); ok {
		t.Error("No session should be active initially")
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	r, mem := newRegistry()
	ctx := context.Background()

	r.Create(ctx, true, "budgets")
	general, _ := r.Create(ctx, false, "")
	r.Append(general.ID, types.NewUserMessage("hello"), types.NewAIMessage("hi"))
	if err := r.Persist(ctx); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	reloaded := NewRegistry(mem, logging.NewNop())
	reloaded.Load(ctx)

	a, b := r.Sessions(), reloaded.Sessions()
	if len(a) != len(b) {
		t.Fatalf("Expected %d sessions after reload, got %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Title != b[i].Title ||
			a[i].Focused != b[i].Focused || a[i].FocusPrompt != b[i].FocusPrompt {
			t.Errorf("Session %d differs after reload: %+v vs %+v", i, a[i], b[i])
		}
		if len(a[i].Messages) != len(b[i].Messages) {
			t.Errorf("Session %d message count differs: %d vs %d", i, len(a[i].Messages), len(b[i].Messages))
			continue
		}
		for j := range a[i].Messages {
			if a[i].Messages[j] != b[i].Messages[j] {
				t.Errorf("Session %d message %d differs", i, j)
			}
		}
	}
}

func TestLoadAbsentYieldsEmpty(t *testing.T) {
	r, _ := newRegistry()
	r.Load(context.Background())

	if r.Len() != 0 {
		t.Errorf("Expected empty collection, got %d", r.Len())
	}
}

func TestLoadCorruptYieldsEmpty(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	mem.Put(ctx, "zettel-chats-v3", []byte("{not json"))

	r := NewRegistry(mem, logging.NewNop())
	r.Load(ctx)

	if r.Len() != 0 {
		t.Errorf("Corrupt store should yield empty collection, got %d", r.Len())
	}
}

func TestPersistFailureDegrades(t *testing.T) {
	r, mem := newRegistry()
	ctx := context.Background()

	mem.FailPuts = errors.New("quota exceeded")

	sess, err := r.Create(ctx, false, "")
	if err != nil {
		t.Fatalf("Create should survive a persist failure: %v", err)
	}
	if sess == nil {
		t.Fatal("Create should still return the session")
	}
	if !r.Degraded() {
		t.Error("Registry should report degraded durability")
	}
	if r.Len() != 1 {
		t.Error("In-memory state should remain correct")
	}

	// Recovery clears the flag
	mem.FailPuts = nil
	if err := r.Persist(ctx); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if r.Degraded() {
		t.Error("Successful persist should clear the degraded flag")
	}
}

func TestReconcilePending(t *testing.T) {
	r, _ := newRegistry()
	ctx := context.Background()

	sess, _ := r.Create(ctx, false, "")
	r.Append(sess.ID, types.NewUserMessage("question"), types.NewPendingMessage())

	if err := r.ReconcilePending(sess.ID, types.NewAIMessage("answer")); err != nil {
		t.Fatalf("ReconcilePending failed: %v", err)
	}

	got, _ := r.Get(sess.ID)
	last := got.Messages[len(got.Messages)-1]
	if last.Content != "answer" || last.State != types.StateFinal {
		t.Errorf("Pending message should be reconciled in place, got %+v", last)
	}
	if got.Messages[0].Content != "question" {
		t.Error("Other messages must not be mutated")
	}

	// A second reconciliation has no target
	if err := r.ReconcilePending(sess.ID, types.NewAIMessage("again")); !errors.Is(err, ErrNoPending) {
		t.Errorf("Expected ErrNoPending, got %v", err)
	}
}

func TestReadersGetCopies(t *testing.T) {
	r, _ := newRegistry()
	ctx := context.Background()

	sess, _ := r.Create(ctx, false, "")
	r.Append(sess.ID, types.NewUserMessage("original"))

	snapshot, _ := r.Get(sess.ID)
	snapshot.Messages[0].Content = "tampered"

	fresh, _ := r.Get(sess.ID)
	if fresh.Messages[0].Content != "original" {
		t.Error("Mutating a returned session must not affect registry state")
	}
}
