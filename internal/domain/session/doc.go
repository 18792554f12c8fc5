// Package session provides the chat session registry.
//
// The registry is the single owner of the session collection: every
// mutation (create, select, message append, pending reconciliation)
// goes through it, and readers only ever receive deep copies. The
// collection is ordered newest-first and written through to the
// persistent store; a failed write degrades to in-memory-only
// continuation instead of failing the user-visible operation.
//
// Persistence Model:
//   - Load at startup; an absent or corrupt stored value yields an
//     empty collection, never a startup failure
//   - Persist after every structural or content mutation
//   - The stored representation is the plain JSON array of sessions
//
// Example Usage:
//
//	registry := session.NewRegistry(store, logger)
//	registry.Load(ctx)
//	sess, err := registry.Create(ctx, true, "budgets")
//	err = registry.Select(sess.ID)
package session
