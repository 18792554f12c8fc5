// Package types provides shared data structures for the chat hub.
//
// This package defines core types used across all hub components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - Session: One chat thread, general or document-focused
//   - Message: Transcript entry with a tagged lifecycle state
//   - Snapshot: Immutable state view consumed by the Renderer
//
// State Management:
//   - MessageState: Pending/Final/Failed message lifecycle
//   - FailureKind: Application vs transport vs no-documents failures
//   - LibraryState: Library panel states (unfiltered, filtering, filtered, error)
//
// Example Usage:
//
//	sess := types.NewSession(string(id.NewSessionID()), "General Chat #1", false, "")
//	sess.Append(types.NewUserMessage("What is the total?"))
package types
