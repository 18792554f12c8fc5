// Package exchange implements the question/answer turn. Sending a
// question optimistically appends the user's message and a pending
// placeholder, then reconciles the placeholder with exactly one
// outcome: the answer, or a failure message describing what went
// wrong. The transcript is persisted when the turn completes whether
// or not the service answered.
package exchange
