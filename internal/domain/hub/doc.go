// Package hub is the state container behind the API. It owns the
// session registry, the focus filter, and the message exchange, and
// exposes three things: intent methods that mutate state, snapshots
// that describe it, and a subscription stream that announces changes.
// Nothing in the package is global; every hub is built from injected
// dependencies so tests can run several side by side.
package hub
