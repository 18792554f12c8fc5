// Package ws provides the WebSocket surface for live renderers.
//
// A connected renderer receives a snapshot immediately and a fresh
// one after every state change, so it never has to poll. The same
// intents available over REST can be sent on the socket:
//
//   - chat: submit a question on the active session
//   - create_session: open a session, optionally focused
//   - select_session: activate an existing session
//   - ping: keep-alive ping
//
// Server → client messages are "system", "snapshot", "pong", and
// "error". Slow consumers skip intermediate snapshots instead of
// backpressuring the hub.
package ws
