// Package id provides centralized ID generation for the hub.
//
// Session and request identifiers are ULIDs: time-derived, unique, and
// lexicographically sortable, so the newest-first ordering of the
// session collection can be recovered from the ids alone. Prefixes keep
// logs readable (sess_*, req_*).
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies a chat session.
type SessionID string

// RequestID identifies a remote service request.
type RequestID string

const (
	SessionPrefix = "sess"
	RequestPrefix = "req"
)

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator with cryptographically
// secure, monotonic entropy: ids minted within the same millisecond
// still sort in creation order.
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy
// source. Useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string.
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewSessionID generates a new session ID.
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewRequestID generates a new request ID.
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (id SessionID) String() string { return string(id) }
func (id RequestID) String() string { return string(id) }

// ParseSessionID validates a wire-format session id. Malformed input
// is rejected before it ever reaches the session registry.
func ParseSessionID(s string) (SessionID, error) {
	rest, ok := strings.CutPrefix(s, SessionPrefix+"_")
	if !ok {
		return "", fmt.Errorf("session id %q: missing %q prefix", s, SessionPrefix+"_")
	}
	if _, err := ulid.Parse(rest); err != nil {
		return "", fmt.Errorf("session id %q: %w", s, err)
	}
	return SessionID(s), nil
}
