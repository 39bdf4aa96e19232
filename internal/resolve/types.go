// internal/resolve/types.go
package resolve

import "time"

// Sentinel values distinguishing "evaluated, no result" from "not evaluated".
const (
	// SentinelNoMatch marks a primary-list entry with no counterpart in the
	// reference list.
	SentinelNoMatch = "no match"
	// SentinelUncertain marks an entry the service could not label with
	// confidence.
	SentinelUncertain = "uncertain"
)

// Payload keys naming the pair array in the service's reply.
const (
	KeyEntities = "entities"
	KeyMatches  = "matches"
)

// Row is one result: the original item and its operation-specific derived
// value (canonical form, label, or match).
type Row struct {
	Original string
	Derived  string
}

// Table is the complete result of a successful run: exactly one row per
// input item, grouped by chunk, rows within a chunk in the order the service
// returned them.
type Table struct {
	Operation string
	Columns   [2]string
	Rows      []Row
}

// Example is a caller-supplied few-shot pair steering categorization. It is
// embedded in the first chunk's instruction only.
type Example struct {
	Input string
	Label string
}

// State tracks one chunk through the run.
type State int

const (
	StatePending State = iota
	StateSent
	StateSucceeded
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSent:
		return "sent"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Progress reports one chunk state change to the caller's callback.
type Progress struct {
	Chunk  int // 1-based position in the chunk sequence
	Chunks int
	Items  int
	State  State
}

// Options configures a run. The zero value is usable with a model name; the
// budget falls back to the operation's default and retries are off.
type Options struct {
	Model        string
	Seed         *int
	Budget       int
	MaxRetries   int
	RetryBackoff time.Duration
	OnProgress   func(Progress)
}
