// Package oplog records operations and their results in memory.
package oplog

import (
	"fmt"
	"sync"
	"time"
)

// Entry is a single recorded operation.
type Entry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Operation  string         `json:"operation"`
	Parameters map[string]any `json:"parameters"`
	Result     any            `json:"result"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// String renders the short "operation: result" form.
func (e Entry) String() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Result)
}

// Log is an append-only, ordered sequence of entries. It is safe for
// concurrent use.
type Log struct {
	mu         sync.Mutex
	entries    []Entry
	maxEntries int
	now        func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithMaxEntries keeps only the newest n entries, dropping the oldest as new
// ones are recorded. n <= 0 means unbounded.
func WithMaxEntries(n int) Option {
	return func(l *Log) { l.maxEntries = n }
}

func New(opts ...Option) *Log {
	l := &Log{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends an entry stamped with the current time. result and
// metadata may be nil.
func (l *Log) Record(operation string, params map[string]any, result any, metadata map[string]any) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := Entry{
		Timestamp:  l.now(),
		Operation:  operation,
		Parameters: params,
		Result:     result,
		Metadata:   metadata,
	}
	if l.maxEntries > 0 && len(l.entries) >= l.maxEntries {
		drop := len(l.entries) - l.maxEntries + 1
		clear(l.entries[:drop])
		l.entries = l.entries[drop:]
	}
	l.entries = append(l.entries, e)
	return e
}

// Entries returns a copy of the entries for operation, or all entries when
// operation is empty.
func (l *Log) Entries(operation string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if operation == "" {
		return append([]Entry(nil), l.entries...)
	}
	var out []Entry
	for _, e := range l.entries {
		if e.Operation == operation {
			out = append(out, e)
		}
	}
	return out
}

// Count is len(Entries(operation)).
func (l *Log) Count(operation string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if operation == "" {
		return len(l.entries)
	}
	n := 0
	for _, e := range l.entries {
		if e.Operation == operation {
			n++
		}
	}
	return n
}

func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
