package journal

import (
	"fmt"
	"sync"
	"time"
)

// TimestampLayout matches the millisecond ISO-8601 form used in summary lines.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Buffer accumulates summary lines between flushes. It is safe for
// concurrent use.
type Buffer struct {
	mu      sync.Mutex
	entries []string
	now     func() time.Time
}

func NewBuffer() *Buffer {
	return &Buffer{now: time.Now}
}

// Add appends a raw entry verbatim. Entries carry their own line endings.
func (b *Buffer) Add(entry string) {
	b.mu.Lock()
	b.entries = append(b.entries, entry)
	b.mu.Unlock()
}

// Logf appends a "[timestamp] message" line.
func (b *Buffer) Logf(format string, args ...any) {
	ts := b.now().UTC().Format(TimestampLayout)
	b.Add(fmt.Sprintf("[%s] %s\n", ts, fmt.Sprintf(format, args...)))
}

// Len returns the number of pending entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Drain returns all pending entries and clears the buffer in one step.
func (b *Buffer) Drain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.entries
	b.entries = nil
	return out
}

// Restore puts entries back in front of anything added since they were drained.
func (b *Buffer) Restore(entries []string) {
	if len(entries) == 0 {
		return
	}
	b.mu.Lock()
	b.entries = append(append([]string(nil), entries...), b.entries...)
	b.mu.Unlock()
}
