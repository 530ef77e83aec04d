package bot

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of the loop for the status endpoint.
type Snapshot struct {
	StartedAt    time.Time         `json:"started_at"`
	Iterations   uint64            `json:"iterations"`
	Outcomes     map[string]uint64 `json:"outcomes"`
	LastAccount  string            `json:"last_account,omitempty"`
	LastBalances map[string]string `json:"last_balances,omitempty"`
	LastError    string            `json:"last_error,omitempty"`
	LastErrorAt  *time.Time        `json:"last_error_at,omitempty"`
	PendingLines int               `json:"pending_summary_lines"`
}

// Status tracks loop progress. It is safe for concurrent use.
type Status struct {
	mu   sync.Mutex
	snap Snapshot
}

func newStatus(now time.Time) *Status {
	return &Status{snap: Snapshot{StartedAt: now, Outcomes: map[string]uint64{}}}
}

func (s *Status) recordIteration(outcome string) {
	s.mu.Lock()
	s.snap.Iterations++
	s.snap.Outcomes[outcome]++
	s.mu.Unlock()
}

func (s *Status) recordBalances(account string, balances map[string]string) {
	s.mu.Lock()
	s.snap.LastAccount = account
	s.snap.LastBalances = balances
	s.mu.Unlock()
}

func (s *Status) recordError(err error, at time.Time) {
	s.mu.Lock()
	s.snap.LastError = err.Error()
	s.snap.LastErrorAt = &at
	s.mu.Unlock()
}

// Snapshot returns a copy of the current status.
func (s *Status) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.snap
	out.Outcomes = make(map[string]uint64, len(s.snap.Outcomes))
	for k, v := range s.snap.Outcomes {
		out.Outcomes[k] = v
	}
	if s.snap.LastBalances != nil {
		out.LastBalances = make(map[string]string, len(s.snap.LastBalances))
		for k, v := range s.snap.LastBalances {
			out.LastBalances[k] = v
		}
	}
	return out
}
