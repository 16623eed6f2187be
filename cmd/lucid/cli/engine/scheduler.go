package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/logging"
)

// DefaultAutoRunDelay is used when a caller supplies no usable delay.
const DefaultAutoRunDelay = 750 * time.Millisecond

// schedKey identifies one debounce timer.
type schedKey struct {
	projectID  string
	branchName string
}

type schedEntry struct {
	timer *time.Timer
}

// Scheduler debounces auto-test runs per (project, branch). Re-arming a key
// cancels its previous timer so no key ever has two pending fires; unrelated
// keys never block each other. Timers are in-memory only and do not survive
// a process restart.
type Scheduler struct {
	mu      sync.Mutex
	pending map[schedKey]*schedEntry
	fire    func(projectID, branchName string)

	// after is time.AfterFunc, injectable for tests.
	after func(d time.Duration, f func()) *time.Timer

	// inflight tracks fires that have left the map but not yet completed,
	// so Flush can await them.
	inflight sync.WaitGroup
}

// NewScheduler creates a scheduler that invokes fire when a timer elapses.
func NewScheduler(fire func(projectID, branchName string)) *Scheduler {
	return &Scheduler{
		pending: make(map[schedKey]*schedEntry),
		fire:    fire,
		after:   time.AfterFunc,
	}
}

// Schedule arms (or re-arms) the debounce timer for a key. A blank branch
// name is a no-op; a non-positive delay falls back to DefaultAutoRunDelay.
func (s *Scheduler) Schedule(projectID, branchName string, delay time.Duration) {
	if branchName == "" {
		return
	}
	if delay <= 0 {
		delay = DefaultAutoRunDelay
	}

	key := schedKey{projectID: projectID, branchName: branchName}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.pending[key]; ok {
		if existing.timer.Stop() {
			s.inflight.Done()
		}
	}

	entry := &schedEntry{}
	s.inflight.Add(1)
	entry.timer = s.after(delay, func() {
		defer s.inflight.Done()
		if !s.claim(key, entry) {
			return
		}
		s.fire(key.projectID, key.branchName)
	})
	s.pending[key] = entry
}

// claim removes the entry from the pending map if it is still the active
// timer for its key. A superseded timer that races its cancellation loses.
func (s *Scheduler) claim(key schedKey, entry *schedEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.pending[key]; ok && current == entry {
		delete(s.pending, key)
		return true
	}
	return false
}

// Cancel drops the pending timer for a key, if any.
func (s *Scheduler) Cancel(projectID, branchName string) {
	key := schedKey{projectID: projectID, branchName: branchName}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.pending[key]; ok {
		if entry.timer.Stop() {
			s.inflight.Done()
		}
		delete(s.pending, key)
	}
}

// PendingCount returns the number of armed timers.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush fires every pending timer immediately and waits for all in-flight
// fires to complete. Used at shutdown and in tests.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	keys := make([]schedKey, 0, len(s.pending))
	entries := make([]*schedEntry, 0, len(s.pending))
	for key, entry := range s.pending {
		keys = append(keys, key)
		entries = append(entries, entry)
	}
	s.mu.Unlock()

	for i, key := range keys {
		entry := entries[i]
		stopped := entry.timer.Stop()
		if !s.claim(key, entry) {
			// The timer already fired (or was superseded); nothing to run here.
			if stopped {
				s.inflight.Done()
			}
			continue
		}
		s.fire(key.projectID, key.branchName)
		if stopped {
			s.inflight.Done()
		}
	}

	s.inflight.Wait()
}

// autoRunFire is the scheduler callback: it resolves the branch and runs
// tests exactly as an explicit call would. A vanished branch is logged and
// dropped, never thrown.
func (e *Engine) autoRunFire(projectID, branchName string) {
	ctx := logging.WithComponent(context.Background(), "scheduler")
	ctx = logging.WithProject(ctx, projectID)

	branch, err := e.store.GetBranch(ctx, projectID, branchName)
	if err != nil || branch == nil {
		logging.Warn(ctx, fmt.Sprintf("Auto test run failed: Branch %q not found", branchName))
		return
	}

	if _, err := e.RunTestsForBranch(ctx, projectID, branchName, TestOptions{}); err != nil {
		logging.Warn(ctx, "auto test run failed",
			slog.String("branch", branchName),
			slog.String("error", err.Error()),
		)
	}
}
