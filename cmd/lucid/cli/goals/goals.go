// Package goals links working branches to agent goals. The goal planner
// itself lives outside the engine; this package only carries the linkage
// contract the merge path needs.
package goals

import (
	"context"
	"sync"
)

// Lifecycle values the merge path advances goals through.
const (
	LifecycleMerged = "merged"
	StatusReady     = "ready"
)

// Goal is an agent goal referencing a working branch.
type Goal struct {
	ID         string `json:"id"`
	ProjectID  string `json:"projectId"`
	BranchName string `json:"branchName"`
	Lifecycle  string `json:"lifecycle"`
	Status     string `json:"status"`
}

// Store exposes the goal linkage operations the engine needs.
type Store interface {
	// FindByBranch returns goals referencing the given branch.
	FindByBranch(ctx context.Context, projectID, branchName string) ([]*Goal, error)

	// Advance moves a goal to the given lifecycle and status.
	Advance(ctx context.Context, goalID, lifecycle, status string) error
}

// MemoryStore is an in-process Store used by the CLI and in tests.
type MemoryStore struct {
	mu    sync.Mutex
	goals map[string]*Goal
}

// NewMemoryStore returns an empty in-memory goal store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{goals: make(map[string]*Goal)}
}

// Put adds or replaces a goal.
func (s *MemoryStore) Put(goal *Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *goal
	s.goals[goal.ID] = &copied
}

// Get returns a copy of the goal with the given id, or nil.
func (s *MemoryStore) Get(id string) *Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	goal, ok := s.goals[id]
	if !ok {
		return nil
	}
	copied := *goal
	return &copied
}

// FindByBranch implements Store.
func (s *MemoryStore) FindByBranch(_ context.Context, projectID, branchName string) ([]*Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Goal
	for _, goal := range s.goals {
		if goal.ProjectID == projectID && goal.BranchName == branchName {
			copied := *goal
			out = append(out, &copied)
		}
	}
	return out, nil
}

// Advance implements Store.
func (s *MemoryStore) Advance(_ context.Context, goalID, lifecycle, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if goal, ok := s.goals[goalID]; ok {
		goal.Lifecycle = lifecycle
		goal.Status = status
	}
	return nil
}
