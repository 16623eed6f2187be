// Package store defines the persisted rows for branches and test runs and
// the persistence collaborator interface over them.
package store

import "time"

// BranchStatus is the lifecycle status of a working branch. A merged branch
// is represented by row deletion, not by a persisted status value.
type BranchStatus string

const (
	BranchStatusActive        BranchStatus = "active"
	BranchStatusReadyForMerge BranchStatus = "ready-for-merge"
	BranchStatusNeedsFix      BranchStatus = "needs-fix"
)

// StagedSource identifies what recorded a staged change.
type StagedSource string

const (
	SourceEditor StagedSource = "editor"
	SourceAI     StagedSource = "ai"
	SourceGit    StagedSource = "git"
)

// StagedFileEntry is one staged edit on a branch. Entries have no identity
// outside their owning branch; staging the same path again replaces the
// prior entry in place.
type StagedFileEntry struct {
	Path      string       `json:"path"`
	Source    StagedSource `json:"source"`
	Timestamp *time.Time   `json:"timestamp"`
	GitToken  string       `json:"gitToken,omitempty"`
}

// Branch is one row per (project, name).
type Branch struct {
	ID            string            `json:"id"`
	ProjectID     string            `json:"projectId"`
	Name          string            `json:"name"`
	Type          string            `json:"type"`
	Status        BranchStatus      `json:"status"`
	IsCurrent     bool              `json:"isCurrent"`
	AheadCommits  int               `json:"aheadCommits"`
	BehindCommits int               `json:"behindCommits"`
	StagedFiles   []StagedFileEntry `json:"stagedFiles"`
	LastTestRunID string            `json:"lastTestRunId,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// Clone returns a deep copy safe to hand across the engine boundary.
func (b *Branch) Clone() *Branch {
	if b == nil {
		return nil
	}
	out := *b
	out.StagedFiles = make([]StagedFileEntry, len(b.StagedFiles))
	copy(out.StagedFiles, b.StagedFiles)
	return &out
}

// TestRunStatus is the outcome of a test run.
type TestRunStatus string

const (
	TestRunPassed  TestRunStatus = "passed"
	TestRunFailed  TestRunStatus = "failed"
	TestRunSkipped TestRunStatus = "skipped"
)

// Totals aggregates test case counts for a run.
type Totals struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// TestRun is an immutable record of one test execution. Only the completion
// fields are written after creation. BranchID may dangle if the branch is
// later deleted.
type TestRun struct {
	ID          string        `json:"id"`
	ProjectID   string        `json:"projectId"`
	BranchID    string        `json:"branchId,omitempty"`
	Status      TestRunStatus `json:"status"`
	Summary     string        `json:"summary,omitempty"`
	Details     string        `json:"details,omitempty"`
	Totals      Totals        `json:"totals"`
	DurationMs  int64         `json:"durationMs"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}
